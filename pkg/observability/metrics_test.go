package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry and visible once observed.
func TestMetricsRegistered(t *testing.T) {
	RequestsTotal.WithLabelValues("GET", "2xx").Inc()
	RequestDuration.WithLabelValues("GET").Observe(0.1)
	PipelineRunsTotal.WithLabelValues("done").Inc()
	StageDuration.WithLabelValues("searching").Observe(0.1)
	ObserveProviderCall("serpapi", "ok", 100*time.Millisecond)
	ProviderTokensTotal.WithLabelValues("openai-compatible", "input").Add(10)
	SearchResults.WithLabelValues("serpapi").Observe(7)
	RateLimitRejectedTotal.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"postsmith_requests_total":               false,
		"postsmith_request_duration_seconds":     false,
		"postsmith_streaming_connections_active": false,
		"postsmith_pipeline_runs_total":          false,
		"postsmith_stage_duration_seconds":       false,
		"postsmith_provider_requests_total":      false,
		"postsmith_provider_latency_seconds":     false,
		"postsmith_provider_tokens_total":        false,
		"postsmith_search_results":               false,
		"postsmith_ratelimit_rejected_total":     false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

// TestObserveProviderCall verifies both the counter and the latency
// histogram move for one call.
func TestObserveProviderCall(t *testing.T) {
	beforeCount := counterValue(t, ProviderRequestsTotal, "groq-test", "upstream_error")
	beforeLatency := histogramCount(t, ProviderLatency, "groq-test")

	ObserveProviderCall("groq-test", "upstream_error", 2*time.Second)

	if d := counterValue(t, ProviderRequestsTotal, "groq-test", "upstream_error") - beforeCount; d != 1 {
		t.Errorf("provider request delta = %f, want 1", d)
	}
	if d := histogramCount(t, ProviderLatency, "groq-test") - beforeLatency; d != 1 {
		t.Errorf("latency sample delta = %d, want 1", d)
	}
}

func TestMetricsMiddlewareStatusClass(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		handler http.HandlerFunc
		want    string
	}{
		{
			name:    "explicit 200",
			method:  "GET",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
			want:    "2xx",
		},
		{
			name:    "body without header",
			method:  "POST",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{}")) },
			want:    "2xx",
		},
		{
			name:    "nothing written",
			method:  "PUT",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			want:    "2xx",
		},
		{
			name:    "not found",
			method:  "DELETE",
			handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			want:    "4xx",
		},
		{
			name:   "first header wins",
			method: "PATCH",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.WriteHeader(http.StatusOK)
			},
			want: "5xx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counterValue(t, RequestsTotal, tt.method, tt.want)
			samples := histogramCount(t, RequestDuration, tt.method)

			MetricsMiddleware(tt.handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, "/v1/posts", nil))

			if d := counterValue(t, RequestsTotal, tt.method, tt.want) - before; d != 1 {
				t.Errorf("%s %s delta = %f, want 1", tt.method, tt.want, d)
			}
			if d := histogramCount(t, RequestDuration, tt.method) - samples; d != 1 {
				t.Errorf("duration samples delta = %d, want 1", d)
			}
		})
	}
}

func TestMetricsMiddlewareFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
	})).ServeHTTP(rec, httptest.NewRequest("POST", "/v1/posts", nil))

	if !rec.Flushed {
		t.Error("flush did not reach the underlying writer")
	}
}

// TestStreamingGauge verifies the gauge returns to its baseline after a
// matched increment and decrement.
func TestStreamingGauge(t *testing.T) {
	baseline := gaugeValue(t, StreamingConnections)
	StreamingConnections.Inc()
	if got := gaugeValue(t, StreamingConnections); got != baseline+1 {
		t.Errorf("gauge = %f, want %f", got, baseline+1)
	}
	StreamingConnections.Dec()
	if got := gaugeValue(t, StreamingConnections); got != baseline {
		t.Errorf("gauge = %f, want %f", got, baseline)
	}
}

// counterValue reads the current value of a CounterVec for the given labels.
func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

// histogramCount reads the observation count from a HistogramVec.
func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting histogram metric: %v", err)
	}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

// gaugeValue reads the current value of a Gauge.
func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("writing gauge metric: %v", err)
	}
	return m.GetGauge().GetValue()
}
