package observability

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsMiddleware counts and times every HTTP request by method and
// status class. Open streams are tracked separately by the SSE writer.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &codeRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		RequestsTotal.WithLabelValues(r.Method, statusClass(rec.status())).Inc()
		RequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// statusClass turns 404 into "4xx".
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// codeRecorder remembers the first status code written. A handler that
// writes a body without calling WriteHeader answered 200.
type codeRecorder struct {
	http.ResponseWriter
	code int
}

func (r *codeRecorder) status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}

func (r *codeRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *codeRecorder) Write(b []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps SSE responses streaming through the wrapper.
func (r *codeRecorder) Flush() {
	http.NewResponseController(r.ResponseWriter).Flush()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (r *codeRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
