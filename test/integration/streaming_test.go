package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rhuss/postsmith/pkg/api"
)

func streamRequest(t *testing.T, topic string) *http.Response {
	t.Helper()
	data, _ := json.Marshal(api.GenerateRequest{Topic: topic, Stream: true})
	resp, err := http.Post(testEnv.BaseURL()+"/v1/posts", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST /v1/posts: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		resp.Body.Close()
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}
	return resp
}

func TestStreamingProgress(t *testing.T) {
	resp := streamRequest(t, "green energy")
	defer resp.Body.Close()

	events := readAllEvents(t, resp.Body)

	var types []string
	var fractions []float64
	var descriptions []string
	for _, ev := range events {
		if ev.Data == "[DONE]" {
			types = append(types, "[DONE]")
			continue
		}
		se := decodeEvent(t, ev)
		types = append(types, string(se.Type))
		if se.Type == api.EventPostProgress {
			fractions = append(fractions, se.Progress)
			descriptions = append(descriptions, se.Description)
		}
	}

	want := []string{"post.created", "post.progress", "post.progress", "post.progress", "post.completed", "[DONE]"}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}

	wantFractions := []float64{0.1, 0.4, 0.9}
	wantDescriptions := []string{"Starting search...", "Analyzing search results...", "Finalizing post..."}
	for i := range wantFractions {
		if fractions[i] != wantFractions[i] || descriptions[i] != wantDescriptions[i] {
			t.Errorf("progress %d = (%v, %q), want (%v, %q)",
				i, fractions[i], descriptions[i], wantFractions[i], wantDescriptions[i])
		}
	}

	created := decodeEvent(t, events[0])
	completed := decodeEvent(t, events[4])
	if created.Post == nil || completed.Post == nil || created.Post.ID != completed.Post.ID {
		t.Error("created and completed events do not describe the same post")
	}
	if completed.State != api.StateDone {
		t.Errorf("completed state = %q, want done", completed.State)
	}
	for i := 1; i < len(events)-1; i++ {
		prev, cur := decodeEvent(t, events[i-1]), decodeEvent(t, events[i])
		if cur.SequenceNumber <= prev.SequenceNumber {
			t.Errorf("sequence numbers not increasing at event %d", i)
		}
	}
}

func TestStreamingFailure(t *testing.T) {
	resp := streamRequest(t, "noresults please")
	defer resp.Body.Close()

	events := readAllEvents(t, resp.Body)
	if len(events) < 2 {
		t.Fatalf("got %d events, want at least 2", len(events))
	}
	last := events[len(events)-1]
	if last.Data == "[DONE]" {
		last = events[len(events)-2]
	}
	se := decodeEvent(t, last)
	if se.Type != api.EventPostFailed {
		t.Fatalf("terminal event = %q, want post.failed", se.Type)
	}
	if se.Post == nil || se.Post.Error == nil || se.Post.Error.Type != api.ErrorTypeNoResults {
		t.Errorf("post = %+v, want no_results error", se.Post)
	}
	if se.State != api.StateFailed {
		t.Errorf("state = %q, want failed", se.State)
	}
}

func TestStreamingCancel(t *testing.T) {
	resp := streamRequest(t, "slowllm topic")
	defer resp.Body.Close()

	sr := newSSEReader(resp.Body)
	ev, ok := sr.Next()
	if !ok {
		t.Fatal("stream ended before post.created")
	}
	created := decodeEvent(t, ev)
	if created.Type != api.EventPostCreated || created.Post == nil {
		t.Fatalf("first event = %q, want post.created", created.Type)
	}

	// Give the run time to reach the slow completion call.
	time.Sleep(100 * time.Millisecond)

	del := deleteURL(t, testEnv.BaseURL()+"/v1/posts/"+created.Post.ID)
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel: status %d: %s", del.StatusCode, readBody(t, del))
	}
	del.Body.Close()

	var terminal api.StreamEvent
	for {
		ev, ok := sr.Next()
		if !ok {
			break
		}
		if ev.Data == "[DONE]" {
			continue
		}
		terminal = decodeEvent(t, ev)
	}
	if terminal.Type != api.EventPostCancelled {
		t.Errorf("terminal event = %q, want post.cancelled", terminal.Type)
	}
}
