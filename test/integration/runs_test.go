package integration

import (
	"net/http"
	"testing"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/transport"
)

func TestRunHistory(t *testing.T) {
	done := generate(t, "run history success")
	failed := generate(t, "run history noresults")

	var run api.Run
	resp := getURL(t, testEnv.BaseURL()+"/v1/runs/"+done.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get run: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	decodeJSON(t, resp, &run)
	if run.State != api.StateDone || run.Topic != "run history success" {
		t.Errorf("run = %+v", run)
	}
	if run.ResultCount != 7 {
		t.Errorf("result_count = %d, want 7", run.ResultCount)
	}

	resp = getURL(t, testEnv.BaseURL()+"/v1/runs/"+failed.ID)
	decodeJSON(t, resp, &run)
	if run.State != api.StateFailed || run.ErrorType != api.ErrorTypeNoResults {
		t.Errorf("failed run = %+v", run)
	}

	var list transport.RunList
	resp = getURL(t, testEnv.BaseURL()+"/v1/runs?state=failed&limit=100")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list runs: status %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &list)
	found := false
	for _, r := range list.Data {
		if r.State != api.StateFailed {
			t.Errorf("state filter leaked run %s in state %s", r.ID, r.State)
		}
		if r.ID == failed.ID {
			found = true
		}
	}
	if !found {
		t.Error("failed run missing from filtered list")
	}
}

func TestRejectedRunsAreNotRecorded(t *testing.T) {
	post := generate(t, "  ")

	resp := getURL(t, testEnv.BaseURL()+"/v1/runs/"+post.ID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for a rejected run, got %d", resp.StatusCode)
	}
}

func TestDeleteRun(t *testing.T) {
	post := generate(t, "delete me")

	resp := deleteURL(t, testEnv.BaseURL()+"/v1/runs/"+post.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	resp = getURL(t, testEnv.BaseURL()+"/v1/runs/"+post.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("after delete: status %d, want 404", resp.StatusCode)
	}

	resp = deleteURL(t, testEnv.BaseURL()+"/v1/runs/"+post.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", resp.StatusCode)
	}
}
