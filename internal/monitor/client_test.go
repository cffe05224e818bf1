package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_FetchTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/task-status" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"t1":{"status":"processing","prompt":"a beach","progress":42}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.FetchTasks(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	rec, ok := got["t1"]
	if !ok {
		t.Fatal("expected t1 in task map")
	}
	if rec.Status != "processing" || rec.Prompt != "a beach" || rec.Progress == nil || *rec.Progress != 42 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestClient_FetchTasksHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchTasks(context.Background()); err == nil {
		t.Fatal("expected error on non-success status")
	}
}

func TestClient_SubmitVideoBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error":"缺少必要参数"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SubmitVideo(context.Background(), SubmitVideoRequest{})
	if err == nil || err.Error() != "缺少必要参数" {
		t.Fatalf("expected backend error message, got %v", err)
	}
}

func TestClient_DeleteTask(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.DeleteTask(context.Background(), "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/task/abc" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestClient_GeneratePrompts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"prompts":["p1","p2"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	prompts, err := c.GeneratePrompts(context.Background(), "海边日落", "nature", "default", 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(prompts) != 2 || prompts[0] != "p1" {
		t.Fatalf("unexpected prompts %v", prompts)
	}
}
