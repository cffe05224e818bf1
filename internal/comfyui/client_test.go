package comfyui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestQueuePrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/prompt" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"prompt_id":"p-1","number":3}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	id, err := c.QueuePrompt(context.Background(), map[string]any{"1": map[string]any{}}, "client-1")
	if err != nil {
		t.Fatalf("queue prompt: %v", err)
	}
	if id != "p-1" {
		t.Fatalf("prompt id = %q", id)
	}
}

func TestQueueParsesTupleEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"queue_running": [[0, "run-1", {"6": {"class_type": "CLIPTextEncode"}}]],
			"queue_pending": [[1, "pend-1", {}], [2, "pend-2", {}]]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	state, err := c.Queue(context.Background())
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(state.Running) != 1 || state.Running[0].PromptID != "run-1" {
		t.Fatalf("running = %+v", state.Running)
	}
	if state.Running[0].Workflow == nil {
		t.Fatal("running workflow not parsed")
	}
	if len(state.Pending) != 2 || state.Pending[0].PromptID != "pend-1" || state.Pending[1].PromptID != "pend-2" {
		t.Fatalf("pending = %+v", state.Pending)
	}
}

func TestHistoryMissingPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, ok, err := c.History(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if ok {
		t.Fatal("expected missing entry")
	}
}

func TestHistoryOutputFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/history/p-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"p-1": {
			"prompt": [0, "p-1", {"6": {"inputs": {"text": "一只猫"}}}],
			"outputs": {
				"9": {"gifs": [{"filename": "out.mp4", "type": "output"}]},
				"10": {"images": [{"filename": "frame.png"}, {"filename": "anim.webp"}], "animated": [false, true]}
			},
			"status": {"status_str": "success", "completed": true}
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	entry, ok, err := c.History(context.Background(), "p-1")
	if err != nil || !ok {
		t.Fatalf("history: ok=%v err=%v", ok, err)
	}
	if !entry.Status.Completed {
		t.Fatal("status not completed")
	}

	videos, images := entry.OutputFiles()
	if len(videos) != 2 {
		t.Fatalf("videos = %+v", videos)
	}
	if len(images) != 1 || images[0].Filename != "frame.png" {
		t.Fatalf("images = %+v", images)
	}
	if entry.Workflow() == nil {
		t.Fatal("workflow not extracted from prompt tuple")
	}
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "out.mp4"), []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewClient(srv.URL, "")
	local, err := c.Download(context.Background(), HistoryFile{Filename: "out.mp4", Type: "output"}, dir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no HTTP call for existing file, got %d", calls)
	}
	if local != filepath.Join(dir, "out.mp4") {
		t.Fatalf("local = %q", local)
	}
}

func TestDownloadWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filename"); got != "clip.mp4" {
			t.Errorf("filename = %q", got)
		}
		w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(srv.URL, "")
	local, err := c.Download(context.Background(), HistoryFile{Filename: "clip.mp4"}, dir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestTestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.TestConnection(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
