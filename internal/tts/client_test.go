package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatRate(t *testing.T) {
	cases := []struct {
		speed float64
		want  string
	}{
		{1.0, "+0%"},
		{1.5, "+50%"},
		{0.8, "-19%"},
	}
	for _, c := range cases {
		if got := FormatRate(c.speed); got != c.want {
			t.Errorf("FormatRate(%v) = %q, want %q", c.speed, got, c.want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	if got := FormatVolume(100); got != "+0%" {
		t.Errorf("neutral volume = %q", got)
	}
	if got := FormatVolume(80); got != "-20%" {
		t.Errorf("reduced volume = %q", got)
	}
}

func TestTestVoiceWritesAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesizeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != TestText {
			t.Errorf("text = %q", req.Text)
		}
		if req.Voice != "zh-CN-XiaoxiaoNeural" || req.Rate != "+20%" {
			t.Errorf("voice/rate = %q/%q", req.Voice, req.Rate)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(srv.URL, dir)

	url, err := c.TestVoice(context.Background(), "zh-CN-XiaoxiaoNeural", 1.2, 100)
	if err != nil {
		t.Fatalf("test voice: %v", err)
	}
	if url != "/static/output/test_audio.mp3" {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "test_audio.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mp3-bytes" {
		t.Fatalf("audio = %q", data)
	}
}

func TestSynthesizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, t.TempDir())
	if _, err := c.TestVoice(context.Background(), "nope", 1, 100); err == nil {
		t.Fatal("expected error")
	}
}
