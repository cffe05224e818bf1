package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *TaskCache {
	t.Helper()
	c := New(filepath.Join(t.TempDir(), "tasks.json"))
	c.now = func() time.Time { return time.Unix(1000, 0) }
	return c
}

func TestPutMergesNonZeroFields(t *testing.T) {
	c := newTestCache(t)
	c.Put("a", Entry{Status: "pending", Content: "城市夜景", Progress: 0})
	c.Put("a", Entry{Status: "processing"})

	e, ok := c.Get("a")
	if !ok {
		t.Fatal("entry missing")
	}
	if e.Status != "processing" {
		t.Fatalf("status = %q", e.Status)
	}
	if e.Content != "城市夜景" {
		t.Fatalf("content overwritten: %q", e.Content)
	}
}

func TestPutStampsTimestamps(t *testing.T) {
	c := newTestCache(t)
	c.Put("a", Entry{Status: "pending"})

	e, _ := c.Get("a")
	if e.LastChecked != 1000 || e.LastSeen != 1000 {
		t.Fatalf("stamps = %v / %v", e.LastChecked, e.LastSeen)
	}

	c.now = func() time.Time { return time.Unix(2000, 0) }
	c.Put("a", Entry{Message: "处理中"})
	e, _ = c.Get("a")
	if e.LastChecked != 2000 {
		t.Fatalf("lastChecked not advanced: %v", e.LastChecked)
	}
}

func TestGetAllPreservesInsertionOrder(t *testing.T) {
	c := newTestCache(t)
	c.Put("b", Entry{Status: "pending"})
	c.Put("a", Entry{Status: "pending"})
	c.Put("c", Entry{Status: "pending"})
	c.Put("a", Entry{Status: "completed"})

	records := c.GetAll()
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	wantOrder := []string{"b", "a", "c"}
	for i, id := range wantOrder {
		if records[i].ID != id {
			t.Fatalf("order[%d] = %q, want %q", i, records[i].ID, id)
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	c := New(path)
	c.now = func() time.Time { return time.Unix(1000, 0) }
	c.Put("b", Entry{Status: "completed", OutputPath: "/view?filename=b.mp4"})
	c.Put("a", Entry{Status: "pending"})
	if err := c.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := New(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	records := loaded.GetAll()
	if len(records) != 2 || records[0].ID != "b" || records[1].ID != "a" {
		t.Fatalf("unexpected records after load: %+v", records)
	}
	if records[0].Entry.OutputPath != "/view?filename=b.mp4" {
		t.Fatalf("outputPath = %q", records[0].Entry.OutputPath)
	}
}

func TestLoadMalformedStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("load should tolerate malformed data, got %v", err)
	}
	if got := len(c.GetAll()); got != 0 {
		t.Fatalf("expected empty cache, got %d records", got)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent.json"))
	if err := c.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(c.GetAll()); got != 0 {
		t.Fatalf("expected empty cache, got %d records", got)
	}
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	c := newTestCache(t)
	c.Put("old", Entry{Status: "completed"})

	c.now = func() time.Time { return time.Unix(1000, 0).Add(25 * time.Hour) }
	c.Put("fresh", Entry{Status: "pending"})

	if removed := c.Sweep(); removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if _, ok := c.Get("old"); ok {
		t.Fatal("stale entry survived sweep")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry evicted")
	}
}

func TestRemove(t *testing.T) {
	c := newTestCache(t)
	c.Put("a", Entry{Status: "pending"})
	c.Put("b", Entry{Status: "pending"})
	c.Remove("a")
	c.Remove("missing")

	records := c.GetAll()
	if len(records) != 1 || records[0].ID != "b" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := Settings{
		Voice:    map[string]any{"speaker": "zh-CN-XiaoxiaoNeural", "speed": float64(10)},
		Subtitle: map[string]any{"enabled": true},
	}
	if err := SaveSettings(path, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := LoadSettings(path)
	if got.Voice["speaker"] != "zh-CN-XiaoxiaoNeural" {
		t.Fatalf("voice = %+v", got.Voice)
	}
	if got.Subtitle["enabled"] != true {
		t.Fatalf("subtitle = %+v", got.Subtitle)
	}
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("???"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := LoadSettings(path)
	if got.Voice != nil || got.Subtitle != nil {
		t.Fatalf("expected zero settings, got %+v", got)
	}
}
