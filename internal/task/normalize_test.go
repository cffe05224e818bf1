package task

import (
	"testing"
	"time"
)

func intPtr(n int) *int         { return &n }
func f64Ptr(f float64) *float64 { return &f }

func TestNormalize_ContentFallsBackToPlaceholder(t *testing.T) {
	got := Normalize("t1", RawRecord{Status: "pending"}, time.Unix(1000, 0))
	if got.Content != UnnamedContent {
		t.Fatalf("expected placeholder content, got %q", got.Content)
	}

	got = Normalize("t2", RawRecord{Status: "pending", Prompt: "a city at dusk"}, time.Unix(1000, 0))
	if got.Content != "a city at dusk" {
		t.Fatalf("expected prompt as content, got %q", got.Content)
	}

	got = Normalize("t3", RawRecord{Status: "pending", Content: "demo", Prompt: "ignored"}, time.Unix(1000, 0))
	if got.Content != "demo" {
		t.Fatalf("expected explicit content to win, got %q", got.Content)
	}
}

func TestNormalize_UnknownStatusNeverRejected(t *testing.T) {
	got := Normalize("t1", RawRecord{Status: "weird"}, time.Unix(1000, 0))
	if got.Status != StatusUnknown {
		t.Fatalf("expected unknown status, got %q", got.Status)
	}
	if got.Message != "状态未知" {
		t.Fatalf("expected unknown default message, got %q", got.Message)
	}
}

func TestNormalize_MessageTable(t *testing.T) {
	cases := []struct {
		raw    string
		status Status
		want   string
	}{
		{"Task initialized", StatusPending, "任务已初始化"},
		{"Video generation completed", StatusCompleted, "视频生成完成"},
		{"Waiting in queue, position: 3", StatusPending, "正在等待队列中，位置: 3"},
		{"something the table never saw", StatusPending, "something the table never saw"},
		{"", StatusProcessing, "处理中"},
		{"", StatusError, "发生错误"},
	}
	for _, tc := range cases {
		got := LocalizeMessage(tc.raw, tc.status)
		if got != tc.want {
			t.Errorf("LocalizeMessage(%q, %s) = %q, want %q", tc.raw, tc.status, got, tc.want)
		}
	}
}

func TestNormalize_ProgressDefaults(t *testing.T) {
	got := Normalize("t1", RawRecord{Status: "processing"}, time.Unix(1000, 0))
	if got.Progress != 50 {
		t.Fatalf("processing without progress should default to 50, got %d", got.Progress)
	}

	got = Normalize("t2", RawRecord{Status: "completed"}, time.Unix(1000, 0))
	if got.Progress != 100 {
		t.Fatalf("completed without progress should default to 100, got %d", got.Progress)
	}

	got = Normalize("t3", RawRecord{Status: "processing", Progress: intPtr(250)}, time.Unix(1000, 0))
	if got.Progress != 100 {
		t.Fatalf("progress should clamp to 100, got %d", got.Progress)
	}
}

func TestNormalize_CreatedAtDefaultsToIngestionTime(t *testing.T) {
	now := time.Unix(5000, 0)
	got := Normalize("t1", RawRecord{Status: "pending"}, now)
	if got.CreatedAt != 5000 {
		t.Fatalf("expected ingestion time 5000, got %v", got.CreatedAt)
	}

	got = Normalize("t2", RawRecord{Status: "pending", CreatedAt: f64Ptr(4711.5)}, now)
	if got.CreatedAt != 4711.5 {
		t.Fatalf("expected created_at 4711.5, got %v", got.CreatedAt)
	}
}

func TestNormalize_OutputPathCoalescing(t *testing.T) {
	got := Normalize("t1", RawRecord{Status: "completed", VideoURL: "/static/output/a.mp4"}, time.Unix(0, 0))
	if got.OutputPath != "/static/output/a.mp4" {
		t.Fatalf("expected video_url as output path, got %q", got.OutputPath)
	}

	got = Normalize("t2", RawRecord{Status: "completed", OutputPath: "a.mp4", PreviewURL: "/x"}, time.Unix(0, 0))
	if got.OutputPath != "a.mp4" {
		t.Fatalf("expected output_path to win, got %q", got.OutputPath)
	}
}

func TestNormalize_ErrorMessageFallsBackToMessage(t *testing.T) {
	got := Normalize("t1", RawRecord{Status: "error", Message: "Task failed in ComfyUI"}, time.Unix(0, 0))
	if got.ErrorMessage != "任务在ComfyUI中失败" {
		t.Fatalf("expected localized message as error message, got %q", got.ErrorMessage)
	}

	got = Normalize("t2", RawRecord{Status: "error", Error: "boom"}, time.Unix(0, 0))
	if got.ErrorMessage != "boom" {
		t.Fatalf("expected explicit error to win, got %q", got.ErrorMessage)
	}
}

func TestHasBatch_RequiresAllThreeFields(t *testing.T) {
	tsk := Task{BatchID: "b1", SegmentIndex: intPtr(0), TotalSegments: 3}
	if !tsk.HasBatch() {
		t.Fatal("expected batch with all three fields")
	}
	tsk.SegmentIndex = nil
	if tsk.HasBatch() {
		t.Fatal("missing segment index should disable grouping")
	}
}
