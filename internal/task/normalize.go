package task

import (
	"strings"
	"time"
)

// Placeholder content when a record carries neither content nor prompt.
const UnnamedContent = "未命名任务"

// The backend writes canonical English status messages; the monitor shows
// them localized. Unmapped messages pass through unchanged.
var messageTable = map[string]string{
	"Task initialized":               "任务已初始化",
	"Task is processing":             "任务正在处理中",
	"Video generation completed":     "视频生成完成",
	"Image generation completed":     "图片生成完成",
	"Task completed":                 "任务已完成",
	"Task completed without outputs": "任务已完成但未找到输出",
	"Task failed in ComfyUI":         "任务在ComfyUI中失败",
	"Task not found in history":      "在历史记录中未找到任务",
}

// The one parametrized message: the queue position is carried over.
const (
	queuePositionPrefix    = "Waiting in queue, position: "
	queuePositionLocalized = "正在等待队列中，位置: "
)

var statusDefaultMessages = map[Status]string{
	StatusPending:    "等待中",
	StatusProcessing: "处理中",
	StatusCompleted:  "已完成",
	StatusError:      "发生错误",
	StatusUnknown:    "状态未知",
}

// LocalizeMessage resolves a raw backend message: exact table match first,
// then the queue-position prefix rewrite, then pass-through. An empty
// message falls back to a status-derived default.
func LocalizeMessage(msg string, status Status) string {
	if msg == "" {
		return statusDefaultMessages[status]
	}
	if localized, ok := messageTable[msg]; ok {
		return localized
	}
	if rest, ok := strings.CutPrefix(msg, queuePositionPrefix); ok {
		return queuePositionLocalized + rest
	}
	return msg
}

// Normalize maps a raw server record onto the canonical shape. It is total:
// any missing or malformed field resolves to a default, never an error.
// now supplies the ingestion timestamp used when created_at is absent.
func Normalize(id string, raw RawRecord, now time.Time) Task {
	status := ParseStatus(raw.Status)

	t := Task{
		ID:      id,
		Status:  status,
		Message: LocalizeMessage(raw.Message, status),
		Content: coalesce(raw.Content, raw.Prompt, UnnamedContent),
		Model:   raw.Model,
		Type:    raw.Type,

		OutputPath: coalesce(raw.OutputPath, raw.VideoURL, raw.PreviewURL),

		BatchID:      raw.BatchID,
		SegmentIndex: raw.SegmentIndex,

		ErrorMessage: raw.Error,
	}

	t.Progress = normalizeProgress(raw.Progress, status)

	if raw.CreatedAt != nil {
		t.CreatedAt = *raw.CreatedAt
	} else {
		t.CreatedAt = float64(now.Unix())
	}
	if raw.LastUpdated != nil {
		t.LastUpdated = *raw.LastUpdated
	}
	if raw.QueuePosition != nil {
		t.QueuePosition = *raw.QueuePosition
	}
	if raw.WaitingTime != nil {
		t.WaitingTime = *raw.WaitingTime
	}
	if raw.ProcessingTime != nil {
		t.ProcessingTime = *raw.ProcessingTime
	}
	if raw.TotalSegments != nil {
		t.TotalSegments = *raw.TotalSegments
	}

	if status == StatusError && t.ErrorMessage == "" {
		t.ErrorMessage = t.Message
	}

	return t
}

func normalizeProgress(p *int, status Status) int {
	if p != nil {
		if *p < 0 {
			return 0
		}
		if *p > 100 {
			return 100
		}
		return *p
	}
	switch status {
	case StatusProcessing:
		// mid-range placeholder matching the backend's reported default
		return 50
	case StatusCompleted:
		return 100
	default:
		return 0
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
