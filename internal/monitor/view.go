package monitor

import (
	"fmt"
	"net/url"
	"strings"

	"videowall/internal/task"
)

// Tone classifies a card for colorization, one per display state.
type Tone int

const (
	ToneMuted   Tone = iota // pending
	ToneActive              // processing
	ToneOK                  // completed
	ToneError               // error
	ToneUnknown             // anything else
)

// Card is the declarative view model for one task on the wall. Building a
// card is pure; the terminal binding decides how to draw it.
type Card struct {
	ID          string
	Title       string
	StatusLabel string
	Tone        Tone
	Detail      string

	// Progress is -1 when no bar should be drawn.
	Progress int

	PreviewURL   string
	PreviewKind  string // "video" or "image"
	GroupLabel   string
	ElapsedLabel string
	ErrorMessage string
}

var statusLabels = map[task.Status]string{
	task.StatusPending:    "等待中",
	task.StatusProcessing: "处理中",
	task.StatusCompleted:  "已完成",
	task.StatusError:      "失败",
	task.StatusUnknown:    "未知",
}

// BuildCards maps the store snapshot to the wall's view model, one card per
// task, preserving order.
func BuildCards(tasks []task.Task) []Card {
	cards := make([]Card, 0, len(tasks))
	for _, t := range tasks {
		cards = append(cards, BuildCard(t))
	}
	return cards
}

// BuildCard derives the complete display state for one task. Total over
// arbitrary input, like normalization.
func BuildCard(t task.Task) Card {
	c := Card{
		ID:       t.ID,
		Title:    t.Content,
		Progress: -1,
	}

	if t.HasBatch() {
		c.GroupLabel = fmt.Sprintf("片段 %d/%d", *t.SegmentIndex+1, t.TotalSegments)
	}

	switch t.Status {
	case task.StatusPending:
		c.StatusLabel = statusLabels[task.StatusPending]
		c.Tone = ToneMuted
		c.Detail = pendingDetail(t)
	case task.StatusProcessing:
		c.StatusLabel = statusLabels[task.StatusProcessing]
		c.Tone = ToneActive
		c.Detail = processingDetail(t)
		c.Progress = t.Progress
	case task.StatusCompleted:
		c.StatusLabel = statusLabels[task.StatusCompleted]
		c.Tone = ToneOK
		c.Detail = t.Message
		if t.OutputPath != "" {
			c.PreviewURL = ResolveOutputURL(t.OutputPath)
			c.PreviewKind = previewKind(t.Type)
		}
		c.ElapsedLabel = totalElapsed(t)
	case task.StatusError:
		c.StatusLabel = statusLabels[task.StatusError]
		c.Tone = ToneError
		c.Detail = t.Message
		c.ErrorMessage = t.ErrorMessage
		c.ElapsedLabel = totalElapsed(t)
	default:
		c.StatusLabel = statusLabels[task.StatusUnknown]
		c.Tone = ToneUnknown
		c.Detail = t.Message
	}

	return c
}

func pendingDetail(t task.Task) string {
	var parts []string
	if t.QueuePosition > 0 {
		parts = append(parts, fmt.Sprintf("队列位置 %d", t.QueuePosition))
	}
	if t.WaitingTime > 0 {
		parts = append(parts, "已等待 "+FormatClock(t.WaitingTime))
	}
	if len(parts) == 0 {
		return t.Message
	}
	return strings.Join(parts, " · ")
}

func processingDetail(t task.Task) string {
	if t.ProcessingTime > 0 {
		return "已处理 " + FormatClock(t.ProcessingTime)
	}
	return t.Message
}

func previewKind(taskType string) string {
	if taskType == "image" {
		return "image"
	}
	return "video"
}

// ResolveOutputURL turns an output reference into a servable URL. A
// reference that already carries a scheme or a leading path separator is
// used as-is; a bare filename becomes a /view query URL.
func ResolveOutputURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "/") {
		return ref
	}
	return fmt.Sprintf("/view?filename=%s&type=output&preview=true", url.QueryEscape(ref))
}

// totalElapsed computes the best-effort wall time label for terminal
// states: reported waiting+processing time when either is present, the
// created→last-updated span otherwise, empty when neither is known.
func totalElapsed(t task.Task) string {
	if t.WaitingTime > 0 || t.ProcessingTime > 0 {
		return FormatDurationCN(t.WaitingTime + t.ProcessingTime)
	}
	if t.CreatedAt > 0 && t.LastUpdated >= t.CreatedAt {
		return FormatDurationCN(t.LastUpdated - t.CreatedAt)
	}
	return ""
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// FormatDurationCN renders seconds as "X分Y秒", dropping the minute part
// below one minute.
func FormatDurationCN(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	if s < 60 {
		return fmt.Sprintf("%d秒", s)
	}
	return fmt.Sprintf("%d分%d秒", s/60, s%60)
}
