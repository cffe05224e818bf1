// Package task defines the canonical task record shared by the dashboard
// API, the queue updater and the monitor client, plus the normalization
// from the loosely-shaped records different producers write.
package task

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"

	// StatusUnknown is a display pseudo-state, never written by the backend.
	StatusUnknown Status = "unknown"
)

// ParseStatus maps a raw status string to the enum. Anything unrecognized
// becomes StatusUnknown rather than an error.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Task is the canonical, post-normalization record. Timestamps and
// durations are float seconds, matching the wire format.
type Task struct {
	ID       string
	Status   Status
	Message  string
	Progress int
	Content  string
	Model    string

	OutputPath string
	Type       string // "video" or "image"; empty renders as video

	CreatedAt   float64
	LastUpdated float64

	QueuePosition  int
	WaitingTime    float64
	ProcessingTime float64

	BatchID       string
	SegmentIndex  *int
	TotalSegments int

	ErrorMessage string
}

// HasBatch reports whether all three grouping fields are present; the
// grouping badge renders only in that case.
func (t Task) HasBatch() bool {
	return t.BatchID != "" && t.SegmentIndex != nil && t.TotalSegments > 0
}

// RawRecord is the union of task fields the producers write. The backend
// stores these as JSON in the redis status hashes; the monitor receives
// them from /api/task-status. Every field is optional.
type RawRecord struct {
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
	Progress *int   `json:"progress,omitempty"`

	Content string `json:"content,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
	Model   string `json:"model,omitempty"`

	OutputPath string `json:"output_path,omitempty"`
	VideoURL   string `json:"video_url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	Type       string `json:"type,omitempty"`

	Error string `json:"error,omitempty"`

	CreatedAt   *float64 `json:"created_at,omitempty"`
	LastUpdated *float64 `json:"last_updated,omitempty"`
	CompletedAt *float64 `json:"completed_at,omitempty"`

	QueuePosition  *int     `json:"queue_position,omitempty"`
	WaitingTime    *float64 `json:"waiting_time,omitempty"`
	ProcessingTime *float64 `json:"processing_time,omitempty"`

	// bookkeeping stamps written by the queue updater
	WaitingStarted    *float64 `json:"waiting_started,omitempty"`
	ProcessingStarted *float64 `json:"processing_started,omitempty"`

	BatchID       string `json:"batch_id,omitempty"`
	SegmentIndex  *int   `json:"segment_index,omitempty"`
	TotalSegments *int   `json:"total_segments,omitempty"`

	ClientID string `json:"client_id,omitempty"`
	Seed     *int64 `json:"seed,omitempty"`
	IsTest   bool   `json:"is_test,omitempty"`
}
