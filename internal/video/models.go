package video

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Submission is the durable record of a generation request. Live progress
// stays in redis; this table is the audit trail.
type Submission struct {
	ID            string    `gorm:"type:varchar(26);primaryKey" json:"id"`
	PromptID      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"prompt_id"`
	Prompt        string    `gorm:"type:text;not null" json:"prompt"`
	Content       string    `gorm:"type:text" json:"content"`
	Model         string    `gorm:"type:varchar(128)" json:"model"`
	BatchID       string    `gorm:"type:varchar(64);index" json:"batch_id"`
	SegmentIndex  int       `gorm:"not null;default:0" json:"segment_index"`
	TotalSegments int       `gorm:"not null;default:0" json:"total_segments"`
	Status        string    `gorm:"type:varchar(16);index;not null" json:"status"`
	OutputPath    string    `gorm:"type:text" json:"output_path"`
	ErrorMessage  string    `gorm:"type:text" json:"error_message"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Submission) TableName() string { return "video_submissions" }

func NewSubmissionID() string { return ulid.Make().String() }
