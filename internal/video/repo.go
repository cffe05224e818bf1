package video

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSubmission(ctx context.Context, s *Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetByPromptID(ctx context.Context, promptID string) (*Submission, error) {
	var s Submission
	if err := r.db.WithContext(ctx).
		Where("prompt_id = ?", promptID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByBatch returns a batch's submissions in segment order.
func (r *Repo) ListByBatch(ctx context.Context, batchID string) ([]Submission, error) {
	var subs []Submission
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("segment_index ASC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *Repo) MarkCompleted(ctx context.Context, promptID, outputPath string) error {
	return r.updateStatus(ctx, promptID, map[string]any{
		"status":      "completed",
		"output_path": outputPath,
	})
}

func (r *Repo) MarkFailed(ctx context.Context, promptID, errMsg string) error {
	return r.updateStatus(ctx, promptID, map[string]any{
		"status":        "error",
		"error_message": errMsg,
	})
}

func (r *Repo) DeleteByPromptID(ctx context.Context, promptID string) error {
	res := r.db.WithContext(ctx).
		Where("prompt_id = ?", promptID).
		Delete(&Submission{})
	return res.Error
}

func (r *Repo) updateStatus(ctx context.Context, promptID string, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&Submission{}).
		Where("prompt_id = ?", promptID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
