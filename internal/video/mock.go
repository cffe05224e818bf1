package video

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"videowall/internal/store/redisstore"
	"videowall/internal/task"
)

const (
	mockPendingFor    = 10 * time.Second
	mockProcessingFor = 30 * time.Second
	mockOutput        = "/static/output/mock_preview.mp4"
)

// MockGenerator fabricates tasks that walk through the full lifecycle on a
// timer, for exercising the dashboard without a ComfyUI server.
type MockGenerator struct {
	store *redisstore.Store
	now   func() time.Time
}

func NewMockGenerator(store *redisstore.Store) *MockGenerator {
	return &MockGenerator{store: store, now: time.Now}
}

// Submit registers a simulated task and returns its prompt id.
func (m *MockGenerator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	promptID := "test-" + uuid.NewString()
	now := float64(m.now().Unix())

	model := req.Model
	if model == "" {
		model = "default"
	}
	rec := task.RawRecord{
		Status:       string(task.StatusPending),
		Message:      "Task initialized",
		Prompt:       req.Prompt,
		Content:      req.Content,
		Model:        model,
		CreatedAt:    &now,
		LastUpdated:  &now,
		BatchID:      req.BatchID,
		SegmentIndex: req.SegmentIndex,
		IsTest:       true,
	}
	if req.TotalSegments > 0 {
		rec.TotalSegments = &req.TotalSegments
	}

	if err := m.store.PutActive(ctx, promptID, rec); err != nil {
		return "", err
	}
	if err := m.store.AddPending(ctx, promptID); err != nil {
		log.Printf("add pending %s: %v", promptID, err)
	}
	return promptID, nil
}

// Advance moves every simulated task along its scripted lifecycle based on
// elapsed time since creation.
func (m *MockGenerator) Advance(ctx context.Context) error {
	records, err := m.store.ActiveTasks(ctx)
	if err != nil {
		return err
	}

	now := float64(m.now().Unix())
	for id, rec := range records {
		if !rec.IsTest || task.ParseStatus(rec.Status).Terminal() {
			continue
		}
		created := now
		if rec.CreatedAt != nil {
			created = *rec.CreatedAt
		}
		next := MockState(now-created, rec)
		next.LastUpdated = &now

		if task.ParseStatus(next.Status).Terminal() {
			next.CompletedAt = &now
			if err := m.store.Complete(ctx, id, next); err != nil {
				log.Printf("complete mock task %s: %v", id, err)
			}
			continue
		}
		if err := m.store.PutActive(ctx, id, next); err != nil {
			log.Printf("put mock task %s: %v", id, err)
		}
	}
	return nil
}

// MockState computes the scripted record for a task elapsed seconds into
// its life: 10s pending, 30s processing, then completed.
func MockState(elapsed float64, rec task.RawRecord) task.RawRecord {
	switch {
	case elapsed < mockPendingFor.Seconds():
		pos := 1
		rec.Status = string(task.StatusPending)
		rec.Message = fmt.Sprintf("Waiting in queue, position: %d", pos)
		rec.QueuePosition = &pos
	case elapsed < (mockPendingFor + mockProcessingFor).Seconds():
		progress := int((elapsed - mockPendingFor.Seconds()) / mockProcessingFor.Seconds() * 100)
		if progress > 99 {
			progress = 99
		}
		rec.Status = string(task.StatusProcessing)
		rec.Message = "Task is processing"
		rec.Progress = &progress
		rec.QueuePosition = nil
	default:
		progress := 100
		processing := mockProcessingFor.Seconds()
		waiting := mockPendingFor.Seconds()
		rec.Status = string(task.StatusCompleted)
		rec.Message = "Video generation completed"
		rec.Progress = &progress
		rec.QueuePosition = nil
		rec.OutputPath = mockOutput
		rec.Type = "video"
		rec.ProcessingTime = &processing
		rec.WaitingTime = &waiting
	}
	return rec
}
