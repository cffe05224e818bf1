package video

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"videowall/internal/comfyui"
	"videowall/internal/store/redisstore"
	"videowall/internal/task"
)

const (
	erroredParkAfter = time.Hour
	completedMaxAge  = 7 * 24 * time.Hour
)

// Updater reconciles redis task state against the ComfyUI queue and
// history on a fixed interval.
type Updater struct {
	comfy     *comfyui.Client
	store     *redisstore.Store
	repo      *Repo
	outputDir string
	now       func() time.Time
}

func NewUpdater(comfy *comfyui.Client, store *redisstore.Store, repo *Repo, outputDir string) *Updater {
	return &Updater{
		comfy:     comfy,
		store:     store,
		repo:      repo,
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Run updates on the given interval until ctx is cancelled. Cleanup runs on
// the same cadence after each update.
func (u *Updater) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 20 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := u.UpdateOnce(ctx); err != nil {
			log.Printf("queue update failed: %v", err)
		}
		if err := u.CleanupOnce(ctx); err != nil {
			log.Printf("task cleanup failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// UpdateOnce applies one queue snapshot to the task records.
func (u *Updater) UpdateOnce(ctx context.Context) error {
	queue, err := u.comfy.Queue(ctx)
	if err != nil {
		return fmt.Errorf("fetch queue: %w", err)
	}

	now := float64(u.now().Unix())
	active := make(map[string]bool)

	runningIDs := make([]string, 0, len(queue.Running))
	for _, entry := range queue.Running {
		active[entry.PromptID] = true
		runningIDs = append(runningIDs, entry.PromptID)
		u.markRunning(ctx, entry, now)
	}

	pendingIDs := make([]string, 0, len(queue.Pending))
	for i, entry := range queue.Pending {
		active[entry.PromptID] = true
		pendingIDs = append(pendingIDs, entry.PromptID)
		u.markPending(ctx, entry, i+1, now)
	}

	if err := u.store.ReplaceRunning(ctx, runningIDs); err != nil {
		log.Printf("replace running set: %v", err)
	}
	if err := u.store.ReplacePending(ctx, pendingIDs); err != nil {
		log.Printf("replace pending set: %v", err)
	}

	// tasks the queue no longer knows must have finished or failed
	records, err := u.store.ActiveTasks(ctx)
	if err != nil {
		return fmt.Errorf("list active tasks: %w", err)
	}
	for id, rec := range records {
		if active[id] || task.ParseStatus(rec.Status).Terminal() {
			continue
		}
		u.resolveFromHistory(ctx, id, rec, now)
	}
	return nil
}

func (u *Updater) markRunning(ctx context.Context, entry comfyui.QueueEntry, now float64) {
	rec, ok, err := u.store.GetTask(ctx, entry.PromptID)
	if err != nil {
		log.Printf("get task %s: %v", entry.PromptID, err)
		return
	}
	if !ok {
		rec = task.RawRecord{CreatedAt: &now}
	}

	rec.Status = string(task.StatusProcessing)
	rec.Message = "Task is processing"
	rec.QueuePosition = nil
	rec.LastUpdated = &now
	if rec.ProcessingStarted == nil {
		rec.ProcessingStarted = cloneFloat(now)
		if rec.WaitingStarted != nil {
			rec.WaitingTime = cloneFloat(now - *rec.WaitingStarted)
		}
	}
	u.fillFromWorkflow(&rec, entry.Workflow)

	if err := u.store.PutActive(ctx, entry.PromptID, rec); err != nil {
		log.Printf("put task %s: %v", entry.PromptID, err)
	}
}

func (u *Updater) markPending(ctx context.Context, entry comfyui.QueueEntry, position int, now float64) {
	rec, ok, err := u.store.GetTask(ctx, entry.PromptID)
	if err != nil {
		log.Printf("get task %s: %v", entry.PromptID, err)
		return
	}
	if !ok {
		rec = task.RawRecord{CreatedAt: &now}
	}

	rec.Status = string(task.StatusPending)
	rec.Message = fmt.Sprintf("Waiting in queue, position: %d", position)
	rec.QueuePosition = &position
	rec.LastUpdated = &now
	if rec.WaitingStarted == nil {
		rec.WaitingStarted = cloneFloat(now)
	}
	rec.WaitingTime = cloneFloat(now - *rec.WaitingStarted)
	u.fillFromWorkflow(&rec, entry.Workflow)

	if err := u.store.PutActive(ctx, entry.PromptID, rec); err != nil {
		log.Printf("put task %s: %v", entry.PromptID, err)
	}
}

func (u *Updater) fillFromWorkflow(rec *task.RawRecord, workflow map[string]json.RawMessage) {
	if workflow == nil {
		return
	}
	if rec.Prompt == "" {
		rec.Prompt = ExtractPrompt(workflow)
	}
	if rec.Model == "" {
		rec.Model = ExtractModel(workflow)
	}
}

// resolveFromHistory probes ComfyUI history for a task that left the queue
// without a terminal status.
func (u *Updater) resolveFromHistory(ctx context.Context, id string, rec task.RawRecord, now float64) {
	entry, ok, err := u.comfy.History(ctx, id)
	if err != nil {
		log.Printf("history %s: %v", id, err)
		return
	}
	if !ok {
		rec.Status = string(task.StatusError)
		rec.Message = "Task not found in history"
		rec.LastUpdated = &now
		rec.CompletedAt = &now
		u.complete(ctx, id, rec)
		return
	}

	u.fillFromWorkflow(&rec, entry.Workflow())
	if secs := executionSeconds(entry.Status); secs > 0 {
		rec.ProcessingTime = cloneFloat(secs)
	}

	videos, images := entry.OutputFiles()
	switch {
	case len(videos) > 0:
		u.finishWithOutput(ctx, id, &rec, videos[0], "video", "Video generation completed", now)
	case len(images) > 0:
		u.finishWithOutput(ctx, id, &rec, images[0], "image", "Image generation completed", now)
	case entry.Status.Completed && entry.Status.StatusStr == "error":
		rec.Status = string(task.StatusError)
		rec.Message = "Task failed in ComfyUI"
		rec.LastUpdated = &now
		rec.CompletedAt = &now
		u.complete(ctx, id, rec)
		if err := u.repo.MarkFailed(ctx, id, rec.Message); err != nil && !IsNotFound(err) {
			log.Printf("mark submission %s failed: %v", id, err)
		}
	case entry.Status.Completed:
		rec.Status = string(task.StatusCompleted)
		rec.Message = "Task completed"
		rec.LastUpdated = &now
		rec.CompletedAt = &now
		u.complete(ctx, id, rec)
	default:
		// history exists but the execution has not finished; leave it
	}
}

func (u *Updater) finishWithOutput(ctx context.Context, id string, rec *task.RawRecord, file comfyui.HistoryFile, kind, message string, now float64) {
	local, err := u.comfy.Download(ctx, file, u.outputDir)
	if err != nil {
		log.Printf("download %s output: %v", id, err)
		local = filepath.Join(u.outputDir, file.Filename)
	}

	rec.Status = string(task.StatusCompleted)
	rec.Message = message
	rec.Type = kind
	rec.OutputPath = local
	rec.PreviewURL = "/static/output/" + file.Filename
	rec.LastUpdated = &now
	rec.CompletedAt = &now
	u.complete(ctx, id, *rec)

	if err := u.repo.MarkCompleted(ctx, id, local); err != nil && !IsNotFound(err) {
		log.Printf("mark submission %s completed: %v", id, err)
	}
}

func (u *Updater) complete(ctx context.Context, id string, rec task.RawRecord) {
	if err := u.store.Complete(ctx, id, rec); err != nil {
		log.Printf("complete task %s: %v", id, err)
	}
}

// CleanupOnce parks stale errored tasks, re-probes unknown ones and drops
// completed records past the retention window.
func (u *Updater) CleanupOnce(ctx context.Context) error {
	now := float64(u.now().Unix())

	active, err := u.store.ActiveTasks(ctx)
	if err != nil {
		return err
	}
	for id, rec := range active {
		switch task.ParseStatus(rec.Status) {
		case task.StatusError:
			if rec.LastUpdated != nil && now-*rec.LastUpdated > erroredParkAfter.Seconds() {
				u.complete(ctx, id, rec)
			}
		case task.StatusUnknown:
			u.resolveFromHistory(ctx, id, rec, now)
		}
	}

	completed, err := u.store.CompletedTasks(ctx)
	if err != nil {
		return err
	}
	maxAge := completedMaxAge.Seconds()
	for id, rec := range completed {
		expired := (rec.CompletedAt != nil && now-*rec.CompletedAt > maxAge) ||
			(rec.CompletedAt == nil && rec.LastUpdated != nil && now-*rec.LastUpdated > maxAge)
		if expired {
			if err := u.store.DeleteCompleted(ctx, id); err != nil {
				log.Printf("delete expired task %s: %v", id, err)
			}
		}
	}
	return nil
}

// executionSeconds derives wall time from execution_start and
// execution_success message timestamps, which arrive in milliseconds.
func executionSeconds(status comfyui.HistoryStatus) float64 {
	var start, end float64
	for _, msg := range status.Messages {
		if len(msg) < 2 {
			continue
		}
		var name string
		if err := json.Unmarshal(msg[0], &name); err != nil {
			continue
		}
		var payload struct {
			Timestamp float64 `json:"timestamp"`
		}
		if err := json.Unmarshal(msg[1], &payload); err != nil {
			continue
		}
		switch name {
		case "execution_start":
			start = payload.Timestamp / 1000
		case "execution_success":
			end = payload.Timestamp / 1000
		}
	}
	if start > 0 && end > start {
		return end - start
	}
	return 0
}

func cloneFloat(v float64) *float64 { return &v }
