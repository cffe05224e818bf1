package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"videowall/internal/cache"
	"videowall/internal/monitor"
	"videowall/internal/task"
)

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "videowall-cache.json"
	}
	return filepath.Join(home, ".videowall", "tasks.json")
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the dashboard and render the task wall",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, nil)
		},
	}
}

// runWatch drives the poll, reconcile, render and cache-mirror loop until
// ctx is cancelled. seed tasks are inserted optimistically before the first
// poll.
func runWatch(ctx context.Context, opts *rootOptions, seed []task.Task) error {
	taskCache := cache.New(opts.cacheFile)
	if err := taskCache.Load(); err != nil {
		log.Printf("load cache: %v", err)
	}

	renderer := monitor.NewRenderer(os.Stdout)
	renderer.ClearScreen = true

	store := monitor.NewStore(func(tasks []task.Task) {
		renderer.Render(monitor.BuildCards(tasks))
		mirrorToCache(taskCache, tasks)
	})

	// show cached state before the first poll lands
	if cached := cachedTasks(taskCache); len(cached) > 0 {
		renderer.Render(monitor.BuildCards(cached))
	}
	for _, t := range seed {
		store.AddLocal(t)
	}

	client := monitor.NewClient(opts.serverURL)
	poller := monitor.NewPoller(client, store, opts.interval)
	poller.Run(ctx)

	if removed := taskCache.Sweep(); removed > 0 {
		log.Printf("evicted %d stale cached tasks", removed)
	}
	if err := taskCache.Save(); err != nil {
		log.Printf("save cache: %v", err)
	}
	return ctx.Err()
}

func mirrorToCache(c *cache.TaskCache, tasks []task.Task) {
	for _, t := range tasks {
		c.Put(t.ID, cache.Entry{
			Status:        string(t.Status),
			Message:       t.Message,
			Content:       t.Content,
			Model:         t.Model,
			Progress:      t.Progress,
			OutputPath:    t.OutputPath,
			Type:          t.Type,
			BatchID:       t.BatchID,
			SegmentIndex:  t.SegmentIndex,
			TotalSegments: t.TotalSegments,
			CreatedAt:     t.CreatedAt,
		})
	}
}

func cachedTasks(c *cache.TaskCache) []task.Task {
	records := c.GetAll()
	tasks := make([]task.Task, 0, len(records))
	now := time.Now()
	for _, rec := range records {
		tasks = append(tasks, task.Normalize(rec.ID, entryRecord(rec.Entry), now))
	}
	return tasks
}

func entryRecord(e cache.Entry) task.RawRecord {
	rec := task.RawRecord{
		Status:     e.Status,
		Message:    e.Message,
		Content:    e.Content,
		Prompt:     e.Prompt,
		Model:      e.Model,
		OutputPath: e.OutputPath,
		Type:       e.Type,
		BatchID:    e.BatchID,
	}
	if e.Progress != 0 {
		rec.Progress = &e.Progress
	}
	if e.CreatedAt != 0 {
		rec.CreatedAt = &e.CreatedAt
	}
	if e.SegmentIndex != nil {
		rec.SegmentIndex = e.SegmentIndex
	}
	if e.TotalSegments != 0 {
		rec.TotalSegments = &e.TotalSegments
	}
	return rec
}
