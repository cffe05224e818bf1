package monitor

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"videowall/internal/task"
)

// TaskFetcher fetches the authoritative task map from the dashboard API.
type TaskFetcher interface {
	FetchTasks(ctx context.Context) (map[string]task.RawRecord, error)
}

// Poller drives the reconciliation loop: one immediate poll at startup,
// then one per interval. A single-flight guard skips a tick while the
// previous fetch is still unresolved, so a slow response can never
// overwrite newer state. Background failures are logged and skipped.
type Poller struct {
	fetcher  TaskFetcher
	store    *Store
	interval time.Duration

	started  atomic.Bool
	inFlight atomic.Bool
	now      func() time.Time
}

func NewPoller(fetcher TaskFetcher, store *Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled. Calling Run twice is a no-op for the
// second caller.
func (p *Poller) Run(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce performs one reconciliation pass: fetch, normalize every entry,
// then hand the complete batch to the store. Returns false when the tick
// was skipped (previous fetch in flight) or the fetch failed.
func (p *Poller) PollOnce(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		log.Printf("poll skipped: previous fetch still in flight")
		return false
	}
	defer p.inFlight.Store(false)

	fetchStart := p.now()
	raw, err := p.fetcher.FetchTasks(ctx)
	if err != nil {
		log.Printf("task status poll failed: %v", err)
		return false
	}

	now := p.now()
	tasks := make([]task.Task, 0, len(raw))
	for id, rec := range raw {
		tasks = append(tasks, task.Normalize(id, rec, now))
	}

	p.store.Reconcile(tasks, fetchStart)
	return true
}
