// Package monitor implements the client side of the dashboard: polling the
// task-status endpoint, reconciling a local task collection against the
// server snapshot, and rendering the monitor wall.
package monitor

import (
	"sort"
	"sync"
	"time"

	"videowall/internal/task"
)

// Store holds the ordered task collection shown on the monitor wall.
// Reconciliation merges by id instead of blindly replacing, so a task
// inserted optimistically after a submission survives until a poll that
// started after the insert confirms the server does not know it.
type Store struct {
	mu       sync.Mutex
	tasks    []task.Task
	localAdd map[string]time.Time // id -> optimistic insertion time
	onChange func([]task.Task)
}

// NewStore returns an empty store. onChange fires after every mutation
// with a sorted snapshot; a nil callback is allowed.
func NewStore(onChange func([]task.Task)) *Store {
	return &Store{
		localAdd: make(map[string]time.Time),
		onChange: onChange,
	}
}

// Reconcile applies one server snapshot. fetchStart is the time the poll
// request was issued; local optimistic tasks absent from a snapshot whose
// fetch began after their insertion are dropped.
func (s *Store) Reconcile(server []task.Task, fetchStart time.Time) {
	s.mu.Lock()

	seen := make(map[string]struct{}, len(server))
	next := make([]task.Task, 0, len(server)+len(s.localAdd))
	for _, t := range server {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		next = append(next, t)
	}

	for id, addedAt := range s.localAdd {
		if _, ok := seen[id]; ok {
			// server knows the task now, no longer optimistic
			delete(s.localAdd, id)
			continue
		}
		if fetchStart.After(addedAt) {
			// absent from a poll issued after the insert: confirmed gone
			delete(s.localAdd, id)
			continue
		}
		if local, ok := s.find(id); ok {
			next = append(next, local)
		}
	}

	s.tasks = sortTasks(next)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// AddLocal inserts one optimistic task after a successful submission.
// Its status is forced to pending regardless of what the caller set.
func (s *Store) AddLocal(t task.Task) {
	t.Status = task.StatusPending
	if t.Message == "" {
		t.Message = task.LocalizeMessage("", task.StatusPending)
	}

	s.mu.Lock()
	if _, ok := s.find(t.ID); !ok {
		s.tasks = sortTasks(append(s.tasks, t))
	}
	s.localAdd[t.ID] = time.Now()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// Remove drops the task with the given id. Removing an unknown id is a
// no-op apart from the change notification.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	delete(s.localAdd, id)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// Tasks returns a sorted copy of the current collection.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) find(id string) (task.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

func (s *Store) snapshotLocked() []task.Task {
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) notify(snapshot []task.Task) {
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}

// newest first; ties keep their relative order
func sortTasks(tasks []task.Task) []task.Task {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt > tasks[j].CreatedAt
	})
	return tasks
}
