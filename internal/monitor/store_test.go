package monitor

import (
	"testing"
	"time"

	"videowall/internal/task"
)

func TestReconcile_SortsNewestFirst(t *testing.T) {
	s := NewStore(nil)
	s.Reconcile([]task.Task{
		{ID: "old", CreatedAt: 100},
		{ID: "new", CreatedAt: 200},
	}, time.Now())

	got := s.Tasks()
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "old" {
		t.Fatalf("expected newest first, got %q then %q", got[0].ID, got[1].ID)
	}
}

func TestReconcile_DropsDuplicateIDs(t *testing.T) {
	s := NewStore(nil)
	s.Reconcile([]task.Task{
		{ID: "a", CreatedAt: 100},
		{ID: "a", CreatedAt: 200},
	}, time.Now())
	if got := s.Tasks(); len(got) != 1 {
		t.Fatalf("expected 1 task after dedup, got %d", len(got))
	}
}

func TestAddLocal_ForcesPendingAndSurvivesStalePoll(t *testing.T) {
	s := NewStore(nil)

	s.AddLocal(task.Task{ID: "opt", Status: task.StatusCompleted, CreatedAt: 500})
	got := s.Tasks()
	if len(got) != 1 || got[0].Status != task.StatusPending {
		t.Fatalf("optimistic insert should be pending, got %+v", got)
	}

	// a poll whose fetch started before the insert must not evict it
	stale := time.Now().Add(-time.Minute)
	s.Reconcile([]task.Task{{ID: "srv", CreatedAt: 100}}, stale)

	got = s.Tasks()
	if len(got) != 2 {
		t.Fatalf("expected optimistic task to survive stale poll, got %d tasks", len(got))
	}
	if got[0].ID != "opt" {
		t.Fatalf("optimistic task (createdAt 500) should sort first, got %q", got[0].ID)
	}
}

func TestReconcile_DropsOptimisticAfterConfirmedAbsence(t *testing.T) {
	s := NewStore(nil)
	s.AddLocal(task.Task{ID: "opt", CreatedAt: 500})

	// fetch issued after the insert and the server does not know the id
	s.Reconcile([]task.Task{{ID: "srv", CreatedAt: 100}}, time.Now().Add(time.Minute))

	got := s.Tasks()
	if len(got) != 1 || got[0].ID != "srv" {
		t.Fatalf("expected optimistic task to be dropped, got %+v", got)
	}
}

func TestReconcile_AdoptsServerVersionOfOptimisticTask(t *testing.T) {
	s := NewStore(nil)
	s.AddLocal(task.Task{ID: "opt", CreatedAt: 500})

	s.Reconcile([]task.Task{{ID: "opt", Status: task.StatusProcessing, CreatedAt: 500}}, time.Now().Add(time.Second))

	got := s.Tasks()
	if len(got) != 1 || got[0].Status != task.StatusProcessing {
		t.Fatalf("expected server version to replace optimistic task, got %+v", got)
	}

	// once adopted, a later snapshot without the id removes it outright
	s.Reconcile(nil, time.Now().Add(time.Minute))
	if got := s.Tasks(); len(got) != 0 {
		t.Fatalf("expected task gone after server snapshot dropped it, got %d", len(got))
	}
}

func TestRemove_RemovesExactlyOneAndIsIdempotent(t *testing.T) {
	s := NewStore(nil)
	s.Reconcile([]task.Task{
		{ID: "a", CreatedAt: 300},
		{ID: "b", CreatedAt: 200},
		{ID: "c", CreatedAt: 100},
	}, time.Now())

	s.Remove("b")
	got := s.Tasks()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("expected a and c to remain, got %+v", got)
	}

	// removing an id the store never knew must not disturb the rest
	s.Remove("missing")
	if got := s.Tasks(); len(got) != 2 {
		t.Fatalf("expected remove of unknown id to be a no-op, got %d tasks", len(got))
	}
}

func TestStore_NotifiesOnEveryMutation(t *testing.T) {
	var calls int
	s := NewStore(func([]task.Task) { calls++ })

	s.Reconcile([]task.Task{{ID: "a"}}, time.Now())
	s.AddLocal(task.Task{ID: "b"})
	s.Remove("a")

	if calls != 3 {
		t.Fatalf("expected 3 change notifications, got %d", calls)
	}
}
