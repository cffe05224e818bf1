// Package redisstore keeps live task state in redis. Active tasks live in the
// tasks_status hash, finished ones move to completed_tasks, and the
// pending_tasks and running_tasks sets mirror the queue phases.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"videowall/internal/task"
)

const (
	keyTasksStatus    = "tasks_status"
	keyCompletedTasks = "completed_tasks"
	keyBatchStatus    = "batch_status"
	keyPendingTasks   = "pending_tasks"
	keyRunningTasks   = "running_tasks"
)

type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// PutActive writes an active task record.
func (s *Store) PutActive(ctx context.Context, id string, rec task.RawRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, keyTasksStatus, id, data).Err()
}

// GetTask looks a task up by id, checking completed records first.
func (s *Store) GetTask(ctx context.Context, id string) (task.RawRecord, bool, error) {
	for _, key := range []string{keyCompletedTasks, keyTasksStatus} {
		data, err := s.client.HGet(ctx, key, id).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return task.RawRecord{}, false, err
		}
		var rec task.RawRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return task.RawRecord{}, false, fmt.Errorf("decode task %s: %w", id, err)
		}
		return rec, true, nil
	}
	return task.RawRecord{}, false, nil
}

// AllTasks merges active and completed records. A completed record wins over
// an active one with the same id.
func (s *Store) AllTasks(ctx context.Context) (map[string]task.RawRecord, error) {
	out := make(map[string]task.RawRecord)
	for _, key := range []string{keyTasksStatus, keyCompletedTasks} {
		recs, err := s.hashTasks(ctx, key)
		if err != nil {
			return nil, err
		}
		for id, rec := range recs {
			out[id] = rec
		}
	}
	return out, nil
}

// ActiveTasks returns only the tasks_status hash.
func (s *Store) ActiveTasks(ctx context.Context) (map[string]task.RawRecord, error) {
	return s.hashTasks(ctx, keyTasksStatus)
}

// CompletedTasks returns only the completed_tasks hash.
func (s *Store) CompletedTasks(ctx context.Context) (map[string]task.RawRecord, error) {
	return s.hashTasks(ctx, keyCompletedTasks)
}

func (s *Store) hashTasks(ctx context.Context, key string) (map[string]task.RawRecord, error) {
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]task.RawRecord, len(raw))
	for id, data := range raw {
		var rec task.RawRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		out[id] = rec
	}
	return out, nil
}

// DeleteCompleted drops one record from the completed hash.
func (s *Store) DeleteCompleted(ctx context.Context, id string) error {
	return s.client.HDel(ctx, keyCompletedTasks, id).Err()
}

// Complete moves a task from the active hash to the completed hash.
func (s *Store) Complete(ctx context.Context, id string, rec task.RawRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, keyCompletedTasks, id, data)
	pipe.HDel(ctx, keyTasksStatus, id)
	pipe.SRem(ctx, keyPendingTasks, id)
	pipe.SRem(ctx, keyRunningTasks, id)
	_, err = pipe.Exec(ctx)
	return err
}

// Delete removes every trace of a task.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, keyTasksStatus, id)
	pipe.HDel(ctx, keyCompletedTasks, id)
	pipe.SRem(ctx, keyPendingTasks, id)
	pipe.SRem(ctx, keyRunningTasks, id)
	_, err := pipe.Exec(ctx)
	return err
}

// AddPending records a freshly submitted task id.
func (s *Store) AddPending(ctx context.Context, id string) error {
	return s.client.SAdd(ctx, keyPendingTasks, id).Err()
}

// ReplacePending swaps the pending set for ids.
func (s *Store) ReplacePending(ctx context.Context, ids []string) error {
	return s.replaceSet(ctx, keyPendingTasks, ids)
}

// ReplaceRunning swaps the running set for ids.
func (s *Store) ReplaceRunning(ctx context.Context, ids []string) error {
	return s.replaceSet(ctx, keyRunningTasks, ids)
}

func (s *Store) replaceSet(ctx context.Context, key string, ids []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(ids) > 0 {
		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, key, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// PutBatch records batch-level state, such as a finished merge.
func (s *Store) PutBatch(ctx context.Context, batchID string, state map[string]any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, keyBatchStatus, batchID, data).Err()
}

// GetBatch fetches batch-level state.
func (s *Store) GetBatch(ctx context.Context, batchID string) (map[string]any, bool, error) {
	data, err := s.client.HGet(ctx, keyBatchStatus, batchID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, false, err
	}
	return state, true, nil
}
