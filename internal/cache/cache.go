// Package cache mirrors the monitor's task knowledge to durable local
// storage so a restarted monitor can show something before its first poll
// completes. It is not the source of truth for rendering.
package cache

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const sweepMaxAge = 24 * time.Hour

// Entry is the durable task-like record. Unlike the poll path it is merged
// field by field, never replaced wholesale.
type Entry struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
	Model   string `json:"model,omitempty"`

	Progress   int    `json:"progress,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	Type       string `json:"type,omitempty"`

	BatchID       string `json:"batch_id,omitempty"`
	SegmentIndex  *int   `json:"segment_index,omitempty"`
	TotalSegments int    `json:"total_segments,omitempty"`

	CreatedAt   float64 `json:"created_at,omitempty"`
	LastSeen    float64 `json:"last_seen,omitempty"`
	LastChecked float64 `json:"last_checked,omitempty"`
}

func (e *Entry) merge(patch Entry) {
	if patch.Status != "" {
		e.Status = patch.Status
	}
	if patch.Message != "" {
		e.Message = patch.Message
	}
	if patch.Content != "" {
		e.Content = patch.Content
	}
	if patch.Prompt != "" {
		e.Prompt = patch.Prompt
	}
	if patch.Model != "" {
		e.Model = patch.Model
	}
	if patch.Progress != 0 {
		e.Progress = patch.Progress
	}
	if patch.OutputPath != "" {
		e.OutputPath = patch.OutputPath
	}
	if patch.Type != "" {
		e.Type = patch.Type
	}
	if patch.BatchID != "" {
		e.BatchID = patch.BatchID
	}
	if patch.SegmentIndex != nil {
		e.SegmentIndex = patch.SegmentIndex
	}
	if patch.TotalSegments != 0 {
		e.TotalSegments = patch.TotalSegments
	}
	if patch.CreatedAt != 0 {
		e.CreatedAt = patch.CreatedAt
	}
	if patch.LastSeen != 0 {
		e.LastSeen = patch.LastSeen
	}
	if patch.LastChecked != 0 {
		e.LastChecked = patch.LastChecked
	}
}

// Record pairs an id with its entry for ordered snapshots.
type Record struct {
	ID    string
	Entry Entry
}

// The stored layout is an ordered list of [id, entry] pairs.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.ID, r.Entry})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return errors.New("cache: pair must have exactly two elements")
	}
	if err := json.Unmarshal(pair[0], &r.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &r.Entry)
}

// TaskCache is a file-backed, insertion-ordered task record collection.
type TaskCache struct {
	path string

	mu      sync.Mutex
	order   []string
	entries map[string]Entry
	now     func() time.Time
}

func New(path string) *TaskCache {
	return &TaskCache{
		path:    path,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Load reads the stored collection. A missing or malformed file is not an
// error: the cache starts empty.
func (c *TaskCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = nil
	c.entries = make(map[string]Entry)

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("task cache unreadable, starting empty: %v", err)
		return nil
	}

	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		if _, ok := c.entries[rec.ID]; !ok {
			c.order = append(c.order, rec.ID)
		}
		c.entries[rec.ID] = rec.Entry
	}
	return nil
}

// Save writes the collection atomically (write to a temp file, rename).
func (c *TaskCache) Save() error {
	c.mu.Lock()
	records := c.snapshotLocked()
	c.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// Put merges the patch into the record for id, creating it when absent,
// and stamps lastChecked and lastSeen.
func (c *TaskCache) Put(id string, patch Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := float64(c.now().Unix())
	entry, ok := c.entries[id]
	if !ok {
		c.order = append(c.order, id)
	}
	entry.merge(patch)
	entry.LastChecked = now
	if patch.LastSeen == 0 {
		entry.LastSeen = now
	}
	c.entries[id] = entry
}

// Get returns the record for id.
func (c *TaskCache) Get(id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// GetAll returns the records in insertion order.
func (c *TaskCache) GetAll() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Remove drops the record for id.
func (c *TaskCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return
	}
	delete(c.entries, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Sweep evicts records whose lastSeen is older than 24 hours and returns
// how many were removed.
func (c *TaskCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := float64(c.now().Add(-sweepMaxAge).Unix())
	removed := 0
	kept := c.order[:0]
	for _, id := range c.order {
		if c.entries[id].LastSeen < cutoff {
			delete(c.entries, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return removed
}

func (c *TaskCache) snapshotLocked() []Record {
	records := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		records = append(records, Record{ID: id, Entry: c.entries[id]})
	}
	return records
}
