// Package comfyui is a thin HTTP client for a ComfyUI server: prompt
// submission, queue inspection, execution history and output download.
package comfyui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// QueueEntry is one task in the server's running or pending queue.
type QueueEntry struct {
	PromptID string
	Workflow map[string]json.RawMessage
}

// QueueState is the server-side queue at a point in time.
type QueueState struct {
	Running []QueueEntry
	Pending []QueueEntry
}

type HistoryFile struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

type HistoryOutput struct {
	Gifs     []HistoryFile `json:"gifs"`
	Images   []HistoryFile `json:"images"`
	Animated []bool        `json:"animated"`
}

type HistoryStatus struct {
	StatusStr string              `json:"status_str"`
	Completed bool                `json:"completed"`
	Messages  [][]json.RawMessage `json:"messages"`
}

// HistoryEntry is the recorded execution of one prompt.
type HistoryEntry struct {
	Prompt  []json.RawMessage        `json:"prompt"`
	Outputs map[string]HistoryOutput `json:"outputs"`
	Status  HistoryStatus            `json:"status"`
}

// Workflow extracts the node graph stored at index 2 of the prompt tuple.
func (e HistoryEntry) Workflow() map[string]json.RawMessage {
	if len(e.Prompt) < 3 {
		return nil
	}
	var wf map[string]json.RawMessage
	if err := json.Unmarshal(e.Prompt[2], &wf); err != nil {
		return nil
	}
	return wf
}

// OutputFiles collects every gif and image the execution produced, gifs
// first. Animated images count as video outputs.
func (e HistoryEntry) OutputFiles() (videos, images []HistoryFile) {
	for _, out := range e.Outputs {
		videos = append(videos, out.Gifs...)
		for i, img := range out.Images {
			if i < len(out.Animated) && out.Animated[i] {
				videos = append(videos, img)
				continue
			}
			images = append(images, img)
		}
	}
	return videos, images
}

// QueuePrompt submits a workflow for execution and returns the prompt id.
func (c *Client) QueuePrompt(ctx context.Context, workflow any, clientID string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"prompt":    workflow,
		"client_id": clientID,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.statusError(resp)
	}

	var decoded struct {
		PromptID string `json:"prompt_id"`
		Error    any    `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.PromptID == "" {
		return "", errors.New("comfyui: response missing prompt_id")
	}
	return decoded.PromptID, nil
}

// Queue fetches the running and pending queues.
func (c *Client) Queue(ctx context.Context) (QueueState, error) {
	var raw struct {
		Running [][]json.RawMessage `json:"queue_running"`
		Pending [][]json.RawMessage `json:"queue_pending"`
	}
	if err := c.getJSON(ctx, "/queue", &raw); err != nil {
		return QueueState{}, err
	}
	return QueueState{
		Running: parseQueueEntries(raw.Running),
		Pending: parseQueueEntries(raw.Pending),
	}, nil
}

// Queue entries are tuples: index 1 is the prompt id, index 2 the workflow.
func parseQueueEntries(rows [][]json.RawMessage) []QueueEntry {
	entries := make([]QueueEntry, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		var entry QueueEntry
		if err := json.Unmarshal(row[1], &entry.PromptID); err != nil || entry.PromptID == "" {
			continue
		}
		if len(row) >= 3 {
			_ = json.Unmarshal(row[2], &entry.Workflow)
		}
		entries = append(entries, entry)
	}
	return entries
}

// History fetches the execution record for one prompt. A prompt the server
// has no record of returns ok=false without an error.
func (c *Client) History(ctx context.Context, promptID string) (HistoryEntry, bool, error) {
	var decoded map[string]HistoryEntry
	if err := c.getJSON(ctx, "/history/"+url.PathEscape(promptID), &decoded); err != nil {
		return HistoryEntry{}, false, err
	}
	entry, ok := decoded[promptID]
	return entry, ok, nil
}

// Download fetches one output file into dir, skipping files that already
// exist locally. It returns the local path.
func (c *Client) Download(ctx context.Context, file HistoryFile, dir string) (string, error) {
	if file.Filename == "" {
		return "", errors.New("comfyui: empty filename")
	}
	local := filepath.Join(dir, file.Filename)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	q := url.Values{}
	q.Set("filename", file.Filename)
	if file.Subfolder != "" {
		q.Set("subfolder", file.Subfolder)
	}
	if file.Type != "" {
		q.Set("type", file.Type)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/view?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.statusError(resp)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp := local + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, local); err != nil {
		return "", err
	}
	return local, nil
}

// TestConnection checks the server is reachable.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/system_stats", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("comfyui: %s", msg)
}
