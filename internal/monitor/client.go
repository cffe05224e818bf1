package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"videowall/internal/task"
)

// Client talks to the dashboard API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchTasks retrieves the full task map from GET /api/task-status.
func (c *Client) FetchTasks(ctx context.Context) (map[string]task.RawRecord, error) {
	var out map[string]task.RawRecord
	if err := c.getJSON(ctx, "/api/task-status", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchTask retrieves one task record (legacy per-task poll).
func (c *Client) FetchTask(ctx context.Context, id string) (task.RawRecord, error) {
	var out task.RawRecord
	err := c.getJSON(ctx, "/api/task-status/"+url.PathEscape(id), &out)
	return out, err
}

type generateResp struct {
	Success bool     `json:"success"`
	Prompts []string `json:"prompts"`
	Message string   `json:"message"`
	Error   string   `json:"error"`
}

// GeneratePrompts asks the backend to split the content into per-segment
// generation prompts.
func (c *Client) GeneratePrompts(ctx context.Context, content, style, model string, numSegments int) ([]string, error) {
	body := map[string]any{
		"content":      content,
		"style":        style,
		"model":        model,
		"num_segments": numSegments,
	}
	var out generateResp
	if err := c.postJSON(ctx, "/generate", body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, backendError(out.Message, out.Error)
	}
	return out.Prompts, nil
}

type SubmitVideoRequest struct {
	Prompt        string `json:"prompt"`
	Model         string `json:"model"`
	SegmentIndex  int    `json:"segment_index"`
	TotalSegments int    `json:"total_segments"`
	BatchID       string `json:"batch_id"`
	Content       string `json:"content"`
}

type submitVideoResp struct {
	Success  bool   `json:"success"`
	PromptID string `json:"prompt_id"`
	Error    string `json:"error"`
}

// SubmitVideo submits one segment and returns the server-assigned prompt id.
func (c *Client) SubmitVideo(ctx context.Context, req SubmitVideoRequest) (string, error) {
	var out submitVideoResp
	if err := c.postJSON(ctx, "/api/generate-video", req, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", backendError("", out.Error)
	}
	return out.PromptID, nil
}

type SubmittedTask struct {
	PromptID string `json:"prompt_id"`
	Prompt   string `json:"prompt"`
}

type submitVideosResp struct {
	Success bool            `json:"success"`
	Tasks   []SubmittedTask `json:"tasks"`
	Error   string          `json:"error"`
}

// SubmitVideos submits a whole prompt batch in one call.
func (c *Client) SubmitVideos(ctx context.Context, prompts []string, model string, testMode bool) ([]SubmittedTask, error) {
	body := map[string]any{
		"prompts":   prompts,
		"model":     model,
		"test_mode": testMode,
	}
	var out submitVideosResp
	if err := c.postJSON(ctx, "/api/generate-videos", body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, backendError("", out.Error)
	}
	return out.Tasks, nil
}

type deleteResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// DeleteTask removes the task server-side.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/api/task/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	var out deleteResp
	if err := c.do(req, &out); err != nil {
		return err
	}
	if !out.Success {
		return backendError("", out.Error)
	}
	return nil
}

// TestPrompts fetches the canned prompt set used for test-mode runs.
func (c *Client) TestPrompts(ctx context.Context) ([]string, error) {
	var out generateResp
	if err := c.getJSON(ctx, "/api/test-prompts", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, backendError(out.Message, out.Error)
	}
	return out.Prompts, nil
}

type connectionResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TestConnection probes the backend's connection to its generation server.
func (c *Client) TestConnection(ctx context.Context) (string, string, error) {
	var out connectionResp
	if err := c.getJSON(ctx, "/api/test-connection", &out); err != nil {
		return "", "", err
	}
	return out.Status, out.Message, nil
}

type VoiceSettings struct {
	Speaker string  `json:"speaker"`
	Speed   float64 `json:"speed"`
	Volume  float64 `json:"volume"`
}

type voiceResp struct {
	AudioURL string `json:"audioUrl"`
	Error    string `json:"error"`
}

// TestVoice synthesizes a short preview clip and returns its URL.
func (c *Client) TestVoice(ctx context.Context, settings VoiceSettings) (string, error) {
	var out voiceResp
	if err := c.postJSON(ctx, "/test_voice", settings, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	return out.AudioURL, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dashboard: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func backendError(message, errMsg string) error {
	switch {
	case errMsg != "":
		return errors.New(errMsg)
	case message != "":
		return errors.New(message)
	default:
		return errors.New("dashboard: request rejected")
	}
}
