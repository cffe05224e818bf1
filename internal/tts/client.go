// Package tts synthesizes speech through an edge-tts compatible HTTP
// service and stores the audio under the static output directory.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestText is the fixed phrase used to preview a voice.
const TestText = "这是一段测试语音，用于预览配音效果。"

type Client struct {
	BaseURL   string
	OutputDir string
	HTTP      *http.Client
}

func NewClient(baseURL, outputDir string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		OutputDir: outputDir,
		HTTP:      &http.Client{Timeout: 60 * time.Second},
	}
}

type synthesizeReq struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
}

// Synthesize renders text with the given voice settings, writes the audio
// to filename under the output dir and returns its URL path. Speed 1.0 and
// volume 100 are neutral.
func (c *Client) Synthesize(ctx context.Context, text, voice string, speed, volume float64, filename string) (string, error) {
	body, err := json.Marshal(synthesizeReq{
		Text:   text,
		Voice:  voice,
		Rate:   FormatRate(speed),
		Volume: FormatVolume(volume),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("tts: %s", strings.TrimSpace(string(msg)))
	}

	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return "", err
	}
	local := filepath.Join(c.OutputDir, filename)
	f, err := os.Create(local)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return "/static/output/" + filename, nil
}

// TestVoice synthesizes the fixed preview phrase.
func (c *Client) TestVoice(ctx context.Context, voice string, speed, volume float64) (string, error) {
	return c.Synthesize(ctx, TestText, voice, speed, volume, "test_audio.mp3")
}

// FormatRate maps a speed multiplier onto an edge-tts rate string.
func FormatRate(speed float64) string {
	return fmt.Sprintf("%+d%%", int((speed-1)*100))
}

// FormatVolume maps a 0-100 volume onto an edge-tts volume string.
func FormatVolume(volume float64) string {
	return fmt.Sprintf("%+d%%", int(volume-100))
}
