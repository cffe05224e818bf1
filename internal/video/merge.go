package video

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"videowall/internal/store/redisstore"
)

// Merger concatenates a batch's segment videos with ffmpeg and records the
// result in batch state.
type Merger struct {
	store     *redisstore.Store
	outputDir string
	now       func() time.Time
}

func NewMerger(store *redisstore.Store, outputDir string) *Merger {
	return &Merger{store: store, outputDir: outputDir, now: time.Now}
}

// Merge concatenates the batch's videos and returns the merged video URL.
func (m *Merger) Merge(ctx context.Context, batchID string, videoPaths []string, content string) (string, error) {
	if len(videoPaths) == 0 {
		return "", fmt.Errorf("batch %s has no videos to merge", batchID)
	}

	local := make([]string, 0, len(videoPaths))
	for _, p := range videoPaths {
		resolved, err := m.resolvePath(p)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(resolved); err != nil {
			return "", fmt.Errorf("video file missing: %s", filepath.Base(resolved))
		}
		local = append(local, resolved)
	}

	ts := m.now().Unix()
	outName := fmt.Sprintf("merged_%s_%d.mp4", batchID, ts)
	outPath := filepath.Join(m.outputDir, outName)

	// ffmpeg concat demuxer wants a list file
	listPath := filepath.Join(m.outputDir, fmt.Sprintf("filelist_%s_%d.txt", batchID, ts))
	var list strings.Builder
	for _, p := range local {
		fmt.Fprintf(&list, "file '%s'\n", p)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", err
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg concat: %w: %s", err, truncate(string(out), 200))
	}

	mergedURL := "/static/output/" + outName
	state := map[string]any{
		"status":           "completed",
		"merged_video_url": mergedURL,
		"output_path":      outPath,
		"content":          content,
		"merged_at":        float64(ts),
	}
	if err := m.store.PutBatch(ctx, batchID, state); err != nil {
		log.Printf("record batch %s merge: %v", batchID, err)
	}
	return mergedURL, nil
}

// MarkFailed records a merge failure in batch state.
func (m *Merger) MarkFailed(ctx context.Context, batchID string, cause error) {
	state := map[string]any{
		"status": "error",
		"error":  cause.Error(),
	}
	if err := m.store.PutBatch(ctx, batchID, state); err != nil {
		log.Printf("record batch %s failure: %v", batchID, err)
	}
}

// resolvePath maps preview URLs and bare filenames onto the output
// directory. Remote URLs are not merged.
func (m *Merger) resolvePath(p string) (string, error) {
	switch {
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"):
		return "", fmt.Errorf("cannot merge remote video: %s", p)
	case strings.HasPrefix(p, "/static/output/"):
		return filepath.Join(m.outputDir, filepath.Base(p)), nil
	case filepath.IsAbs(p):
		return p, nil
	default:
		return filepath.Join(m.outputDir, p), nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
