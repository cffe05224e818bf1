package video

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"videowall/internal/comfyui"
	"videowall/internal/store/redisstore"
	"videowall/internal/task"
)

// SubmitRequest carries one segment's generation parameters.
type SubmitRequest struct {
	Prompt        string
	Model         string
	Content       string
	BatchID       string
	SegmentIndex  *int
	TotalSegments int
	ClientID      string
}

// Generator submits workflows to ComfyUI and seeds the task state the
// updater and monitor build on.
type Generator struct {
	comfy    *comfyui.Client
	store    *redisstore.Store
	repo     *Repo
	modelDir string
}

func NewGenerator(comfy *comfyui.Client, store *redisstore.Store, repo *Repo, modelDir string) *Generator {
	return &Generator{comfy: comfy, store: store, repo: repo, modelDir: modelDir}
}

// Submit loads the workflow template for the requested model, injects the
// prompt and a fresh seed, and queues it. It returns the prompt id.
func (g *Generator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = "default"
	}

	wf, err := LoadWorkflow(g.modelDir, model)
	if err != nil {
		return "", err
	}

	if !wf.ApplyPrompt(req.Prompt) {
		log.Printf("workflow %s has no text node, prompt not injected", model)
	}
	seed := rand.Uint32()
	if seed == 0 {
		seed = 1
	}
	wf.ApplySeed(seed)

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	promptID, err := g.comfy.QueuePrompt(ctx, wf, clientID)
	if err != nil {
		return "", fmt.Errorf("queue prompt: %w", err)
	}

	now := float64(time.Now().Unix())
	seed64 := int64(seed)
	rec := task.RawRecord{
		Status:       string(task.StatusPending),
		Message:      "Task initialized",
		Prompt:       req.Prompt,
		Content:      req.Content,
		Model:        model,
		CreatedAt:    &now,
		LastUpdated:  &now,
		BatchID:      req.BatchID,
		SegmentIndex: req.SegmentIndex,
		ClientID:     clientID,
		Seed:         &seed64,
	}
	if req.TotalSegments > 0 {
		rec.TotalSegments = &req.TotalSegments
	}

	if err := g.store.PutActive(ctx, promptID, rec); err != nil {
		return "", fmt.Errorf("store task: %w", err)
	}
	if err := g.store.AddPending(ctx, promptID); err != nil {
		log.Printf("add pending %s: %v", promptID, err)
	}

	segIdx := 0
	if req.SegmentIndex != nil {
		segIdx = *req.SegmentIndex
	}
	sub := &Submission{
		ID:            NewSubmissionID(),
		PromptID:      promptID,
		Prompt:        req.Prompt,
		Content:       req.Content,
		Model:         model,
		BatchID:       req.BatchID,
		SegmentIndex:  segIdx,
		TotalSegments: req.TotalSegments,
		Status:        string(task.StatusPending),
	}
	if err := g.repo.CreateSubmission(ctx, sub); err != nil {
		log.Printf("record submission %s: %v", promptID, err)
	}

	return promptID, nil
}
