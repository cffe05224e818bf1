package handlers

import (
	"context"

	"videowall/internal/config"
	"videowall/internal/store/rabbitmq"
	"videowall/internal/task"
	"videowall/internal/video"
)

// StatusStore is the slice of the redis store the handlers need.
type StatusStore interface {
	AllTasks(ctx context.Context) (map[string]task.RawRecord, error)
	GetTask(ctx context.Context, id string) (task.RawRecord, bool, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Submitter queues one generation request and returns its prompt id.
type Submitter interface {
	Submit(ctx context.Context, req video.SubmitRequest) (string, error)
}

// PromptService splits copy into per-segment prompts.
type PromptService interface {
	Generate(ctx context.Context, content, style, model string, numSegments int) ([]string, error)
}

// MergePublisher hands merge jobs to the worker queue.
type MergePublisher interface {
	PublishMerge(ctx context.Context, msg rabbitmq.MergeMessage) error
}

// ConnectionTester probes the generation server.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

// VoiceTester synthesizes the fixed voice preview.
type VoiceTester interface {
	TestVoice(ctx context.Context, voice string, speed, volume float64) (string, error)
}

type Handler struct {
	Cfg     config.Config
	Store   StatusStore
	Gen     Submitter
	Mock    Submitter
	Prompts PromptService
	Merge   MergePublisher
	Comfy   ConnectionTester
	TTS     VoiceTester
}
