package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"videowall/internal/ai"
	"videowall/internal/comfyui"
	"videowall/internal/config"
	"videowall/internal/db"
	"videowall/internal/httpapi"
	"videowall/internal/httpapi/handlers"
	"videowall/internal/store/rabbitmq"
	"videowall/internal/store/redisstore"
	"videowall/internal/tts"
	"videowall/internal/video"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := video.NewRepo(gdb)

	rds, err := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rds.Close()

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit publisher: %v", err)
	}
	defer pub.Close()

	comfy := comfyui.NewClient(cfg.ComfyUIURL, cfg.ComfyUIToken)

	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, m), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})

	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	h := &handlers.Handler{
		Cfg:     cfg,
		Store:   rds,
		Gen:     video.NewGenerator(comfy, rds, repo, cfg.ModelDir),
		Mock:    video.NewMockGenerator(rds),
		Prompts: video.NewPromptGenerator(provider),
		Merge:   pub,
		Comfy:   comfy,
		TTS:     tts.NewClient(cfg.TTSBaseURL, cfg.OutputDir),
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpapi.NewRouter(h),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
