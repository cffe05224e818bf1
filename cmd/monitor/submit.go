package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"videowall/internal/cache"
	"videowall/internal/monitor"
	"videowall/internal/task"
)

func newSubmitCommand(opts *rootOptions) *cobra.Command {
	var (
		content  string
		style    string
		model    string
		segments int
		testMode bool
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Split copy into prompts and submit a generation batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := monitor.NewClient(opts.serverURL)

			var prompts []string
			var err error
			if testMode && content == "" {
				prompts, err = client.TestPrompts(ctx)
			} else {
				if content == "" {
					return fmt.Errorf("--content is required")
				}
				prompts, err = client.GeneratePrompts(ctx, content, style, model, segments)
			}
			if err != nil {
				return fmt.Errorf("generate prompts: %w", err)
			}
			if len(prompts) == 0 {
				return fmt.Errorf("no prompts generated")
			}

			fmt.Printf("提交 %d 个片段...\n", len(prompts))
			submitted, err := client.SubmitVideos(ctx, prompts, model, testMode)
			if err != nil {
				return fmt.Errorf("submit batch: %w", err)
			}

			taskCache := cache.New(opts.cacheFile)
			if err := taskCache.Load(); err == nil {
				for _, s := range submitted {
					taskCache.Put(s.PromptID, cache.Entry{
						Status:  string(task.StatusPending),
						Message: "Task initialized",
						Prompt:  s.Prompt,
						Content: content,
						Model:   model,
					})
				}
				if err := taskCache.Save(); err != nil {
					fmt.Fprintf(os.Stderr, "save cache: %v\n", err)
				}
			}

			for _, s := range submitted {
				fmt.Printf("  %s\n", s.PromptID)
			}

			if !watch {
				return nil
			}
			return runWatch(ctx, opts, seedTasks(submitted, content, model))
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Copy to split into scenes")
	cmd.Flags().StringVar(&style, "style", "modern", "Prompt style (ancient|anime|cute|modern|nature)")
	cmd.Flags().StringVar(&model, "model", "default", "Workflow model name")
	cmd.Flags().IntVar(&segments, "segments", 3, "Number of scene segments")
	cmd.Flags().BoolVar(&testMode, "test", false, "Simulate tasks instead of generating")
	cmd.Flags().BoolVar(&watch, "watch", false, "Open the monitor wall after submitting")

	return cmd
}

func seedTasks(submitted []monitor.SubmittedTask, content, model string) []task.Task {
	now := float64(time.Now().Unix())
	seeds := make([]task.Task, 0, len(submitted))
	for _, s := range submitted {
		seeds = append(seeds, task.Task{
			ID:        s.PromptID,
			Status:    task.StatusPending,
			Message:   "Task initialized",
			Content:   content,
			Model:     model,
			CreatedAt: now,
		})
	}
	return seeds
}
