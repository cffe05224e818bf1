package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"videowall/internal/cache"
	"videowall/internal/monitor"
)

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task from the dashboard and the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			id := args[0]
			client := monitor.NewClient(opts.serverURL)
			if err := client.DeleteTask(ctx, id); err != nil {
				return fmt.Errorf("delete task %s: %w", id, err)
			}

			taskCache := cache.New(opts.cacheFile)
			if err := taskCache.Load(); err == nil {
				taskCache.Remove(id)
				if err := taskCache.Save(); err != nil {
					fmt.Fprintf(os.Stderr, "save cache: %v\n", err)
				}
			}

			fmt.Printf("deleted %s\n", id)
			return nil
		},
	}
}

func newVoiceCommand(opts *rootOptions) *cobra.Command {
	var (
		speaker string
		speed   float64
		volume  float64
	)

	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Synthesize a voice preview clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// flags not given on the command line fall back to the last
			// saved preferences
			settingsPath := settingsPath(opts.cacheFile)
			settings := cache.LoadSettings(settingsPath)
			if v := settings.Voice; v != nil {
				if s, ok := v["speaker"].(string); ok && !cmd.Flags().Changed("speaker") {
					speaker = s
				}
				if f, ok := v["speed"].(float64); ok && !cmd.Flags().Changed("speed") {
					speed = f
				}
				if f, ok := v["volume"].(float64); ok && !cmd.Flags().Changed("volume") {
					volume = f
				}
			}

			client := monitor.NewClient(opts.serverURL)
			audioURL, err := client.TestVoice(ctx, monitor.VoiceSettings{
				Speaker: speaker,
				Speed:   speed,
				Volume:  volume,
			})
			if err != nil {
				return fmt.Errorf("test voice: %w", err)
			}

			settings.Voice = map[string]any{
				"speaker": speaker,
				"speed":   speed,
				"volume":  volume,
			}
			if err := cache.SaveSettings(settingsPath, settings); err != nil {
				fmt.Fprintf(os.Stderr, "save settings: %v\n", err)
			}

			fmt.Println(opts.serverURL + audioURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&speaker, "speaker", "zh-CN-XiaoxiaoNeural", "Voice to preview")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "Speech rate multiplier")
	cmd.Flags().Float64Var(&volume, "volume", 100, "Volume percentage")

	return cmd
}

// settingsPath places settings.json next to the task cache file.
func settingsPath(cacheFile string) string {
	return filepath.Join(filepath.Dir(cacheFile), "settings.json")
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the dashboard's connection to its generation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := monitor.NewClient(opts.serverURL)
			status, message, err := client.TestConnection(ctx)
			if err != nil {
				return fmt.Errorf("test connection: %w", err)
			}

			fmt.Printf("%s: %s\n", status, message)
			if status != "connected" {
				os.Exit(1)
			}
			return nil
		},
	}
}
