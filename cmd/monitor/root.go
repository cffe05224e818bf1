package main

import (
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	serverURL string
	interval  time.Duration
	cacheFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "videowall",
		Short:         "Terminal monitor wall for video generation tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.serverURL, "server", "http://localhost:8080", "Dashboard API base URL")
	rootCmd.PersistentFlags().DurationVar(&opts.interval, "interval", 5*time.Second, "Poll interval")
	rootCmd.PersistentFlags().StringVar(&opts.cacheFile, "cache-file", defaultCachePath(), "Task cache file path")

	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newSubmitCommand(opts))
	rootCmd.AddCommand(newDeleteCommand(opts))
	rootCmd.AddCommand(newVoiceCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))

	return rootCmd
}
