package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/annotate/internal/cli"
	"github.com/aretw0/annotate/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "annotate",
	Short: "annotate is a keyboard-driven annotation session host",
	Long: `annotate loads labeling tasks from a directory of Markdown/YAML files and drives
their annotation sessions from the terminal, over HTTP, or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./annotate.yaml or ~/.config/annotate/annotate.yaml)")
	rootCmd.PersistentFlags().String("tasks", "", "Directory containing the task files (overrides tasks.dir)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config named by --config and applies command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if dir, _ := cmd.Flags().GetString("tasks"); dir != "" {
		cfg.Tasks.Dir = dir
	}
	debug, _ := cmd.Flags().GetBool("debug")
	return cfg, cli.NewLogger(cfg.Log.Level, debug), nil
}
