package main

import (
	"github.com/aretw0/annotate/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [task-id]...",
	Short: "Serve annotation sessions over HTTP",
	Long: `Opens one session per task (every task in the directory when none are given) and
exposes them over the HTTP API, with Server-Sent Events and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		ctx, stop := cli.InterruptContext(cmd.Context(), logger)
		defer stop()

		return cli.Serve(ctx, cli.ServeOptions{
			TaskIDs: args,
			Config:  cfg,
			Logger:  logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
