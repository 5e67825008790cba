package main

import (
	"github.com/aretw0/annotate/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <task-id>",
	Short: "Expose a task's session as MCP tools",
	Long:  `Starts a Model Context Protocol server over stdio (or SSE with --sse) driving one session.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		sse, _ := cmd.Flags().GetString("sse")
		baseURL, _ := cmd.Flags().GetString("base-url")

		ctx, stop := cli.InterruptContext(cmd.Context(), logger)
		defer stop()

		return cli.ServeMCP(ctx, cli.MCPOptions{
			TaskID:    args[0],
			SessionID: sessionID,
			Fresh:     fresh,
			SSEAddr:   sse,
			BaseURL:   baseURL,
			Config:    cfg,
			Logger:    logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("session", "", "Session ID (default task-<task-id>)")
	mcpCmd.Flags().Bool("fresh", false, "Discard any stored snapshot and start from the task")
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address instead of stdio")
	mcpCmd.Flags().String("base-url", "", "Public base URL for the SSE transport")
}
