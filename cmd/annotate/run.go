package main

import (
	"github.com/aretw0/annotate/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Annotate a task interactively",
	Long: `Opens the task's session in the terminal. Keys dispatch commands; a line starting
with ':' runs a command by name. The session is resumed from the snapshot store unless --fresh.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx, stop := cli.InterruptContext(cmd.Context(), logger)
		defer stop()

		return cli.Run(ctx, cli.RunOptions{
			TaskID:    args[0],
			SessionID: sessionID,
			Fresh:     fresh,
			Quiet:     quiet,
			Config:    cfg,
			Logger:    logger,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("session", "", "Session ID (default task-<task-id>)")
	runCmd.Flags().Bool("fresh", false, "Discard any stored snapshot and start from the task")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
