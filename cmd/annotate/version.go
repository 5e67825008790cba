package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/annotate"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of annotate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "annotate version %s\n", strings.TrimSpace(annotate.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
