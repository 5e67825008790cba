package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/annotate/internal/cli"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the default key bindings",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, k := range cli.DefaultKeys() {
			fmt.Fprintf(w, "%s\t%s\n", k.Keys, k.Description)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
