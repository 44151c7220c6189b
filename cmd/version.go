package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"loadgen/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "loadgen %s\n", version.String())
		},
	}
}
