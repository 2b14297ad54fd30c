package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.1.0" // Set at build time with -ldflags "-X github.com/nfrund/chatgate/cmd/chatgate/cmd.version=..."

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of chatgate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chatgate v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
