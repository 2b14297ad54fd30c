package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatgate",
	Short: "Real-time chat gateway",
	Long: `chatgate serves a single chat room over websockets. Every message is
persisted, broadcast to all connected clients and answered by an automated
assistant that searches the music catalog.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
