package cmd

import (
	"musee/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the streaming HTTP server",
	Long:  `Start the HTTP server that serves signed HLS playlists and progressive audio redirects.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
