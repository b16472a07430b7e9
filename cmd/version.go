package cmd

import (
	"github.com/spf13/cobra"

	"github.com/brk3/fifty/pkg/versioninfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `The "version" command displays the current version info for both client
and server if available.`,
	Run: func(cmd *cobra.Command, args []string) {
		version(cmd)
	},
}

func version(cmd *cobra.Command) {
	cmd.Printf("Client Version: %s\n", versioninfo.Version)

	serverVersion, err := newClient().Version(cmd.Context())
	if err != nil {
		cmd.Println("Error fetching server version:", err)
		return
	}
	cmd.Printf("Server Version: %s\n", serverVersion.Version)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
