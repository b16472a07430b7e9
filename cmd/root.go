package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/brk3/fifty/internal/apiclient"
	"github.com/brk3/fifty/internal/config"
)

var (
	cfg    *config.Config
	userID string
)

var rootCmd = &cobra.Command{
	Use:   "fifty",
	Short: "Track a 50-day habit challenge",
	Long: `
	Fifty tracks a 50-day challenge of seven fixed daily habits. Days are
	pinned to one reference timezone so a streak means the same thing on
	every device, and writes made offline land in a local queue that syncs
	when the backend is reachable again.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user id sent to the server (auth-disabled setups)")
}

func newClient() *apiclient.Client {
	c := apiclient.New(cfg.APIBaseURL)
	c.UserID = userID
	return c
}
