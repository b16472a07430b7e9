package cmd

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending offline writes to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sync(cmd)
	},
}

func sync(cmd *cobra.Command) error {
	c := newClient()

	status, err := c.SyncStatus(cmd.Context())
	if err != nil {
		return err
	}
	if !status.Pending {
		cmd.Println("Nothing pending.")
		return nil
	}
	cmd.Printf("Pending days: %v\n", status.Days)

	resp, err := c.Sync(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Synced %d day(s).\n", resp.Synced)
	if resp.Pending {
		cmd.Println("Some writes are still pending; try again later.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
