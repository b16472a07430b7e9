package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brk3/fifty/pkg/challenge"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <habit-id>",
	Short: "Toggle one of today's habits",
	Long: `The "toggle" command flips a habit flag on today's record. Habit ids
run "1" through "7":

` + habitLegend(),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggle(cmd, args[0])
	},
}

func habitLegend() string {
	out := ""
	for _, h := range challenge.Habits {
		out += fmt.Sprintf("  %s  %s\n", h.ID, h.Title)
	}
	return out
}

func toggle(cmd *cobra.Command, habitID string) error {
	resp, err := newClient().ToggleHabit(cmd.Context(), habitID)
	if err != nil {
		return err
	}

	cmd.Printf("Day %s: %.0f%% complete\n", resp.Day, resp.Progress*100)
	if !resp.Synced {
		cmd.Println("Saved locally; will sync when the backend is reachable.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}
