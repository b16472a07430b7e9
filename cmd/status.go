package cmd

import (
	"github.com/spf13/cobra"

	"github.com/brk3/fifty/pkg/challenge"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's progress and the current streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		return status(cmd)
	},
}

func status(cmd *cobra.Command) error {
	c := newClient()

	profile, err := c.Profile(cmd.Context())
	if err != nil {
		return err
	}
	progress, err := c.Progress(cmd.Context())
	if err != nil {
		return err
	}

	p := profile.Profile
	cmd.Printf("Day %d of %d (%s)\n", profile.DayNumber, challenge.Length, progress.Day)
	cmd.Printf("Streak: %d (longest %d), days completed: %d\n",
		p.CurrentStreak, p.LongestStreak, p.TotalDaysCompleted)
	cmd.Println()

	for _, h := range challenge.Habits {
		mark := " "
		if done, ok := progress.Fields[h.ID].(bool); ok && done {
			mark = "x"
		}
		cmd.Printf("  [%s] %s  %s\n", mark, h.ID, h.Title)
	}

	if len(p.Badges) > 0 {
		cmd.Println()
		cmd.Println("Badges:", p.Badges)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
