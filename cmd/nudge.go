package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brk3/fifty/internal/nudge"
	"github.com/brk3/fifty/internal/nudge/resend"
)

var (
	resendAPIKey   string
	nudgeFrom      string
	nudgeThreshold int
)

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Email users whose streak expires within the threshold window",
	Long: `The "nudge" command scans all users and emails anyone with a live
streak and an incomplete day when the day boundary is close. Meant to run
from cron shortly before midnight in the challenge's reference timezone.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if resendAPIKey = os.Getenv("FIFTY_RESEND_API_KEY"); resendAPIKey == "" {
			return fmt.Errorf("FIFTY_RESEND_API_KEY environment variable is not set")
		}
		if nudgeFrom = os.Getenv("FIFTY_NOTIFY_FROM"); nudgeFrom == "" {
			nudgeFrom = "onboarding@resend.dev"
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNudge(cmd)
	},
}

func runNudge(cmd *cobra.Command) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	n := &resend.Notifier{
		APIKey: resendAPIKey,
		From:   nudgeFrom,
	}
	sent, err := nudge.Run(cmd.Context(), store, n, time.Duration(nudgeThreshold)*time.Hour)
	if err != nil {
		return err
	}
	cmd.Printf("Sent %d nudge(s).\n", sent)
	return nil
}

func init() {
	nudgeCmd.Flags().IntVar(&nudgeThreshold, "threshold", 2, "hours before the day boundary to start nudging")
	rootCmd.AddCommand(nudgeCmd)
}
