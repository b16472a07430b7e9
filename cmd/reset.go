package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy all challenge state and start over from day 1",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reset(cmd)
	},
}

func reset(cmd *cobra.Command) error {
	if !resetForce {
		cmd.Print("This deletes your profile, streak and day records. Type 'yes' to continue: ")
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			return fmt.Errorf("aborted")
		}
	}

	if err := newClient().Reset(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Challenge reset. Day 1 starts now.")
	return nil
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
