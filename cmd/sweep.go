package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark idle unfinished attempts as abandoned",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		idle := a.Config.Engine.AbandonAfter
		if v, _ := cmd.Flags().GetDuration("older-than"); v > 0 {
			idle = v
		}
		n, err := a.Sweeper.MarkAbandoned(cmd.Context(), time.Now().Add(-idle))
		if err != nil {
			return err
		}
		fmt.Printf("Marked %d attempt(s) idle for more than %s as abandoned.\n", n, idle)
		return nil
	},
}

func init() {
	sweepCmd.Flags().Duration("older-than", 0, "Idle cutoff (default ADAPTIQ_ABANDON_AFTER)")
}
