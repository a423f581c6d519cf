package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <learner-id>",
	Short: "Show a learner's progress and recent attempts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		learner := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		records, err := a.Store.ProgressRepo().List(ctx, learner)
		if err != nil {
			return fmt.Errorf("read progress: %w", err)
		}
		if len(records) == 0 {
			fmt.Printf("No progress recorded for %s.\n", learner)
			return nil
		}

		fmt.Printf("%-24s  %-28s  %8s  %6s  %9s\n", "Topic", "Subtopic", "Attempts", "Last", "Completed")
		fmt.Println(strings.Repeat("─", 84))
		for _, p := range records {
			done := ""
			if p.Completed {
				done = "✓"
			}
			fmt.Printf("%-24s  %-28s  %8d  %5.0f%%  %9s\n",
				truncate(p.Topic, 24), truncate(p.Subtopic, 28), p.Attempts, p.LastScore, done)
		}

		if limit <= 0 {
			return nil
		}
		transcripts, err := a.Store.TranscriptRepo().ListByLearner(ctx, learner, limit)
		if err != nil {
			return fmt.Errorf("read transcripts: %w", err)
		}
		if len(transcripts) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Recent Attempts")
		fmt.Println(strings.Repeat("─", 84))
		for _, t := range transcripts {
			verdict := "not yet"
			if t.Passed {
				verdict = "passed"
			}
			fmt.Printf("%-19s  %-36s  %2d/%-2d  %5.0f%%  %s\n",
				t.FinishedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(t.Topic+" / "+t.Subtopic, 36),
				t.CorrectCount, t.ServedCount, t.Score, verdict)
		}
		return nil
	},
}

func init() {
	progressCmd.Flags().IntP("limit", "n", 10, "Number of recent attempts to show (0 hides them)")
}
