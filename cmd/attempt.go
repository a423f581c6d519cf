package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/attempt"
	"github.com/abhisek/adaptiq/internal/bank"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Drive an attempt from the command line (outputs JSON)",
}

var attemptStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start an attempt and print its first suspension",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		learner, _ := f.GetString("learner")
		topic, _ := f.GetString("topic")
		subtopic, _ := f.GetString("subtopic")
		difficulty, _ := f.GetString("difficulty")
		policyFlag, _ := f.GetString("policy")
		target, _ := f.GetInt("target")
		id, _ := f.GetString("id")

		policy, err := bank.ParsePolicy(policyFlag)
		if err != nil {
			return err
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		out, err := a.Engine.Start(cmd.Context(), attempt.StartRequest{
			AttemptID:  id,
			LearnerID:  learner,
			Topic:      topic,
			Subtopic:   subtopic,
			Difficulty: difficulty,
			Policy:     policy,
			Target:     target,
		})
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var attemptAnswerCmd = &cobra.Command{
	Use:   "answer <attempt-id> <choice>",
	Short: "Answer the pending item (choice is 0-based)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		choice, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid choice %q: %w", args[1], err)
		}
		in := attempt.ResumeInput{CurrentAnswer: choice}
		if cmd.Flags().Changed("index") {
			idx, _ := cmd.Flags().GetInt("index")
			in.Index = &idx
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		out, err := a.Engine.Resume(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var attemptRetryCmd = &cobra.Command{
	Use:   "retry <attempt-id>",
	Short: "Re-run item selection after no item was available",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		out, err := a.Engine.Retry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var attemptEndCmd = &cobra.Command{
	Use:   "end <attempt-id>",
	Short: "End an attempt early and record its transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		out, err := a.Engine.End(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var attemptShowCmd = &cobra.Command{
	Use:   "show <attempt-id>",
	Short: "Print the checkpointed state of an attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		st, err := a.Engine.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(st)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := attemptStartCmd.Flags()
	f.String("learner", "", "Learner ID")
	f.String("topic", "", "Topic")
	f.String("subtopic", "", "Subtopic")
	f.String("difficulty", attempt.DefaultDifficulty, "Difficulty level")
	f.String("policy", "fixed", "Selection policy: fixed or adaptive")
	f.Int("target", 0, "Number of items (default ADAPTIQ_QUIZ_LENGTH)")
	f.String("id", "", "Attempt ID (generated when empty)")
	_ = attemptStartCmd.MarkFlagRequired("learner")
	_ = attemptStartCmd.MarkFlagRequired("topic")
	_ = attemptStartCmd.MarkFlagRequired("subtopic")

	attemptAnswerCmd.Flags().Int("index", 0, "Position of the item being answered (rejects stale answers)")

	attemptCmd.AddCommand(attemptStartCmd)
	attemptCmd.AddCommand(attemptAnswerCmd)
	attemptCmd.AddCommand(attemptRetryCmd)
	attemptCmd.AddCommand(attemptEndCmd)
	attemptCmd.AddCommand(attemptShowCmd)
}
