package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adaptiq",
	Short: "Adaptive quiz engine",
	Long:  "adaptiq runs prerequisite-gated adaptive quizzes over a curated and LLM-generated item bank.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ADAPTIQ_DB env var)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver: sqlite or postgres (overrides ADAPTIQ_DB_DRIVER)")
	rootCmd.PersistentFlags().String("dsn", "", "Database DSN (overrides ADAPTIQ_DB_DSN)")

	rootCmd.Flags().StringP("learner", "l", "", "Learner ID (asked for when empty)")
	rootCmd.Flags().StringP("policy", "p", "fixed", "Selection policy: fixed or adaptive")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(curriculumCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
