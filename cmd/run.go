package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/app"
	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/config"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

// loadConfig reads the environment and applies the persistent database
// flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, fmt.Errorf("read configuration: %w", err)
	}
	if d, _ := cmd.Flags().GetString("driver"); d != "" {
		cfg.Store.Driver = d
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return cfg, fmt.Errorf("resolve DB path: %w", err)
		}
		cfg.Store.Driver = "sqlite"
		cfg.Store.DSN = p
	}
	return cfg, nil
}

// openApp builds the full dependency graph. Logs go to stderr unless
// quiet is set and no log file is configured.
func openApp(cmd *cobra.Command, quiet bool) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	mode := cfg.LogMode
	if quiet && cfg.LogFile == "" {
		mode = "nop"
	}
	log, err := logger.New(mode, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// closeApp releases the app and flushes its logger.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Log.Warn("close failed", "error", err)
	}
	a.Log.Sync()
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	learner, _ := cmd.Flags().GetString("learner")
	policyFlag, _ := cmd.Flags().GetString("policy")
	policy, err := bank.ParsePolicy(policyFlag)
	if err != nil {
		return err
	}

	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if _, err := a.SeedDefaultCurriculum(cmd.Context()); err != nil {
		return err
	}
	if a.Generator == nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured; quizzes draw from the item bank only.")
	}
	if a.Embedder == nil {
		fmt.Fprintln(os.Stderr, "Embedding provider not configured; near-duplicate items are not filtered.")
	}

	return app.RunTUI(cmd.Context(), a.Services(learner, policy))
}
