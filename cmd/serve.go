package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the attempt API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		if _, err := a.SeedDefaultCurriculum(ctx); err != nil {
			return err
		}
		if a.Generator == nil {
			a.Log.Warn("no LLM provider configured, attempts draw from the item bank only")
		}

		addr := a.Config.Server.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}
		if interval, _ := cmd.Flags().GetDuration("sweep-interval"); interval > 0 {
			go a.Sweeper.Run(ctx, interval, a.Config.Engine.AbandonAfter)
		}

		return server.Run(ctx, addr, server.NewRouter(a.ServerDeps()), a.Log)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides ADAPTIQ_HTTP_ADDR)")
	serveCmd.Flags().Duration("sweep-interval", time.Hour, "How often to mark idle attempts abandoned (0 disables)")
}
