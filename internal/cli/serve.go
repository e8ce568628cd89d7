package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "ducktape/internal/log"
	"ducktape/internal/web"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the companion HTTP API",
		Long: `Run the companion HTTP API until interrupted.

  GET  /health      liveness probe, never authenticated
  POST /api/parse   {"input": "..."} -> {"command", "record", "hints"}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			p, rc, err := a.newPipeline(pipelineOptions{})
			if err != nil {
				return err
			}
			if a.cfg.Cache.Purge != "" {
				stop, err := rc.SchedulePurge(a.cfg.Cache.Purge)
				if err != nil {
					return err
				}
				defer stop()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			appLog.Info("effective config",
				"listen", a.cfg.Listen,
				"timezone", a.cfg.Timezone,
				"provider", a.cfg.LLM.Provider,
				"cache_size", a.cfg.Cache.Size,
				"cache_purge", a.cfg.Cache.Purge,
				"stages", p.Stages(),
			)
			return web.NewServer(a.cfg, p).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}
