package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "bespreking/internal/log"
	"bespreking/internal/publish"
	"bespreking/internal/web"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and, if configured, the schedule publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"clusters", len(cfg.Clusters),
				"publish", cfg.Publish.Enabled(),
			)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			if cfg.Publish.Enabled() {
				// The publisher works on its own copy; mapping edits made in
				// the web UI apply to it after a restart.
				pubCfg := *cfg
				pubCfg.Clusters = cfg.Clusters.Clone()
				p, err := publish.New(&pubCfg)
				if err != nil {
					return err
				}
				if err := p.Start(ctx); err != nil {
					return err
				}
			}

			err := web.StartServer(ctx, cfg, flagConfig)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			appLog.Info("bespreking exiting")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
