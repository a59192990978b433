package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gruposillas/lol-activity/internal/server"
	"github.com/gruposillas/lol-activity/pkg/logging"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve activity lookups over HTTP",
		Long:  `Start the HTTP worker: /played/{player}, /health, /ready and /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	_ = opts.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	logger := logging.NewLogger("serve")
	cfg := opts.cfg

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	serverCfg := server.DefaultConfig()
	serverCfg.Addr = cfg.Server.Addr
	serverCfg.Platform = cfg.API.Platform
	serverCfg.DefaultDays = cfg.Activity.MaxDays
	if a.cache != nil {
		serverCfg.Ready = a.cache
	}

	srv := server.New(serverCfg, a.client)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
