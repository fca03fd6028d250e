package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan/fx/nakdanfx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the nikud API over HTTP",
	Long: `Run the HTTP service exposing get_nikud, clear_cache and
update_config, plus /api/status, /healthz and /metrics.

Examples:
  nakdan serve
  nakdan serve --config nakdan.yaml --listen :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var listenAddr string

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Supply(cfg, logger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		nakdanfx.Module,
		nakdanfx.ServerModule,
	)

	ctx := cmd.Context()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		logger.Info("received signal", zap.String("signal", sig.Signal.String()))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}
