// Package nakdanfx provides fx modules for a nikud coordinator and its HTTP
// server.
package nakdanfx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan"
	"github.com/hebrew-tools/nakdan/internal/client"
	"github.com/hebrew-tools/nakdan/internal/client/dicta"
	"github.com/hebrew-tools/nakdan/internal/config"
	"github.com/hebrew-tools/nakdan/internal/service"
	"github.com/hebrew-tools/nakdan/internal/stats"
	"github.com/hebrew-tools/nakdan/internal/stats/logger"
	promstats "github.com/hebrew-tools/nakdan/internal/stats/prometheus"
)

// Module provides a *nakdan.Coordinator and runs its maintenance loop.
// Requires a *zap.Logger and a *config.Config to be provided. A
// client.Annotator may be supplied to replace the Dicta client.
var Module = fx.Module("nakdan",
	fx.Provide(
		newRegistry,
		newStatsCollector,
		newCoordinator,
	),
)

// ServerModule serves the coordinator over HTTP on config.Listen.
var ServerModule = fx.Module("nakdanserver",
	fx.Provide(
		newService,
		newHandler,
	),
	fx.Invoke(registerServer),
)

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newStatsCollector(cfg *config.Config, log *zap.Logger, reg *prometheus.Registry) stats.Collector {
	switch cfg.Metrics.Backend {
	case config.MetricsPrometheus:
		return promstats.New(reg)
	case config.MetricsLogger:
		return logger.New(log.Named("nakdan.stats"))
	default:
		return stats.NewNoop()
	}
}

// Params holds dependencies for creating the coordinator.
type Params struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Collector stats.Collector
	Annotator client.Annotator `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided coordinator.
type Result struct {
	fx.Out

	Coordinator *nakdan.Coordinator
}

func newCoordinator(p Params) (Result, error) {
	annotator := p.Annotator
	if annotator == nil {
		opts := append(p.Config.ClientOptions(),
			dicta.WithStats(p.Collector),
			dicta.WithLogger(p.Logger.Named("nakdan.client")),
		)
		annotator = dicta.New(opts...)
	}

	opts := append(p.Config.CoordinatorOptions(),
		nakdan.WithClient(annotator),
		nakdan.WithStats(p.Collector),
		nakdan.WithLogger(p.Logger.Named("nakdan")),
	)
	coord, err := nakdan.New(opts...)
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := coord.Run(ctx); err != nil {
					p.Logger.Warn("maintenance loop stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			return coord.Close()
		},
	})

	return Result{Coordinator: coord}, nil
}

func newService(coord *nakdan.Coordinator, log *zap.Logger) *service.Service {
	return service.New(coord, log.Named("nakdan.service"))
}

func newHandler(svc *service.Service, reg *prometheus.Registry) http.Handler {
	return service.NewHandler(svc, reg)
}

func registerServer(lc fx.Lifecycle, cfg *config.Config, h http.Handler, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", cfg.Listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
			}
			log.Info("serving nakdan API", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
