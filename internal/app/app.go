package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/config"
	"github.com/polkiloo/paycore/internal/metrics"
	"github.com/polkiloo/paycore/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewPaymentFacade,
		newHTTPServer,
		newPendingSweeper,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade  *PaymentFacade
	Config  *config.Config
	Metrics *metrics.Collectors
	Logger  *zap.Logger
}

func newPendingSweeper(p workerParams) *worker.PendingSweeper {
	return worker.NewPendingSweeper(
		p.Facade,
		worker.SweeperOptions{
			Interval:       p.Config.SweepInterval,
			ReconcileAfter: p.Config.ReconcileAfter,
			StaleAfter:     p.Config.StaleOrderTTL,
			BatchSize:      p.Config.SweepBatchSize,
			Workers:        p.Config.WorkerPoolSize,
		},
		p.Metrics,
		p.Logger.Named("sweeper"),
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	Server     *http.Server
	Sweeper    *worker.PendingSweeper
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting paycore", zap.String("addr", p.Server.Addr))
			p.Sweeper.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", zap.Error(err))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Sweeper.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("paycore stopped")
			return nil
		},
	})
}
