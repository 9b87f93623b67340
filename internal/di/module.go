package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	"github.com/polkiloo/paycore/internal/adapter/gateway/card"
	"github.com/polkiloo/paycore/internal/adapter/gateway/wallet"
	"github.com/polkiloo/paycore/internal/adapter/notify"
	"github.com/polkiloo/paycore/internal/app"
	"github.com/polkiloo/paycore/internal/config"
	"github.com/polkiloo/paycore/internal/logger"
	"github.com/polkiloo/paycore/internal/metrics"
	"github.com/polkiloo/paycore/internal/pkg/auth"
	"github.com/polkiloo/paycore/internal/server/http/handlers"
	"github.com/polkiloo/paycore/internal/server/http/router"
	"github.com/polkiloo/paycore/internal/storage/postgres"
	"github.com/polkiloo/paycore/internal/tracing"
	"github.com/polkiloo/paycore/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		tracing.Module,
		auth.Module,
		postgres.Module,
		gateway.Module,
		card.Module,
		wallet.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(f *app.PaymentFacade) handlers.Facade { return f },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
