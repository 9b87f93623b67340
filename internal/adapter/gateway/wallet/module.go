package wallet

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	"github.com/polkiloo/paycore/internal/config"
)

// Module contributes the wallet stub to the gateway registry.
var Module = gateway.Provide(newStub)

type stubParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func newStub(p stubParams) *Stub {
	return NewStub(p.Config.WalletLatency, p.Logger.Named("wallet"))
}
