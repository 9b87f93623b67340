package card

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	"github.com/polkiloo/paycore/internal/config"
)

// Module contributes the card client to the gateway registry.
var Module = gateway.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func newClient(p clientParams) (*Client, error) {
	return NewClient(p.Config.CardGatewayURL, p.Config.CardGatewayKey, p.Config.CardGatewayTimeout, p.Logger.Named("card"))
}
