package gateway

import "go.uber.org/fx"

// Module builds the registry from every gateway provided to the "gateways" group.
var Module = fx.Provide(newRegistry)

type registryParams struct {
	fx.In

	Gateways []Gateway `group:"gateways"`
}

func newRegistry(p registryParams) *Registry {
	return NewRegistry(p.Gateways...)
}

// Provide registers constructor as a member of the "gateways" group.
func Provide(constructor any) fx.Option {
	return fx.Provide(fx.Annotate(constructor, fx.As(new(Gateway)), fx.ResultTags(`group:"gateways"`)))
}
