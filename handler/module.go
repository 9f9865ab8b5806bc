package handler

import "go.uber.org/fx"

// Module provides the http routes shared by the standalone server and
// the lambda http mode.
func Module() fx.Option {
	return fx.Module("handler",
		fx.Provide(NewProxyHandler),
		fx.Provide(NewProxyRoute),
		fx.Provide(NewHealthRoute),
	)
}
