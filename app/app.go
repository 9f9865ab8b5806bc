package app

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/logfinder/gatewayproxy/backend"
	"github.com/logfinder/gatewayproxy/config"
	"github.com/logfinder/gatewayproxy/internal/shell"
	"github.com/logfinder/gatewayproxy/proxy"
	"github.com/logfinder/gatewayproxy/util/conf"
	"github.com/logfinder/gatewayproxy/util/logging"
)

func New(ctx *cli.Context) (*shell.Shell, error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, err
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return shell.New(log, Module(cfg)), nil
}

// Module wires the worker backend behind a proxy adapter. The adapter
// is provided both as *proxy.Adapter and as proxy.Handler.
func Module(cfg config.Config) fx.Option {
	return fx.Module(
		"shared",
		// provide global config
		fx.Supply(cfg),
		// provide worker runtime and handler
		backend.Module(cfg.Backend),
		// provide adapter
		fx.Provide(NewAdapter),
		fx.Provide(func(adapter *proxy.Adapter) proxy.Handler {
			return adapter
		}),
	)
}

type AdapterParams struct {
	fx.In

	Config  config.Config
	Handler *backend.WorkerHandler
	Log     *zap.Logger
}

// NewAdapter wraps the worker handler with error reporting and request
// logging, and applies the configured error mode.
func NewAdapter(params AdapterParams) *proxy.Adapter {
	handler := proxy.Chain(
		params.Handler,
		proxy.WithErrorReporting(),
		proxy.WithLogging(params.Log.Named("proxy")),
	)

	return proxy.NewAdapter(handler, proxy.WithErrorMode(params.Config.Proxy.ErrorMode))
}
