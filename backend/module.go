package backend

import (
	"go.uber.org/fx"

	"github.com/logfinder/gatewayproxy/util/logging"
)

// Module provides the worker runtime and the worker handler.
func Module(config Config) fx.Option {
	return fx.Module(
		"backend",
		// provide backend config
		fx.Supply(config),
		// rename logger for module
		logging.DecorateLogger("backend"),
		// provide runtime
		fx.Provide(NewLifecycleRuntime),
		// provide worker handler
		fx.Provide(NewWorkerHandler),
	)
}
