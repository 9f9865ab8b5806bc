package standalone

import (
	"go.uber.org/fx"

	"github.com/logfinder/gatewayproxy/handler"
	"github.com/logfinder/gatewayproxy/internal/server"
	"github.com/logfinder/gatewayproxy/util/logging"
)

func Module(config Config) fx.Option {
	return fx.Module(
		"serve",
		// rename logger for module
		logging.DecorateLogger("serve"),
		// provide handlers
		handler.Module(),
		// provide server
		server.Module(config.HttpConfig),
	)
}
