package standalone

import (
	"github.com/logfinder/gatewayproxy/internal/server"
	"github.com/logfinder/gatewayproxy/util/conf"
)

type Config struct {
	// HttpConfig represents the configuration for the HTTP server.
	HttpConfig server.HttpConfig `conf:",squash"`
}

var DefaultConfig = conf.DefaultConfig{
	"host": "localhost",
	"port": 8080,
	"h2c":  false,
}
