package config

import (
	"fmt"

	"github.com/logfinder/gatewayproxy/backend"
	"github.com/logfinder/gatewayproxy/proxy"
	"github.com/logfinder/gatewayproxy/util/conf"
)

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format" validate:"omitempty,oneof=production development"`

	// Proxy configures the gateway adapter
	Proxy ProxyConfig `conf:"proxy"`

	// Backend configures the worker processes handling requests
	Backend backend.Config `conf:"backend"`
}

type ProxyConfig struct {
	// ErrorMode decides whether handler failures reach the host
	// or are answered with a 500 response
	ErrorMode proxy.ErrorMode `conf:"error_mode" validate:"omitempty,oneof=propagate respond"`
}

var backendDefaults = conf.DefaultConfig{
	"io.interface":     "stdio",
	"io.rpc.transport": "stdio",
	"io.rpc.method":    "handle",
	"max_workers":      0,
	"send.timeout":     "30s",
	"stop.timeout":     "5s",
}

var DefaultConfig = merge(
	conf.DefaultConfig{
		"log_level":        "info",
		"log_format":       "production",
		"proxy.error_mode": string(proxy.ErrorModePropagate),
	},
	conf.MergeDefaults("backend", backendDefaults),
)

// Validate checks the config before the application is assembled.
func (c Config) Validate() error {
	if err := conf.Validate(c); err != nil {
		return err
	}

	if err := c.Backend.Supervisor.IO.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func merge(maps ...conf.DefaultConfig) conf.DefaultConfig {
	merged := conf.DefaultConfig{}
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
