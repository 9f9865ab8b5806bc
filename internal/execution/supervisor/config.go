package supervisor

import (
	"fmt"
	"time"

	"github.com/logfinder/gatewayproxy/internal/execution/worker"
)

// StartConfig describes the configuration for starting the worker.
type StartConfig = worker.StartConfig

// StopConfig describes the configuration for stopping the worker.
type StopConfig = worker.StopConfig

// SendConfig describes the configuration for sending messages to the worker.
type SendConfig struct {
	// Timeout is the timeout for a single message round trip.
	Timeout time.Duration `conf:"timeout"`
}

// IOConfig describes how the supervisor talks to its worker.
type IOConfig struct {
	// Interface is either "stdio" or "rpc".
	//
	// If "stdio", every message is handled by a fresh worker process.
	// The message is written to stdin, stdin is closed, and the reply
	// is read from stdout.
	//
	// If "rpc", the worker is started once and kept alive. Messages
	// are sent as json-rpc calls over the configured transport.
	//
	// Default is "stdio".
	Interface IOInterface `conf:"interface" validate:"omitempty,oneof=stdio rpc"`

	// Rpc is the configuration for the rpc interface.
	Rpc RpcConfig `conf:"rpc"`
}

type Config struct {
	// IO is the IO config to use for the worker.
	IO IOConfig `conf:"io"`

	// StartParams are the parameters to pass to the worker when
	// starting it.
	StartParams StartConfig `conf:",squash"`

	// StopParams are the parameters to pass to the worker when
	// terminating it.
	StopParams StopConfig `conf:"stop"`

	// SendParams are the parameters to pass to the worker when
	// sending a message.
	SendParams SendConfig `conf:"send"`
}

// IsPersistent reports whether workers outlive a single message.
func (c Config) IsPersistent() bool {
	return c.IO.Interface == RpcIO
}

// Validate reports unsupported io interfaces.
func (c IOConfig) Validate() error {
	switch c.Interface {
	case "", StdIO, RpcIO:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedIOMode, c.Interface)
	}
}
