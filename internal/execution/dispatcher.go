package execution

import (
	"context"

	"github.com/logfinder/gatewayproxy/internal/execution/dispatcher"
	"github.com/logfinder/gatewayproxy/internal/execution/supervisor"
	"go.uber.org/zap"
)

type Dispatcher[I, O any] dispatcher.Dispatcher[I, O]

type Config struct {
	// MaxWorkers is the maximum number of concurrent transient
	// workers. Defaults to the number of CPUs.
	MaxWorkers int `conf:"max_workers" validate:"gte=0"`

	// Supervisor is the configuration to use for the supervisors
	Supervisor supervisor.Config `conf:",squash"`
}

type Params struct {
	// Context bounds the lifetime of all workers
	Context context.Context

	// Config is the config for the dispatcher and the underlying supervisors
	Config Config

	// Log is the logger to use for the dispatcher
	Log *zap.Logger
}

// NewDispatcher creates a dedicated dispatcher for persistent workers
// and a pooled dispatcher for transient ones.
func NewDispatcher[I, O any](params Params) (Dispatcher[I, O], error) {
	if params.Config.Supervisor.IsPersistent() {
		d, err := dispatcher.NewDedicatedDispatcher(
			dispatcher.DedicatedDispatcherParams[I, O]{
				Context: params.Context,
				Config: dispatcher.DedicatedDispatcherConfig{
					Supervisor: params.Config.Supervisor,
				},
				Log: params.Log,
			},
		)
		if err != nil {
			return nil, err
		}

		return d, nil
	}

	d, err := dispatcher.NewPooledDispatcher(
		dispatcher.PooledDispatcherParams[I, O]{
			Context: params.Context,
			Config: dispatcher.PooledDispatcherConfig{
				Supervisor: params.Config.Supervisor,
				MaxWorkers: params.Config.MaxWorkers,
			},
			Log: params.Log,
		},
	)
	if err != nil {
		return nil, err
	}

	return d, nil
}
