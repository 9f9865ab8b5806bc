package dispatcher

import (
	"context"
	"fmt"

	"github.com/logfinder/gatewayproxy/internal/execution/supervisor"
	"go.uber.org/zap"
)

// DedicatedDispatcher sends all messages to a single persistent worker.
type DedicatedDispatcher[I, O any] struct {
	supervisor supervisor.Supervisor[I, O]
	log        *zap.Logger
}

var _ Dispatcher[any, any] = (*DedicatedDispatcher[any, any])(nil)

type DedicatedDispatcherConfig struct {
	// Supervisor is the configuration to use for the supervisor
	Supervisor supervisor.Config `conf:",squash"`
}

type DedicatedDispatcherParams[I, O any] struct {
	// Context bounds the lifetime of the worker
	Context context.Context

	// Config is the config for the dispatcher and the underlying supervisor
	Config DedicatedDispatcherConfig

	// SupervisorFactory is the factory function to create a new supervisor
	SupervisorFactory SupervisorFactory[I, O]

	// Log is the logger to use for the dispatcher
	Log *zap.Logger
}

func NewDedicatedDispatcher[I, O any](
	params DedicatedDispatcherParams[I, O],
) (*DedicatedDispatcher[I, O], error) {
	if params.SupervisorFactory == nil {
		params.SupervisorFactory = defaultSupervisorFactory[I, O]
	}

	if params.Log == nil {
		params.Log = zap.NewNop()
	}

	sv, err := params.SupervisorFactory(supervisor.Params[I, O]{
		Context: params.Context,
		Config:  params.Config.Supervisor,
		Log:     params.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating supervisor: %w", err)
	}

	return &DedicatedDispatcher[I, O]{
		supervisor: sv,
		log:        params.Log.Named("dispatcher_dedicated"),
	}, nil
}

func (m *DedicatedDispatcher[I, O]) Start(ctx context.Context) error {
	m.log.Debug("booting")

	if err := m.supervisor.Start(ctx); err != nil {
		m.log.Error("error booting", zap.Error(err))
		return err
	}

	m.log.Debug("done booting")

	return nil
}

func (m *DedicatedDispatcher[I, O]) Send(
	ctx context.Context,
	data I,
) (O, error) {
	m.log.Debug("sending message")

	res, err := m.supervisor.Send(ctx, data)
	if err != nil {
		m.log.Error("error sending message", zap.Error(err))
		var zero O
		return zero, fmt.Errorf("error sending data: %w", err)
	}

	if err := res.Release(ctx); err != nil {
		m.log.Error("error releasing worker", zap.Error(err))
		return res.Data, fmt.Errorf("error releasing worker: %w", err)
	}

	return res.Data, nil
}

// Shutdown stops the worker and waits for it to exit.
func (m *DedicatedDispatcher[I, O]) Shutdown(ctx context.Context) error {
	m.log.Debug("shutting down")

	if err := waitForShutdown(ctx, m.supervisor); err != nil {
		m.log.Error("error shutting down", zap.Error(err))
		return err
	}

	m.log.Debug("shut down")

	return nil
}
