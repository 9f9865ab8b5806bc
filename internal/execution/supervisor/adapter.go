package supervisor

import (
	"context"

	"github.com/logfinder/gatewayproxy/internal/execution/worker"
	"go.uber.org/zap"
)

// ReleaseFunc waits for a released worker to be gone.
type ReleaseFunc func(context.Context) error

// WaitFunc waits for a shut down supervisor to be gone.
type WaitFunc func() error

func noopReleaseFunc(context.Context) error {
	return nil
}

// AdapterWorkerFactoryFn creates the worker an adapter talks to.
type AdapterWorkerFactoryFn[I, O any] func(context.Context, worker.StartConfig) (worker.Worker[I, O], error)

// AdapterFactoryFn creates the adapter for the configured IO interface.
type AdapterFactoryFn[I, O any] func(AdapterWorkerFactoryFn[I, O], IOConfig, *zap.Logger) (Adapter[I, O], error)

// Adapter hides the IO interface used to talk to a worker.
type Adapter[I, O any] interface {
	Start(context.Context, worker.StartConfig) error
	Send(context.Context, I, SendConfig) (O, error)
	Stop(worker.StopConfig) (ReleaseFunc, error)
}

// MARK: - factory

func defaultAdapterFactory[I, O any](
	workerFactory AdapterWorkerFactoryFn[I, O],
	config IOConfig,
	log *zap.Logger,
) (Adapter[I, O], error) {
	switch config.Interface {
	case StdIO, "":
		return newStdioAdapter(workerFactory, log), nil
	case RpcIO:
		return newRpcAdapter(workerFactory, config.Rpc, log), nil
	default:
		return nil, ErrUnsupportedIOMode
	}
}

// MARK: - helpers

func stopWorker[I, O any](
	w worker.Worker[I, O],
	params worker.StopConfig,
) (ReleaseFunc, error) {
	// gracefully shutdown the worker
	if err := w.Terminate(); err != nil {
		// no need to wait for termination if we could not terminate
		return nil, err
	}

	release := func(ctx context.Context) error {
		// wait for the worker to terminate
		if _, err := w.WaitFor(ctx, params.Timeout); err != nil {
			// kill the worker if it does not stop in time
			_ = w.Kill()
			return err
		}

		return nil
	}

	return release, nil
}
