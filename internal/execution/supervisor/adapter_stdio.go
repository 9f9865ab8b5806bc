package supervisor

import (
	"context"
	"fmt"

	"github.com/logfinder/gatewayproxy/internal/execution/worker"
	"go.uber.org/zap"
)

type stdioAdapter[I, O any] struct {
	workerFactory AdapterWorkerFactoryFn[I, O]

	worker worker.Worker[I, O]

	log *zap.Logger
}

func newStdioAdapter[I, O any](
	workerFactory AdapterWorkerFactoryFn[I, O],
	log *zap.Logger,
) *stdioAdapter[I, O] {
	return &stdioAdapter[I, O]{
		workerFactory: workerFactory,
		log:           log.Named("adapter_stdio"),
	}
}

func (a *stdioAdapter[I, O]) Start(ctx context.Context, params worker.StartConfig) error {
	if a.workerFactory == nil {
		return ErrNoWorker
	}

	w, err := a.workerFactory(ctx, params)
	if err != nil {
		return fmt.Errorf("error creating worker: %w", err)
	}

	// for stdio, we can already start the worker, as we do not need to pass
	// any additional, message-specific data to the worker via arguments
	if err := w.Start(ctx); err != nil {
		a.log.Error("error starting worker", zap.Error(err))
		return err
	}

	a.worker = w

	return nil
}

func (a *stdioAdapter[I, O]) Send(
	ctx context.Context,
	data I,
	params SendConfig,
) (O, error) {
	if a.worker == nil {
		var zero O
		return zero, ErrNoWorker
	}

	res, err := a.worker.Send(ctx, data, worker.SendConfig{
		Timeout:        params.Timeout,
		CloseAfterSend: true,
	})
	if err != nil {
		a.log.Error("error sending data to worker", zap.Error(err))
		return res, err
	}

	return res, nil
}

func (a *stdioAdapter[I, O]) Stop(params worker.StopConfig) (ReleaseFunc, error) {
	if a.worker == nil {
		return nil, ErrNoWorker
	}

	return stopWorker(a.worker, params)
}
