package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/logfinder/gatewayproxy/internal/execution/worker"
	"go.uber.org/zap"
)

type Supervisor[I, O any] interface {
	// Start starts the supervisor. If the supervisor is persistent,
	// this will boot the worker. If the supervisor is transient, this
	// is a no-op.
	Start(ctx context.Context) error

	// Send sends a message to the worker. If the worker is persistent,
	// this will acquire the worker and send the message. If the worker
	// is transient, this will boot a new worker, send the message, and
	// terminate the worker.
	Send(ctx context.Context, data I) (*Result[O], error)

	// Suspend suspends the worker. If the worker is persistent, this
	// is a no-op. If the worker is transient, this will terminate the
	// worker.
	Suspend(ctx context.Context) (WaitFunc, error)

	// Shutdown shuts down the worker. Both persistent and transient
	// workers will be terminated.
	Shutdown(ctx context.Context) (WaitFunc, error)
}

type WorkerSupervisor[I, O any] struct {
	persistent bool

	sendLock sync.Mutex

	createAdapter func() (Adapter[I, O], error)

	worker     Adapter[I, O]
	workerLock sync.Mutex

	startParams StartConfig
	stopParams  StopConfig
	sendParams  SendConfig

	log *zap.Logger
}

var _ Supervisor[any, any] = (*WorkerSupervisor[any, any])(nil)

type WorkerFactoryFn[I, O any] func(context.Context, worker.StartConfig, *zap.Logger) (worker.Worker[I, O], error)

type Params[I, O any] struct {
	// Context bounds the lifetime of all workers created by the
	// supervisor. Workers are killed once it is done.
	Context context.Context

	// Config is the config used to set up the supervisor and its workers.
	Config Config

	// AdapterFactory is a factory function to create a new adapter. This
	// is called when the supervisor needs to create a communication adapter.
	AdapterFactory AdapterFactoryFn[I, O]

	// WorkerFactory is a factory function to create a new worker. This
	// is called when the supervisor needs to create a new worker.
	WorkerFactory WorkerFactoryFn[I, O]

	// Log is the logger to use for the supervisor
	Log *zap.Logger
}

type Result[O any] struct {
	Data    O
	Release ReleaseFunc
}

func New[I, O any](params Params[I, O]) (*WorkerSupervisor[I, O], error) {
	config := params.Config

	if params.Context == nil {
		params.Context = context.Background()
	}

	if params.Log == nil {
		params.Log = zap.NewNop()
	}

	if params.WorkerFactory == nil {
		params.WorkerFactory = defaultWorkerFactory[I, O]
	}

	if params.AdapterFactory == nil {
		params.AdapterFactory = defaultAdapterFactory[I, O]
	}

	if err := config.IO.Validate(); err != nil {
		return nil, err
	}

	// workers live as long as the supervisor context, not
	// as long as the request that happened to boot them
	workerFactory := func(
		_ context.Context,
		config worker.StartConfig,
	) (worker.Worker[I, O], error) {
		return params.WorkerFactory(params.Context, config, params.Log)
	}

	createAdapter := func() (Adapter[I, O], error) {
		adapter, err := params.AdapterFactory(
			workerFactory,
			config.IO,
			params.Log,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create adapter: %w", err)
		}

		return adapter, nil
	}

	return &WorkerSupervisor[I, O]{
		createAdapter: createAdapter,
		persistent:    config.IsPersistent(),
		startParams:   config.StartParams,
		stopParams:    config.StopParams,
		sendParams:    config.SendParams,
		log:           params.Log.Named("supervisor"),
	}, nil
}

func (s *WorkerSupervisor[I, O]) Start(ctx context.Context) error {
	if !s.persistent {
		return nil
	}

	if _, err := s.acquireWorker(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	return nil
}

func (s *WorkerSupervisor[I, O]) Send(
	ctx context.Context,
	data I,
) (*Result[O], error) {
	// supervisors are handed out by a resource pool, but
	// serialize access anyway
	s.sendLock.Lock()
	defer s.sendLock.Unlock()

	adapter, err := s.acquireWorker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire worker: %w", err)
	}

	// the worker has to be released before returning any send error
	resData, err := adapter.Send(ctx, data, s.sendParams)

	release, releaseErr := s.releaseWorker()
	if releaseErr != nil {
		release = func(context.Context) error {
			return fmt.Errorf("failed to release worker: %w", releaseErr)
		}
	}

	return &Result[O]{
		Data:    resData,
		Release: release,
	}, err
}

func (s *WorkerSupervisor[I, O]) Suspend(
	ctx context.Context,
) (WaitFunc, error) {
	release, err := s.releaseWorker()
	if err != nil {
		return nil, err
	}

	return func() error {
		return release(ctx)
	}, nil
}

func (s *WorkerSupervisor[I, O]) Shutdown(
	ctx context.Context,
) (WaitFunc, error) {
	release, err := s.terminateWorker()
	if err != nil {
		return nil, err
	}

	return func() error {
		return release(ctx)
	}, nil
}

func (s *WorkerSupervisor[I, O]) acquireWorker(
	ctx context.Context,
) (Adapter[I, O], error) {
	s.workerLock.Lock()
	defer s.workerLock.Unlock()

	if s.worker != nil {
		return s.worker, nil
	}

	adapter, err := s.bootWorker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to boot worker: %w", err)
	}

	s.worker = adapter

	return adapter, nil
}

func (s *WorkerSupervisor[I, O]) releaseWorker() (ReleaseFunc, error) {
	// persistent workers are kept alive for future messages
	if s.persistent {
		return noopReleaseFunc, nil
	}

	s.log.Debug("transient: releasing worker")

	return s.terminateWorker()
}

func (s *WorkerSupervisor[I, O]) terminateWorker() (ReleaseFunc, error) {
	s.workerLock.Lock()
	defer s.workerLock.Unlock()

	if s.worker == nil {
		s.log.Debug("no worker to release")
		return noopReleaseFunc, nil
	}

	defer func() {
		s.worker = nil
	}()

	return s.worker.Stop(s.stopParams)
}

func (s *WorkerSupervisor[I, O]) bootWorker(ctx context.Context) (Adapter[I, O], error) {
	adapter, err := s.createAdapter()
	if err != nil {
		return nil, err
	}

	if err = adapter.Start(ctx, s.startParams); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	return adapter, nil
}

func defaultWorkerFactory[I, O any](
	ctx context.Context,
	config worker.StartConfig,
	log *zap.Logger,
) (worker.Worker[I, O], error) {
	return worker.NewProcessWorker[I, O](ctx, config, log), nil
}
