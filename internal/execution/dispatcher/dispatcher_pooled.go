package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/jackc/puddle/v2"
	"github.com/logfinder/gatewayproxy/internal/execution/supervisor"
	"go.uber.org/zap"
)

var ErrDispatcherClosed = errors.New("dispatcher is shut down")

// PooledDispatcher hands every message to a supervisor from a bounded
// pool. Transient workers are released in the background once the
// reply has been returned.
type PooledDispatcher[I, O any] struct {
	ctx  context.Context
	pool *puddle.Pool[supervisor.Supervisor[I, O]]

	// mu guards closed and every pending.Add, so no release is added
	// once Shutdown waits on pending
	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup

	log *zap.Logger
}

var _ Dispatcher[any, any] = (*PooledDispatcher[any, any])(nil)

type PooledDispatcherConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Defaults to the number of CPUs.
	MaxWorkers int `conf:"max_workers" validate:"gte=0"`

	// Supervisor is the configuration to use for the supervisors
	Supervisor supervisor.Config `conf:",squash"`
}

type PooledDispatcherParams[I, O any] struct {
	// Context bounds the lifetime of all workers
	Context context.Context

	// Config is the config for the dispatcher and the underlying supervisors
	Config PooledDispatcherConfig

	// SupervisorFactory is the factory function to create a new supervisor
	SupervisorFactory SupervisorFactory[I, O]

	// Log is the logger to use for the dispatcher
	Log *zap.Logger
}

func NewPooledDispatcher[I, O any](
	params PooledDispatcherParams[I, O],
) (*PooledDispatcher[I, O], error) {
	if params.SupervisorFactory == nil {
		params.SupervisorFactory = defaultSupervisorFactory[I, O]
	}

	if params.Context == nil {
		params.Context = context.Background()
	}

	if params.Log == nil {
		params.Log = zap.NewNop()
	}

	// supervisors are created lazily, so fail early on bad config
	if err := params.Config.Supervisor.IO.Validate(); err != nil {
		return nil, err
	}

	if params.Config.MaxWorkers <= 0 {
		params.Config.MaxWorkers = runtime.NumCPU()
	}

	pool, err := createPool(params)
	if err != nil {
		return nil, err
	}

	return &PooledDispatcher[I, O]{
		pool: pool,
		ctx:  params.Context,
		log:  params.Log.Named("dispatcher_pooled"),
	}, nil
}

// Start is a no-op, supervisors are created on demand.
func (m *PooledDispatcher[I, O]) Start(context.Context) error {
	return nil
}

func (m *PooledDispatcher[I, O]) Send(ctx context.Context, data I) (O, error) {
	var zero O

	if m.isClosed() {
		return zero, ErrDispatcherClosed
	}

	resource, err := m.pool.Acquire(ctx)
	if errors.Is(err, puddle.ErrClosedPool) {
		return zero, ErrDispatcherClosed
	}
	if err != nil {
		return zero, fmt.Errorf("error acquiring supervisor: %w", err)
	}

	res, err := resource.Value().Send(ctx, data)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		// the pool is closing and waits for this resource
		m.dispose(resource, res, err)
	} else {
		m.pending.Add(1)
		m.mu.Unlock()

		go func() {
			defer m.pending.Done()
			m.dispose(resource, res, err)
		}()
	}

	if err != nil {
		return zero, fmt.Errorf("error sending data: %w", err)
	}

	return res.Data, nil
}

// dispose returns the supervisor to the pool once its worker has been
// released. Supervisors that failed are destroyed.
func (m *PooledDispatcher[I, O]) dispose(
	resource *puddle.Resource[supervisor.Supervisor[I, O]],
	res *supervisor.Result[O],
	sendErr error,
) {
	if res != nil && res.Release != nil {
		if err := res.Release(m.ctx); err != nil {
			m.log.Error("destroying supervisor due to error releasing worker", zap.Error(err))
			resource.Destroy()
			return
		}
	}

	if sendErr != nil {
		m.log.Debug("destroying supervisor due to error", zap.Error(sendErr))
		resource.Destroy()
		return
	}

	resource.Release()
}

// Shutdown rejects further sends, waits for pending releases and closes
// the pool, which shuts down all idle supervisors. Later calls are no-ops.
func (m *PooledDispatcher[I, O]) Shutdown(context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.log.Debug("shutting down dispatcher")

	m.pending.Wait()
	m.pool.Close()

	return nil
}

func (m *PooledDispatcher[I, O]) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Stat reports the current pool usage.
func (m *PooledDispatcher[I, O]) Stat() *puddle.Stat {
	return m.pool.Stat()
}

// MARK: - Pool

func createPool[I, O any](
	params PooledDispatcherParams[I, O],
) (*puddle.Pool[supervisor.Supervisor[I, O]], error) {
	log := params.Log.Named("dispatcher_pool")

	constructor := func(ctx context.Context) (supervisor.Supervisor[I, O], error) {
		sv, err := params.SupervisorFactory(supervisor.Params[I, O]{
			Context: params.Context,
			Config:  params.Config.Supervisor,
			Log:     params.Log,
		})
		if err != nil {
			return nil, err
		}

		if err = sv.Start(ctx); err != nil {
			return nil, err
		}

		return sv, nil
	}

	destructor := func(s supervisor.Supervisor[I, O]) {
		if err := waitForShutdown(params.Context, s); err != nil {
			log.Error("error shutting down supervisor", zap.Error(err))
		}
	}

	return puddle.NewPool(&puddle.Config[supervisor.Supervisor[I, O]]{
		Constructor: constructor,
		Destructor:  destructor,
		MaxSize:     int32(params.Config.MaxWorkers),
	})
}
