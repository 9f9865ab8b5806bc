package dispatcher

import (
	"context"

	"github.com/logfinder/gatewayproxy/internal/execution/supervisor"
)

type Dispatcher[I, O any] interface {
	// Send sends data to a supervisor and returns the result
	Send(context.Context, I) (O, error)

	// Start starts the dispatcher and all persistent workers
	Start(context.Context) error

	// Shutdown stops the dispatcher and waits for all workers to finish.
	Shutdown(context.Context) error
}

type SupervisorFactory[I, O any] func(supervisor.Params[I, O]) (supervisor.Supervisor[I, O], error)

func defaultSupervisorFactory[I, O any](
	params supervisor.Params[I, O],
) (supervisor.Supervisor[I, O], error) {
	sv, err := supervisor.New(params)
	if err != nil {
		return nil, err
	}

	return sv, nil
}

func waitForShutdown[I, O any](
	ctx context.Context,
	s supervisor.Supervisor[I, O],
) error {
	wait, err := s.Shutdown(ctx)
	if err != nil {
		return err
	}

	if wait == nil {
		return nil
	}

	return wait()
}
