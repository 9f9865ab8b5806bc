package backend

import (
	"context"
	"encoding/json"

	"github.com/logfinder/gatewayproxy/internal/execution"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Runtime sends envelopes to workers and returns their raw replies.
type Runtime interface {
	Handle(context.Context, Envelope) (json.RawMessage, error)

	Start(context.Context) error

	Shutdown(context.Context) error
}

// Config is the configuration of the worker backend.
type Config = execution.Config

// Dispatcher is the dispatcher type used by the worker backend.
type Dispatcher = execution.Dispatcher[Envelope, json.RawMessage]

// WorkerRuntime is a runtime backed by worker processes.
type WorkerRuntime struct {
	dispatcher Dispatcher

	log *zap.Logger
}

var _ Runtime = (*WorkerRuntime)(nil)

// RuntimeParams defines the dependencies for the runtime.
type RuntimeParams struct {
	fx.In

	// Context bounds the lifetime of all workers
	Context context.Context

	// Config is the config for the worker dispatcher
	Config Config

	// Log is the logger to use for the runtime
	Log *zap.Logger
}

// NewRuntime creates a runtime dispatching to worker processes.
func NewRuntime(params RuntimeParams) (*WorkerRuntime, error) {
	dispatcher, err := execution.NewDispatcher[Envelope, json.RawMessage](execution.Params{
		Context: params.Context,
		Config:  params.Config,
		Log:     params.Log,
	})
	if err != nil {
		return nil, err
	}

	return &WorkerRuntime{
		dispatcher: dispatcher,
		log:        params.Log.Named("runtime"),
	}, nil
}

// NewLifecycleRuntime creates a runtime that is started and shut down
// along with the fx app.
func NewLifecycleRuntime(params RuntimeParams, lc fx.Lifecycle) (Runtime, error) {
	r, err := NewRuntime(params)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: r.Start,
		OnStop:  r.Shutdown,
	})

	return r, nil
}

func (r *WorkerRuntime) Start(ctx context.Context) error {
	r.log.Debug("starting runtime")
	return r.dispatcher.Start(ctx)
}

func (r *WorkerRuntime) Handle(ctx context.Context, env Envelope) (json.RawMessage, error) {
	return r.dispatcher.Send(ctx, env)
}

func (r *WorkerRuntime) Shutdown(ctx context.Context) error {
	r.log.Debug("shutting down runtime")
	return r.dispatcher.Shutdown(ctx)
}
