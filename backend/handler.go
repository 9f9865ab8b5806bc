package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/logfinder/gatewayproxy/backend/schema"
	"github.com/logfinder/gatewayproxy/proxy"
	"github.com/logfinder/gatewayproxy/util"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HandlerParams defines the dependencies for the worker handler.
type HandlerParams struct {
	fx.In

	Runtime Runtime

	Log *zap.Logger
}

// WorkerHandler is a proxy.Handler that delegates every request to
// the worker runtime.
type WorkerHandler struct {
	runtime Runtime
	schema  *schema.Schema
	log     *zap.Logger
}

var _ proxy.Handler = (*WorkerHandler)(nil)

// the schemas are embedded, loading them only fails on a broken build
var workerSchema = util.Must(schema.New())

// NewWorkerHandler creates a handler sending requests to runtime.
func NewWorkerHandler(params HandlerParams) (*WorkerHandler, error) {
	if params.Runtime == nil {
		return nil, ErrNoRuntime
	}

	return &WorkerHandler{
		runtime: params.Runtime,
		schema:  workerSchema,
		log:     params.Log.Named("worker_handler"),
	}, nil
}

// Handle sends the request envelope to a worker and converts its reply.
// Worker failures, transport errors and malformed replies are returned
// as errors.
func (h *WorkerHandler) Handle(ctx context.Context, req proxy.Request) (proxy.Response, error) {
	log := h.log.With(
		zap.String("path", req.Path),
		zap.String("method", req.Method),
		zap.String("request_id", req.Context.RequestID),
	)

	env := NewEnvelope(req)

	if err := h.validate(schema.SchemaTypeEnvelope, env); err != nil {
		log.Error("invalid envelope", zap.Error(err))
		return proxy.Response{}, err
	}

	raw, err := h.runtime.Handle(ctx, env)
	if err != nil {
		log.Debug("worker failed", zap.Error(err))
		return proxy.Response{}, fmt.Errorf("worker failed: %w", err)
	}

	if err := h.validate(schema.SchemaTypeReply, raw); err != nil {
		log.Debug("invalid reply", zap.Error(err))
		return proxy.Response{}, err
	}

	var reply Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return proxy.Response{}, fmt.Errorf("%w: %w", ErrInvalidReply, err)
	}

	if reply.Error != nil {
		log.Debug("worker reported error", zap.String("message", reply.Error.Message))
		return proxy.Response{}, &HandlerError{Message: reply.Error.Message}
	}

	return reply.Response(), nil
}

func (h *WorkerHandler) validate(t schema.SchemaType, data any) error {
	return validateWire(h.schema, t, data)
}

// validateWire checks an envelope or reply against its schema. data is
// either an encoded document or a value that encodes to one.
func validateWire(s *schema.Schema, t schema.SchemaType, data any) error {
	var (
		res *gojsonschema.Result
		err error
	)

	if raw, ok := data.(json.RawMessage); ok {
		res, err = s.Validate(t, raw)
	} else {
		res, err = s.ValidateValue(t, data)
	}

	if err != nil {
		// not encodable, or not valid json at all
		return fmt.Errorf("%w: %w", errForType(t), err)
	}

	if !res.Valid() {
		return newValidationError(t, res)
	}

	return nil
}

func errForType(t schema.SchemaType) error {
	if t == schema.SchemaTypeEnvelope {
		return ErrInvalidEnvelope
	}

	return ErrInvalidReply
}
