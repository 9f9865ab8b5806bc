package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/logfinder/gatewayproxy/backend/schema"
	"github.com/logfinder/gatewayproxy/proxy"
)

// Func is an in-process handler. Its envelopes and replies are encoded,
// validated and decoded the same way worker messages are, so a Func sees
// exactly what a worker would see.
type Func func(ctx context.Context, env Envelope) (Reply, error)

var _ proxy.Handler = Func(nil)

func (f Func) Handle(ctx context.Context, req proxy.Request) (proxy.Response, error) {
	env, err := decodeEnvelope(NewEnvelope(req))
	if err != nil {
		return proxy.Response{}, err
	}

	out, err := f(ctx, env)
	if err != nil {
		return proxy.Response{}, err
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return proxy.Response{}, fmt.Errorf("%w: %w", ErrInvalidReply, err)
	}

	if err := validateWire(workerSchema, schema.SchemaTypeReply, json.RawMessage(raw)); err != nil {
		return proxy.Response{}, err
	}

	var reply Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return proxy.Response{}, fmt.Errorf("%w: %w", ErrInvalidReply, err)
	}

	if reply.Error != nil {
		return proxy.Response{}, &HandlerError{Message: reply.Error.Message}
	}

	return reply.Response(), nil
}

func decodeEnvelope(env Envelope) (Envelope, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	if err := validateWire(workerSchema, schema.SchemaTypeEnvelope, json.RawMessage(raw)); err != nil {
		return Envelope{}, err
	}

	var decoded Envelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	return decoded, nil
}
