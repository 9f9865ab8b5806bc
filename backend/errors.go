package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/logfinder/gatewayproxy/backend/schema"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrInvalidReply    = errors.New("invalid worker reply")
	ErrInvalidEnvelope = errors.New("invalid worker envelope")
	ErrNoRuntime       = errors.New("no runtime")
)

// HandlerError is a failure reported by the worker itself.
type HandlerError struct {
	Message string
}

func (e *HandlerError) Error() string {
	return e.Message
}

// ValidationError lists the schema violations of a worker document.
type ValidationError struct {
	Type   schema.SchemaType
	Result *gojsonschema.Result
}

func newValidationError(t schema.SchemaType, result *gojsonschema.Result) *ValidationError {
	return &ValidationError{
		Type:   t,
		Result: result,
	}
}

func (e *ValidationError) Error() string {
	details := make([]string, 0, len(e.Result.Errors()))
	for _, desc := range e.Result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Sprintf("%s does not match schema: %s", e.Type, strings.Join(details, "; "))
}

func (e *ValidationError) Unwrap() error {
	if e.Type == schema.SchemaTypeEnvelope {
		return ErrInvalidEnvelope
	}

	return ErrInvalidReply
}
