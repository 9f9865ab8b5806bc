package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

var ErrInvalidStatusCode = errors.New("invalid status code")

// ErrorMode controls what the adapter does with handler failures.
type ErrorMode string

const (
	// ErrorModePropagate returns handler failures to the host unchanged.
	ErrorModePropagate ErrorMode = "propagate"

	// ErrorModeRespond answers handler failures with a 500 response.
	ErrorModeRespond ErrorMode = "respond"
)

func (m ErrorMode) String() string {
	return string(m)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithErrorResponses makes the adapter answer handler failures with a
// structured 500 response instead of returning the error to the host.
func WithErrorResponses() Option {
	return func(a *Adapter) {
		a.errorResponses = true
	}
}

// WithErrorMode is WithErrorResponses driven by configuration.
func WithErrorMode(mode ErrorMode) Option {
	return func(a *Adapter) {
		a.errorResponses = mode == ErrorModeRespond
	}
}

// Adapter maps gateway proxy events to a Handler and back. It holds no
// per-invocation state and may be shared between concurrent invocations.
type Adapter struct {
	handler        Handler
	errorResponses bool
}

// NewAdapter creates an adapter delegating to handler.
func NewAdapter(handler Handler, opts ...Option) *Adapter {
	a := &Adapter{handler: handler}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// ProxyWithContext handles an API Gateway REST API (payload v1) event.
func (a *Adapter) ProxyWithContext(
	ctx context.Context,
	evt events.APIGatewayProxyRequest,
) (events.APIGatewayProxyResponse, error) {
	header := mergeHeader(evt.Headers, evt.MultiValueHeaders)

	req := Request{
		Path:            evt.Path,
		Method:          evt.HTTPMethod,
		Resource:        evt.Resource,
		Header:          header,
		Query:           mergeQuery(evt.QueryStringParameters, evt.MultiValueQueryStringParameters),
		PathParameters:  maps.Clone(evt.PathParameters),
		Body:            evt.Body,
		IsBase64Encoded: evt.IsBase64Encoded,
		Context:         NewInvocationContext(ctx, evt.RequestContext.RequestID, header),
	}

	res, err := a.Handle(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	headers, multiValueHeaders := splitHeader(res.Header)

	return events.APIGatewayProxyResponse{
		StatusCode:        res.StatusCode,
		Headers:           headers,
		MultiValueHeaders: multiValueHeaders,
		Body:              res.Body,
		IsBase64Encoded:   res.IsBase64Encoded,
	}, nil
}

// Handle invokes the handler and enforces the response invariants. It
// serves requests that did not arrive as a gateway event, under the same
// error policy as the event entry points.
func (a *Adapter) Handle(ctx context.Context, req Request) (Response, error) {
	res, err := a.handler.Handle(ctx, req)
	if err == nil {
		err = validateResponse(res)
	}

	if err != nil {
		if a.errorResponses {
			return newErrorResponse(err), nil
		}

		return Response{}, err
	}

	return res, nil
}

func validateResponse(res Response) error {
	if res.StatusCode < 100 || res.StatusCode > 599 {
		return fmt.Errorf("%w: %d", ErrInvalidStatusCode, res.StatusCode)
	}

	return nil
}

// newErrorResponse creates a 500 response describing err.
func newErrorResponse(err error) Response {
	type responseError struct {
		Message string `json:"message"`
	}

	body, marshalErr := json.Marshal(struct {
		Error responseError `json:"error"`
	}{
		Error: responseError{Message: err.Error()},
	})
	if marshalErr != nil {
		return Response{StatusCode: http.StatusInternalServerError, Header: http.Header{}}
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return Response{
		StatusCode: http.StatusInternalServerError,
		Header:     header,
		Body:       string(body),
	}
}
