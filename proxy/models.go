package proxy

import (
	"net/http"
	"net/url"
	"time"
)

// Request is the handler-facing view of an inbound proxy event. It is
// created once per invocation and must not be modified by handlers.
type Request struct {
	// Path is the request path as received by the gateway.
	Path string

	// Method is the HTTP method of the request.
	Method string

	// Resource is the gateway resource or route key that matched.
	Resource string

	// Header holds the request headers. Keys are kept exactly as the
	// gateway delivered them, they are not canonicalized.
	Header http.Header

	// Query holds the query string parameters.
	Query url.Values

	// PathParameters holds the path parameters extracted by the gateway.
	PathParameters map[string]string

	// Body is the raw request body.
	Body string

	// IsBase64Encoded reports whether Body is base64 encoded.
	IsBase64Encoded bool

	// Context is the invocation metadata supplied by the host.
	Context InvocationContext
}

// Response is what a handler produces for a single request.
type Response struct {
	// StatusCode is the HTTP status code, within 100-599.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the raw response body.
	Body string

	// IsBase64Encoded reports whether Body is base64 encoded.
	IsBase64Encoded bool
}

// InvocationContext describes the invocation a request belongs to.
type InvocationContext struct {
	// RequestID is the gateway request id.
	RequestID string

	// AwsRequestID is the id of the Lambda invocation, if any.
	AwsRequestID string

	// FunctionARN is the ARN of the invoked function, if any.
	FunctionARN string

	// TraceID is the X-Ray trace header of the invocation, if any.
	TraceID string

	// Deadline is the point in time the host will abort the invocation.
	// The zero value means there is no deadline.
	Deadline time.Time
}
