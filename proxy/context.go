package proxy

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

const traceHeader = "X-Amzn-Trace-Id"

// NewInvocationContext collects the invocation metadata available in ctx.
// The trace id is taken from the request headers, falling back to the
// environment of the Lambda runtime.
func NewInvocationContext(ctx context.Context, requestID string, header http.Header) InvocationContext {
	invocation := InvocationContext{
		RequestID: requestID,
		TraceID:   headerValue(header, traceHeader),
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		invocation.AwsRequestID = lc.AwsRequestID
		invocation.FunctionARN = lc.InvokedFunctionArn
	}

	if invocation.TraceID == "" {
		invocation.TraceID = os.Getenv("_X_AMZN_TRACE_ID")
	}

	if deadline, ok := ctx.Deadline(); ok {
		invocation.Deadline = deadline
	}

	return invocation
}
