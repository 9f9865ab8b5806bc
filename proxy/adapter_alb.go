package proxy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// ProxyALBWithContext handles an Application Load Balancer target group event.
func (a *Adapter) ProxyALBWithContext(
	ctx context.Context,
	evt events.ALBTargetGroupRequest,
) (events.ALBTargetGroupResponse, error) {
	header := mergeHeader(evt.Headers, evt.MultiValueHeaders)

	req := Request{
		Path:            evt.Path,
		Method:          evt.HTTPMethod,
		Header:          header,
		Query:           mergeQuery(evt.QueryStringParameters, evt.MultiValueQueryStringParameters),
		Body:            evt.Body,
		IsBase64Encoded: evt.IsBase64Encoded,
		Context:         NewInvocationContext(ctx, "", header),
	}

	res, err := a.Handle(ctx, req)
	if err != nil {
		return events.ALBTargetGroupResponse{}, err
	}

	headers, multiValueHeaders := splitHeader(res.Header)

	return events.ALBTargetGroupResponse{
		StatusCode:        res.StatusCode,
		StatusDescription: fmt.Sprintf("%d %s", res.StatusCode, http.StatusText(res.StatusCode)),
		Headers:           headers,
		MultiValueHeaders: multiValueHeaders,
		Body:              res.Body,
		IsBase64Encoded:   res.IsBase64Encoded,
	}, nil
}
