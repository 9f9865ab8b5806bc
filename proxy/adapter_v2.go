package proxy

import (
	"context"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// ProxyV2WithContext handles an API Gateway HTTP API (payload v2) event.
func (a *Adapter) ProxyV2WithContext(
	ctx context.Context,
	evt events.APIGatewayV2HTTPRequest,
) (events.APIGatewayV2HTTPResponse, error) {
	header := mergeHeader(evt.Headers, nil)
	if len(evt.Cookies) > 0 && headerValue(header, "Cookie") == "" {
		header["Cookie"] = []string{strings.Join(evt.Cookies, "; ")}
	}

	query, err := url.ParseQuery(evt.RawQueryString)
	if err != nil || (len(query) == 0 && len(evt.QueryStringParameters) > 0) {
		query = mergeQuery(evt.QueryStringParameters, nil)
	}

	method := evt.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req := Request{
		Path:            evt.RawPath,
		Method:          method,
		Resource:        evt.RouteKey,
		Header:          header,
		Query:           query,
		PathParameters:  maps.Clone(evt.PathParameters),
		Body:            evt.Body,
		IsBase64Encoded: evt.IsBase64Encoded,
		Context:         NewInvocationContext(ctx, evt.RequestContext.RequestID, header),
	}

	res, err := a.Handle(ctx, req)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	headers, cookies := joinHeader(res.Header)

	return events.APIGatewayV2HTTPResponse{
		StatusCode:      res.StatusCode,
		Headers:         headers,
		Cookies:         cookies,
		Body:            res.Body,
		IsBase64Encoded: res.IsBase64Encoded,
	}, nil
}
