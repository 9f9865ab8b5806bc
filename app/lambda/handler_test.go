package lambda

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/logfinder/gatewayproxy/handler"
	"github.com/logfinder/gatewayproxy/internal/server"
	"github.com/logfinder/gatewayproxy/proxy"
	"github.com/logfinder/gatewayproxy/util/conf"
)

func newTestLambdaHandler(config Config) *LambdaHandler {
	echo := proxy.HandlerFunc(func(_ context.Context, req proxy.Request) (proxy.Response, error) {
		return proxy.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"X-Path": {req.Path}},
			Body:       req.Method + " " + req.Path,
		}, nil
	})

	adapter := proxy.NewAdapter(echo)

	routes := []*server.HttpHandler{
		handler.NewProxyRoute(handler.NewProxyHandler(handler.ProxyHandlerParams{
			Handler: adapter,
			Log:     zap.NewNop(),
		})).Handler,
		handler.NewHealthRoute().Handler,
	}

	return NewLambdaHandler(LambdaHandlerParams{
		Config:   config,
		Adapter:  adapter,
		Handlers: routes,
		Context:  context.Background(),
		Logger:   zap.NewNop(),
	})
}

func TestLambdaHandler_DirectMode(t *testing.T) {
	h := newTestLambdaHandler(Config{ProxySource: ProxySourceApiGatewayV1, Mode: ModeDirect})

	fn, err := h.ProxyFunction()
	require.NoError(t, err)

	proxyFn, ok := fn.(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error))
	require.True(t, ok, "unexpected handler type %T", fn)

	res, err := proxyFn(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/logs",
		HTTPMethod: http.MethodGet,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "GET /logs", res.Body)
	assert.Equal(t, "/logs", res.Headers["X-Path"])
}

func TestLambdaHandler_DirectMode_Sources(t *testing.T) {
	v2 := newTestLambdaHandler(Config{ProxySource: ProxySourceApiGatewayV2})
	fn, err := v2.ProxyFunction()
	require.NoError(t, err)
	assert.IsType(t, func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return events.APIGatewayV2HTTPResponse{}, nil
	}, fn)

	alb := newTestLambdaHandler(Config{ProxySource: ProxySourceAlb})
	fn, err = alb.ProxyFunction()
	require.NoError(t, err)
	assert.IsType(t, func(context.Context, events.ALBTargetGroupRequest) (events.ALBTargetGroupResponse, error) {
		return events.ALBTargetGroupResponse{}, nil
	}, fn)
}

func TestLambdaHandler_HttpMode(t *testing.T) {
	h := newTestLambdaHandler(Config{ProxySource: ProxySourceApiGatewayV1, Mode: ModeHttp})

	fn, err := h.ProxyFunction()
	require.NoError(t, err)

	proxyFn, ok := fn.(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error))
	require.True(t, ok, "unexpected handler type %T", fn)

	res, err := proxyFn(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/health",
		HTTPMethod: http.MethodGet,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body)

	res, err = proxyFn(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/logs",
		HTTPMethod: http.MethodPost,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "POST /logs", res.Body)
}

func TestLambdaHandler_InvalidConfig(t *testing.T) {
	_, err := newTestLambdaHandler(Config{ProxySource: "SQS"}).ProxyFunction()
	assert.ErrorIs(t, err, ErrInvalidProxySource)

	_, err = newTestLambdaHandler(Config{ProxySource: "SQS", Mode: ModeHttp}).ProxyFunction()
	assert.ErrorIs(t, err, ErrInvalidProxySource)

	_, err = newTestLambdaHandler(Config{ProxySource: ProxySourceAlb, Mode: "grpc"}).ProxyFunction()
	assert.ErrorIs(t, err, ErrInvalidMode)

	assert.ErrorIs(t, newTestLambdaHandler(Config{Mode: "grpc"}).Start(), ErrInvalidMode)
}

func TestConfig_Validate(t *testing.T) {
	cfg, err := conf.Parse[Config](conf.ParseOptions{
		Defaults:  DefaultConfig,
		EnvPrefix: "GWLAMBDA_TEST_",
	})
	require.NoError(t, err)

	assert.Equal(t, Config{ProxySource: ProxySourceApiGatewayV1, Mode: ModeDirect}, cfg)
	assert.NoError(t, conf.Validate(cfg))

	assert.Error(t, conf.Validate(Config{ProxySource: "SQS"}))
	assert.Error(t, conf.Validate(Config{ProxySource: ProxySourceAlb, Mode: "grpc"}))
}
