package proxy_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/logfinder/gatewayproxy/proxy"
)

func TestChain_Order(t *testing.T) {
	var calls []string

	tag := func(name string) proxy.Middleware {
		return func(next proxy.Handler) proxy.Handler {
			return proxy.HandlerFunc(func(ctx context.Context, req proxy.Request) (proxy.Response, error) {
				calls = append(calls, name)
				return next.Handle(ctx, req)
			})
		}
	}

	h := proxy.Chain(staticHandler(proxy.Response{StatusCode: http.StatusOK}), tag("outer"), tag("inner"))

	_, err := h.Handle(context.Background(), proxy.Request{})
	require.NoError(t, err)

	assert.Equal(t, []string{"outer", "inner"}, calls)
}

func TestWithLogging_PassesThrough(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	want := proxy.Response{StatusCode: http.StatusOK, Header: http.Header{"A": {"b"}}, Body: "ok"}
	h := proxy.Chain(staticHandler(want), proxy.WithLogging(zap.New(core)))

	res, err := h.Handle(context.Background(), proxy.Request{Path: "/logs", Method: http.MethodGet})
	require.NoError(t, err)

	assert.Equal(t, want, res)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "handled request", logs.All()[0].Message)
	assert.Equal(t, "/logs", logs.All()[0].ContextMap()["path"])
}

func TestWithLogging_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	failing := proxy.HandlerFunc(func(context.Context, proxy.Request) (proxy.Response, error) {
		return proxy.Response{}, assert.AnError
	})

	_, err := proxy.Chain(failing, proxy.WithLogging(zap.New(core))).Handle(context.Background(), proxy.Request{})
	assert.Equal(t, assert.AnError, err)

	require.Equal(t, 1, logs.FilterMessage("handler failed").Len())
}

func TestWithErrorReporting_CapturesFailure(t *testing.T) {
	var captured []*sentry.Event

	client, err := sentry.NewClient(sentry.ClientOptions{
		SampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			captured = append(captured, event)
			return nil
		},
	})
	require.NoError(t, err)

	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	failing := proxy.HandlerFunc(func(context.Context, proxy.Request) (proxy.Response, error) {
		return proxy.Response{}, assert.AnError
	})

	_, err = proxy.Chain(failing, proxy.WithErrorReporting()).Handle(ctx, proxy.Request{Path: "/logs"})
	assert.Equal(t, assert.AnError, err)

	require.Len(t, captured, 1)
	assert.Equal(t, "/logs", captured[0].Tags["path"])
}

func TestWithErrorReporting_IgnoresSuccess(t *testing.T) {
	want := proxy.Response{StatusCode: http.StatusOK}

	res, err := proxy.Chain(staticHandler(want), proxy.WithErrorReporting()).
		Handle(context.Background(), proxy.Request{})
	require.NoError(t, err)

	assert.Equal(t, want, res)
}
