package backend_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/logfinder/gatewayproxy/backend"
	"github.com/logfinder/gatewayproxy/internal/execution/supervisor"
	"github.com/logfinder/gatewayproxy/internal/execution/worker"
	"github.com/logfinder/gatewayproxy/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newShellRuntime(t *testing.T, script string) *backend.WorkerRuntime {
	rt, err := backend.NewRuntime(backend.RuntimeParams{
		Context: context.Background(),
		Config: backend.Config{
			MaxWorkers: 2,
			Supervisor: supervisor.Config{
				IO:          supervisor.IOConfig{Interface: supervisor.StdIO},
				StartParams: worker.StartConfig{Cmd: "sh", Args: []string{"-c", script}},
				StopParams:  worker.StopConfig{Timeout: time.Second},
				SendParams:  supervisor.SendConfig{Timeout: 5 * time.Second},
			},
		},
		Log: zap.NewNop(),
	})
	require.NoError(t, err)

	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, rt.Shutdown(context.Background()))
	})

	return rt
}

func TestWorkerRuntime_ProcessWorker(t *testing.T) {
	rt := newShellRuntime(t, `read line; echo '{"id":0,"data":{"statusCode":200,"headers":{"Content-Type":"text/plain"},"body":"ok"}}'`)

	h, err := backend.NewWorkerHandler(backend.HandlerParams{Runtime: rt, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := h.Handle(context.Background(), logsRequest())
		require.NoError(t, err)

		assert.Equal(t, proxy.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": {"text/plain"}},
			Body:       "ok",
		}, res)
	}
}

func TestWorkerRuntime_ProcessWorker_Error(t *testing.T) {
	rt := newShellRuntime(t, `read line; echo '{"id":0,"data":{"error":{"message":"boom"}}}'`)

	h, err := backend.NewWorkerHandler(backend.HandlerParams{Runtime: rt, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), logsRequest())

	var handlerErr *backend.HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, "boom", handlerErr.Message)
}

func TestWorkerRuntime_ProcessWorker_Crash(t *testing.T) {
	rt := newShellRuntime(t, `exit 1`)

	h, err := backend.NewWorkerHandler(backend.HandlerParams{Runtime: rt, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), logsRequest())
	assert.ErrorContains(t, err, "worker failed")
}
