package supervisor

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/logfinder/gatewayproxy/internal/execution/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type message = map[string]any

type handlerService struct{}

func (handlerService) Handle(req message) (message, error) {
	return message{"statusCode": 200, "body": req["path"]}, nil
}

type deadlineConn struct {
	io.ReadWriteCloser
}

func (deadlineConn) SetWriteDeadline(time.Time) error {
	return nil
}

// serveFramed runs a json-rpc server on one end of an in-memory pipe
// and returns the other end, as a worker would expose it on stdio.
func serveFramed(t *testing.T) io.ReadWriteCloser {
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("handler", handlerService{}))

	client, conn := net.Pipe()

	go server.ServeCodec(rpc.NewCodec(deadlineConn{newFramedPipe(conn)}), 0)

	t.Cleanup(func() {
		server.Stop()
		client.Close()
	})

	return client
}

func createRpcAdapter(t *testing.T, config RpcConfig) (*rpcAdapter[message, message], *mockWorker[message, message], *worker.StartConfig) {
	w := newMockWorker[message, message](t)

	var started worker.StartConfig

	factory := func(_ context.Context, params worker.StartConfig) (worker.Worker[message, message], error) {
		started = params
		return w, nil
	}

	a := newRpcAdapter(factory, config, zap.NewNop())
	a.dialBaseDelay = time.Millisecond
	a.dialMaxDelay = 5 * time.Millisecond
	a.dialTimeout = 100 * time.Millisecond

	return a, w, &started
}

// stopWithin stops the adapter and fails the test if Stop does not return
// before the deadline.
func stopWithin(t *testing.T, a *rpcAdapter[message, message], d time.Duration) error {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		_, err := a.Stop(worker.StopConfig{})
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(d):
		t.Fatalf("adapter did not stop within %s", d)
		return nil
	}
}

// startStdioRpcAdapter starts an adapter against an in-memory server and
// stops it when the test ends.
func startStdioRpcAdapter(t *testing.T, method string, params worker.StartConfig) (*rpcAdapter[message, message], *mockWorker[message, message], *worker.StartConfig) {
	a, w, started := createRpcAdapter(t, RpcConfig{Method: method})

	w.On("Start", mock.Anything).Return(nil)
	w.On("DuplexPipe").Return(serveFramed(t), nil)
	w.On("Terminate").Return(nil).Maybe()

	require.NoError(t, a.Start(context.Background(), params))

	// registered after serveFramed, so the adapter stops before the server
	t.Cleanup(func() {
		assert.NoError(t, stopWithin(t, a, 5*time.Second))
	})

	return a, w, started
}

func TestRpcAdapter_Defaults(t *testing.T) {
	a, _, _ := createRpcAdapter(t, RpcConfig{})

	assert.Equal(t, StdioTransport, a.config.Transport)
	assert.Equal(t, "handle", a.config.Method)
}

func TestRpcAdapter_Start_Stdio(t *testing.T) {
	_, _, started := startStdioRpcAdapter(t, "handler_handle", worker.StartConfig{
		Cmd: "handler",
		Env: map[string]string{"FOO": "bar"},
	})

	assert.Equal(t, "handler", started.Cmd)
	assert.Equal(t, "bar", started.Env["FOO"])
	assert.Equal(t, "rpc", started.Env["HANDLER_IO"])
	assert.Equal(t, "stdio", started.Env["HANDLER_RPC_TRANSPORT"])
	assert.Equal(t, "handler_handle", started.Env["HANDLER_RPC_METHOD"])
}

func TestRpcAdapter_Send_Stdio(t *testing.T) {
	a, _, _ := startStdioRpcAdapter(t, "handler_handle", worker.StartConfig{})

	for i := 0; i < 2; i++ {
		res, err := a.Send(context.Background(), message{"path": "/logs"}, SendConfig{Timeout: time.Second})
		require.NoError(t, err)

		assert.Equal(t, message{"statusCode": float64(200), "body": "/logs"}, res)
	}
}

func TestRpcAdapter_Send_UnknownMethod(t *testing.T) {
	a, _, _ := startStdioRpcAdapter(t, "handler_missing", worker.StartConfig{})

	_, err := a.Send(context.Background(), message{}, SendConfig{Timeout: time.Second})
	assert.ErrorContains(t, err, "error sending rpc request")
}

func TestRpcAdapter_Send_FailsIfNotStarted(t *testing.T) {
	a, _, _ := createRpcAdapter(t, RpcConfig{})

	_, err := a.Send(context.Background(), message{}, SendConfig{})
	assert.ErrorIs(t, err, ErrNoWorker)
}

func TestRpcAdapter_Start_PassesError(t *testing.T) {
	a, w, _ := createRpcAdapter(t, RpcConfig{})

	w.On("Start", mock.Anything).Return(assert.AnError)

	assert.ErrorIs(t, a.Start(context.Background(), worker.StartConfig{}), assert.AnError)
}

func TestRpcAdapter_Start_UnsupportedTransport(t *testing.T) {
	a, w, _ := createRpcAdapter(t, RpcConfig{Transport: "carrier-pigeon"})

	w.On("Start", mock.Anything).Return(nil)
	w.On("Kill").Return(nil)

	assert.ErrorIs(t, a.Start(context.Background(), worker.StartConfig{}), ErrUnsupportedIOTransport)
}

func TestRpcAdapter_Start_DialTimeout(t *testing.T) {
	// nothing listens on the address, so dialing never succeeds
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	a, w, started := createRpcAdapter(t, RpcConfig{
		Transport: TcpTransport,
		Tcp:       TcpTransportConfig{Address: addr},
	})

	w.On("Start", mock.Anything).Return(nil)
	w.On("Kill").Return(nil)

	err = a.Start(context.Background(), worker.StartConfig{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, addr, started.Env["HANDLER_RPC_TCP_ADDRESS"])
}

func TestRpcAdapter_Stop(t *testing.T) {
	a, w, _ := createRpcAdapter(t, RpcConfig{Method: "handler_handle"})

	w.On("Start", mock.Anything).Return(nil)
	w.On("DuplexPipe").Return(serveFramed(t), nil)
	w.On("Terminate").Return(nil)

	require.NoError(t, a.Start(context.Background(), worker.StartConfig{}))

	require.NoError(t, stopWithin(t, a, 5*time.Second))

	assert.Nil(t, a.rpcClient)
	assert.Nil(t, a.rpcConn)
	w.AssertNumberOfCalls(t, "Terminate", 1)
}

func TestRpcAdapter_Stop_AfterSend(t *testing.T) {
	a, w, _ := createRpcAdapter(t, RpcConfig{Method: "handler_handle"})

	w.On("Start", mock.Anything).Return(nil)
	w.On("DuplexPipe").Return(serveFramed(t), nil)
	w.On("Terminate").Return(nil)

	require.NoError(t, a.Start(context.Background(), worker.StartConfig{}))

	_, err := a.Send(context.Background(), message{"path": "/logs"}, SendConfig{Timeout: time.Second})
	require.NoError(t, err)

	// the client's reader is idle on the pipe once the reply is in
	require.NoError(t, stopWithin(t, a, 5*time.Second))
	assert.Nil(t, a.rpcClient)
}

func TestRpcAdapter_Stop_FailsIfNotStarted(t *testing.T) {
	a, _, _ := createRpcAdapter(t, RpcConfig{})

	_, err := a.Stop(worker.StopConfig{})
	assert.ErrorIs(t, err, ErrNoWorker)
}

func TestBuildEnv(t *testing.T) {
	env := buildEnv(nil, RpcConfig{
		Transport: IpcTransport,
		Method:    "handle",
		Ipc:       IpcTransportConfig{Endpoint: "/tmp/handler.sock"},
	})

	assert.Equal(t, map[string]string{
		"HANDLER_IO":               "rpc",
		"HANDLER_RPC_TRANSPORT":    "ipc",
		"HANDLER_RPC_METHOD":       "handle",
		"HANDLER_RPC_IPC_ENDPOINT": "/tmp/handler.sock",
	}, env)
}

func TestBuildEnv_DoesNotModifyInput(t *testing.T) {
	in := map[string]string{"FOO": "bar"}

	out := buildEnv(in, RpcConfig{Transport: StdioTransport})

	assert.Len(t, in, 1)
	assert.Equal(t, "bar", out["FOO"])
}
