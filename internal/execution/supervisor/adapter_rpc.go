package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/logfinder/gatewayproxy/internal/execution/worker"
	"go.uber.org/zap"
)

// RpcConfig describes the configuration for the rpc interface.
type RpcConfig struct {
	// Transport describes the transport mechanism used to communicate
	// with the worker. Default is "stdio".
	//
	// If "stdio", messages are exchanged over the stdin and stdout of
	// the worker, each prefixed with a Content-Length header.
	//
	// If "ipc", the worker is expected to listen on a unix socket or
	// windows named pipe, depending on the OS.
	//
	// If "tcp", "http" or "ws", the worker is expected to listen on the
	// configured address or url.
	Transport IOTransport `conf:"transport" validate:"omitempty,oneof=stdio ipc tcp http ws"`

	// Method is the rpc method invoked for every request. Default is
	// "handle".
	Method string `conf:"method"`

	// Http is the configuration for the http transport.
	Http HttpTransportConfig `conf:"http"`

	// Ipc is the configuration for the ipc transport.
	Ipc IpcTransportConfig `conf:"ipc"`

	// Ws is the configuration for the websocket transport.
	Ws WsTransportConfig `conf:"ws"`

	// Tcp is the configuration for the tcp transport.
	Tcp TcpTransportConfig `conf:"tcp"`
}

// HttpTransportConfig describes the configuration for http transport.
type HttpTransportConfig struct {
	// Url is the url to send http requests to.
	Url string `conf:"url"`
}

// TcpTransportConfig describes the configuration for tcp transport.
type TcpTransportConfig struct {
	// Address is the address to connect to.
	Address string `conf:"address"`
}

// IpcTransportConfig describes the configuration for ipc transport.
type IpcTransportConfig struct {
	// Endpoint is the full path to the unix socket or
	// the name of the windows named pipe.
	Endpoint string `conf:"endpoint"`
}

// WsTransportConfig describes the configuration for websocket transport.
type WsTransportConfig struct {
	// Url is the url to connect to.
	Url string `conf:"url"`
}

const defaultRpcMethod = "handle"

type rpcAdapter[I, O any] struct {
	workerFactory AdapterWorkerFactoryFn[I, O]

	worker worker.Worker[I, O]

	// stdioPipe is only set if the transport is "stdio"
	stdioPipe io.ReadWriteCloser

	// rpcConn is the stream the client reads from, for transports dialed
	// through rpc.DialIO. Closing the client does not close it.
	rpcConn io.Closer

	rpcClient *rpc.Client

	// dial retry bounds, applied while the worker boots
	dialBaseDelay time.Duration
	dialMaxDelay  time.Duration
	dialTimeout   time.Duration

	config RpcConfig
	log    *zap.Logger
}

func newRpcAdapter[I, O any](
	workerFactory AdapterWorkerFactoryFn[I, O],
	config RpcConfig,
	log *zap.Logger,
) *rpcAdapter[I, O] {
	if config.Transport == "" {
		config.Transport = StdioTransport
	}

	if config.Method == "" {
		config.Method = defaultRpcMethod
	}

	return &rpcAdapter[I, O]{
		workerFactory: workerFactory,
		dialBaseDelay: 100 * time.Millisecond,
		dialMaxDelay:  2 * time.Second,
		dialTimeout:   30 * time.Second,
		config:        config,
		log:           log.Named("adapter_rpc"),
	}
}

func (a *rpcAdapter[I, O]) Start(
	ctx context.Context,
	params worker.StartConfig,
) error {
	if a.workerFactory == nil {
		return ErrNoWorker
	}

	params.Env = buildEnv(params.Env, a.config)

	w, err := a.workerFactory(ctx, params)
	if err != nil {
		return fmt.Errorf("error creating worker: %w", err)
	}

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("error starting worker: %w", err)
	}

	a.worker = w

	// the pipe only exists once the process is running
	if a.config.Transport == StdioTransport {
		stdio, err := w.DuplexPipe()
		if err != nil {
			_ = w.Kill()
			return fmt.Errorf("error creating duplex pipe: %w", err)
		}

		a.stdioPipe = newFramedPipe(stdio)
	}

	dialCtx, cancel := context.WithTimeout(ctx, a.dialTimeout)
	defer cancel()

	if err := a.dialRpcWithRetry(dialCtx); err != nil {
		_ = w.Kill()
		return err
	}

	return nil
}

func (a *rpcAdapter[I, O]) Send(
	ctx context.Context,
	data I,
	params SendConfig,
) (O, error) {
	var result O

	if a.worker == nil {
		return result, ErrNoWorker
	}

	if a.rpcClient == nil {
		return result, errors.New("rpc client not available")
	}

	if params.Timeout > 0 {
		timeoutCtx, cancel := context.WithTimeout(ctx, params.Timeout)
		defer cancel()

		ctx = timeoutCtx
	}

	if err := a.rpcClient.CallContext(ctx, &result, a.config.Method, data); err != nil {
		return result, fmt.Errorf("error sending rpc request: %w", err)
	}

	return result, nil
}

func (a *rpcAdapter[I, O]) Stop(
	params worker.StopConfig,
) (ReleaseFunc, error) {
	if a.worker == nil {
		return nil, ErrNoWorker
	}

	// unblock the client's reader first, otherwise Close waits for it
	if a.rpcConn != nil {
		if err := a.rpcConn.Close(); err != nil {
			a.log.Debug("error closing rpc connection", zap.Error(err))
		}
		a.rpcConn = nil
	}

	release, err := stopWorker(a.worker, params)

	if a.rpcClient != nil {
		a.rpcClient.Close()
		a.rpcClient = nil
	}

	return release, err
}

func (a *rpcAdapter[I, O]) dialRpcWithRetry(ctx context.Context) error {
	for i := 0; ; i++ {
		client, err := a.dialRpc(ctx)
		if err == nil {
			a.rpcClient = client
			return nil
		}

		if errors.Is(err, ErrUnsupportedIOTransport) {
			return err
		}

		backoff := a.dialBaseDelay * time.Duration(math.Pow(2, float64(i)))
		if backoff > a.dialMaxDelay {
			backoff = a.dialMaxDelay
		}

		a.log.With(
			zap.Int("retry", i),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		).Debug("error dialing rpc")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("error dialing rpc: %w", errors.Join(err, ctx.Err()))
		}
	}
}

func (a *rpcAdapter[I, O]) dialRpc(ctx context.Context) (*rpc.Client, error) {
	switch a.config.Transport {
	case StdioTransport:
		if a.stdioPipe == nil {
			return nil, errors.New("stdio pipe not available")
		}

		client, err := rpc.DialIO(ctx, a.stdioPipe, a.stdioPipe)
		if err != nil {
			return nil, err
		}

		a.rpcConn = a.stdioPipe

		return client, nil

	case IpcTransport:
		return rpc.DialIPC(ctx, getIPCEndpoint(a.config.Ipc))

	case HttpTransport:
		return rpc.DialHTTP(a.config.Http.Url)

	case WsTransport:
		return rpc.DialWebsocket(ctx, a.config.Ws.Url, "")

	case TcpTransport:
		client, conn, err := dialTCP(ctx, a.config.Tcp.Address)
		if err != nil {
			return nil, err
		}

		a.rpcConn = conn

		return client, nil
	}

	return nil, ErrUnsupportedIOTransport
}

func getIPCEndpoint(config IpcTransportConfig) string {
	if config.Endpoint != "" {
		return config.Endpoint
	}

	if runtime.GOOS == "windows" {
		return `\\.\pipe\gatewayproxy`
	}

	return "/tmp/gatewayproxy.sock"
}

// buildEnv tells the worker how it is expected to serve requests.
func buildEnv(env map[string]string, config RpcConfig) map[string]string {
	res := make(map[string]string, len(env)+3)
	for k, v := range env {
		res[k] = v
	}

	res["HANDLER_IO"] = string(RpcIO)
	res["HANDLER_RPC_TRANSPORT"] = string(config.Transport)
	res["HANDLER_RPC_METHOD"] = config.Method

	switch config.Transport {
	case IpcTransport:
		res["HANDLER_RPC_IPC_ENDPOINT"] = getIPCEndpoint(config.Ipc)
	case HttpTransport:
		res["HANDLER_RPC_HTTP_URL"] = config.Http.Url
	case WsTransport:
		res["HANDLER_RPC_WS_URL"] = config.Ws.Url
	case TcpTransport:
		res["HANDLER_RPC_TCP_ADDRESS"] = config.Tcp.Address
	}

	return res
}

func dialTCP(ctx context.Context, address string) (*rpc.Client, net.Conn, error) {
	conn, err := new(net.Dialer).DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, nil, err
	}

	client, err := rpc.DialIO(ctx, conn, conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return client, conn, nil
}
