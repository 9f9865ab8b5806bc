package supervisor

import "errors"

var (
	ErrUnsupportedIOMode      = errors.New("unsupported io interface")
	ErrUnsupportedIOTransport = errors.New("unsupported io transport")
	ErrNoWorker               = errors.New("no worker provided")
)

type IOInterface string

const (
	// StdIO describes communication over stdin/stdout, with
	// a fresh worker process for every message
	StdIO IOInterface = "stdio"

	// RpcIO describes json-rpc communication with a persistent
	// worker process over a configurable transport
	RpcIO IOInterface = "rpc"
)

type IOTransport string

const (
	// StdioTransport uses Content-Length framed messages on stdin/stdout
	StdioTransport IOTransport = "stdio"

	// IpcTransport uses unix sockets or windows named pipes
	IpcTransport IOTransport = "ipc"

	// TcpTransport uses a plain tcp connection
	TcpTransport IOTransport = "tcp"

	// HttpTransport uses http requests
	HttpTransport IOTransport = "http"

	// WsTransport uses a websocket connection
	WsTransport IOTransport = "ws"
)
