package server

// HttpConfig configures the standalone http server.
type HttpConfig struct {
	// Host is the interface to listen on.
	Host string `conf:"host"`

	// Port is the port to listen on, 0 picks a free port.
	Port int `conf:"port" validate:"gte=0,lte=65535"`

	// H2c enables HTTP/2 over cleartext connections.
	H2c bool `conf:"h2c"`
}
