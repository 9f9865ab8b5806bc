package lambda

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/logfinder/gatewayproxy/internal/server"
	"github.com/logfinder/gatewayproxy/proxy"
)

var (
	ErrInvalidProxySource = errors.New("invalid proxy source")
	ErrInvalidMode        = errors.New("invalid lambda mode")
)

// LambdaHandlerParams represents the parameters required for
// the Lambda handler.
type LambdaHandlerParams struct {
	fx.In

	// Config is the configuration for the Lambda handler.
	Config Config

	// Adapter maps events in direct mode.
	Adapter *proxy.Adapter

	// Handlers is a slice of HTTP handlers used in http mode.
	Handlers []*server.HttpHandler `group:"handlers"`

	// Context is the context for the Lambda handler.
	Context context.Context

	// Logger is the logger for the Lambda handler.
	Logger *zap.Logger
}

type LambdaHandler struct {
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
	adapter  *proxy.Adapter
	handlers []*server.HttpHandler
	log      *zap.Logger
}

// NewLambdaHandler creates a new instance of LambdaHandler
// with the given parameters.
func NewLambdaHandler(params LambdaHandlerParams) *LambdaHandler {
	ctx, cancel := context.WithCancel(params.Context)

	return &LambdaHandler{
		config:   params.Config,
		ctx:      ctx,
		cancel:   cancel,
		adapter:  params.Adapter,
		handlers: params.Handlers,
		log:      params.Logger,
	}
}

// NewLifecycleHandler creates a new instance of LambdaHandler
// with the given parameters and attaches lifecycle hooks to
// start and stop the handler.
func NewLifecycleHandler(params LambdaHandlerParams, lc fx.Lifecycle) *LambdaHandler {
	handler := NewLambdaHandler(params)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return handler.Start()
		},
		OnStop: func(context.Context) error {
			handler.Shutdown()
			return nil
		},
	})
	return handler
}

// Start starts the Lambda runtime client in a new goroutine. An error
// is returned if the configuration does not name a known event source.
func (s *LambdaHandler) Start() error {
	handler, err := s.ProxyFunction()
	if err != nil {
		return err
	}

	s.log.Debug("using lambda event proxy",
		zap.Stringer("proxy_source", s.config.ProxySource),
		zap.Stringer("mode", s.config.Mode),
	)

	go lambda.StartWithOptions(handler, lambda.WithContext(s.ctx))

	return nil
}

// Shutdown cancels the execution of the LambdaHandler.
func (s *LambdaHandler) Shutdown() {
	s.cancel()
}

// ProxyFunction returns the handler function registered with the
// Lambda runtime for the configured source and mode.
func (s *LambdaHandler) ProxyFunction() (any, error) {
	switch s.config.Mode {
	case ModeDirect, "":
		return s.directFunction()
	case ModeHttp:
		return s.httpFunction()
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, s.config.Mode)
	}
}

func (s *LambdaHandler) directFunction() (any, error) {
	switch s.config.ProxySource {
	case ProxySourceApiGatewayV1:
		return s.adapter.ProxyWithContext, nil
	case ProxySourceApiGatewayV2:
		return s.adapter.ProxyV2WithContext, nil
	case ProxySourceAlb:
		return s.adapter.ProxyALBWithContext, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProxySource, s.config.ProxySource)
	}
}

func (s *LambdaHandler) httpFunction() (any, error) {
	mux := server.NewMux(s.handlers)

	switch s.config.ProxySource {
	case ProxySourceApiGatewayV1:
		return httpadapter.New(mux).ProxyWithContext, nil
	case ProxySourceApiGatewayV2:
		return httpadapter.NewV2(mux).ProxyWithContext, nil
	case ProxySourceAlb:
		return httpadapter.NewALB(mux).ProxyWithContext, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProxySource, s.config.ProxySource)
	}
}
