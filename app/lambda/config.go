package lambda

import (
	"github.com/logfinder/gatewayproxy/util/conf"
)

// ProxySource represents the source of a lambda request.
type ProxySource string

const (
	// ProxySourceApiGatewayV1 represents an API Gateway v1 request.
	ProxySourceApiGatewayV1 ProxySource = "API_GW_V1"

	// ProxySourceApiGatewayV2 represents an API Gateway v2 request.
	ProxySourceApiGatewayV2 ProxySource = "API_GW_V2"

	// ProxySourceAlb represents an Application Load Balancer request.
	ProxySourceAlb ProxySource = "ALB"
)

func (p ProxySource) String() string {
	return string(p)
}

// Mode selects how events reach the handler.
type Mode string

const (
	// ModeDirect maps events structurally onto the proxy adapter.
	ModeDirect Mode = "direct"

	// ModeHttp converts events into net/http requests served by the
	// http handler stack.
	ModeHttp Mode = "http"
)

func (m Mode) String() string {
	return string(m)
}

type Config struct {
	// ProxySource is the source of the AWS Lambda event.
	ProxySource ProxySource `conf:"lambda_proxy_source" validate:"oneof=API_GW_V1 API_GW_V2 ALB"`

	// Mode is the way events are dispatched to the handler.
	Mode Mode `conf:"lambda_mode" validate:"omitempty,oneof=direct http"`
}

var DefaultConfig = conf.DefaultConfig{
	"lambda_proxy_source": string(ProxySourceApiGatewayV1),
	"lambda_mode":         string(ModeDirect),
}
