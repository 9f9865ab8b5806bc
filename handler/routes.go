package handler

import (
	"net/http"

	"github.com/logfinder/gatewayproxy/internal/server"
)

func NewProxyRoute(handler *ProxyHandler) server.HttpHandlerResult {
	return server.AsHttpHandler("/", handler)
}

func NewHealthRoute() server.HttpHandlerResult {
	return server.AsHttpHandler("/health", http.HandlerFunc(HealthHandler))
}
