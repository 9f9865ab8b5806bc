package server

import (
	"net/http"

	"go.uber.org/fx"
)

// HttpHandler is a route of the server. Name is the ServeMux pattern.
type HttpHandler struct {
	Name    string
	Handler http.Handler
}

// HttpHandlerResult adds a route to the "handlers" group.
type HttpHandlerResult struct {
	fx.Out

	Handler *HttpHandler `group:"handlers"`
}

func AsHttpHandler(pattern string, handler http.Handler) HttpHandlerResult {
	return HttpHandlerResult{
		Handler: &HttpHandler{
			Name:    pattern,
			Handler: handler,
		},
	}
}
