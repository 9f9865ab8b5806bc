package proxy

import "context"

// Handler handles a single proxied request. A returned error is a
// failure of the handler and is propagated to the host unchanged.
type Handler interface {
	Handle(ctx context.Context, request Request) (Response, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, request Request) (Response, error)

// Handle calls f(ctx, request).
func (f HandlerFunc) Handle(ctx context.Context, request Request) (Response, error) {
	return f(ctx, request)
}

// Middleware decorates a Handler.
type Middleware func(Handler) Handler

// Chain wraps h with the given middlewares. The first middleware is
// the outermost one.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}
