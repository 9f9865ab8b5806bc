package proxy

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// WithLogging logs every handled request. Results pass through untouched.
func WithLogging(log *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req Request) (Response, error) {
			start := time.Now()

			log := log.With(
				zap.String("path", req.Path),
				zap.String("method", req.Method),
				zap.String("request_id", req.Context.RequestID),
			)

			res, err := next.Handle(ctx, req)
			if err != nil {
				log.Error("handler failed",
					zap.Error(err),
					zap.Duration("duration", time.Since(start)),
				)
				return res, err
			}

			log.Debug("handled request",
				zap.Int("status", res.StatusCode),
				zap.Duration("duration", time.Since(start)),
			)

			return res, nil
		})
	}
}

// WithErrorReporting reports handler failures to Sentry and returns
// them unchanged. The hub attached to ctx is used if there is one.
func WithErrorReporting() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req Request) (Response, error) {
			res, err := next.Handle(ctx, req)
			if err == nil {
				return res, nil
			}

			hub := sentry.GetHubFromContext(ctx)
			if hub == nil {
				hub = sentry.CurrentHub()
			}

			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("path", req.Path)
				scope.SetTag("method", req.Method)
				scope.SetTag("request_id", req.Context.RequestID)
				hub.CaptureException(err)
			})

			return res, err
		})
	}
}
