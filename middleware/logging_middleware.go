package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nano-rpc/message"
)

// LoggingMiddleware logs every dispatch with a fresh call id, its duration and
// outcome. A nil logger means slog.Default().
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, bool) {
			l := logger
			if l == nil {
				l = slog.Default()
			}
			l = l.With("call_id", uuid.NewString(), "service", req.Service, "method", req.Method)

			start := time.Now()
			resp, ok := next(ctx, req)
			duration := time.Since(start)

			switch {
			case !ok:
				l.Warn("no such method", "args", len(req.Args))
			case resp.Failed():
				l.Info("call failed", "duration", duration, "code", resp.Err.Code, "error", resp.Err.Message)
			default:
				l.Debug("call ok", "duration", duration)
			}
			return resp, ok
		}
	}
}
