package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"nano-rpc/message"
)

// RecoveryMiddleware turns a panic raised by the invoked method into a
// CodePanic failure, so one bad call cannot take the host down.
func RecoveryMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (resp *message.Response, ok bool) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("dispatch panic", "service", req.Service, "method", req.Method,
						"panic", r, "stack", string(debug.Stack()))
					resp = message.Failure(&message.ServerError{
						Code:    message.CodePanic,
						Message: fmt.Sprint(r),
					})
					ok = true
				}
			}()
			return next(ctx, req)
		}
	}
}
