package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"nano-rpc/message"
)

// RateLimitMiddleware 创建一个基于令牌桶算法的限流中间件
// Rejected calls fail with CodeRateLimited without reaching the method.
// Requests for unknown methods pass through untouched and take no token.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, bool) {
			if !req.Known {
				return next(ctx, req)
			}
			if !limiter.Allow() {
				return message.Failure(&message.ServerError{
					Code:    message.CodeRateLimited,
					Message: "rate limit exceeded",
				}), true
			}
			return next(ctx, req)
		}
	}
}
