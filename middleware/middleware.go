// Package middleware wraps the dispatch step of a table.
//
// A table builds its chain once at construction:
//
//	Chain(A, B, C)(dispatch) -> A(B(C(dispatch)))
//
// so A sees every call first and its result last. A HandlerFunc returns
// ok == false when no such method exists; middleware must pass that through
// unchanged rather than invent a Response. Request.Known tells middleware
// whether the table has the method before the lookup runs.
package middleware

import (
	"context"

	"nano-rpc/message"
)

type HandlerFunc func(ctx context.Context, req *message.Request) (*message.Response, bool)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
