// Package server implements the runtime dispatch table that generated
// services are built on.
//
// Dispatch pipeline:
//
//	Respond(ctx, method, args) → Middleware Chain → lookup handler by name
//	  → Handler decodes args (Call.Decode) → invoke implementation → Call.Succeed / Call.Fail
//
// A Table is built once and never mutated afterwards, so Respond may be called
// from many goroutines at once. Any synchronisation of the wrapped
// implementation is the implementation's own business.
package server

import (
	"context"
	"fmt"
	"sort"

	"nano-rpc/codec"
	"nano-rpc/message"
	"nano-rpc/middleware"
)

// Service is what generated <Base>Service types and reflected tables provide.
//
// Respond returns ok == false when no method of that name exists. Otherwise
// the Response is either a success or a ServerError failure.
type Service interface {
	Respond(ctx context.Context, method string, args []codec.OpaqueValue) (*message.Response, bool)
}

// Handler serves a single method.
type Handler func(ctx context.Context, call *Call) *message.Response

// Option configures a Table.
type Option func(*options)

type options struct {
	codec       codec.Codec
	middlewares []middleware.Middleware
}

// WithCodec sets the codec used for arguments, results and error details.
// The default is JSON.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithMiddleware appends middlewares. They are applied in the order given.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// Table maps method names to handlers.
type Table struct {
	name     string                 // Protocol name, e.g. "EchoProtocol"
	handlers map[string]Handler     // Private copy, read-only after NewTable
	codec    codec.Codec            // Shared by every Call
	handler  middleware.HandlerFunc // middleware(middleware(...(dispatch)))
}

var _ Service = (*Table)(nil)

// NewTable builds a table over a copy of handlers. It panics on a nil
// handler: that is a bug in the code building the table, not a runtime
// condition.
func NewTable(name string, handlers map[string]Handler, opts ...Option) *Table {
	o := options{codec: codec.GetCodec(codec.CodecTypeJSON)}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table{
		name:     name,
		handlers: make(map[string]Handler, len(handlers)),
		codec:    o.codec,
	}
	for method, h := range handlers {
		if h == nil {
			panic(fmt.Sprintf("server: nil handler for %s.%s", name, method))
		}
		t.handlers[method] = h
	}

	// Build the middleware chain once, not per call
	t.handler = middleware.Chain(o.middlewares...)(t.dispatch)
	return t
}

// Name returns the protocol name the table serves.
func (t *Table) Name() string {
	return t.name
}

// Codec returns the codec shared by every call.
func (t *Table) Codec() codec.Codec {
	return t.codec
}

// Methods returns the method names in sorted order.
func (t *Table) Methods() []string {
	names := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Respond dispatches a call by method name.
func (t *Table) Respond(ctx context.Context, method string, args []codec.OpaqueValue) (*message.Response, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	_, known := t.handlers[method]
	return t.handler(ctx, &message.Request{
		Service: t.name,
		Method:  method,
		Args:    args,
		Known:   known,
	})
}

// dispatch is the innermost HandlerFunc of the chain.
func (t *Table) dispatch(ctx context.Context, req *message.Request) (*message.Response, bool) {
	h, ok := t.handlers[req.Method]
	if !ok {
		return nil, false
	}
	call := &Call{Method: req.Method, Args: req.Args, codec: t.codec}
	resp := h(ctx, call)
	if resp == nil {
		resp = call.Succeed(nil)
	}
	return resp, true
}
