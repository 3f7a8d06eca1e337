// Package client holds what generated <Base>Client stubs link against.
//
// A stub carries a Transport, the collaborator that will one day move a call
// to a remote service. Forwarding is not wired yet: every stub method returns
// a *TransportError wrapping ErrNotImplemented, never a silent zero value.
package client

import (
	"context"
	"errors"
	"fmt"

	"nano-rpc/codec"
	"nano-rpc/message"
)

// Transport sends one call and returns the encoded result. A failure reported
// by the remote method is returned as a *message.ServerError.
type Transport interface {
	Call(ctx context.Context, method string, args []codec.OpaqueValue) (codec.OpaqueValue, error)
}

var (
	// ErrNotImplemented is returned by stub methods until forwarding exists.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownMethod is returned when the other side has no such method.
	ErrUnknownMethod = errors.New("unknown method")
)

// TransportError reports a call that did not produce a method result.
type TransportError struct {
	Protocol string
	Method   string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Protocol, e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotImplemented is the error every generated stub method returns.
func NotImplemented(protocol, method string) error {
	return &TransportError{Protocol: protocol, Method: method, Err: ErrNotImplemented}
}

// Responder is the server side of a call, satisfied by server.Service.
type Responder interface {
	Respond(ctx context.Context, method string, args []codec.OpaqueValue) (*message.Response, bool)
}

// Local is an in-process Transport over a Responder, for tests and for hosts
// that embed a service next to its caller.
type Local struct {
	Protocol string
	Service  Responder
}

var _ Transport = (*Local)(nil)

func (l *Local) Call(ctx context.Context, method string, args []codec.OpaqueValue) (codec.OpaqueValue, error) {
	resp, ok := l.Service.Respond(ctx, method, args)
	if !ok {
		return nil, &TransportError{Protocol: l.Protocol, Method: method, Err: ErrUnknownMethod}
	}
	if resp.Failed() {
		return nil, resp.Err
	}
	return resp.Value, nil
}

// Invoke encodes args with c, sends them over t and decodes the result into
// reply. A nil reply discards the value.
func Invoke(ctx context.Context, t Transport, c codec.Codec, method string, reply any, args ...any) error {
	encoded := make([]codec.OpaqueValue, len(args))
	for i, arg := range args {
		data, err := c.Encode(arg)
		if err != nil {
			return fmt.Errorf("encode argument %d of %s: %w", i, method, err)
		}
		encoded[i] = data
	}

	data, err := t.Call(ctx, method, encoded)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}
	if err := c.Decode(data, reply); err != nil {
		return fmt.Errorf("decode result of %s: %w", method, err)
	}
	return nil
}
