// Package message defines the envelopes exchanged with a dispatch table.
//
// A Request names a method and carries its positional arguments as opaque
// values. A Response is either a success (Value set, Err nil) or a failure
// (Err set). "No such method" is not a Response at all: dispatchers report it
// by returning ok == false next to a nil *Response.
package message

import (
	"fmt"

	"nano-rpc/codec"
)

// Request carries the data for a single dispatch.
type Request struct {
	Service string              // Protocol name of the table serving the call, e.g. "EchoProtocol"
	Method  string              // Method name exactly as declared, e.g. "Echo"
	Args    []codec.OpaqueValue // Positional arguments, context and receiver excluded
	Known   bool                // Set by the table when Method has a handler
}

// Response is the outcome of a dispatched call.
type Response struct {
	Value codec.OpaqueValue // Encoded return value; null for methods without one
	Err   *ServerError      // Non-nil if the call failed
}

// Failed reports whether the response carries a ServerError.
func (r *Response) Failed() bool {
	return r != nil && r.Err != nil
}

// Success wraps an encoded value.
func Success(v codec.OpaqueValue) *Response {
	return &Response{Value: v}
}

// Failure wraps a ServerError.
func Failure(err *ServerError) *Response {
	return &Response{Err: err}
}

// Error codes carried by ServerError.
const (
	CodeOK              int32 = 0
	CodeMethodFailed    int32 = 1 // The method returned an error
	CodeInvalidArgument int32 = 2 // An argument was missing or could not be decoded
	CodeEncodeFailed    int32 = 3 // The return value could not be encoded
	CodeRateLimited     int32 = 4
	CodePanic           int32 = 5 // The method panicked and a recovery middleware caught it
)

// ServerError is the normalized error envelope for failed calls.
type ServerError struct {
	Code    int32             `json:"code"`
	Message string            `json:"message"`
	Details codec.OpaqueValue `json:"details"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Is matches any *ServerError with the same code.
func (e *ServerError) Is(target error) bool {
	if x, ok := target.(*ServerError); ok {
		return x.Code == e.Code
	}
	return false
}

// Sentinels for errors.Is checks by code.
var (
	ErrMethodFailed    = &ServerError{Code: CodeMethodFailed, Message: "method failed"}
	ErrInvalidArgument = &ServerError{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrEncodeFailed    = &ServerError{Code: CodeEncodeFailed, Message: "encode failed"}
	ErrRateLimited     = &ServerError{Code: CodeRateLimited, Message: "rate limit exceeded"}
	ErrPanic           = &ServerError{Code: CodePanic, Message: "method panicked"}
)
