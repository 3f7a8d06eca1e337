package server

import (
	"errors"

	"nano-rpc/codec"
	"nano-rpc/message"
)

// Call is the per-dispatch view a Handler works with.
type Call struct {
	Method string
	Args   []codec.OpaqueValue
	codec  codec.Codec
}

// NewCall returns a Call decoding and encoding with c, JSON if nil.
func NewCall(method string, args []codec.OpaqueValue, c codec.Codec) *Call {
	if c == nil {
		c = codec.GetCodec(codec.CodecTypeJSON)
	}
	return &Call{Method: method, Args: args, codec: c}
}

// Decode reads argument i into v, which must be a pointer.
// Arguments past the last declared parameter are never looked at.
func (c *Call) Decode(i int, v any) error {
	if i < 0 || i >= len(c.Args) {
		return &DecodeError{Method: c.Method, Index: i, Err: ErrMissingArgument}
	}
	if err := c.codec.Decode(c.Args[i], v); err != nil {
		return &DecodeError{Method: c.Method, Index: i, Err: err}
	}
	return nil
}

// Succeed encodes v as the call's value. A nil v encodes as null.
func (c *Call) Succeed(v any) *message.Response {
	data, err := c.codec.Encode(v)
	if err != nil {
		return message.Failure(&message.ServerError{
			Code:    message.CodeEncodeFailed,
			Message: "encode result: " + err.Error(),
		})
	}
	return message.Success(data)
}

// Fail reports an error returned by the method itself.
func (c *Call) Fail(err error) *message.Response {
	return message.Failure(&message.ServerError{
		Code:    message.CodeMethodFailed,
		Message: err.Error(),
		Details: codec.EncodeError(c.codec, err),
	})
}

type rejectDetails struct {
	Method string `json:"method"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Reject reports arguments that could not be decoded. The method is not run.
func (c *Call) Reject(err error) *message.Response {
	se := &message.ServerError{
		Code:    message.CodeInvalidArgument,
		Message: err.Error(),
	}
	var de *DecodeError
	if errors.As(err, &de) {
		reason := "invalid"
		if errors.Is(de.Err, ErrMissingArgument) {
			reason = "missing"
		}
		if data, encErr := c.codec.Encode(rejectDetails{Method: de.Method, Index: de.Index, Reason: reason}); encErr == nil {
			se.Details = data
		}
	}
	return message.Failure(se)
}
