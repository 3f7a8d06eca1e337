package server

import (
	"errors"
	"fmt"
)

// ErrMissingArgument is wrapped by DecodeError when fewer arguments were sent
// than the method declares.
var ErrMissingArgument = errors.New("missing argument")

// DecodeError reports an argument that could not be decoded.
type DecodeError struct {
	Method string
	Index  int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: argument %d: %v", e.Method, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
