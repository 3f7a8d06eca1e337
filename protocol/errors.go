package protocol

import (
	"errors"
	"fmt"
	"go/token"
)

var (
	// ErrDeclarationNotFound is returned when a requested type does not exist
	// in the file, or no type carries the protocol directive.
	ErrDeclarationNotFound = errors.New("protocol declaration not found")

	// ErrNotInterface is returned when a selected type is not an interface.
	ErrNotInterface = errors.New("protocol declaration is not an interface")
)

// NamingError reports a protocol name without the required suffix.
type NamingError struct {
	Pos    token.Position
	Name   string
	Suffix string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("%s%s: protocol name must end with %q and have a non-empty base", prefix(e.Pos), e.Name, e.Suffix)
}

// UnsupportedMemberError reports an interface member that is not a method,
// such as an embedded interface or a type-set term.
type UnsupportedMemberError struct {
	Pos       token.Position
	Interface string
	Member    string
}

func (e *UnsupportedMemberError) Error() string {
	return fmt.Sprintf("%s%s: unsupported member %s: only methods are allowed", prefix(e.Pos), e.Interface, e.Member)
}

// UnsupportedSignatureError reports a method whose parameters or results
// cannot be carried as opaque values.
type UnsupportedSignatureError struct {
	Pos       token.Position
	Interface string
	Method    string // Empty when the interface itself is at fault
	Reason    string
}

func (e *UnsupportedSignatureError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("%s%s: %s", prefix(e.Pos), e.Interface, e.Reason)
	}
	return fmt.Sprintf("%s%s.%s: %s", prefix(e.Pos), e.Interface, e.Method, e.Reason)
}

func prefix(pos token.Position) string {
	if !pos.IsValid() {
		return ""
	}
	return pos.String() + ": "
}
