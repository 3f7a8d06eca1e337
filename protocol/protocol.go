// Package protocol reads protocol interface declarations out of Go source and
// classifies their methods.
//
// A protocol is a Go interface whose name ends with the protocol suffix
// (default "Protocol"). From "EchoProtocol" the compiler derives the server
// type "EchoService" and the client type "EchoClient":
//
//	type EchoProtocol interface {
//		Echo(msg string) string
//		Fail(x int) (int, error)
//	}
//
// Parsing validates the whole declaration before anything is emitted, so a
// bad member never leaves a half-generated file behind.
package protocol

import (
	"go/ast"
	"go/token"
)

// ReturnKind tells whether a method can report an error.
type ReturnKind int

const (
	Infallible ReturnKind = iota // T or nothing
	Fallible                     // (T, error) or error
)

func (k ReturnKind) String() string {
	if k == Fallible {
		return "fallible"
	}
	return "infallible"
}

// ReturnShape is the classified result list of a method.
type ReturnShape struct {
	Kind  ReturnKind
	Value ast.Expr // Success value type; nil when the method has none
}

// HasValue reports whether the method produces a value on success.
func (r ReturnShape) HasValue() bool {
	return r.Value != nil
}

// Param is one decoded argument.
type Param struct {
	Name  string   // Declared name, or "argN" when unnamed
	Type  ast.Expr // As written, including "...T" for a variadic parameter
	Index int      // Position in the argument list sent by the caller
}

// Method is a classified protocol method.
type Method struct {
	Name        string
	Context     bool   // First parameter is context.Context, supplied by the host
	ContextName string // Declared name of that parameter, "ctx" when unnamed
	Params      []Param
	Variadic    bool // Last Param is "...T" and travels as one list argument
	Return      ReturnShape
	Pos         token.Position
}

// Declaration is a validated protocol interface.
type Declaration struct {
	Name        string // e.g. "EchoProtocol"
	ServiceName string // e.g. "EchoService"
	ClientName  string // e.g. "EchoClient"
	Doc         string
	Methods     []*Method
	Pos         token.Position
}

// Method returns the method called name, or nil.
func (d *Declaration) Method(name string) *Method {
	for _, m := range d.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// File holds the protocols found in one source file.
type File struct {
	Name         string            // File name as given to the parser
	Package      string            // Package clause
	Imports      map[string]string // Local name -> import path
	Declarations []*Declaration
}
