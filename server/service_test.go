package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nano-rpc/message"
	"nano-rpc/protocol"
)

type CalcProtocol interface {
	Add(a, b int) int
	Div(a, b int) (int, error)
	Sum(base int, xs ...int) int
	Deadline(ctx context.Context) (bool, error)
	Reset() error
	Ping()
}

type calc struct {
	pings int
}

func (c *calc) Add(a, b int) int { return a + b }

func (c *calc) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func (c *calc) Sum(base int, xs ...int) int {
	for _, x := range xs {
		base += x
	}
	return base
}

func (c *calc) Deadline(ctx context.Context) (bool, error) {
	_, ok := ctx.Deadline()
	return ok, ctx.Err()
}

func (c *calc) Reset() error { return nil }

func (c *calc) Ping() { c.pings++ }

func TestReflect(t *testing.T) {
	impl := &calc{}
	table, err := Reflect[CalcProtocol](impl, protocol.DefaultNaming())
	if err != nil {
		t.Fatalf("Reflect failed: %v", err)
	}
	if table.Name() != "CalcProtocol" {
		t.Errorf("name: got %s", table.Name())
	}
	if diff := cmp.Diff([]string{"Add", "Deadline", "Div", "Ping", "Reset", "Sum"}, table.Methods()); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}

	cases := []struct {
		method string
		args   []any
		value  string
		code   int32
	}{
		{"Add", []any{1, 2}, "3", message.CodeOK},
		{"Div", []any{7, 2}, "3", message.CodeOK},
		{"Div", []any{1, 0}, "", message.CodeMethodFailed},
		{"Sum", []any{1, []int{2, 3}}, "6", message.CodeOK},
		{"Sum", []any{1}, "", message.CodeInvalidArgument},
		{"Reset", nil, "null", message.CodeOK},
		{"Ping", nil, "null", message.CodeOK},
		{"Add", []any{"x", 2}, "", message.CodeInvalidArgument},
	}
	for _, tc := range cases {
		resp, ok := table.Respond(context.Background(), tc.method, args(tc.args...))
		if !ok {
			t.Fatalf("%s: expect present", tc.method)
		}
		if tc.code != message.CodeOK {
			if resp.Err == nil || resp.Err.Code != tc.code {
				t.Errorf("%s%v: expect code %d, got %+v", tc.method, tc.args, tc.code, resp)
			}
			continue
		}
		if resp.Failed() || string(resp.Value) != tc.value {
			t.Errorf("%s%v: expect %s, got %+v", tc.method, tc.args, tc.value, resp)
		}
	}
	if impl.pings != 1 {
		t.Errorf("expect one ping, got %d", impl.pings)
	}

	resp, _ := table.Respond(context.Background(), "Div", args(1, 0))
	if resp.Err.Message != "division by zero" || string(resp.Err.Details) != `"division by zero"` {
		t.Errorf("unexpected failure %+v", resp.Err)
	}

	if _, ok := table.Respond(context.Background(), "Mul", nil); ok {
		t.Error("unknown method must be absent")
	}
}

func TestReflectPassesContext(t *testing.T) {
	table, err := Reflect[CalcProtocol](&calc{}, protocol.DefaultNaming())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	resp, _ := table.Respond(ctx, "Deadline", nil)
	if resp.Failed() || string(resp.Value) != "true" {
		t.Fatalf("expect the caller's context to reach the method, got %+v", resp)
	}
}

type Calc interface {
	Add(a, b int) int
}

type StreamProtocol interface {
	Events() chan int
}

type TripleProtocol interface {
	Get() (int, int, error)
}

type LateContextProtocol interface {
	Do(n int, ctx context.Context) error
}

type stream struct{}

func (stream) Events() chan int                    { return nil }
func (stream) Get() (int, int, error)              { return 0, 0, nil }
func (stream) Add(a, b int) int                    { return a + b }
func (stream) Do(n int, ctx context.Context) error { return nil }

type List []List

type Tree struct {
	Children map[string]*Tree
}

type Node *Node

type RecursiveProtocol interface {
	Get() List
	Grow(t *Tree) map[string]List
	Bad(n []Node) []chan List
}

type recursive struct{}

func (recursive) Get() List                    { return List{List{}} }
func (recursive) Grow(t *Tree) map[string]List { return map[string]List{"a": nil} }
func (recursive) Bad(n []Node) []chan List     { return nil }

type RecursiveOKProtocol interface {
	Get() List
	Grow(t *Tree) map[string]List
}

func TestReflectRecursiveTypes(t *testing.T) {
	table, err := Reflect[RecursiveOKProtocol](recursive{}, protocol.DefaultNaming())
	if err != nil {
		t.Fatalf("recursive types should be accepted, got %v", err)
	}
	resp, ok := table.Respond(context.Background(), "Get", nil)
	if !ok || resp.Failed() || string(resp.Value) != "[[]]" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if _, err := Reflect[RecursiveProtocol](recursive{}, protocol.DefaultNaming()); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expect ErrUnsupportedMethod for a channel inside a recursive type, got %v", err)
	}
}

func TestReflectErrors(t *testing.T) {
	var ne *protocol.NamingError
	if _, err := Reflect[Calc](stream{}, protocol.DefaultNaming()); !errors.As(err, &ne) {
		t.Errorf("expect NamingError, got %v", err)
	}
	if _, err := Reflect[StreamProtocol](stream{}, protocol.DefaultNaming()); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("expect ErrUnsupportedMethod for a channel result, got %v", err)
	}
	if _, err := Reflect[TripleProtocol](stream{}, protocol.DefaultNaming()); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("expect ErrUnsupportedMethod for three results, got %v", err)
	}
	if _, err := Reflect[LateContextProtocol](stream{}, protocol.DefaultNaming()); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("expect ErrUnsupportedMethod for a context after other parameters, got %v", err)
	}
	if _, err := Reflect[*calc](&calc{}, protocol.DefaultNaming()); !errors.Is(err, protocol.ErrNotInterface) {
		t.Errorf("expect ErrNotInterface, got %v", err)
	}
	if _, err := Reflect[CalcProtocol](nil, protocol.DefaultNaming()); err == nil {
		t.Error("expect error for a nil implementation")
	}
}
