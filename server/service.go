package server

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"nano-rpc/message"
	"nano-rpc/protocol"
)

// ErrUnsupportedMethod is wrapped by Reflect for methods it cannot serve.
var ErrUnsupportedMethod = errors.New("unsupported method")

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// methodType describes one reflected protocol method.
type methodType struct {
	name     string
	ctx      bool           // First parameter is context.Context
	args     []reflect.Type // Decoded parameter types; a variadic one is its slice type
	variadic bool
	fallible bool // Last result is error
	value    bool // Has a success value
}

// Reflect builds a Table for the protocol interface P without generated
// code. It applies the same rules as the generator: P's name must follow
// naming, a leading context.Context is supplied by Respond, and a trailing
// error result makes the method fallible.
//
//	table, err := server.Reflect[EchoProtocol](impl, protocol.DefaultNaming())
func Reflect[P any](impl P, naming protocol.Naming, opts ...Option) (*Table, error) {
	// 1. 用 reflect 获取接口类型和值
	typ := reflect.TypeOf((*P)(nil)).Elem()
	if typ.Kind() != reflect.Interface {
		return nil, fmt.Errorf("server: %s: %w", typ, protocol.ErrNotInterface)
	}
	if _, _, err := naming.Derive(typ.Name()); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	val := reflect.ValueOf(&impl).Elem()
	if val.IsNil() {
		return nil, fmt.Errorf("server: %s: nil implementation", typ.Name())
	}

	// 2. 扫描方法，建立 handler 表
	handlers := make(map[string]Handler, typ.NumMethod())
	for i := 0; i < typ.NumMethod(); i++ {
		mt, err := newMethodType(typ, i)
		if err != nil {
			return nil, err
		}
		handlers[mt.name] = mt.handler(val.Method(i))
	}
	return NewTable(typ.Name(), handlers, opts...), nil
}

func newMethodType(iface reflect.Type, i int) (*methodType, error) {
	method := iface.Method(i)
	ft := method.Type
	bad := func(reason string, args ...any) error {
		return fmt.Errorf("server: %s.%s: %w: %s", iface.Name(), method.Name, ErrUnsupportedMethod, fmt.Sprintf(reason, args...))
	}
	if !method.IsExported() {
		return nil, bad("method is not exported")
	}

	mt := &methodType{name: method.Name, variadic: ft.IsVariadic()}

	// 合法条件：最多两个返回值，两个时最后一个必须是 error
	switch n := ft.NumOut(); {
	case n > 2:
		return nil, bad("at most two results are allowed, got %d", n)
	case n == 2 && ft.Out(1) != errorType:
		return nil, bad("the second result must be error")
	case n == 2 && ft.Out(0) == errorType:
		return nil, bad("the first of two results must not be error")
	case n > 0:
		mt.fallible = ft.Out(n-1) == errorType
		mt.value = n == 2 || !mt.fallible
	}

	start := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		mt.ctx = true
		start = 1
	}
	for k := start; k < ft.NumIn(); k++ {
		in := ft.In(k)
		if in == contextType {
			return nil, bad("context.Context must be the first parameter")
		}
		if !encodable(in) {
			return nil, bad("parameter type %s is not supported", in)
		}
		mt.args = append(mt.args, in)
	}
	for k := 0; k < ft.NumOut(); k++ {
		if out := ft.Out(k); out != errorType && !encodable(out) {
			return nil, bad("result type %s is not supported", out)
		}
	}
	return mt, nil
}

// encodable reports whether values of t can travel as opaque values.
// Recursive types such as "type L []L" are checked once per type.
func encodable(t reflect.Type) bool {
	return walkEncodable(t, make(map[reflect.Type]bool))
}

func walkEncodable(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return walkEncodable(t.Elem(), seen)
	case reflect.Map:
		return walkEncodable(t.Key(), seen) && walkEncodable(t.Elem(), seen)
	}
	return true
}

// handler 通过反射调用方法
func (mt *methodType) handler(fn reflect.Value) Handler {
	return func(ctx context.Context, call *Call) *message.Response {
		in := make([]reflect.Value, 0, len(mt.args)+1)
		if mt.ctx {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, t := range mt.args {
			argv := reflect.New(t)
			if err := call.Decode(i, argv.Interface()); err != nil {
				return call.Reject(err)
			}
			in = append(in, argv.Elem())
		}

		var out []reflect.Value
		if mt.variadic {
			out = fn.CallSlice(in)
		} else {
			out = fn.Call(in)
		}

		if mt.fallible {
			if errv := out[len(out)-1]; !errv.IsNil() {
				return call.Fail(errv.Interface().(error))
			}
		}
		if !mt.value {
			return call.Succeed(nil)
		}
		return call.Succeed(out[0].Interface())
	}
}
