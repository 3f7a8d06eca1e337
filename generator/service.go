package generator

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"nano-rpc/protocol"
)

// service emits the dispatcher for decl:
//
//	type EchoService struct{ impl EchoProtocol; table *server.Table }
//	func NewEchoService(impl EchoProtocol, opts ...server.Option) *EchoService
//	func (s *EchoService) Impl() EchoProtocol
//	func (s *EchoService) Table() *server.Table
//	func (s *EchoService) Respond(ctx, method, args) (*message.Response, bool)
func (g *generator) service(f *jen.File, decl *protocol.Declaration) error {
	name := decl.ServiceName
	l := g.locals()

	handlers := make(jen.Dict, len(decl.Methods))
	for _, m := range decl.Methods {
		body, err := g.handler(m, l)
		if err != nil {
			return fmt.Errorf("generate %s.%s: %w", decl.Name, m.Name, err)
		}
		handlers[jen.Lit(m.Name)] = jen.Func().Params(
			jen.Id(l.ctx).Qual("context", "Context"),
			jen.Id(l.call).Op("*").Qual(ServerPath, "Call"),
		).Op("*").Qual(MessagePath, "Response").Block(body...)
	}

	f.Commentf("%s dispatches %s calls by method name to a wrapped implementation.", name, decl.Name)
	f.Type().Id(name).Struct(
		jen.Id("impl").Id(decl.Name),
		jen.Id("table").Op("*").Qual(ServerPath, "Table"),
	)
	f.Line()
	f.Var().Id("_").Qual(ServerPath, "Service").Op("=").Parens(jen.Op("*").Id(name)).Parens(jen.Nil())
	f.Line()

	f.Commentf("New%s builds the dispatch table for impl once; it is read-only afterwards.", name)
	f.Func().Id("New"+name).Params(
		jen.Id(l.impl).Id(decl.Name),
		jen.Id(l.opts).Op("...").Qual(ServerPath, "Option"),
	).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(jen.Dict{
			jen.Id("impl"): jen.Id(l.impl),
			jen.Id("table"): jen.Qual(ServerPath, "NewTable").Call(
				jen.Lit(decl.Name),
				jen.Map(jen.String()).Qual(ServerPath, "Handler").Values(handlers),
				jen.Id(l.opts).Op("..."),
			),
		})),
	)
	f.Line()

	f.Comment("Impl returns the wrapped implementation.")
	f.Func().Params(jen.Id("s").Op("*").Id(name)).Id("Impl").Params().Id(decl.Name).Block(
		jen.Return(jen.Id("s").Dot("impl")),
	)
	f.Line()

	f.Comment("Table returns the underlying dispatch table.")
	f.Func().Params(jen.Id("s").Op("*").Id(name)).Id("Table").Params().Op("*").Qual(ServerPath, "Table").Block(
		jen.Return(jen.Id("s").Dot("table")),
	)
	f.Line()

	f.Comment("Respond decodes args, invokes the named method and encodes its outcome.")
	f.Comment("It returns false when no method of that name exists.")
	f.Func().Params(jen.Id("s").Op("*").Id(name)).Id("Respond").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("method").String(),
		jen.Id("args").Index().Qual(CodecPath, "OpaqueValue"),
	).Params(jen.Op("*").Qual(MessagePath, "Response"), jen.Bool()).Block(
		jen.Return(jen.Id("s").Dot("table").Dot("Respond").Call(jen.Id("ctx"), jen.Id("method"), jen.Id("args"))),
	)
	f.Line()
	return nil
}

// serviceLocals names the variables a service constructor and its handlers
// declare. Handler bodies mention source types, so none of them may shadow one.
type serviceLocals struct {
	ctx, call, impl, opts, out, err string
}

func (g *generator) locals() serviceLocals {
	return serviceLocals{
		ctx:  g.local("ctx"),
		call: g.local("call"),
		impl: g.local("impl"),
		opts: g.local("opts"),
		out:  g.local("out"),
		err:  g.local("err"),
	}
}

// handler emits the body of one method's handler closure.
func (g *generator) handler(m *protocol.Method, l serviceLocals) ([]jen.Code, error) {
	var body []jen.Code
	var callArgs []jen.Code
	if m.Context {
		callArgs = append(callArgs, jen.Id(l.ctx))
	}

	call := func(method string, args ...jen.Code) *jen.Statement {
		return jen.Id(l.call).Dot(method).Call(args...)
	}
	for _, p := range m.Params {
		typ, err := g.argType(p)
		if err != nil {
			return nil, err
		}
		local := g.local(fmt.Sprintf("arg%d", p.Index))
		body = append(body,
			jen.Var().Id(local).Add(typ),
			jen.If(
				jen.Id(l.err).Op(":=").Add(call("Decode", jen.Lit(p.Index), jen.Op("&").Id(local))),
				jen.Id(l.err).Op("!=").Nil(),
			).Block(jen.Return(call("Reject", jen.Id(l.err)))),
		)
		if m.Variadic && p.Index == len(m.Params)-1 {
			callArgs = append(callArgs, jen.Id(local).Op("..."))
		} else {
			callArgs = append(callArgs, jen.Id(local))
		}
	}

	invoke := jen.Id(l.impl).Dot(m.Name).Call(callArgs...)
	fail := jen.Return(call("Fail", jen.Id(l.err)))

	switch {
	case m.Return.Kind == protocol.Infallible && m.Return.HasValue():
		body = append(body, jen.Return(call("Succeed", invoke)))
	case m.Return.Kind == protocol.Infallible:
		body = append(body,
			invoke,
			jen.Return(call("Succeed", jen.Nil())),
		)
	case m.Return.HasValue():
		body = append(body,
			jen.List(jen.Id(l.out), jen.Id(l.err)).Op(":=").Add(invoke),
			jen.If(jen.Id(l.err).Op("!=").Nil()).Block(fail),
			jen.Return(call("Succeed", jen.Id(l.out))),
		)
	default:
		body = append(body,
			jen.If(jen.Id(l.err).Op(":=").Add(invoke), jen.Id(l.err).Op("!=").Nil()).Block(fail),
			jen.Return(call("Succeed", jen.Nil())),
		)
	}
	return body, nil
}
