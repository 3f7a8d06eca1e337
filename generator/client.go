package generator

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"nano-rpc/protocol"
)

// client emits the stub skeleton for decl. Every method returns
// client.NotImplemented until forwarding over the transport exists.
func (g *generator) client(f *jen.File, decl *protocol.Declaration) error {
	name := decl.ClientName

	f.Commentf("%s is the client stub for %s.", name, decl.Name)
	f.Comment("Calls are not forwarded yet: every method returns an error wrapping client.ErrNotImplemented.")
	f.Type().Id(name).Struct(
		jen.Id("transport").Qual(ClientPath, "Transport"),
	)
	f.Line()

	f.Commentf("New%s returns a stub that will send calls over transport.", name)
	f.Func().Id("New"+name).Params(
		jen.Id("transport").Qual(ClientPath, "Transport"),
	).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(jen.Id("transport").Op(":").Id("transport"))),
	)
	f.Line()

	for _, m := range decl.Methods {
		if err := g.stub(f, decl, m); err != nil {
			return fmt.Errorf("generate %s.%s: %w", decl.Name, m.Name, err)
		}
	}
	return nil
}

// stub emits one method. Results are named so the body never spells out a
// source type, which a parameter of the same name would shadow.
func (g *generator) stub(f *jen.File, decl *protocol.Declaration, m *protocol.Method) error {
	used := map[string]bool{g.packages[ClientPath]: true}

	var params []jen.Code
	if m.Context {
		n := rename(m.ContextName, used)
		params = append(params, jen.Id(n).Qual("context", "Context"))
	}
	for _, p := range m.Params {
		typ, err := g.typeCode(p.Type)
		if err != nil {
			return err
		}
		params = append(params, jen.Id(rename(p.Name, used)).Add(typ))
	}
	zero := rename("zero", used)

	recv := "c"
	for i := 0; used[recv]; i++ {
		recv = fmt.Sprintf("c%d", i)
	}

	notImplemented := jen.Qual(ClientPath, "NotImplemented").Call(jen.Lit(decl.Name), jen.Lit(m.Name))

	fn := f.Func().Params(jen.Id(recv).Op("*").Id(decl.ClientName)).Id(m.Name).Params(params...)
	if m.Return.HasValue() {
		typ, err := g.typeCode(m.Return.Value)
		if err != nil {
			return err
		}
		fn.Params(jen.Id(zero).Add(typ), jen.Id("_").Error()).Block(
			jen.Return(jen.Id(zero), notImplemented),
		)
	} else {
		fn.Error().Block(jen.Return(notImplemented))
	}
	f.Line()
	return nil
}

// rename moves name out of the way of the client package and of names
// already used by the stub, then claims it.
func rename(name string, used map[string]bool) string {
	for used[name] {
		name += "_"
	}
	used[name] = true
	return name
}
