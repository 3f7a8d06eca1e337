package generator

import (
	"fmt"
	"go/ast"

	"github.com/dave/jennifer/jen"

	"nano-rpc/protocol"
)

// typeCode re-emits a source type expression, resolving package selectors
// through the source file's imports.
func (g *generator) typeCode(expr ast.Expr) (*jen.Statement, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		return jen.Id(t.Name), nil
	case *ast.SelectorExpr:
		x, ok := t.X.(*ast.Ident)
		if !ok {
			break
		}
		if path, ok := g.imports[x.Name]; ok {
			return jen.Qual(path, t.Sel.Name), nil
		}
		return jen.Id(x.Name).Dot(t.Sel.Name), nil
	case *ast.StarExpr:
		inner, err := g.typeCode(t.X)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(inner), nil
	case *ast.ArrayType:
		elt, err := g.typeCode(t.Elt)
		if err != nil {
			return nil, err
		}
		if t.Len == nil {
			return jen.Index().Add(elt), nil
		}
		return jen.Index(jen.Id(protocol.TypeString(t.Len))).Add(elt), nil
	case *ast.MapType:
		key, err := g.typeCode(t.Key)
		if err != nil {
			return nil, err
		}
		val, err := g.typeCode(t.Value)
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(val), nil
	case *ast.Ellipsis:
		elt, err := g.typeCode(t.Elt)
		if err != nil {
			return nil, err
		}
		return jen.Op("...").Add(elt), nil
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return jen.Interface(), nil
		}
	case *ast.ParenExpr:
		return g.typeCode(t.X)
	case *ast.IndexExpr:
		base, err := g.typeCode(t.X)
		if err != nil {
			return nil, err
		}
		arg, err := g.typeCode(t.Index)
		if err != nil {
			return nil, err
		}
		return base.Types(arg), nil
	case *ast.IndexListExpr:
		base, err := g.typeCode(t.X)
		if err != nil {
			return nil, err
		}
		args := make([]jen.Code, 0, len(t.Indices))
		for _, idx := range t.Indices {
			arg, err := g.typeCode(idx)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return base.Types(args...), nil
	}
	return nil, fmt.Errorf("generate: unsupported type expression %s", protocol.TypeString(expr))
}

// argType is the type a parameter is decoded into: "...T" travels as []T.
func (g *generator) argType(p protocol.Param) (*jen.Statement, error) {
	if e, ok := p.Type.(*ast.Ellipsis); ok {
		elt, err := g.typeCode(e.Elt)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elt), nil
	}
	return g.typeCode(p.Type)
}
