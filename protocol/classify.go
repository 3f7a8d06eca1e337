package protocol

import (
	"fmt"
	"go/ast"
)

// Classify maps a validated method signature to a Method.
//
// A leading context.Context parameter is dropped from Params and flagged on
// the Method. All remaining parameters get consecutive indexes starting at 0,
// so Params[i].Index == i. The result list is Fallible exactly when its last
// entry is the predeclared error type.
func Classify(name string, ft *ast.FuncType, isContext, isError func(ast.Expr) bool) *Method {
	m := &Method{Name: name}

	position := 0
	for _, field := range fieldList(ft.Params) {
		names := field.Names
		if len(names) == 0 {
			names = []*ast.Ident{nil}
		}
		for _, id := range names {
			if position == 0 && isContext(field.Type) {
				m.Context = true
				m.ContextName = "ctx"
				if id != nil && id.Name != "_" {
					m.ContextName = id.Name
				}
				position++
				continue
			}
			idx := len(m.Params)
			pname := fmt.Sprintf("arg%d", idx)
			if id != nil && id.Name != "_" {
				pname = id.Name
			}
			m.Params = append(m.Params, Param{Name: pname, Type: field.Type, Index: idx})
			position++
		}
	}
	if n := len(m.Params); n > 0 {
		_, m.Variadic = m.Params[n-1].Type.(*ast.Ellipsis)
	}

	var results []ast.Expr
	for _, field := range fieldList(ft.Results) {
		for n := max(len(field.Names), 1); n > 0; n-- {
			results = append(results, field.Type)
		}
	}
	if n := len(results); n > 0 && isError(results[n-1]) {
		m.Return.Kind = Fallible
		results = results[:n-1]
	}
	if len(results) > 0 {
		m.Return.Value = results[0]
	}
	return m
}
