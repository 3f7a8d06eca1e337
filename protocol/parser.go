package protocol

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"strconv"
	"strings"

	"nano-rpc/logger"
)

// Directive marks a protocol interface in its doc comment when no explicit
// type names are given.
const Directive = "//nanorpc:protocol"

// ParseFile parses a Go source file and returns the selected protocols.
// src follows go/parser.ParseFile: nil means read filename.
func ParseFile(fset *token.FileSet, filename string, src any, naming Naming, names ...string) (*File, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return Parse(fset, f, naming, names...)
}

// Parse selects protocol interfaces from an already parsed file. With names,
// exactly those types are used, in that order. Without, every type whose doc
// comment carries the protocol directive is used.
func Parse(fset *token.FileSet, f *ast.File, naming Naming, names ...string) (*File, error) {
	p := &fileParser{
		fset:   fset,
		naming: naming,
		locals: localTypes(f),
		out: &File{
			Name:    fset.Position(f.Package).Filename,
			Package: f.Name.Name,
			Imports: imports(f),
		},
	}

	specs, err := p.selectSpecs(f, names)
	if err != nil {
		return nil, err
	}
	for _, s := range specs {
		decl, err := p.declaration(s.spec, s.doc)
		if err != nil {
			return nil, err
		}
		p.out.Declarations = append(p.out.Declarations, decl)
	}
	return p.out, nil
}

type fileParser struct {
	fset   *token.FileSet
	naming Naming
	locals map[string]bool // Type names declared at file scope
	out    *File
}

type selected struct {
	spec *ast.TypeSpec
	doc  *ast.CommentGroup
}

func (p *fileParser) selectSpecs(f *ast.File, names []string) ([]selected, error) {
	var all []selected
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, s := range gen.Specs {
			ts := s.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			all = append(all, selected{spec: ts, doc: doc})
		}
	}

	var out []selected
	if len(names) > 0 {
		for _, name := range names {
			found := false
			for _, s := range all {
				if s.spec.Name.Name == name {
					out = append(out, s)
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("%w: %s in %s", ErrDeclarationNotFound, name, p.out.Name)
			}
		}
		return out, nil
	}

	for _, s := range all {
		if hasDirective(s.doc) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no %s directive in %s", ErrDeclarationNotFound, Directive, p.out.Name)
	}
	return out, nil
}

func (p *fileParser) declaration(ts *ast.TypeSpec, doc *ast.CommentGroup) (*Declaration, error) {
	name := ts.Name.Name
	pos := p.fset.Position(ts.Pos())

	iface, ok := ts.Type.(*ast.InterfaceType)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", pos, ErrNotInterface, name)
	}

	service, client, err := p.naming.Derive(name)
	if err != nil {
		ne := err.(*NamingError)
		ne.Pos = pos
		return nil, ne
	}

	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		return nil, &UnsupportedSignatureError{Pos: pos, Interface: name, Reason: "type parameters are not supported"}
	}

	decl := &Declaration{
		Name:        name,
		ServiceName: service,
		ClientName:  client,
		Doc:         docText(doc),
		Pos:         pos,
	}

	start := logger.Phase("classify", "protocol", name, "members", len(iface.Methods.List))
	for _, field := range iface.Methods.List {
		fpos := p.fset.Position(field.Pos())
		ft, isMethod := field.Type.(*ast.FuncType)
		if !isMethod || len(field.Names) == 0 {
			return nil, &UnsupportedMemberError{Pos: fpos, Interface: name, Member: types.ExprString(field.Type)}
		}
		mname := field.Names[0].Name
		if !ast.IsExported(mname) {
			return nil, &UnsupportedSignatureError{Pos: fpos, Interface: name, Method: mname, Reason: "method is not exported"}
		}
		if err := p.validate(name, mname, fpos, ft); err != nil {
			return nil, err
		}
		m := Classify(mname, ft, p.isContext, p.isError)
		m.Pos = fpos
		decl.Methods = append(decl.Methods, m)
	}
	logger.PhaseDone("classify", start, "protocol", name, "methods", len(decl.Methods))
	return decl, nil
}

// validate checks everything Classify relies on.
func (p *fileParser) validate(iface, method string, pos token.Position, ft *ast.FuncType) error {
	bad := func(reason string, args ...any) error {
		return &UnsupportedSignatureError{Pos: pos, Interface: iface, Method: method, Reason: fmt.Sprintf(reason, args...)}
	}

	position := 0
	for _, field := range fieldList(ft.Params) {
		if err := checkShape(field.Type); err != "" {
			return bad("parameter type %s: %s", types.ExprString(field.Type), err)
		}
		for n := max(len(field.Names), 1); n > 0; n-- {
			if position > 0 && p.isContext(field.Type) {
				return bad("context.Context must be the first parameter")
			}
			position++
		}
	}

	results := fieldList(ft.Results)
	n := 0
	for _, field := range results {
		if err := checkShape(field.Type); err != "" {
			return bad("result type %s: %s", types.ExprString(field.Type), err)
		}
		n += max(len(field.Names), 1)
	}
	switch {
	case n > 2:
		return bad("at most two results are allowed, got %d", n)
	case n == 2 && !p.isError(results[len(results)-1].Type):
		return bad("the second result must be error")
	case n == 2 && p.isError(results[0].Type):
		return bad("the first of two results must not be error")
	}
	return nil
}

// checkShape returns a reason when a type cannot be encoded as an opaque value.
func checkShape(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.FuncType:
		return "func types are not supported"
	case *ast.ChanType:
		return "channel types are not supported"
	case *ast.StructType:
		return "anonymous struct types are not supported"
	case *ast.InterfaceType:
		if t.Methods != nil && len(t.Methods.List) > 0 {
			return "inline interface types are not supported"
		}
	case *ast.StarExpr:
		return checkShape(t.X)
	case *ast.ArrayType:
		return checkShape(t.Elt)
	case *ast.MapType:
		if r := checkShape(t.Key); r != "" {
			return r
		}
		return checkShape(t.Value)
	case *ast.Ellipsis:
		return checkShape(t.Elt)
	case *ast.ParenExpr:
		return checkShape(t.X)
	case *ast.IndexExpr:
		return checkShape(t.Index)
	case *ast.IndexListExpr:
		for _, idx := range t.Indices {
			if r := checkShape(idx); r != "" {
				return r
			}
		}
	}
	return ""
}

// isContext reports whether expr names context.Context.
func (p *fileParser) isContext(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Context" {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	return ok && p.out.Imports[x.Name] == "context"
}

// isError reports whether expr is the predeclared error type.
func (p *fileParser) isError(expr ast.Expr) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == "error" && !p.locals["error"]
}

func fieldList(fl *ast.FieldList) []*ast.Field {
	if fl == nil {
		return nil
	}
	return fl.List
}

func localTypes(f *ast.File) map[string]bool {
	out := make(map[string]bool)
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, s := range gen.Specs {
			out[s.(*ast.TypeSpec).Name.Name] = true
		}
	}
	return out
}

func imports(f *ast.File) map[string]string {
	out := make(map[string]string)
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := ImportName(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		out[name] = p
	}
	return out
}

// ImportName guesses the package name of an import path: its last element,
// skipping a trailing major version such as "v2".
func ImportName(importPath string) string {
	base := path.Base(importPath)
	if len(base) > 1 && base[0] == 'v' && strings.Trim(base[1:], "0123456789") == "" {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	base = strings.TrimPrefix(base, "go-")
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, base)
}

func hasDirective(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == Directive {
			return true
		}
	}
	return false
}

// docText returns the comment text; directives are already dropped by
// CommentGroup.Text.
func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

// TypeString renders a type expression as source text.
func TypeString(expr ast.Expr) string {
	return types.ExprString(expr)
}
