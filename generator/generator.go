// Package generator turns parsed protocols into Go source.
//
// For each protocol.Declaration it emits a <Base>Service dispatcher wrapping
// an implementation and a <Base>Client stub skeleton, and assembles them into
// one gofmt'ed file headed by the "Code generated" marker.
package generator

import (
	"bytes"
	"fmt"
	"go/ast"
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"

	"nano-rpc/logger"
	"nano-rpc/protocol"
)

// Header is the first line of every generated file.
const Header = "Code generated by nanorpcgen. DO NOT EDIT."

// Import paths of the runtime packages generated code links against.
const (
	ServerPath  = "nano-rpc/server"
	ClientPath  = "nano-rpc/client"
	MessagePath = "nano-rpc/message"
	CodecPath   = "nano-rpc/codec"
)

type Options struct {
	// PackagePath is the import path of the package being generated into.
	// Optional; with it, source types from that package stay unqualified.
	PackagePath string

	// Source names the input file in the header. Optional.
	Source string
}

// Generate renders all declarations of file into a single Go source file.
// Nothing is returned on error.
func Generate(file *protocol.File, opts Options) ([]byte, error) {
	if file == nil || len(file.Declarations) == 0 {
		return nil, fmt.Errorf("generate: no protocol declarations")
	}

	var f *jen.File
	if opts.PackagePath != "" {
		f = jen.NewFilePathName(opts.PackagePath, file.Package)
	} else {
		f = jen.NewFile(file.Package)
	}
	f.HeaderComment(Header)
	if opts.Source != "" {
		f.HeaderComment("Source: " + filepath.Base(opts.Source))
	}

	g := newGenerator(file)
	for path, local := range g.packages {
		if local == protocol.ImportName(path) {
			f.ImportName(path, local)
		} else {
			f.ImportAlias(path, local)
		}
	}
	for _, decl := range file.Declarations {
		start := logger.Phase("build", "protocol", decl.Name, "methods", len(decl.Methods))
		if err := g.service(f, decl); err != nil {
			return nil, err
		}
		if err := g.client(f, decl); err != nil {
			return nil, err
		}
		logger.PhaseDone("build", start, "protocol", decl.Name)
	}

	start := logger.Phase("render", "package", file.Package)
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("generate: render: %w", err)
	}
	logger.PhaseDone("render", start, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// OutputPath returns the generated file name for an input file: the input
// with its ".go" extension replaced by suffix.
func OutputPath(input, suffix string) string {
	return strings.TrimSuffix(input, ".go") + suffix
}

// runtimeImports are the packages generated code refers to on its own.
var runtimeImports = []string{"context", ServerPath, ClientPath, MessagePath, CodecPath}

type generator struct {
	imports  map[string]string // Local name -> import path, from the source file
	packages map[string]string // Import path -> local name, for every import of the output
	reserved map[string]bool   // Identifiers generated code must not shadow
}

func newGenerator(file *protocol.File) *generator {
	g := &generator{
		imports:  file.Imports,
		packages: make(map[string]string),
		reserved: make(map[string]bool),
	}
	for local, path := range file.Imports {
		g.packages[path] = local
		g.reserved[local] = true
	}
	for _, decl := range file.Declarations {
		g.reserved[decl.Name] = true
		g.reserved[decl.ServiceName] = true
		g.reserved[decl.ClientName] = true
		for _, m := range decl.Methods {
			for _, p := range m.Params {
				g.reserve(p.Type)
			}
			if m.Return.HasValue() {
				g.reserve(m.Return.Value)
			}
		}
	}

	// A runtime package keeps the source file's name for it. Otherwise it
	// gets its usual name unless a source identifier already owns that.
	for _, path := range runtimeImports {
		if _, ok := g.packages[path]; ok {
			continue
		}
		base := protocol.ImportName(path)
		local := base
		for i := 1; g.reserved[local]; i++ {
			local = fmt.Sprintf("nrpc%s%d", base, i)
		}
		g.packages[path] = local
		g.reserved[local] = true
	}
	return g
}

// reserve records every identifier a type expression mentions.
func (g *generator) reserve(expr ast.Expr) {
	ast.Inspect(expr, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			g.reserved[id.Name] = true
		}
		return true
	})
}

// local returns name, or name with underscores appended until it no longer
// shadows a reserved identifier or one in extra.
func (g *generator) local(name string, extra ...map[string]bool) string {
	for g.taken(name, extra) {
		name += "_"
	}
	return name
}

func (g *generator) taken(name string, extra []map[string]bool) bool {
	if g.reserved[name] {
		return true
	}
	for _, m := range extra {
		if m[name] {
			return true
		}
	}
	return false
}
