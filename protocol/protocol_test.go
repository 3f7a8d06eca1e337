package protocol

import (
	"bytes"
	"errors"
	"go/token"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nano-rpc/logger"
)

const echoSource = `package echo

import (
	"context"
	"time"
)

// EchoProtocol repeats what it is told.
//
//nanorpc:protocol
type EchoProtocol interface {
	Echo(msg string) string
	Fail(x int) (int, error)
	Wait(ctx context.Context, d time.Duration) error
	Sum(base int, xs ...int) int
	Ping()
}

type Other struct{}
`

func parse(t *testing.T, src string, names ...string) (*File, error) {
	t.Helper()
	return ParseFile(token.NewFileSet(), "echo.go", src, DefaultNaming(), names...)
}

func TestParseEcho(t *testing.T) {
	f, err := parse(t, echoSource)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if f.Package != "echo" {
		t.Errorf("package: got %q", f.Package)
	}
	if f.Imports["time"] != "time" || f.Imports["context"] != "context" {
		t.Errorf("imports: got %v", f.Imports)
	}
	if len(f.Declarations) != 1 {
		t.Fatalf("expect 1 declaration, got %d", len(f.Declarations))
	}

	d := f.Declarations[0]
	if d.Name != "EchoProtocol" || d.ServiceName != "EchoService" || d.ClientName != "EchoClient" {
		t.Errorf("names: got %s %s %s", d.Name, d.ServiceName, d.ClientName)
	}
	if d.Doc != "EchoProtocol repeats what it is told." {
		t.Errorf("doc: got %q", d.Doc)
	}

	type summary struct {
		Name     string
		Context  bool
		Params   []string
		Variadic bool
		Kind     ReturnKind
		Value    string
	}
	var got []summary
	for _, m := range d.Methods {
		s := summary{Name: m.Name, Context: m.Context, Variadic: m.Variadic, Kind: m.Return.Kind}
		for i, p := range m.Params {
			if p.Index != i {
				t.Errorf("%s: param %s has index %d, want %d", m.Name, p.Name, p.Index, i)
			}
			s.Params = append(s.Params, p.Name+" "+TypeString(p.Type))
		}
		if m.Return.HasValue() {
			s.Value = TypeString(m.Return.Value)
		}
		got = append(got, s)
	}

	want := []summary{
		{Name: "Echo", Params: []string{"msg string"}, Kind: Infallible, Value: "string"},
		{Name: "Fail", Params: []string{"x int"}, Kind: Fallible, Value: "int"},
		{Name: "Wait", Context: true, Params: []string{"d time.Duration"}, Kind: Fallible},
		{Name: "Sum", Params: []string{"base int", "xs ...int"}, Variadic: true, Kind: Infallible, Value: "int"},
		{Name: "Ping", Kind: Infallible},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUnnamedParams(t *testing.T) {
	src := `package p

type AddProtocol interface {
	Add(int, int) int
	Grouped(a, b string, c int) error
}
`
	f, err := parse(t, src, "AddProtocol")
	if err != nil {
		t.Fatal(err)
	}
	add := f.Declarations[0].Method("Add")
	if add.Params[0].Name != "arg0" || add.Params[1].Name != "arg1" {
		t.Errorf("unnamed params: got %+v", add.Params)
	}
	grouped := f.Declarations[0].Method("Grouped")
	if len(grouped.Params) != 3 || grouped.Params[2].Name != "c" || grouped.Params[2].Index != 2 {
		t.Errorf("grouped params: got %+v", grouped.Params)
	}
	if grouped.Return.Kind != Fallible || grouped.Return.HasValue() {
		t.Errorf("grouped return: got %+v", grouped.Return)
	}
}

func TestClassifyStructural(t *testing.T) {
	// A type whose name merely mentions Result or Error is not fallible.
	src := `package p

type ResultSet []string
type ErrorList []string

type QueryProtocol interface {
	Rows() ResultSet
	Errors() ErrorList
}
`
	f, err := parse(t, src, "QueryProtocol")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range f.Declarations[0].Methods {
		if m.Return.Kind != Infallible {
			t.Errorf("%s should be infallible", m.Name)
		}
	}
}

func TestClassifyShadowedError(t *testing.T) {
	src := `package p

type error struct{ Msg string }

type WeirdProtocol interface {
	Get() error
}
`
	f, err := parse(t, src, "WeirdProtocol")
	if err != nil {
		t.Fatal(err)
	}
	if m := f.Declarations[0].Methods[0]; m.Return.Kind != Infallible || !m.Return.HasValue() {
		t.Errorf("a local type named error is a plain value, got %+v", m.Return)
	}
}

func TestContextOnlyFirst(t *testing.T) {
	src := `package p

import stdctx "context"

type CtxProtocol interface {
	Do(c stdctx.Context, n int) int
}
`
	f, err := parse(t, src, "CtxProtocol")
	if err != nil {
		t.Fatal(err)
	}
	m := f.Declarations[0].Methods[0]
	if !m.Context || m.ContextName != "c" {
		t.Fatalf("expect aliased context to be recognised, got %+v", m)
	}
	if len(m.Params) != 1 || m.Params[0].Name != "n" || m.Params[0].Index != 0 {
		t.Errorf("params after context: got %+v", m.Params)
	}
}

func TestNamingErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		typ  string
	}{
		{"missing suffix", "package p\n\ntype Echo interface{ Echo() }\n", "Echo"},
		{"wrong case", "package p\n\ntype Echoprotocol interface{ Echo() }\n", "Echoprotocol"},
		{"suffix only", "package p\n\ntype Protocol interface{ Echo() }\n", "Protocol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := parse(t, tc.src, tc.typ)
			var ne *NamingError
			if !errors.As(err, &ne) {
				t.Fatalf("expect NamingError, got %v", err)
			}
			if f != nil {
				t.Error("no output expected on error")
			}
			if ne.Name != tc.typ || !ne.Pos.IsValid() {
				t.Errorf("unexpected error fields %+v", ne)
			}
		})
	}
}

func TestUnsupportedMember(t *testing.T) {
	cases := []struct {
		name string
		src  string
		typ  string
	}{
		{"embedded", "package p\n\nimport \"io\"\n\ntype RProtocol interface {\n\tio.Reader\n\tGet() int\n}\n", "RProtocol"},
		{"type set", "package p\n\ntype NumProtocol interface {\n\t~int | ~int64\n}\n", "NumProtocol"},
		{"local", "package p\n\ntype Base interface{ Get() int }\n\ntype BProtocol interface {\n\tBase\n}\n", "BProtocol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := parse(t, tc.src, tc.typ)
			var me *UnsupportedMemberError
			if !errors.As(err, &me) {
				t.Fatalf("expect UnsupportedMemberError, got %v", err)
			}
			if f != nil {
				t.Error("no output expected on error")
			}
			if me.Interface != tc.typ {
				t.Errorf("interface: got %q", me.Interface)
			}
		})
	}
}

func TestUnsupportedSignature(t *testing.T) {
	cases := map[string]string{
		"three results":   "Get() (int, int, error)",
		"two no error":    "Get() (int, string)",
		"error first":     "Get() (error, error)",
		"func param":      "Do(f func()) error",
		"chan result":     "Events() chan int",
		"anon struct":     "Do(x struct{ A int })",
		"inline iface":    "Do(x interface{ M() })",
		"nested func":     "Do(m map[string]func())",
		"unexported":      "get() int",
		"named results 3": "Get() (a, b int, err error)",
		"late context":    "Do(n int, ctx context.Context) error",
		"second context":  "Do(ctx, other context.Context) error",
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			src := "package p\n\nimport \"context\"\n\ntype XProtocol interface {\n\t" + sig + "\n}\n"
			_, err := parse(t, src, "XProtocol")
			var se *UnsupportedSignatureError
			if !errors.As(err, &se) {
				t.Fatalf("expect UnsupportedSignatureError, got %v", err)
			}
			if se.Interface != "XProtocol" {
				t.Errorf("interface: got %q", se.Interface)
			}
		})
	}
}

func TestGenericRejected(t *testing.T) {
	src := "package p\n\ntype BoxProtocol[T any] interface {\n\tGet() T\n}\n"
	_, err := parse(t, src, "BoxProtocol")
	var se *UnsupportedSignatureError
	if !errors.As(err, &se) {
		t.Fatalf("expect UnsupportedSignatureError, got %v", err)
	}
}

func TestEmptyInterfaceParamAllowed(t *testing.T) {
	src := "package p\n\ntype AnyProtocol interface {\n\tPut(v any, w interface{}) map[string][]*int\n}\n"
	if _, err := parse(t, src, "AnyProtocol"); err != nil {
		t.Fatalf("expect success, got %v", err)
	}
}

func TestSelection(t *testing.T) {
	if _, err := parse(t, echoSource, "MissingProtocol"); !errors.Is(err, ErrDeclarationNotFound) {
		t.Errorf("expect ErrDeclarationNotFound, got %v", err)
	}
	if _, err := parse(t, echoSource, "Other"); !errors.Is(err, ErrNotInterface) {
		t.Errorf("expect ErrNotInterface, got %v", err)
	}
	if _, err := parse(t, "package p\n\ntype XProtocol interface{}\n"); !errors.Is(err, ErrDeclarationNotFound) {
		t.Errorf("expect ErrDeclarationNotFound without directive, got %v", err)
	}
}

func TestCustomNaming(t *testing.T) {
	naming := Naming{ProtocolSuffix: "API", ServiceSuffix: "Server", ClientSuffix: "Stub"}
	service, client, err := naming.Derive("UserAPI")
	if err != nil {
		t.Fatal(err)
	}
	if service != "UserServer" || client != "UserStub" {
		t.Errorf("got %s %s", service, client)
	}
	if _, _, err := naming.Derive("UserProtocol"); err == nil {
		t.Error("expect error for a name without the configured suffix")
	}
}

func TestImportName(t *testing.T) {
	cases := map[string]string{
		"time":                         "time",
		"github.com/google/uuid":       "uuid",
		"go.etcd.io/etcd/client/v3":    "client",
		"github.com/goccy/go-json":     "json",
		"github.com/dave/jennifer/jen": "jen",
	}
	for in, want := range cases {
		if got := ImportName(in); got != want {
			t.Errorf("ImportName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyPhaseLogged(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	if err := logger.Init(logger.Config{Level: slog.LevelDebug, Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	if _, err := parse(t, echoSource); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`msg="Starting phase" phase=classify protocol=EchoProtocol members=5`,
		`msg="Completed phase" phase=classify`,
		"methods=5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expect %q in log output:\n%s", want, out)
		}
	}
}
