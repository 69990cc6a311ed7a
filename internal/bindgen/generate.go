package bindgen

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/kvcache-ai/mooncake-te-go/internal/genfile"
)

var (
	// ErrGenerate wraps rendering and formatting failures.
	ErrGenerate = errors.New("bindgen: generate stubs")

	// ErrStale reports generated stubs whose recorded digest does not match
	// the header on disk.
	ErrStale = errors.New("bindgen: generated stubs are stale")
)

// DefaultTool is the generator name recorded in the file banner.
const DefaultTool = "te-bindgen"

// Options controls the shape of the generated file. Nothing in Options may
// depend on the machine running the generator, otherwise output would not be
// reproducible.
type Options struct {
	// Package is the Go package name. Defaults to "bindings".
	Package string
	// BuildTag is written as a //go:build line when non-empty.
	BuildTag string
	// HeaderName is the file name used in #include and the banner.
	HeaderName string
	// IncludeDirs become #cgo CFLAGS -I entries, usually ${SRCDIR}-relative.
	IncludeDirs []string
	// Tool overrides DefaultTool in the banner.
	Tool string
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = "bindings"
	}
	if o.Tool == "" {
		o.Tool = DefaultTool
	}
	return o
}

// Digest returns the hex sha256 of header bytes as recorded in the banner.
func Digest(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

var digestLine = regexp.MustCompile(`(?m)^// Header digest: sha256:([0-9a-f]{64})$`)

// RecordedDigest extracts the header digest from a generated file.
func RecordedDigest(generated []byte) (string, bool) {
	m := digestLine.FindSubmatch(generated)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// Generate parses src and renders the Go stub file. The result depends only
// on src and opts.
func Generate(src []byte, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if opts.HeaderName == "" {
		return nil, fmt.Errorf("%w: header name is required", ErrGenerate)
	}

	h, err := Parse(src)
	if err != nil {
		return nil, err
	}

	model, err := newFileModel(h, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	model.Digest = Digest(src)

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}

	out, err := imports.Process(opts.HeaderName+".go", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: format: %w", ErrGenerate, err)
	}
	return out, nil
}

// GenerateFile regenerates outPath from headerPath. The output is written
// atomically; on any error the previous file, if present, is left untouched.
func GenerateFile(headerPath, outPath string, opts Options) error {
	out, err := Render(headerPath, outPath, opts)
	if err != nil {
		return err
	}
	return genfile.Write(outPath, out)
}

// Render reads headerPath and returns the bindings that belong at outPath
// without writing them. An empty HeaderName defaults to the header's base
// name; nil IncludeDirs defaults to the header directory relative to outPath.
func Render(headerPath, outPath string, opts Options) ([]byte, error) {
	src, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	if opts.HeaderName == "" {
		opts.HeaderName = filepath.Base(headerPath)
	}
	if opts.IncludeDirs == nil {
		dir, err := genfile.SrcDirRel(filepath.Dir(outPath), filepath.Dir(headerPath))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
		}
		opts.IncludeDirs = []string{dir}
	}
	return Generate(src, opts)
}

// Check reports ErrStale when generatedPath was not produced from the current
// contents of headerPath.
func Check(headerPath, generatedPath string) error {
	src, err := os.ReadFile(headerPath)
	if err != nil {
		return err
	}
	gen, err := os.ReadFile(generatedPath)
	if err != nil {
		return err
	}
	recorded, ok := RecordedDigest(gen)
	if !ok {
		return fmt.Errorf("%w: %s has no header digest", ErrStale, generatedPath)
	}
	if want := Digest(src); recorded != want {
		return fmt.Errorf("%w: %s records %s, header is %s", ErrStale, generatedPath, recorded[:12], want[:12])
	}
	return nil
}

type fileModel struct {
	Options
	Digest    string
	Imports   []string
	Constants []Constant
	Types     []typeAlias
	Funcs     []funcModel
}

type typeAlias struct {
	Name, Expr, Comment string
}

type funcModel struct {
	CName, Name, Params, Args, Result string
}

func newFileModel(h *Header, opts Options) (*fileModel, error) {
	m := &fileModel{Options: opts}
	tm := &typeMapper{aliases: map[string]string{}}

	usedNames := map[string]string{}
	addAlias := func(cname, expr, comment string) error {
		name := typeName(strings.TrimPrefix(cname, "struct "))
		if prev, dup := usedNames[name]; dup {
			return fmt.Errorf("%s and %s both map to %s", prev, cname, name)
		}
		usedNames[name] = cname
		tm.aliases[cname] = name
		m.Types = append(m.Types, typeAlias{Name: name, Expr: expr, Comment: comment})
		return nil
	}

	for _, td := range h.Typedefs {
		expr := "C." + td.Name
		comment := td.Name
		if td.Macro {
			// Type-valued macros are aliased to their expansion; cgo
			// resolves macros less reliably than typedefs.
			expr = tm.goType(td.Type)
			comment = td.Name + " (macro for " + td.Type.String() + ")"
		}
		if err := addAlias(td.Name, expr, comment); err != nil {
			return nil, err
		}
		if strings.HasPrefix(td.Type.Name, "struct ") && td.Type.Pointers == 0 {
			if _, ok := tm.aliases[td.Type.Name]; !ok {
				tm.aliases[td.Type.Name] = tm.aliases[td.Name]
			}
		}
	}
	for _, s := range h.Structs {
		key := "struct " + s.Name
		if _, ok := tm.aliases[key]; ok {
			continue
		}
		if err := addAlias(key, "C.struct_"+s.Name, key); err != nil {
			return nil, err
		}
	}

	for _, c := range h.Constants {
		if strings.HasPrefix(c.Expr, "math.") {
			tm.math = true
		}
		m.Constants = append(m.Constants, Constant{Name: constName(c.Name), Expr: c.Expr})
	}

	seen := map[string]bool{}
	for _, fn := range h.Functions {
		if seen[fn.Name] {
			return nil, fmt.Errorf("duplicate prototype %s", fn.Name)
		}
		seen[fn.Name] = true

		params := make([]string, len(fn.Params))
		args := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			args[i] = paramName(p.Name, i)
			params[i] = args[i] + " " + tm.goType(p.Type)
		}
		m.Funcs = append(m.Funcs, funcModel{
			CName:  fn.Name,
			Name:   funcName(fn.Name),
			Params: strings.Join(params, ", "),
			Args:   strings.Join(args, ", "),
			Result: tm.goType(fn.Result),
		})
	}

	if tm.math {
		m.Imports = append(m.Imports, "math")
	}
	if tm.unsafe {
		m.Imports = append(m.Imports, "unsafe")
	}
	return m, nil
}

var builtinGo = map[string]string{
	"char":               "C.char",
	"signed char":        "C.schar",
	"unsigned char":      "C.uchar",
	"short":              "C.short",
	"short int":          "C.short",
	"unsigned short":     "C.ushort",
	"unsigned short int": "C.ushort",
	"int":                "C.int",
	"signed":             "C.int",
	"signed int":         "C.int",
	"unsigned":           "C.uint",
	"unsigned int":       "C.uint",
	"long":               "C.long",
	"long int":           "C.long",
	"unsigned long":      "C.ulong",
	"unsigned long int":  "C.ulong",
	"long long":          "C.longlong",
	"unsigned long long": "C.ulonglong",
	"float":              "C.float",
	"double":             "C.double",
	"_Bool":              "C._Bool",
	"bool":               "C._Bool",
}

type typeMapper struct {
	aliases map[string]string
	unsafe  bool
	math    bool
}

// goType renders the cgo spelling of t. Plain void renders as "".
func (tm *typeMapper) goType(t Type) string {
	if t.Name == "void" {
		if t.Pointers == 0 {
			return ""
		}
		tm.unsafe = true
		return strings.Repeat("*", t.Pointers-1) + "unsafe.Pointer"
	}
	return strings.Repeat("*", t.Pointers) + tm.baseType(t.Name)
}

func (tm *typeMapper) baseType(name string) string {
	if alias, ok := tm.aliases[name]; ok {
		return alias
	}
	if g, ok := builtinGo[name]; ok {
		return g
	}
	if kind, tag, ok := strings.Cut(name, " "); ok {
		return "C." + kind + "_" + tag
	}
	return "C." + name
}

var fileTemplate = template.Must(template.New("stubs").Parse(`// Code generated by {{.Tool}} from {{.HeaderName}}. DO NOT EDIT.
// Header digest: sha256:{{.Digest}}

{{if .BuildTag}}//go:build {{.BuildTag}}

{{end}}package {{.Package}}

/*
{{- range .IncludeDirs}}
#cgo CFLAGS: -I{{.}}
{{- end}}
#include "{{.HeaderName}}"
*/
import "C"
{{if .Imports}}
import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{end}}
{{- if .Constants}}
const (
{{- range .Constants}}
	{{.Name}} = {{.Expr}}
{{- end}}
)
{{end}}
{{- if .Types}}
type (
{{- range .Types}}
	{{.Name}} = {{.Expr}} // {{.Comment}}
{{- end}}
)
{{end}}
{{- range .Funcs}}
// {{.Name}} calls {{.CName}}.
func {{.Name}}({{.Params}}) {{.Result}} {
	{{if .Result}}return {{end}}C.{{.CName}}({{.Args}})
}
{{end}}`))
