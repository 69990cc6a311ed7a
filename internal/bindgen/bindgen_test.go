package bindgen

import (
	"go/ast"
	goparser "go/parser"
	gotoken "go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const engineHeader = "../../include/transfer_engine_c.h"

func readEngineHeader(t *testing.T) []byte {
	t.Helper()
	src, err := os.ReadFile(engineHeader)
	require.NoError(t, err)
	return src
}

func TestParseEngineHeader(t *testing.T) {
	h, err := Parse(readEngineHeader(t))
	require.NoError(t, err)

	var fns []string
	for _, fn := range h.Functions {
		fns = append(fns, fn.Name)
	}
	require.Equal(t, []string{
		"createTransferEngine",
		"destroyTransferEngine",
		"registerLocalMemory",
		"unregisterLocalMemory",
		"registerLocalMemoryBatch",
		"unregisterLocalMemoryBatch",
		"allocateBatchID",
		"submitTransfer",
		"getTransferStatus",
		"freeBatchID",
		"getSegmentID",
	}, fns)

	require.Len(t, h.Constants, 11)
	require.Contains(t, h.Constants, Constant{Name: "INVALID_BATCH", Expr: "math.MaxUint64"})
	require.Contains(t, h.Constants, Constant{Name: "OPCODE_WRITE", Expr: "1"})

	require.Len(t, h.Structs, 3)
	require.Equal(t, "transfer_request", h.Structs[0].Name)
	require.Equal(t, Field{Name: "source", Type: Type{Name: "void", Pointers: 1}}, h.Structs[0].Fields[1])

	require.Contains(t, h.Typedefs, Typedef{Name: "segment_id_t", Type: Type{Name: "int32_t"}, Macro: true})
	require.Contains(t, h.Typedefs, Typedef{Name: "transfer_engine_t", Type: Type{Name: "void", Pointers: 1}})

	create := h.Functions[0]
	require.Equal(t, "transfer_engine_t", create.Result.Name)
	require.Equal(t, Type{Name: "char", Const: true, Pointers: 1}, create.Params[0].Type)

	unregBatch := h.Functions[5]
	require.Equal(t, Type{Name: "void", Pointers: 2}, unregBatch.Params[1].Type)
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := readEngineHeader(t)
	opts := Options{HeaderName: "transfer_engine_c.h", BuildTag: "cgo && linux", IncludeDirs: []string{"${SRCDIR}/include"}}

	first, err := Generate(src, opts)
	require.NoError(t, err)
	second, err := Generate(src, opts)
	require.NoError(t, err)
	require.Equal(t, first, second)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine.h"), src, 0o644))
	out := filepath.Join(dir, "zz_stubs.go")

	require.NoError(t, GenerateFile(filepath.Join(dir, "engine.h"), out, Options{}))
	a, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, GenerateFile(filepath.Join(dir, "engine.h"), out, Options{}))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Contains(t, string(a), "#cgo CFLAGS: -I${SRCDIR}\n")
}

func TestGeneratedSurface(t *testing.T) {
	out, err := Generate(readEngineHeader(t), Options{
		HeaderName: "transfer_engine_c.h",
		BuildTag:   "cgo && linux && mooncake",
	})
	require.NoError(t, err)

	fset := gotoken.NewFileSet()
	f, err := goparser.ParseFile(fset, "zz_generated_engine.go", out, goparser.ParseComments)
	require.NoError(t, err)
	require.True(t, ast.IsGenerated(f))
	require.Equal(t, "bindings", f.Name.Name)

	var imports []string
	for _, imp := range f.Imports {
		imports = append(imports, imp.Path.Value)
	}
	require.Equal(t, []string{`"C"`, `"math"`, `"unsafe"`}, imports)

	require.Contains(t, string(out), "//go:build cgo && linux && mooncake\n")

	// gofmt aligns const and type blocks, so compare with whitespace folded.
	src := strings.Join(strings.Fields(string(out)), " ")
	for _, want := range []string{
		"InvalidBatch = math.MaxUint64",
		"StatusCompleted = 4",
		"cSegmentID = C.int32_t",
		"cTransferRequest = C.transfer_request_t",
		"cTransferEngine = C.transfer_engine_t",
		"func nativeCreateTransferEngine(metadataURI *C.char, localServerName *C.char, nicPriorityMatrix *C.char) cTransferEngine {",
		"func nativeDestroyTransferEngine(engine cTransferEngine) { C.destroyTransferEngine(engine) }",
		"func nativeSubmitTransfer(engine cTransferEngine, batchID cBatchID, entries *cTransferRequest, count C.size_t) C.int {",
		"func nativeUnregisterLocalMemoryBatch(engine cTransferEngine, addrList *unsafe.Pointer, addrLen C.size_t) C.int {",
		"func nativeGetSegmentID(engine cTransferEngine, segmentName *C.char) cSegmentID {",
	} {
		require.Contains(t, src, want)
	}

	digest, ok := RecordedDigest(out)
	require.True(t, ok)
	require.Equal(t, Digest(readEngineHeader(t)), digest)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unterminated comment":  "/* int f(void);",
		"unknown type":          "widget_t make(void);",
		"missing semicolon":     "int f(void)",
		"unsupported directive": "#error nope\nint f(void);",
		"no prototypes":         "#define A 1\n",
		"unbalanced brace":      "int f(void);\n}",
		"unterminated extern":   "extern \"C\" {\nint f(void);",
		"array field":           "struct s { int a[4]; };\nint f(void);",
		"bad macro value":       "#define A some thing\nint f(void);",
		"void parameter":        "int f(int a, void);",
		"non-breaking space":    "int\u00a0f(void);",
		"utf-8 identifier":      "int f\u00e9(void);",
		"utf-8 in macro":        "#define T \u00e9tat_t\nint f(void);",
		"stray high byte":       "int f(void);\n\xff",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParseRejectsNonASCIIPromptly(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		_, err := Parse([]byte("int\u00a0foo(void);\n"))
		done <- err
	}()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrParse)
		require.Contains(t, err.Error(), "line 1: unexpected character")
	case <-time.After(3 * time.Second):
		t.Fatal("Parse did not return on a header with a non-breaking space")
	}
}

func TestSizeMaxFollowsPlatformWord(t *testing.T) {
	src := "#define LIMIT SIZE_MAX\n#define WIDE UINT64_MAX\nint f(void);\n"
	h, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, []Constant{{"LIMIT", "math.MaxUint"}, {"WIDE", "math.MaxUint64"}}, h.Constants)

	out, err := Generate([]byte(src), Options{HeaderName: "limits.h"})
	require.NoError(t, err)
	require.Contains(t, strings.Join(strings.Fields(string(out)), " "), "Limit = math.MaxUint Wide = math.MaxUint64")
}

func TestParseAcceptsCommonForms(t *testing.T) {
	src := `
// leading comment
#pragma once
#define FLAG_A 0x10u
#define NEG (-3)
typedef struct node { struct node *next; unsigned long long id; } node_t;
extern int count_nodes(const node_t *head, unsigned int limit /* cap */);
void reset(void);
`
	h, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, []Constant{{"FLAG_A", "0x10"}, {"NEG", "-3"}}, h.Constants)
	require.Equal(t, "node_t", h.Typedefs[0].Name)
	require.Equal(t, Type{Name: "struct node"}, h.Typedefs[0].Type)
	require.Equal(t, Type{Name: "unsigned long long"}, h.Structs[0].Fields[1].Type)
	require.Equal(t, Type{Name: "unsigned int"}, h.Functions[0].Params[1].Type)
	require.Empty(t, h.Functions[1].Params)

	out, err := Generate([]byte(src), Options{HeaderName: "nodes.h"})
	require.NoError(t, err)
	require.Contains(t, string(out), "cNode = C.node_t")
	require.Contains(t, string(out), "func nativeCountNodes(head *cNode, limit C.uint) C.int {")
	require.NotContains(t, string(out), `"unsafe"`)
}

func TestGenerateFileFailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "broken.h")
	require.NoError(t, os.WriteFile(header, []byte("int f(void"), 0o644))

	out := filepath.Join(dir, "zz_stubs.go")
	err := GenerateFile(header, out, Options{})
	require.ErrorIs(t, err, ErrParse)
	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr), "no partial output may be emitted")

	require.NoError(t, os.WriteFile(out, []byte("previous"), 0o644))
	require.Error(t, GenerateFile(header, out, Options{}))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "previous", string(got))
}

func TestRenderMatchesGenerateFile(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "include", "engine.h")
	out := filepath.Join(dir, "bindings", "zz_stubs.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(header), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
	require.NoError(t, os.WriteFile(header, []byte("#define OPCODE_READ 0\nint closeEngine(int fd);\n"), 0o644))

	rendered, err := Render(header, out, Options{Package: "engine"})
	require.NoError(t, err)
	require.Contains(t, string(rendered), "#cgo CFLAGS: -I${SRCDIR}/../include")
	require.Contains(t, string(rendered), `#include "engine.h"`)
	require.NoFileExists(t, out)

	require.NoError(t, GenerateFile(header, out, Options{Package: "engine"}))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, rendered, written)
}

func TestGeneratedBindingsUpToDate(t *testing.T) {
	require.NoError(t, Check(engineHeader, "../bindings/zz_generated_engine.go"))
}

func TestCheckDetectsStaleStubs(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "engine.h")
	out := filepath.Join(dir, "zz_stubs.go")
	require.NoError(t, os.WriteFile(header, []byte("int f(void);\n"), 0o644))
	require.NoError(t, GenerateFile(header, out, Options{}))
	require.NoError(t, Check(header, out))

	require.NoError(t, os.WriteFile(header, []byte("int f(void);\nint g(void);\n"), 0o644))
	require.ErrorIs(t, Check(header, out), ErrStale)

	require.NoError(t, os.WriteFile(out, []byte("package bindings\n"), 0o644))
	require.ErrorIs(t, Check(header, out), ErrStale)
}

func TestNames(t *testing.T) {
	require.Equal(t, "OpcodeRead", constName("OPCODE_READ"))
	require.Equal(t, "StatusCanneled", constName("STATUS_CANNELED"))
	require.Equal(t, "cSegmentID", typeName("segment_id_t"))
	require.Equal(t, "cBufferEntry", typeName("buffer_entry_t"))
	require.Equal(t, "nativeAllocateBatchID", funcName("allocateBatchID"))
	require.Equal(t, "nicPriorityMatrix", paramName("nic_priority_matrix", 0))
	require.Equal(t, "metadataURI", paramName("metadata_uri", 0))
	require.Equal(t, "typeArg", paramName("type", 0))
	require.Equal(t, "arg2", paramName("", 2))
}
