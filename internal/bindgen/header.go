package bindgen

import "strings"

// Header is the declaration surface of a parsed C header, in source order.
type Header struct {
	Constants []Constant
	Structs   []Struct
	Typedefs  []Typedef
	Functions []Function
}

// Constant is an object-like integer macro such as `#define OPCODE_READ (0)`.
// Limit macros (UINT64_MAX and friends) are resolved to their Go spelling in
// Expr.
type Constant struct {
	Name string
	Expr string
}

// Type is a C type as written in a declaration.
type Type struct {
	// Name is the base type: "int", "unsigned long", "struct transfer_request",
	// "transfer_engine_t", ...
	Name     string
	Const    bool
	Pointers int
}

// IsVoid reports a plain `void` (no indirection).
func (t Type) IsVoid() bool {
	return t.Name == "void" && t.Pointers == 0
}

func (t Type) String() string {
	var b strings.Builder
	if t.Const {
		b.WriteString("const ")
	}
	b.WriteString(t.Name)
	if t.Pointers > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Repeat("*", t.Pointers))
	}
	return b.String()
}

// Field is a struct member or function parameter. Name may be empty for
// unnamed parameters.
type Field struct {
	Name string
	Type Type
}

// Struct is a `struct name { ... };` definition.
type Struct struct {
	Name   string
	Fields []Field
}

// Typedef covers both `typedef T name;` and type-valued object macros such as
// `#define segment_id_t int32_t`.
type Typedef struct {
	Name  string
	Type  Type
	Macro bool
}

// Function is a prototype.
type Function struct {
	Name   string
	Result Type
	Params []Field
}
