package bindgen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse wraps every error returned by Parse.
var ErrParse = errors.New("bindgen: parse header")

var builtinTypes = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "bool": true,
	"size_t": true, "ssize_t": true, "intptr_t": true, "uintptr_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
}

// multiword keywords that combine into one builtin type name.
var typeWords = map[string]bool{
	"signed": true, "unsigned": true, "short": true, "long": true, "int": true, "char": true,
}

var limitMacros = map[string]string{
	"INT8_MAX":   "math.MaxInt8",
	"INT16_MAX":  "math.MaxInt16",
	"INT32_MAX":  "math.MaxInt32",
	"INT64_MAX":  "math.MaxInt64",
	"INT8_MIN":   "math.MinInt8",
	"INT16_MIN":  "math.MinInt16",
	"INT32_MIN":  "math.MinInt32",
	"INT64_MIN":  "math.MinInt64",
	"UINT8_MAX":  "math.MaxUint8",
	"UINT16_MAX": "math.MaxUint16",
	"UINT32_MAX": "math.MaxUint32",
	"UINT64_MAX": "math.MaxUint64",
	"SIZE_MAX":   "math.MaxUint",
}

var intLiteral = regexp.MustCompile(`^(-?)(0[xX][0-9a-fA-F]+|[0-9]+)[uUlL]*$`)

// Parse reads the subset of C used by engine headers: include guards,
// extern "C" blocks, object-like macros, struct definitions, typedefs and
// function prototypes. Anything else is an error; the generator never guesses.
func Parse(src []byte) (*Header, error) {
	text, err := stripComments(string(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	p := &parser{h: &Header{}, typedefs: map[string]bool{}}

	// Directives are handled line by line; everything else is tokenized as
	// one stream with directive lines blanked so line numbers survive.
	lines := strings.Split(text, "\n")
	decls := make([]string, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			decls[i] = line
			continue
		}
		if strings.HasSuffix(trimmed, "\\") {
			return nil, fmt.Errorf("%w: line %d: multi-line directives are not supported", ErrParse, i+1)
		}
		if err := p.directive(strings.TrimSpace(trimmed[1:]), i+1); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
	}

	toks, err := tokenize(strings.Join(decls, "\n"), 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	p.toks = toks
	if err := p.declarations(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if len(p.h.Functions) == 0 {
		return nil, fmt.Errorf("%w: no function prototypes found", ErrParse)
	}
	return p.h, nil
}

type parser struct {
	h        *Header
	toks     []token
	pos      int
	typedefs map[string]bool
	extern   int
}

func (p *parser) directive(d string, line int) error {
	fields := strings.Fields(d)
	if len(fields) == 0 {
		return nil
	}
	switch name := fields[0]; name {
	case "ifndef", "ifdef", "if", "elif", "else", "endif", "include", "undef", "pragma":
		return nil
	case "define":
	default:
		return fmt.Errorf("line %d: unsupported directive #%s", line, name)
	}

	if len(fields) < 3 {
		// include guard or empty macro
		return nil
	}
	macro, value := fields[1], strings.Join(fields[2:], " ")
	if strings.Contains(macro, "(") {
		// function-like macro: not part of the callable surface
		return nil
	}
	for strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}

	if m := intLiteral.FindStringSubmatch(value); m != nil {
		p.h.Constants = append(p.h.Constants, Constant{Name: macro, Expr: m[1] + strings.ToLower(m[2])})
		return nil
	}
	if expr, ok := limitMacros[value]; ok {
		p.h.Constants = append(p.h.Constants, Constant{Name: macro, Expr: expr})
		return nil
	}

	toks, err := tokenize(value, line)
	if err != nil {
		return err
	}
	sub := &parser{toks: toks, typedefs: p.typedefs}
	typ, err := sub.typ()
	if err != nil || sub.peek().kind != tokEOF {
		return fmt.Errorf("line %d: unsupported value for macro %s: %q", line, macro, value)
	}
	p.h.Typedefs = append(p.h.Typedefs, Typedef{Name: macro, Type: typ, Macro: true})
	p.typedefs[macro] = true
	return nil
}

func (p *parser) declarations() error {
	for p.peek().kind != tokEOF {
		t := p.peek()
		switch {
		case t.text == "extern" && p.peekAt(1).kind == tokString:
			p.next()
			if lang := p.next(); lang.text != "C" {
				return fmt.Errorf("line %d: unsupported linkage %q", lang.line, lang.text)
			}
			if err := p.expect("{"); err != nil {
				return err
			}
			p.extern++
		case t.kind == tokPunct && t.text == "}":
			if p.extern == 0 {
				return fmt.Errorf("line %d: unbalanced '}'", t.line)
			}
			p.next()
			p.extern--
		case t.text == "typedef":
			if err := p.typedef(); err != nil {
				return err
			}
		case t.text == "struct" && p.peekAt(2).text == "{":
			if _, err := p.structDef(); err != nil {
				return err
			}
			if err := p.expect(";"); err != nil {
				return err
			}
		default:
			if err := p.function(); err != nil {
				return err
			}
		}
	}
	if p.extern != 0 {
		return errors.New("unterminated extern \"C\" block")
	}
	return nil
}

func (p *parser) typedef() error {
	p.next()
	var typ Type
	if p.peek().text == "struct" && p.peekAt(2).text == "{" {
		s, err := p.structDef()
		if err != nil {
			return err
		}
		typ = Type{Name: "struct " + s.Name}
	} else {
		var err error
		if typ, err = p.typ(); err != nil {
			return err
		}
	}
	name, err := p.ident()
	if err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	p.h.Typedefs = append(p.h.Typedefs, Typedef{Name: name, Type: typ})
	p.typedefs[name] = true
	return nil
}

func (p *parser) structDef() (Struct, error) {
	p.next()
	name, err := p.ident()
	if err != nil {
		return Struct{}, err
	}
	if err := p.expect("{"); err != nil {
		return Struct{}, err
	}
	s := Struct{Name: name}
	for p.peek().text != "}" {
		if p.peek().kind == tokEOF {
			return Struct{}, fmt.Errorf("unterminated struct %s", name)
		}
		typ, err := p.typ()
		if err != nil {
			return Struct{}, err
		}
		field, err := p.ident()
		if err != nil {
			return Struct{}, err
		}
		if p.peek().text == "[" {
			return Struct{}, fmt.Errorf("line %d: array field %s.%s is not supported", p.peek().line, name, field)
		}
		if err := p.expect(";"); err != nil {
			return Struct{}, err
		}
		s.Fields = append(s.Fields, Field{Name: field, Type: typ})
	}
	p.next()
	p.h.Structs = append(p.h.Structs, s)
	return s, nil
}

func (p *parser) function() error {
	if p.peek().text == "extern" {
		p.next()
	}
	result, err := p.typ()
	if err != nil {
		return err
	}
	name, err := p.ident()
	if err != nil {
		return err
	}
	if err := p.expect("("); err != nil {
		return err
	}

	fn := Function{Name: name, Result: result}
	if p.peek().text == "void" && p.peekAt(1).text == ")" {
		p.next()
	}
	for p.peek().text != ")" {
		typ, err := p.typ()
		if err != nil {
			return err
		}
		if typ.IsVoid() {
			return fmt.Errorf("line %d: parameter of %s has type void", p.peek().line, name)
		}
		var param string
		if p.peek().kind == tokIdent {
			param = p.next().text
		}
		fn.Params = append(fn.Params, Field{Name: param, Type: typ})
		if p.peek().text == "," {
			p.next()
			continue
		}
		if p.peek().text != ")" {
			return fmt.Errorf("line %d: expected ',' or ')' in %s, found %s", p.peek().line, name, p.peek())
		}
	}
	p.next()
	if err := p.expect(";"); err != nil {
		return err
	}
	p.h.Functions = append(p.h.Functions, fn)
	return nil
}

func (p *parser) typ() (Type, error) {
	var t Type
	for p.peek().text == "const" || p.peek().text == "volatile" {
		if p.next().text == "const" {
			t.Const = true
		}
	}

	tok := p.peek()
	switch {
	case tok.kind != tokIdent:
		return Type{}, fmt.Errorf("line %d: expected type, found %s", tok.line, tok)
	case tok.text == "struct" || tok.text == "union" || tok.text == "enum":
		p.next()
		name, err := p.ident()
		if err != nil {
			return Type{}, err
		}
		t.Name = tok.text + " " + name
	case typeWords[tok.text]:
		var words []string
		for typeWords[p.peek().text] {
			words = append(words, p.next().text)
		}
		t.Name = strings.Join(words, " ")
	case builtinTypes[tok.text] || p.typedefs[tok.text]:
		p.next()
		t.Name = tok.text
	default:
		return Type{}, fmt.Errorf("line %d: unknown type %q", tok.line, tok.text)
	}

	for {
		switch p.peek().text {
		case "const":
			p.next()
			if t.Pointers == 0 {
				t.Const = true
			}
			continue
		case "*":
			p.next()
			t.Pointers++
			continue
		}
		return t, nil
	}
}

func (p *parser) ident() (string, error) {
	t := p.next()
	if t.kind != tokIdent {
		return "", fmt.Errorf("line %d: expected identifier, found %s", t.line, t)
	}
	return t.text, nil
}

func (p *parser) expect(punct string) error {
	t := p.next()
	if t.text != punct || t.kind != tokPunct {
		return fmt.Errorf("line %d: expected %q, found %s", t.line, punct, t)
	}
	return nil
}

func (p *parser) peek() token { return p.peekAt(0) }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
