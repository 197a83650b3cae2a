package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:px|pt|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node for a banner batch file.
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'banners' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section represents a top-level section (defaults/banner).
type Section struct {
	Defaults *DefaultsSection `parser:"  @@"`
	Banner   *BannerSection   `parser:"| @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Defaults != nil:
		return "defaults"
	case s.Banner != nil:
		return "banner"
	default:
		return "unknown"
	}
}

// DefaultsSection 提供所有 banner 共用的默认属性。
type DefaultsSection struct {
	Block *Block `parser:"'defaults' @@"`
}

// BannerSection 描述一张待渲染的图片。
type BannerSection struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"'banner' @Ident"`
	Block *Block         `parser:"@@"`
}

// Block is a delimited list of assignments.
type Block struct {
	Statements []*Assignment `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Value represents a property value: quoted string, number with optional unit, or bare word.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Text returns the value as written, with quotes removed from strings.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Lookup 返回 block 中最后一个同名赋值（后写覆盖先写）。
func (b *Block) Lookup(key string) (*Value, bool) {
	if b == nil {
		return nil, false
	}
	for i := len(b.Statements) - 1; i >= 0; i-- {
		if b.Statements[i].Key == key {
			return b.Statements[i].Value, true
		}
	}
	return nil, false
}

// Banners returns the banner sections in file order.
func (d *Document) Banners() []*BannerSection {
	var out []*BannerSection
	for _, s := range d.Sections {
		if s.Banner != nil {
			out = append(out, s.Banner)
		}
	}
	return out
}

// Defaults merges all defaults sections; later sections win.
func (d *Document) Defaults() *Block {
	merged := &Block{}
	for _, s := range d.Sections {
		if s.Defaults != nil && s.Defaults.Block != nil {
			merged.Statements = append(merged.Statements, s.Defaults.Block.Statements...)
		}
	}
	return merged
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
