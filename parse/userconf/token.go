package userconf

import "fmt"

type TokenKind int

const (
	EOF TokenKind = iota
	UnquotedString
	QuotedString
	MultilineString
	OpenBrace    // {
	CloseBrace   // }
	OpenBracket  // [
	CloseBracket // ]
	Separator    // , or line break
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case UnquotedString:
		return "unquoted string"
	case QuotedString:
		return "quoted string"
	case MultilineString:
		return "multiline string"
	case OpenBrace:
		return "'{'"
	case CloseBrace:
		return "'}'"
	case OpenBracket:
		return "'['"
	case CloseBracket:
		return "']'"
	case Separator:
		return "separator"
	default:
		return "unknown token"
	}
}

// IsString reports whether the kind is one of the three string literals.
func (k TokenKind) IsString() bool {
	return k == UnquotedString || k == QuotedString || k == MultilineString
}

// Pos is a source position. Line and Column are 1-based; Column counts
// characters, not bytes.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Kind TokenKind
	Text string // decoded text for string tokens
	Pos  Pos

	// Implicit marks a separator inserted at a line break.
	Implicit bool
}

func (t Token) String() string {
	switch {
	case t.Kind.IsString():
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case t.Kind == Separator && t.Implicit:
		return "line break"
	case t.Kind == Separator:
		return "','"
	default:
		return t.Kind.String()
	}
}

// endsValue reports whether a line break after this token may act as an
// item separator.
func (t Token) endsValue() bool {
	return t.Kind.IsString() || t.Kind == CloseBrace || t.Kind == CloseBracket
}
