package userconf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =========================
// Encoder
// =========================

type Encoder struct {
	w      *bufio.Writer
	indent string
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w), indent: "\t"}
}

// SetIndent sets the string repeated once per nesting level. The default is a
// single tab.
func (e *Encoder) SetIndent(indent string) {
	e.indent = indent
}

// Encode writes doc as a top-level document: one `key value` line per entry
// and no enclosing braces.
func (e *Encoder) Encode(doc *Record) error {
	for k, v := range doc.All() {
		if err := e.writeEntry(k, v, 0); err != nil {
			return err
		}
	}
	return e.w.Flush()
}

// EncodeValue writes a single value, as used for record values and array items.
func (e *Encoder) EncodeValue(v Value) error {
	if err := e.writeValue(v, 0); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}

func Marshal(doc *Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeValue(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) writeEntry(key string, v Value, depth int) error {
	e.writeIndent(depth)
	e.w.WriteString(Quote(key))
	e.w.WriteByte(' ')
	if err := e.writeValue(v, depth); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

func (e *Encoder) writeValue(v Value, depth int) error {
	switch x := v.(type) {
	case String:
		_, err := e.w.WriteString(Quote(x.Text))
		return err
	case *Record:
		if x.Len() == 0 {
			_, err := e.w.WriteString("{}")
			return err
		}
		e.w.WriteString("{\n")
		for k, child := range x.All() {
			if err := e.writeEntry(k, child, depth+1); err != nil {
				return err
			}
		}
		e.writeIndent(depth)
		return e.w.WriteByte('}')
	case *Array:
		if x.Len() == 0 {
			_, err := e.w.WriteString("[]")
			return err
		}
		e.w.WriteString("[\n")
		for _, child := range x.All() {
			e.writeIndent(depth + 1)
			if err := e.writeValue(child, depth+1); err != nil {
				return err
			}
			e.w.WriteByte('\n')
		}
		e.writeIndent(depth)
		return e.w.WriteByte(']')
	default:
		return fmt.Errorf("userconf: cannot encode %T", v)
	}
}

func (e *Encoder) writeIndent(depth int) {
	for range depth {
		e.w.WriteString(e.indent)
	}
}

// =========================
// String Quoting
// =========================

// Quote returns s as it should appear in a document: bare when it reads back
// unchanged as an unquoted string, otherwise as a quoted string.
func Quote(s string) string {
	if canBeUnquoted(s) {
		return s
	}
	return QuoteString(s)
}

// QuoteString always returns the quoted form of s. Backslashes and control
// characters other than newline and tab are written as \uXXXX. Bytes that are
// not valid UTF-8 cannot be written in a document and become U+FFFD; parsed
// strings never contain them.
func QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\' || unicode.IsControl(r):
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func canBeUnquoted(s string) bool {
	if s == "" || s[0] == '>' || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch r {
		case '{', '}', '[', ']', ',', ';', '"':
			return false
		}
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
