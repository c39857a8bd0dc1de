// Package userconf parses Userconf documents into an ordered value tree.
//
// Userconf is a human-edited configuration format whose only scalar is the
// string. A document is the body of a record without the enclosing braces:
//
//	; server settings
//	name   "edge proxy"
//	listen [
//		0.0.0.0:8080
//		[::]:8080
//	]
//	tls { cert /etc/tls/cert.pem, key /etc/tls/key.pem }
//	motd >Welcome!\n
//	     >Maintenance on Sundays.
//
// Items inside records and arrays are separated by commas or line breaks.
// Parsing is synchronous and keeps no package-level state, so independent
// documents may be parsed concurrently.
package userconf

import (
	"fmt"
	"io"
	"log/slog"
)

// =========================
// Public API
// =========================

// Options configures a Parser.
type Options struct {
	// Logger receives debug events; nil discards them.
	Logger *slog.Logger
	// MaxInputLength rejects larger inputs before scanning. Zero means no limit.
	MaxInputLength int
	// StrictKeys reports repeated record keys as DuplicateKey instead of
	// letting the last value win.
	StrictKeys bool
	// MaxDepth limits how deeply records and arrays may nest. Zero selects
	// DefaultMaxDepth; a negative value disables the limit.
	MaxDepth int
}

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 1000

// Parser holds parse configuration. It keeps no per-document state and may be
// shared between goroutines.
type Parser struct {
	opts   Options
	logger *slog.Logger
}

func NewParser(opts Options) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{
		opts:   opts,
		logger: logger.With("component", "userconf-parser"),
	}
}

// Parse parses a document with default options.
func Parse(data []byte) (*Record, error) {
	return NewParser(Options{}).Parse(data)
}

func ParseString(src string) (*Record, error) {
	return NewParser(Options{}).ParseString(src)
}

// ParseReader reads r to the end and parses the result as a document.
func ParseReader(r io.Reader) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (p *Parser) Parse(data []byte) (*Record, error) {
	return p.ParseString(string(data))
}

func (p *Parser) ParseString(src string) (*Record, error) {
	if err := p.checkLength(src); err != nil {
		return nil, err
	}

	p.logger.Debug("parsing document", "length", len(src))

	st := p.newState(src)
	doc, err := st.parseRecordContent(nil)
	if err != nil {
		p.logger.Warn("document rejected", "error", err.Error())
		return nil, err
	}

	p.logger.Debug("document parsed", "keys", doc.Len())
	return doc, nil
}

// ParseValue parses a single value, such as `{a b}`, `[x, y]` or `"text"`,
// optionally followed by one separator.
func (p *Parser) ParseValue(src string) (Value, error) {
	if err := p.checkLength(src); err != nil {
		return nil, err
	}
	st := p.newState(src)
	tok, err := st.sc.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == EOF {
		return nil, parseErrf(UnexpectedToken, tok, "expected value, found %s", tok)
	}
	v, err := st.parseValue()
	if err != nil {
		return nil, err
	}
	tok, err = st.sc.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == Separator {
		if tok, err = st.sc.Next(); err != nil {
			return nil, err
		}
	}
	if tok.Kind != EOF {
		return nil, parseErrf(UnexpectedToken, tok, "expected end of input, found %s", tok)
	}
	return v, nil
}

func ParseValue(src string) (Value, error) {
	return NewParser(Options{}).ParseValue(src)
}

func (p *Parser) newState(src string) *parser {
	maxDepth := p.opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	return &parser{sc: NewScanner(src), strictKeys: p.opts.StrictKeys, maxDepth: maxDepth}
}

func (p *Parser) checkLength(src string) error {
	if p.opts.MaxInputLength > 0 && len(src) > p.opts.MaxInputLength {
		return fmt.Errorf("%w: %d > %d", ErrInputTooLarge, len(src), p.opts.MaxInputLength)
	}
	return nil
}

// =========================
// Parser Implementation
// =========================

// parser is the per-document cursor: the scanner plus its one-token lookahead.
type parser struct {
	sc         *Scanner
	strictKeys bool
	maxDepth   int // <= 0 means unlimited
	depth      int
}

// parseRecordContent parses `key value` pairs up to the closing brace, or up
// to end of input when open is nil (top level).
func (p *parser) parseRecordContent(open *Token) (*Record, error) {
	rec := newRecord()
	for {
		// key or close
		tok, err := p.sc.Next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Kind == EOF:
			if open != nil {
				return nil, unterminated(*open)
			}
			return rec, nil
		case tok.Kind == CloseBrace && open != nil:
			return rec, nil
		case tok.Kind == UnquotedString, tok.Kind == QuotedString:
		default:
			return nil, parseErrf(InvalidKey, tok, "expected record key, found %s", tok)
		}
		key := tok

		// value. A line break between key and value is not an item separator.
		next, err := p.sc.Peek()
		if err != nil {
			return nil, err
		}
		if next.Kind == Separator && next.Implicit {
			_, _ = p.sc.Next()
			if next, err = p.sc.Peek(); err != nil {
				return nil, err
			}
		}
		switch next.Kind {
		case Separator, CloseBrace, CloseBracket:
			return nil, parseErrf(MissingValue, key, "key %q has no value", key.Text)
		case EOF:
			if open != nil {
				return nil, unterminated(*open)
			}
			return nil, parseErrf(MissingValue, key, "key %q has no value", key.Text)
		}
		if p.strictKeys && rec.Has(key.Text) {
			return nil, parseErrf(DuplicateKey, key, "duplicate key %q", key.Text)
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		rec.set(key.Text, v)

		// separator or close
		tok, err = p.sc.Next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Kind == Separator:
		case tok.Kind == CloseBrace && open != nil:
			return rec, nil
		case tok.Kind == EOF:
			if open != nil {
				return nil, unterminated(*open)
			}
			return rec, nil
		default:
			return nil, parseErrf(UnexpectedToken, tok, "expected separator or %s, found %s", closerFor(open, CloseBrace), tok)
		}
	}
}

func (p *parser) parseArrayContent(open Token) (*Array, error) {
	arr := &Array{}
	for {
		tok, err := p.sc.Peek()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case EOF:
			return nil, unterminated(open)
		case CloseBracket:
			_, _ = p.sc.Next()
			return arr, nil
		}

		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr.elems = append(arr.elems, v)

		tok, err = p.sc.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case Separator:
		case CloseBracket:
			return arr, nil
		case EOF:
			return nil, unterminated(open)
		default:
			return nil, parseErrf(UnexpectedToken, tok, "expected separator or ']', found %s", tok)
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	tok, err := p.sc.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case UnquotedString, QuotedString, MultilineString:
		return String{Text: tok.Text}, nil
	case OpenBrace, OpenBracket:
		if p.maxDepth > 0 && p.depth >= p.maxDepth {
			return nil, parseErrf(NestingTooDeep, tok, "nesting exceeds %d levels", p.maxDepth)
		}
		p.depth++
		defer func() { p.depth-- }()
		if tok.Kind == OpenBrace {
			return p.parseRecordContent(&tok)
		}
		return p.parseArrayContent(tok)
	default:
		return nil, parseErrf(UnexpectedToken, tok, "expected value, found %s", tok)
	}
}

func unterminated(open Token) error {
	return parseErrf(UnterminatedContainer, open, "%s is never closed", open.Kind)
}

func closerFor(open *Token, k TokenKind) string {
	if open == nil {
		return "end of input"
	}
	return k.String()
}
