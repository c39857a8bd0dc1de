package userconf

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// =========================
// Scanner
// =========================

type cursor struct {
	off  int
	line int
	col  int
}

// Scanner turns Userconf source into tokens on demand. A Scanner belongs to
// a single parse and must not be shared between goroutines.
type Scanner struct {
	src  string
	cur  cursor
	last Token

	peeked  bool
	peekTok Token
	err     error
	checked bool
}

func NewScanner(src string) *Scanner {
	return &Scanner{
		src: src,
		cur: cursor{line: 1, col: 1},
	}
}

// Next consumes and returns the next token. Once an error is returned every
// later call returns the same error.
func (s *Scanner) Next() (Token, error) {
	if s.peeked {
		s.peeked = false
		return s.peekTok, s.err
	}
	return s.scan()
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (Token, error) {
	if !s.peeked {
		s.peekTok, s.err = s.scan()
		s.peeked = true
	}
	return s.peekTok, s.err
}

// Tokens scans src to the end and returns every token including the final EOF.
func Tokens(src string) ([]Token, error) {
	s := NewScanner(src)
	var out []Token
	for {
		tok, err := s.Next()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func (s *Scanner) scan() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	if !s.checked {
		s.checked = true
		if err := checkEncoding(s.src); err != nil {
			s.err = err
			return Token{}, err
		}
	}
	tok, err := s.scanToken()
	if err != nil {
		s.err = err
		return Token{}, err
	}
	s.last = tok
	return tok, nil
}

func (s *Scanner) scanToken() (Token, error) {
	sawBreak, breakPos := s.skipTrivia()

	// A line break after a value acts as a separator unless an explicit comma
	// follows in the same gap.
	if sawBreak && s.last.endsValue() && !s.at(',') {
		return Token{Kind: Separator, Pos: breakPos, Implicit: true}, nil
	}

	pos := s.pos()
	if s.atEnd() {
		return Token{Kind: EOF, Pos: pos}, nil
	}

	switch s.src[s.cur.off] {
	case ',':
		if s.last.Kind == Separator {
			return Token{}, lexErrf(ConsecutiveSeparators, pos, "consecutive separators")
		}
		s.advance()
		return Token{Kind: Separator, Text: ",", Pos: pos}, nil
	case '{':
		s.advance()
		return Token{Kind: OpenBrace, Text: "{", Pos: pos}, nil
	case '}':
		s.advance()
		return Token{Kind: CloseBrace, Text: "}", Pos: pos}, nil
	case '[':
		s.advance()
		return Token{Kind: OpenBracket, Text: "[", Pos: pos}, nil
	case ']':
		s.advance()
		return Token{Kind: CloseBracket, Text: "]", Pos: pos}, nil
	case '"':
		return s.scanQuoted(pos)
	case '>':
		return s.scanMultiline(pos)
	default:
		return s.scanUnquoted(pos), nil
	}
}

// checkEncoding reports the first byte of src that is not part of valid UTF-8.
func checkEncoding(src string) error {
	if utf8.ValidString(src) {
		return nil
	}
	pos := Pos{Line: 1, Column: 1}
	for pos.Offset < len(src) {
		r, size := utf8.DecodeRuneInString(src[pos.Offset:])
		if r == utf8.RuneError && size == 1 {
			return lexErrf(InvalidEncoding, pos, "invalid UTF-8 byte 0x%02X", src[pos.Offset])
		}
		pos.Offset += size
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return nil
}

// skipTrivia skips whitespace, line breaks and comments. It reports whether a
// line break or comment was crossed and where the first one started.
func (s *Scanner) skipTrivia() (bool, Pos) {
	sawBreak := false
	var breakPos Pos
	mark := func() {
		if !sawBreak {
			sawBreak = true
			breakPos = s.pos()
		}
	}
	for !s.atEnd() {
		switch {
		case s.at(' '), s.at('\t'):
			s.advance()
		case s.atNewline():
			mark()
			s.skipNewline()
		case s.at(';'):
			mark()
			for !s.atEnd() && !s.atNewline() {
				s.advance()
			}
		default:
			return sawBreak, breakPos
		}
	}
	return sawBreak, breakPos
}

func (s *Scanner) scanUnquoted(pos Pos) Token {
	start := s.cur.off
	for !s.atEnd() && !s.atUnquotedTerminator() {
		s.advance()
	}
	return Token{Kind: UnquotedString, Text: s.src[start:s.cur.off], Pos: pos}
}

func (s *Scanner) scanQuoted(pos Pos) (Token, error) {
	s.advance() // opening quote
	start := s.cur.off
	for {
		if s.atEnd() || s.atNewline() {
			return Token{}, lexErrf(UnterminatedString, pos, "unterminated quoted string")
		}
		if s.at('"') {
			break
		}
		if s.at('\\') {
			s.advance()
			if s.atEnd() || s.atNewline() {
				return Token{}, lexErrf(UnterminatedString, pos, "unterminated quoted string")
			}
		}
		s.advance()
	}
	raw := s.src[start:s.cur.off]
	s.advance() // closing quote

	text, err := decodeEscapes(raw, func(i int) Pos {
		return Pos{
			Offset: start + i,
			Line:   pos.Line,
			Column: pos.Column + 1 + utf8.RuneCountInString(raw[:i]),
		}
	})
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: QuotedString, Text: text, Pos: pos}, nil
}

type segment struct {
	start int // offset into the concatenated text
	pos   Pos // source position of the segment's first character
}

func (s *Scanner) scanMultiline(pos Pos) (Token, error) {
	var raw strings.Builder
	var segs []segment
	for {
		s.advance() // '>'
		segs = append(segs, segment{start: raw.Len(), pos: s.pos()})
		start := s.cur.off
		for !s.atEnd() && !s.atNewline() {
			s.advance()
		}
		raw.WriteString(s.src[start:s.cur.off])

		// The run continues only if the next line starts with '>' after
		// optional indentation; otherwise the line break is left in place.
		if s.atEnd() {
			break
		}
		saved := s.cur
		s.skipNewline()
		for s.at(' ') || s.at('\t') {
			s.advance()
		}
		if !s.at('>') {
			s.cur = saved
			break
		}
	}

	text := raw.String()
	decoded, err := decodeEscapes(text, func(i int) Pos {
		seg := segs[0]
		for _, sg := range segs[1:] {
			if sg.start > i {
				break
			}
			seg = sg
		}
		p := seg.pos
		p.Offset += i - seg.start
		p.Column += utf8.RuneCountInString(text[seg.start:i])
		return p
	})
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: MultilineString, Text: decoded, Pos: pos}, nil
}

// decodeEscapes interprets \n, \t, \" and \uXXXX. posAt maps an offset in s
// back to its source position for diagnostics.
func decodeEscapes(s string, posAt func(int) Pos) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			out.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", lexErrf(InvalidEscape, posAt(i), "incomplete escape sequence")
		}
		switch s[i+1] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case '"':
			out.WriteByte('"')
		case 'u':
			if i+6 > len(s) {
				return "", lexErrf(InvalidEscape, posAt(i), `\u escape needs four hex digits`)
			}
			r, ok := parseHexRune(s[i+2 : i+6])
			if !ok {
				return "", lexErrf(InvalidEscape, posAt(i), "invalid unicode escape %q", s[i:i+6])
			}
			out.WriteRune(r)
			i += 4
		default:
			r, _ := utf8.DecodeRuneInString(s[i+1:])
			return "", lexErrf(InvalidEscape, posAt(i), "invalid escape sequence %q", `\`+string(r))
		}
		i++
	}
	return out.String(), nil
}

func parseHexRune(h string) (rune, bool) {
	for i := 0; i < len(h); i++ {
		if !isHex(h[i]) {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, false
	}
	r := rune(v)
	return r, utf8.ValidRune(r)
}

// =========================
// Cursor Helpers
// =========================

func (s *Scanner) pos() Pos {
	return Pos{Offset: s.cur.off, Line: s.cur.line, Column: s.cur.col}
}

func (s *Scanner) atEnd() bool {
	return s.cur.off >= len(s.src)
}

func (s *Scanner) at(c byte) bool {
	return s.cur.off < len(s.src) && s.src[s.cur.off] == c
}

func (s *Scanner) atNewline() bool {
	if s.at('\n') {
		return true
	}
	return s.at('\r') && s.cur.off+1 < len(s.src) && s.src[s.cur.off+1] == '\n'
}

func (s *Scanner) atUnquotedTerminator() bool {
	switch s.src[s.cur.off] {
	case ' ', '\t', '\n', '{', '}', '[', ']', ',', ';':
		return true
	}
	return s.atNewline()
}

func (s *Scanner) skipNewline() {
	if s.at('\r') {
		s.advance()
	}
	s.advance()
}

// advance moves past one character, keeping line and column current.
func (s *Scanner) advance() {
	if s.atEnd() {
		return
	}
	if s.src[s.cur.off] == '\n' {
		s.cur.off++
		s.cur.line++
		s.cur.col = 1
		return
	}
	_, size := utf8.DecodeRuneInString(s.src[s.cur.off:])
	s.cur.off += size
	s.cur.col++
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
