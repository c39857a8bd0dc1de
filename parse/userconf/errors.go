package userconf

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// Lex-level
	UnterminatedString ErrorKind = iota + 1
	InvalidEscape
	ConsecutiveSeparators

	// Parse-level
	InvalidKey
	MissingValue
	UnexpectedToken
	UnterminatedContainer
	DuplicateKey
	NestingTooDeep

	// Lex-level, checked before the first token
	InvalidEncoding
)

func (k ErrorKind) String() string {
	switch k {
	case UnterminatedString:
		return "UnterminatedString"
	case InvalidEscape:
		return "InvalidEscape"
	case ConsecutiveSeparators:
		return "ConsecutiveSeparators"
	case InvalidKey:
		return "InvalidKey"
	case MissingValue:
		return "MissingValue"
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnterminatedContainer:
		return "UnterminatedContainer"
	case DuplicateKey:
		return "DuplicateKey"
	case NestingTooDeep:
		return "NestingTooDeep"
	case InvalidEncoding:
		return "InvalidEncoding"
	default:
		return "Unknown"
	}
}

// ErrInputTooLarge is returned when the input exceeds Options.MaxInputLength.
var ErrInputTooLarge = errors.New("userconf: input exceeds maximum length")

// LexError reports malformed input found by the scanner.
type LexError struct {
	Kind   ErrorKind
	Line   int
	Column int
	Msg    string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("userconf:%d:%d: %s", e.Line, e.Column, e.Msg)
}

// ParseError reports a token sequence that does not fit the grammar.
type ParseError struct {
	Kind   ErrorKind
	Line   int
	Column int
	Msg    string
	Token  Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("userconf:%d:%d: %s", e.Line, e.Column, e.Msg)
}

// ErrorPosition extracts kind and position from a LexError or ParseError
// anywhere in err's chain.
func ErrorPosition(err error) (kind ErrorKind, line, column int, ok bool) {
	var le *LexError
	if errors.As(err, &le) {
		return le.Kind, le.Line, le.Column, true
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind, pe.Line, pe.Column, true
	}
	return 0, 0, 0, false
}

func lexErrf(kind ErrorKind, pos Pos, format string, args ...any) error {
	return &LexError{Kind: kind, Line: pos.Line, Column: pos.Column, Msg: fmt.Sprintf(format, args...)}
}

func parseErrf(kind ErrorKind, tok Token, format string, args ...any) error {
	return &ParseError{Kind: kind, Line: tok.Pos.Line, Column: tok.Pos.Column, Msg: fmt.Sprintf(format, args...), Token: tok}
}
