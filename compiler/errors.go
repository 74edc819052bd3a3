package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Structured errors, one type per stage
// ---------------------------------------------------------------------------

// LexErrorKind discriminates lexical errors.
type LexErrorKind int

const (
	LexUnexpectedChar LexErrorKind = iota
	LexUnterminatedString
	LexUnterminatedComment
	LexInvalidNumber
)

// LexError is a lexical error with source provenance. Tokenization aborts
// on the first one; there is no recovery.
type LexError struct {
	Kind   LexErrorKind
	Line   int
	Column int
	Detail string // offending character or literal text
}

func (e *LexError) Error() string {
	var msg string
	switch e.Kind {
	case LexUnexpectedChar:
		msg = fmt.Sprintf("unexpected character: %s", e.Detail)
	case LexUnterminatedString:
		msg = "unterminated string literal"
	case LexUnterminatedComment:
		msg = "unterminated block comment"
	case LexInvalidNumber:
		msg = fmt.Sprintf("invalid numeric literal: %s", e.Detail)
	default:
		msg = e.Detail
	}
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Column, msg)
}

// ParseError is a syntax error carrying the offending token. The first one
// aborts parsing.
type ParseError struct {
	Msg    string
	Line   int
	Column int
	Token  Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// CompileError is a code generation error (unsupported operator, variable
// redeclared, node outside its expected context).
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %s", e.Msg)
}
