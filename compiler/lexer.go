package compiler

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for minic source text
// ---------------------------------------------------------------------------

// Lexer tokenizes minic source code in a single pass.
type Lexer struct {
	input []rune
	pos   int // index of current character
	line  int // line of current character (1-based)
	col   int // column of current character (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: []rune(input),
		line:  1,
		col:   1,
	}
}

// current returns the current character, or 0 at end of input.
func (l *Lexer) current() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// peek returns the next character without consuming it.
func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

// advance consumes the current character, tracking line and column.
func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// atEnd reports whether all input has been consumed.
func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// makeToken creates an operator or punctuation token at the current position.
func (l *Lexer) makeToken(t TokenType) Token {
	return Token{Type: t, Literal: t.String(), Line: l.line, Column: l.col}
}

// Tokenize converts the whole input into a token sequence terminated by
// exactly one EOF token. It aborts on the first lexical error.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for !l.atEnd() {
		c := l.current()

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()

		case c >= '0' && c <= '9':
			tok, err := l.number()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)

		case isIdentStart(c):
			tokens = append(tokens, l.identifier())

		case c == '"':
			tok, err := l.stringLiteral()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)

		case c == '/':
			switch l.peek() {
			case '/':
				l.skipLineComment()
			case '*':
				if err := l.skipBlockComment(); err != nil {
					return nil, err
				}
			default:
				tokens = append(tokens, l.makeToken(TokenSlash))
				l.advance()
			}

		case c == '=':
			if l.peek() == '=' {
				tok := l.makeToken(TokenEqual)
				l.advance()
				l.advance()
				tokens = append(tokens, tok)
			} else {
				tokens = append(tokens, l.makeToken(TokenAssign))
				l.advance()
			}

		case c == '!':
			if l.peek() == '=' {
				tok := l.makeToken(TokenNotEqual)
				l.advance()
				l.advance()
				tokens = append(tokens, tok)
			} else {
				return nil, &LexError{Kind: LexUnexpectedChar, Line: l.line, Column: l.col, Detail: "!"}
			}

		default:
			if t, ok := singleCharTokens[c]; ok {
				tokens = append(tokens, l.makeToken(t))
				l.advance()
			} else {
				return nil, &LexError{Kind: LexUnexpectedChar, Line: l.line, Column: l.col, Detail: string(c)}
			}
		}
	}

	tokens = append(tokens, Token{Type: TokenEOF, Line: l.line, Column: l.col})
	return tokens, nil
}

var singleCharTokens = map[rune]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'<': TokenLessThan,
	'>': TokenGreaterThan,
	'(': TokenLParen,
	')': TokenRParen,
	'{': TokenLBrace,
	'}': TokenRBrace,
	';': TokenSemicolon,
	',': TokenComma,
}

// number scans an integer or float literal. At most one '.' is consumed; a
// second one ends the token. The scanned text must parse as int64 (or
// float64 when a '.' was seen) or the literal is rejected.
func (l *Lexer) number() (Token, error) {
	startLine, startCol := l.line, l.col
	start := l.pos
	isFloat := false

	for !l.atEnd() {
		c := l.current()
		if c >= '0' && c <= '9' {
			l.advance()
		} else if c == '.' && !isFloat {
			isFloat = true
			l.advance()
		} else {
			break
		}
	}

	text := string(l.input[start:l.pos])

	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, &LexError{Kind: LexInvalidNumber, Line: startLine, Column: startCol, Detail: text}
		}
		return Token{Type: TokenFloatLiteral, Literal: text, FloatValue: v, Line: startLine, Column: startCol}, nil
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, &LexError{Kind: LexInvalidNumber, Line: startLine, Column: startCol, Detail: text}
	}
	return Token{Type: TokenIntLiteral, Literal: text, IntValue: v, Line: startLine, Column: startCol}, nil
}

// identifier scans an identifier or keyword.
func (l *Lexer) identifier() Token {
	startLine, startCol := l.line, l.col
	start := l.pos

	for !l.atEnd() && isIdentPart(l.current()) {
		l.advance()
	}

	text := string(l.input[start:l.pos])
	if t, ok := keywords[text]; ok {
		return Token{Type: t, Literal: text, Line: startLine, Column: startCol}
	}
	return Token{Type: TokenIdentifier, Literal: text, Line: startLine, Column: startCol}
}

// stringLiteral scans a double-quoted string. Escape sequences are copied
// verbatim (the backslash and the following character, uninterpreted). A
// raw newline inside the literal, or end of input before the closing
// quote, is an error reported at the opening quote.
func (l *Lexer) stringLiteral() (Token, error) {
	quoteLine, quoteCol := l.line, l.col
	l.advance() // skip opening quote
	start := l.pos

	for !l.atEnd() && l.current() != '"' {
		if l.current() == '\n' {
			return Token{}, &LexError{Kind: LexUnterminatedString, Line: quoteLine, Column: quoteCol}
		}
		if l.current() == '\\' && l.pos+1 < len(l.input) {
			l.advance() // keep the backslash and whatever follows
		}
		l.advance()
	}

	if l.atEnd() {
		return Token{}, &LexError{Kind: LexUnterminatedString, Line: quoteLine, Column: quoteCol}
	}

	content := string(l.input[start:l.pos])
	l.advance() // skip closing quote

	return Token{Type: TokenStringLiteral, Literal: content, Line: quoteLine, Column: quoteCol}, nil
}

// skipLineComment skips // to end of line.
func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.current() != '\n' {
		l.advance()
	}
}

// skipBlockComment skips /* ... */. The first */ closes the comment; block
// comments do not nest.
func (l *Lexer) skipBlockComment() error {
	l.advance() // consume /
	l.advance() // consume *

	for !l.atEnd() {
		if l.current() == '*' && l.peek() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}

	return &LexError{Kind: LexUnterminatedComment, Line: l.line, Column: l.col}
}

// Tokenize is a convenience wrapper over a fresh Lexer.
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// literalText returns a debug rendering of a token stream, one token per
// line.
func literalText(tokens []Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(tok.String())
	}
	return sb.String()
}
