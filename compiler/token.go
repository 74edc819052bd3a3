package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the minic lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Keywords
	TokenInt
	TokenFloat
	TokenIf
	TokenElse
	TokenWhile
	TokenReturn

	// Literals
	TokenIntLiteral    // 42
	TokenFloatLiteral  // 3.14
	TokenStringLiteral // "hello"

	// Identifiers
	TokenIdentifier // foo, Bar

	// Operators
	TokenPlus        // +
	TokenMinus       // -
	TokenStar        // *
	TokenSlash       // /
	TokenAssign      // =
	TokenEqual       // ==
	TokenNotEqual    // !=
	TokenLessThan    // <
	TokenGreaterThan // >

	// Punctuation
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenSemicolon // ;
	TokenComma     // ,
)

var tokenNames = map[TokenType]string{
	TokenEOF:           "EOF",
	TokenInt:           "int",
	TokenFloat:         "float",
	TokenIf:            "if",
	TokenElse:          "else",
	TokenWhile:         "while",
	TokenReturn:        "return",
	TokenIntLiteral:    "INTEGER",
	TokenFloatLiteral:  "FLOAT",
	TokenStringLiteral: "STRING",
	TokenIdentifier:    "IDENTIFIER",
	TokenPlus:          "+",
	TokenMinus:         "-",
	TokenStar:          "*",
	TokenSlash:         "/",
	TokenAssign:        "=",
	TokenEqual:         "==",
	TokenNotEqual:      "!=",
	TokenLessThan:      "<",
	TokenGreaterThan:   ">",
	TokenLParen:        "(",
	TokenRParen:        ")",
	TokenLBrace:        "{",
	TokenRBrace:        "}",
	TokenSemicolon:     ";",
	TokenComma:         ",",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token. Literal holds the raw text; for number
// literals the parsed value is carried alongside so a malformed literal is
// caught during lexing, not parsing. Tokens are immutable after creation.
type Token struct {
	Type       TokenType
	Literal    string  // raw text (string literals: content between quotes)
	IntValue   int64   // valid when Type == TokenIntLiteral
	FloatValue float64 // valid when Type == TokenFloatLiteral
	Line       int     // 1-based
	Column     int     // 1-based
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenIntLiteral, TokenFloatLiteral, TokenStringLiteral, TokenIdentifier:
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	default:
		return t.Type.String()
	}
}

// Keywords mapped to their token types.
var keywords = map[string]TokenType{
	"int":    TokenInt,
	"float":  TokenFloat,
	"if":     TokenIf,
	"else":   TokenElse,
	"while":  TokenWhile,
	"return": TokenReturn,
}
