package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for minic
// ---------------------------------------------------------------------------

// Parser parses a token sequence into an AST. One token of lookahead, no
// backtracking; the first error aborts.
type Parser struct {
	tokens  []Token
	current int
}

// NewParser creates a parser over a token sequence. The sequence must end
// with an EOF token, as produced by Tokenize.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token sequence and returns the Program root.
func (p *Parser) Parse() (*Program, error) {
	var statements []Stmt

	for !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return &Program{Statements: statements}, nil
}

// ---------------------------------------------------------------------------
// Declarations and statements
// ---------------------------------------------------------------------------

func (p *Parser) declaration() (Stmt, error) {
	if p.match(TokenInt, TokenFloat) {
		return p.varDeclaration()
	}
	return p.statement()
}

func (p *Parser) varDeclaration() (Stmt, error) {
	varType := p.previous().Literal

	if !p.check(TokenIdentifier) {
		return nil, p.errorAtCurrent("expected identifier")
	}
	name := p.peek().Literal
	p.advance()

	var initializer Expr
	if p.match(TokenAssign) {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		initializer = expr
	}

	if err := p.consume(TokenSemicolon, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}

	return &VarDeclaration{VarType: varType, Name: name, Initializer: initializer}, nil
}

func (p *Parser) statement() (Stmt, error) {
	switch {
	case p.match(TokenIf):
		return p.ifStatement()
	case p.match(TokenWhile):
		return p.whileStatement()
	case p.match(TokenReturn):
		return p.returnStatement()
	case p.match(TokenLBrace):
		return p.block()
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) ifStatement() (Stmt, error) {
	if err := p.consume(TokenLParen, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.consume(TokenRParen, "expected ')' after if condition"); err != nil {
		return nil, err
	}

	thenBranch, err := p.statement()
	if err != nil {
		return nil, err
	}

	var elseBranch Stmt
	if p.match(TokenElse) {
		elseBranch, err = p.statement()
		if err != nil {
			return nil, err
		}
	}

	return &IfStatement{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}, nil
}

func (p *Parser) whileStatement() (Stmt, error) {
	if err := p.consume(TokenLParen, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.consume(TokenRParen, "expected ')' after while condition"); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	return &WhileStatement{Condition: condition, Body: body}, nil
}

func (p *Parser) returnStatement() (Stmt, error) {
	var value Expr
	if !p.check(TokenSemicolon) {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		value = expr
	}

	if err := p.consume(TokenSemicolon, "expected ';' after return value"); err != nil {
		return nil, err
	}

	return &ReturnStatement{Value: value}, nil
}

func (p *Parser) block() (Stmt, error) {
	var statements []Stmt

	for !p.check(TokenRBrace) && !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if err := p.consume(TokenRBrace, "expected '}' after block"); err != nil {
		return nil, err
	}

	return &BlockStatement{Statements: statements}, nil
}

func (p *Parser) expressionStatement() (Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.consume(TokenSemicolon, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return &ExpressionStatement{Expr: expr}, nil
}

// ---------------------------------------------------------------------------
// Expressions (descending precedence)
// ---------------------------------------------------------------------------

func (p *Parser) expression() (Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}

	if p.match(TokenAssign) {
		ident, ok := expr.(*Identifier)
		if !ok {
			return nil, p.errorAtPrevious("invalid assignment target")
		}
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &AssignmentExpression{Name: ident.Name, Value: value}, nil
	}

	return expr, nil
}

func (p *Parser) equality() (Expr, error) {
	return p.binaryLevel(p.comparison, TokenEqual, TokenNotEqual)
}

func (p *Parser) comparison() (Expr, error) {
	return p.binaryLevel(p.term, TokenLessThan, TokenGreaterThan)
}

func (p *Parser) term() (Expr, error) {
	return p.binaryLevel(p.factor, TokenPlus, TokenMinus)
}

func (p *Parser) factor() (Expr, error) {
	return p.binaryLevel(p.unary, TokenStar, TokenSlash)
}

// binaryLevel parses a left-associative binary precedence level.
func (p *Parser) binaryLevel(next func() (Expr, error), ops ...TokenType) (Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}

	for p.match(ops...) {
		operator := p.previous().Type
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpression{Left: expr, Operator: operator, Right: right}
	}

	return expr, nil
}

func (p *Parser) unary() (Expr, error) {
	if p.match(TokenMinus) {
		operator := p.previous().Type
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Operator: operator, Operand: operand}, nil
	}
	return p.call()
}

func (p *Parser) call() (Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for p.match(TokenLParen) {
		expr, err = p.finishCall(expr)
		if err != nil {
			return nil, err
		}
	}

	return expr, nil
}

func (p *Parser) finishCall(callee Expr) (Expr, error) {
	var arguments []Expr

	if !p.check(TokenRParen) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)
			if !p.match(TokenComma) {
				break
			}
		}
	}

	if err := p.consume(TokenRParen, "expected ')' after arguments"); err != nil {
		return nil, err
	}

	return &CallExpression{Callee: callee, Arguments: arguments}, nil
}

func (p *Parser) primary() (Expr, error) {
	switch {
	case p.match(TokenIntLiteral):
		return &IntLiteral{Value: p.previous().IntValue}, nil

	case p.match(TokenFloatLiteral):
		return &FloatLiteral{Value: p.previous().FloatValue}, nil

	case p.match(TokenStringLiteral):
		return &StringLiteral{Value: p.previous().Literal}, nil

	case p.match(TokenIdentifier):
		return &Identifier{Name: p.previous().Literal}, nil

	case p.match(TokenLParen):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.consume(TokenRParen, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.errorAtCurrent(fmt.Sprintf("expected expression, got %s", p.peek()))
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// match consumes the current token if it is one of the given types.
func (p *Parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// check reports whether the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	if p.atEnd() {
		return t == TokenEOF
	}
	return p.peek().Type == t
}

func (p *Parser) advance() Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

// peek returns the current (not yet consumed) token.
func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

// previous returns the most recently consumed token.
func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

// consume advances over an expected token or fails with a parse error.
func (p *Parser) consume(t TokenType, msg string) error {
	if p.check(t) {
		p.advance()
		return nil
	}
	return p.errorAtCurrent(msg)
}

func (p *Parser) errorAtCurrent(msg string) error {
	tok := p.peek()
	return &ParseError{Msg: msg, Line: tok.Line, Column: tok.Column, Token: tok}
}

func (p *Parser) errorAtPrevious(msg string) error {
	tok := p.previous()
	return &ParseError{Msg: msg, Line: tok.Line, Column: tok.Column, Token: tok}
}

// ParseSource tokenizes and parses source text in one step.
func ParseSource(source string) (*Program, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}
