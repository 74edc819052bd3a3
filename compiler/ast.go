package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for minic
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes. Declarations are statements.
type Stmt interface {
	Node
	stmt() // marker method
}

// Program is the root node: an ordered list of declarations and statements.
type Program struct {
	Statements []Stmt
}

func (n *Program) node() {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// VarDeclaration represents `int x = expr;` or `float y;`.
type VarDeclaration struct {
	VarType     string // "int" or "float"
	Name        string
	Initializer Expr // nil when absent
}

func (n *VarDeclaration) node() {}
func (n *VarDeclaration) stmt() {}

// BlockStatement represents `{ declaration* }`.
type BlockStatement struct {
	Statements []Stmt
}

func (n *BlockStatement) node() {}
func (n *BlockStatement) stmt() {}

// ExpressionStatement is an expression followed by a semicolon.
type ExpressionStatement struct {
	Expr Expr
}

func (n *ExpressionStatement) node() {}
func (n *ExpressionStatement) stmt() {}

// IfStatement represents `if (cond) stmt [else stmt]`. Else binds to the
// nearest preceding unmatched if.
type IfStatement struct {
	Condition  Expr
	ThenBranch Stmt
	ElseBranch Stmt // nil when absent
}

func (n *IfStatement) node() {}
func (n *IfStatement) stmt() {}

// WhileStatement represents `while (cond) stmt`.
type WhileStatement struct {
	Condition Expr
	Body      Stmt
}

func (n *WhileStatement) node() {}
func (n *WhileStatement) stmt() {}

// ReturnStatement represents `return [expr];`.
type ReturnStatement struct {
	Value Expr // nil when absent
}

func (n *ReturnStatement) node() {}
func (n *ReturnStatement) stmt() {}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// BinaryExpression represents `left op right`.
type BinaryExpression struct {
	Left     Expr
	Operator TokenType
	Right    Expr
}

func (n *BinaryExpression) node() {}
func (n *BinaryExpression) expr() {}

// UnaryExpression represents a prefix operator (only numeric negation).
type UnaryExpression struct {
	Operator TokenType
	Operand  Expr
}

func (n *UnaryExpression) node() {}
func (n *UnaryExpression) expr() {}

// CallExpression represents `callee(args...)`, chainable.
type CallExpression struct {
	Callee    Expr
	Arguments []Expr
}

func (n *CallExpression) node() {}
func (n *CallExpression) expr() {}

// AssignmentExpression represents `name = value`. The left side must have
// reduced to a bare identifier during parsing.
type AssignmentExpression struct {
	Name  string
	Value Expr
}

func (n *AssignmentExpression) node() {}
func (n *AssignmentExpression) expr() {}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	Value int64
}

func (n *IntLiteral) node() {}
func (n *IntLiteral) expr() {}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	Value float64
}

func (n *FloatLiteral) node() {}
func (n *FloatLiteral) expr() {}

// StringLiteral represents a string literal (raw, escapes uninterpreted).
type StringLiteral struct {
	Value string
}

func (n *StringLiteral) node() {}
func (n *StringLiteral) expr() {}

// Identifier represents a variable reference.
type Identifier struct {
	Name string
}

func (n *Identifier) node() {}
func (n *Identifier) expr() {}
