package compiler

import (
	"fmt"

	"github.com/minic-lang/minic/bytecode"
)

// ---------------------------------------------------------------------------
// Generator: Compile AST to a flat instruction sequence
// ---------------------------------------------------------------------------

// localVar is one entry in the generator's scope-tracking list. Its index
// in the list is its stack slot.
type localVar struct {
	name  string
	depth int
}

// Generator walks an AST once and emits bytecode with absolute jump
// addresses, resolving variables to global names or local slots. One
// Generator compiles one program; state is not reusable across calls.
type Generator struct {
	code       []bytecode.Instruction
	locals     []localVar
	scopeDepth int
}

// NewGenerator creates a fresh generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate consumes the AST and returns the finished instruction sequence.
// Every jump in the result is patched; an unpatched jump escaping this
// function is a bug, which Validate would catch.
func (g *Generator) Generate(program *Program) ([]bytecode.Instruction, error) {
	for _, stmt := range program.Statements {
		if err := g.statement(stmt); err != nil {
			return nil, err
		}
	}
	return g.code, nil
}

// emit appends an instruction and returns its address.
func (g *Generator) emit(in bytecode.Instruction) int {
	g.code = append(g.code, in)
	return len(g.code) - 1
}

// emitJump appends a jump with a placeholder target, returning its address
// for later patching.
func (g *Generator) emitJump(op bytecode.Opcode) int {
	return g.emit(bytecode.Instruction{Op: op, Target: bytecode.PendingTarget})
}

// patchJump points the jump at addr to the current end of the code.
func (g *Generator) patchJump(addr int) {
	switch g.code[addr].Op {
	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		g.code[addr].Target = len(g.code)
	default:
		panic(fmt.Sprintf("tried to patch non-jump instruction %s at %04d", g.code[addr].Op, addr))
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (g *Generator) statement(stmt Stmt) error {
	switch s := stmt.(type) {
	case *VarDeclaration:
		if s.Initializer != nil {
			if err := g.expression(s.Initializer); err != nil {
				return err
			}
		} else {
			g.emit(bytecode.Instruction{Op: bytecode.OpConstant, Const: bytecode.NullConst()})
		}
		return g.declareVariable(s.Name)

	case *BlockStatement:
		g.beginScope()
		for _, inner := range s.Statements {
			if err := g.statement(inner); err != nil {
				return err
			}
		}
		g.endScope()
		return nil

	case *ExpressionStatement:
		if err := g.expression(s.Expr); err != nil {
			return err
		}
		g.emit(bytecode.Instruction{Op: bytecode.OpPop})
		return nil

	case *IfStatement:
		if err := g.expression(s.Condition); err != nil {
			return err
		}
		jumpIfFalse := g.emitJump(bytecode.OpJumpIfFalse)

		if err := g.statement(s.ThenBranch); err != nil {
			return err
		}
		jumpOverElse := g.emitJump(bytecode.OpJump)

		g.patchJump(jumpIfFalse)
		if s.ElseBranch != nil {
			if err := g.statement(s.ElseBranch); err != nil {
				return err
			}
		}
		g.patchJump(jumpOverElse)
		return nil

	case *WhileStatement:
		loopStart := len(g.code)
		if err := g.expression(s.Condition); err != nil {
			return err
		}
		exitJump := g.emitJump(bytecode.OpJumpIfFalse)

		if err := g.statement(s.Body); err != nil {
			return err
		}
		// Back edge: the header address is already known, no patch needed.
		g.emit(bytecode.Instruction{Op: bytecode.OpJump, Target: loopStart})

		g.patchJump(exitJump)
		return nil

	case *ReturnStatement:
		if s.Value != nil {
			if err := g.expression(s.Value); err != nil {
				return err
			}
		} else {
			g.emit(bytecode.Instruction{Op: bytecode.OpConstant, Const: bytecode.NullConst()})
		}
		g.emit(bytecode.Instruction{Op: bytecode.OpReturn})
		return nil

	default:
		return &CompileError{Msg: fmt.Sprintf("unexpected node type in statement context: %T", stmt)}
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryOps = map[TokenType]bytecode.Opcode{
	TokenPlus:        bytecode.OpAdd,
	TokenMinus:       bytecode.OpSubtract,
	TokenStar:        bytecode.OpMultiply,
	TokenSlash:       bytecode.OpDivide,
	TokenEqual:       bytecode.OpEqual,
	TokenNotEqual:    bytecode.OpNotEqual,
	TokenLessThan:    bytecode.OpLessThan,
	TokenGreaterThan: bytecode.OpGreaterThan,
}

func (g *Generator) expression(expr Expr) error {
	switch e := expr.(type) {
	case *BinaryExpression:
		if err := g.expression(e.Left); err != nil {
			return err
		}
		if err := g.expression(e.Right); err != nil {
			return err
		}
		op, ok := binaryOps[e.Operator]
		if !ok {
			return &CompileError{Msg: fmt.Sprintf("unsupported binary operator: %s", e.Operator)}
		}
		g.emit(bytecode.Instruction{Op: op})
		return nil

	case *UnaryExpression:
		if err := g.expression(e.Operand); err != nil {
			return err
		}
		if e.Operator != TokenMinus {
			return &CompileError{Msg: fmt.Sprintf("unsupported unary operator: %s", e.Operator)}
		}
		g.emit(bytecode.Instruction{Op: bytecode.OpNegate})
		return nil

	case *CallExpression:
		// Calls are dispatched by name through the callable table, so the
		// callee must be a bare identifier and produces no stack value.
		ident, ok := e.Callee.(*Identifier)
		if !ok {
			return &CompileError{Msg: "expression is not callable"}
		}
		for _, arg := range e.Arguments {
			if err := g.expression(arg); err != nil {
				return err
			}
		}
		g.emit(bytecode.Instruction{Op: bytecode.OpCall, Name: ident.Name, ArgC: len(e.Arguments)})
		return nil

	case *AssignmentExpression:
		if err := g.expression(e.Value); err != nil {
			return err
		}
		// Store, then load the same variable back: assignment is an
		// expression and must leave its value on the stack.
		if slot, ok := g.resolveLocal(e.Name); ok {
			g.emit(bytecode.Instruction{Op: bytecode.OpSetLocal, Slot: slot})
			g.emit(bytecode.Instruction{Op: bytecode.OpGetLocal, Slot: slot})
		} else {
			g.emit(bytecode.Instruction{Op: bytecode.OpSetGlobal, Name: e.Name})
			g.emit(bytecode.Instruction{Op: bytecode.OpGetGlobal, Name: e.Name})
		}
		return nil

	case *IntLiteral:
		g.emit(bytecode.Instruction{Op: bytecode.OpConstant, Const: bytecode.IntConst(e.Value)})
		return nil

	case *FloatLiteral:
		g.emit(bytecode.Instruction{Op: bytecode.OpConstant, Const: bytecode.FloatConst(e.Value)})
		return nil

	case *StringLiteral:
		g.emit(bytecode.Instruction{Op: bytecode.OpConstant, Const: bytecode.StringConst(e.Value)})
		return nil

	case *Identifier:
		if slot, ok := g.resolveLocal(e.Name); ok {
			g.emit(bytecode.Instruction{Op: bytecode.OpGetLocal, Slot: slot})
		} else {
			g.emit(bytecode.Instruction{Op: bytecode.OpGetGlobal, Name: e.Name})
		}
		return nil

	default:
		return &CompileError{Msg: fmt.Sprintf("unexpected node type in expression context: %T", expr)}
	}
}

// ---------------------------------------------------------------------------
// Scope tracking
// ---------------------------------------------------------------------------

func (g *Generator) beginScope() {
	g.scopeDepth++
}

// endScope closes the current scope, emitting one Pop per local declared in
// it, in reverse declaration order, so the runtime stack layout keeps
// mirroring the locals list.
func (g *Generator) endScope() {
	g.scopeDepth--

	for len(g.locals) > 0 && g.locals[len(g.locals)-1].depth > g.scopeDepth {
		g.emit(bytecode.Instruction{Op: bytecode.OpPop})
		g.locals = g.locals[:len(g.locals)-1]
	}
}

// declareVariable binds a freshly initialized value to a name. At global
// depth this emits DefineGlobal (consuming the value); inside a scope the
// value stays on the stack as the new local's slot.
func (g *Generator) declareVariable(name string) error {
	if g.scopeDepth == 0 {
		g.emit(bytecode.Instruction{Op: bytecode.OpDefineGlobal, Name: name})
		return nil
	}

	for i := len(g.locals) - 1; i >= 0; i-- {
		if g.locals[i].depth < g.scopeDepth {
			break
		}
		if g.locals[i].name == name {
			return &CompileError{Msg: fmt.Sprintf("variable '%s' already declared in this scope", name)}
		}
	}

	g.locals = append(g.locals, localVar{name: name, depth: g.scopeDepth})
	return nil
}

// resolveLocal finds the nearest local with the given name, scanning from
// the innermost declaration outward. Locals always shadow globals.
func (g *Generator) resolveLocal(name string) (int, bool) {
	for i := len(g.locals) - 1; i >= 0; i-- {
		if g.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// Compile parses and compiles source text to bytecode in one step.
func Compile(source string) ([]bytecode.Instruction, error) {
	program, err := ParseSource(source)
	if err != nil {
		return nil, err
	}
	return NewGenerator().Generate(program)
}
