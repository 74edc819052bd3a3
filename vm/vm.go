package vm

import (
	"strconv"
	"strings"

	"github.com/minic-lang/minic/bytecode"
)

// FuncPrefix marks global definitions that the pre-pass registers as
// callable entry points: DefineGlobal "fn_foo" makes "foo" callable.
const FuncPrefix = "fn_"

// ---------------------------------------------------------------------------
// VM: fetch-execute loop over a flat instruction sequence
// ---------------------------------------------------------------------------

// VM executes one compiled program at a time. All state is reset at the
// start of every Execute call, so a single instance can be reused
// sequentially, but never concurrently.
type VM struct {
	stack      []Value
	globals    map[string]Value
	callStack  []int          // return addresses
	functions  map[string]int // callable table: name -> entry address
	output     strings.Builder
	lastPopped *Value // result recovery for trailing expression statements
}

// New creates a VM.
func New() *VM {
	return &VM{}
}

// reset clears all execution state. Execute calls it unconditionally so a
// reused instance cannot leak globals or call-stack state across runs.
func (m *VM) reset() {
	m.stack = m.stack[:0]
	m.globals = make(map[string]Value)
	m.callStack = m.callStack[:0]
	m.functions = make(map[string]int)
	m.output.Reset()
	m.lastPopped = nil
}

func (m *VM) push(v Value) {
	m.stack = append(m.stack, v)
}

// pop removes the top of stack without recording it for result recovery.
// Only the explicit Pop instruction records.
func (m *VM) pop() (Value, error) {
	if len(m.stack) == 0 {
		return Value{}, &RuntimeError{Kind: ErrStackUnderflow}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// popNumbers pops the two operands of a numeric binary operation.
func (m *VM) popNumbers(op string) (float64, float64, error) {
	b, err := m.pop()
	if err != nil {
		return 0, 0, err
	}
	a, err := m.pop()
	if err != nil {
		return 0, 0, err
	}
	if !a.IsNumber() || !b.IsNumber() {
		return 0, 0, typeError(op)
	}
	return a.Number(), b.Number(), nil
}

// Execute runs a program to completion or to the first runtime error and
// returns the accumulated output. See the result recovery rule below.
func (m *VM) Execute(code []bytecode.Instruction) (string, error) {
	m.reset()

	// Pre-pass: register callable entry points. Only definitions carrying
	// the function marker prefix participate.
	for i, in := range code {
		if in.Op == bytecode.OpDefineGlobal && strings.HasPrefix(in.Name, FuncPrefix) {
			m.functions[strings.TrimPrefix(in.Name, FuncPrefix)] = i
		}
	}

	ip := 0
	for ip >= 0 && ip < len(code) {
		in := code[ip]

		switch in.Op {
		case bytecode.OpConstant:
			m.push(FromConstant(in.Const))
			ip++

		case bytecode.OpPop:
			v, err := m.pop()
			if err != nil {
				return "", err
			}
			m.lastPopped = &v
			ip++

		case bytecode.OpAdd:
			b, err := m.pop()
			if err != nil {
				return "", err
			}
			a, err := m.pop()
			if err != nil {
				return "", err
			}
			switch {
			case a.IsNumber() && b.IsNumber():
				m.push(FromNumber(a.Number() + b.Number()))
			case a.IsString() && b.IsString():
				m.push(FromString(a.Str() + b.Str()))
			default:
				return "", typeError("addition")
			}
			ip++

		case bytecode.OpSubtract:
			a, b, err := m.popNumbers("subtraction")
			if err != nil {
				return "", err
			}
			m.push(FromNumber(a - b))
			ip++

		case bytecode.OpMultiply:
			a, b, err := m.popNumbers("multiplication")
			if err != nil {
				return "", err
			}
			m.push(FromNumber(a * b))
			ip++

		case bytecode.OpDivide:
			a, b, err := m.popNumbers("division")
			if err != nil {
				return "", err
			}
			if b == 0 {
				return "", &RuntimeError{Kind: ErrDivisionByZero}
			}
			m.push(FromNumber(a / b))
			ip++

		case bytecode.OpNegate:
			v, err := m.pop()
			if err != nil {
				return "", err
			}
			if !v.IsNumber() {
				return "", typeError("negation")
			}
			m.push(FromNumber(-v.Number()))
			ip++

		case bytecode.OpEqual:
			b, err := m.pop()
			if err != nil {
				return "", err
			}
			a, err := m.pop()
			if err != nil {
				return "", err
			}
			m.push(FromBool(a.Equal(b)))
			ip++

		case bytecode.OpNotEqual:
			b, err := m.pop()
			if err != nil {
				return "", err
			}
			a, err := m.pop()
			if err != nil {
				return "", err
			}
			m.push(FromBool(!a.Equal(b)))
			ip++

		case bytecode.OpLessThan:
			a, b, err := m.popNumbers("less than comparison")
			if err != nil {
				return "", err
			}
			m.push(FromBool(a < b))
			ip++

		case bytecode.OpGreaterThan:
			a, b, err := m.popNumbers("greater than comparison")
			if err != nil {
				return "", err
			}
			m.push(FromBool(a > b))
			ip++

		case bytecode.OpDefineGlobal, bytecode.OpSetGlobal:
			v, err := m.pop()
			if err != nil {
				return "", err
			}
			m.globals[in.Name] = v
			ip++

		case bytecode.OpGetGlobal:
			v, ok := m.globals[in.Name]
			if !ok {
				return "", &RuntimeError{Kind: ErrUndefinedVariable, Detail: in.Name}
			}
			m.push(v)
			ip++

		case bytecode.OpGetLocal:
			if in.Slot < 0 || in.Slot >= len(m.stack) {
				return "", &RuntimeError{Kind: ErrInvalidSlot, Detail: strconv.Itoa(in.Slot)}
			}
			m.push(m.stack[in.Slot])
			ip++

		case bytecode.OpSetLocal:
			v, err := m.pop()
			if err != nil {
				return "", err
			}
			if in.Slot < 0 || in.Slot >= len(m.stack) {
				return "", &RuntimeError{Kind: ErrInvalidSlot, Detail: strconv.Itoa(in.Slot)}
			}
			m.stack[in.Slot] = v
			ip++

		case bytecode.OpJump:
			ip = in.Target

		case bytecode.OpJumpIfFalse:
			cond, err := m.pop()
			if err != nil {
				return "", err
			}
			// Branch only on the boolean false. Every other value,
			// boolean or not, falls through: this is a literal equality
			// check against false, not truthiness coercion.
			if cond.IsBool() && !cond.Bool() {
				ip = in.Target
			} else {
				ip++
			}

		case bytecode.OpCall:
			addr, ok := m.functions[in.Name]
			if !ok {
				return "", &RuntimeError{Kind: ErrUndefinedFunction, Detail: in.Name}
			}
			m.callStack = append(m.callStack, ip+1)
			ip = addr

		case bytecode.OpReturn:
			if n := len(m.callStack); n > 0 {
				ip = m.callStack[n-1]
				m.callStack = m.callStack[:n-1]
			} else {
				// Top-level return acts as a no-op.
				ip++
			}

		case bytecode.OpPrint:
			v, err := m.pop()
			if err != nil {
				return "", err
			}
			m.output.WriteString(v.String())
			m.output.WriteByte('\n')
			ip++

		case bytecode.OpHalt:
			ip = len(code)

		default:
			return "", &RuntimeError{Kind: ErrUnknownOpcode, Detail: in.Op.String()}
		}
	}

	m.recoverResult()
	return m.output.String(), nil
}

// recoverResult promotes the program's implicit result into the output: the
// top of a non-empty stack, or failing that the last explicitly popped
// value (a trailing expression statement always pops its result). A
// separating newline is added only when output exists without one.
func (m *VM) recoverResult() {
	var final *Value
	if len(m.stack) > 0 {
		final = &m.stack[len(m.stack)-1]
	} else if m.lastPopped != nil {
		final = m.lastPopped
	}
	if final == nil {
		return
	}

	out := m.output.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		m.output.WriteByte('\n')
	}
	m.output.WriteString(final.String())
}
