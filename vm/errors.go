package vm

import "fmt"

// RuntimeErrorKind discriminates runtime errors.
type RuntimeErrorKind int

const (
	ErrStackUnderflow RuntimeErrorKind = iota
	ErrTypeError
	ErrDivisionByZero
	ErrUndefinedVariable
	ErrUndefinedFunction
	ErrInvalidSlot
	ErrUnknownOpcode
)

// RuntimeError is an execution error. The VM fails fast: the first runtime
// error aborts the program with no partial result.
type RuntimeError struct {
	Kind   RuntimeErrorKind
	Detail string // operation name, variable name, or function name
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case ErrStackUnderflow:
		return "runtime error: stack underflow"
	case ErrTypeError:
		return fmt.Sprintf("runtime error: type error in %s", e.Detail)
	case ErrDivisionByZero:
		return "runtime error: division by zero"
	case ErrUndefinedVariable:
		return fmt.Sprintf("runtime error: undefined variable: %s", e.Detail)
	case ErrUndefinedFunction:
		return fmt.Sprintf("runtime error: undefined function: %s", e.Detail)
	case ErrInvalidSlot:
		return fmt.Sprintf("runtime error: invalid local slot %s", e.Detail)
	case ErrUnknownOpcode:
		return fmt.Sprintf("runtime error: unknown opcode %s", e.Detail)
	default:
		return fmt.Sprintf("runtime error: %s", e.Detail)
	}
}

func typeError(op string) *RuntimeError {
	return &RuntimeError{Kind: ErrTypeError, Detail: op}
}
