package vm

import (
	"errors"
	"testing"

	"github.com/minic-lang/minic/bytecode"
)

func run(t *testing.T, code []bytecode.Instruction) string {
	t.Helper()
	out, err := New().Execute(code)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return out
}

func runtimeKind(t *testing.T, code []bytecode.Instruction) RuntimeErrorKind {
	t.Helper()
	_, err := New().Execute(code)
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("Execute() error = %v, want RuntimeError", err)
	}
	return rtErr.Kind
}

func constant(c bytecode.Constant) bytecode.Instruction {
	return bytecode.Instruction{Op: bytecode.OpConstant, Const: c}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   bytecode.Opcode
		a, b float64
		want string
	}{
		{"add", bytecode.OpAdd, 1, 2, "3"},
		{"subtract", bytecode.OpSubtract, 10, 4, "6"},
		{"multiply", bytecode.OpMultiply, 3, 4, "12"},
		{"divide", bytecode.OpDivide, 10, 4, "2.5"},
	}

	for _, tc := range tests {
		code := []bytecode.Instruction{
			constant(bytecode.FloatConst(tc.a)),
			constant(bytecode.FloatConst(tc.b)),
			{Op: tc.op},
		}
		if got := run(t, code); got != tc.want {
			t.Errorf("%s(%g, %g) = %q, want %q", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestOperandOrder(t *testing.T) {
	// left operand is pushed first: 10 - 4, not 4 - 10
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(10)),
		constant(bytecode.IntConst(4)),
		{Op: bytecode.OpSubtract},
	}
	if got := run(t, code); got != "6" {
		t.Errorf("10 - 4 = %q, want 6", got)
	}
}

func TestStringConcatenation(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.StringConst("foo")),
		constant(bytecode.StringConst("bar")),
		{Op: bytecode.OpAdd},
	}
	if got := run(t, code); got != "foobar" {
		t.Errorf("concat = %q, want foobar", got)
	}
}

func TestAddTypeMismatch(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		constant(bytecode.StringConst("x")),
		{Op: bytecode.OpAdd},
	}
	if kind := runtimeKind(t, code); kind != ErrTypeError {
		t.Errorf("kind = %v, want ErrTypeError", kind)
	}
}

func TestDivisionByZero(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		constant(bytecode.IntConst(0)),
		{Op: bytecode.OpDivide},
	}
	if kind := runtimeKind(t, code); kind != ErrDivisionByZero {
		t.Errorf("kind = %v, want ErrDivisionByZero", kind)
	}
}

func TestNegate(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(5)),
		{Op: bytecode.OpNegate},
	}
	if got := run(t, code); got != "-5" {
		t.Errorf("negate = %q, want -5", got)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		op   bytecode.Opcode
		a, b float64
		want string
	}{
		{bytecode.OpLessThan, 1, 2, "true"},
		{bytecode.OpLessThan, 2, 1, "false"},
		{bytecode.OpGreaterThan, 2, 1, "true"},
		{bytecode.OpEqual, 3, 3, "true"},
		{bytecode.OpNotEqual, 3, 3, "false"},
	}

	for _, tc := range tests {
		code := []bytecode.Instruction{
			constant(bytecode.FloatConst(tc.a)),
			constant(bytecode.FloatConst(tc.b)),
			{Op: tc.op},
		}
		if got := run(t, code); got != tc.want {
			t.Errorf("%s(%g, %g) = %q, want %q", tc.op, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestEqualityAcrossKindsIsFalseNotError(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		constant(bytecode.StringConst("1")),
		{Op: bytecode.OpEqual},
	}
	if got := run(t, code); got != "false" {
		t.Errorf("1 == \"1\" = %q, want false", got)
	}

	code[2] = bytecode.Instruction{Op: bytecode.OpNotEqual}
	if got := run(t, code); got != "true" {
		t.Errorf("1 != \"1\" = %q, want true", got)
	}
}

func TestNullEqualityIsFalse(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.NullConst()),
		constant(bytecode.NullConst()),
		{Op: bytecode.OpEqual},
	}
	if got := run(t, code); got != "false" {
		t.Errorf("null == null = %q, want false", got)
	}
}

func TestGlobals(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(7)),
		{Op: bytecode.OpDefineGlobal, Name: "x"},
		{Op: bytecode.OpGetGlobal, Name: "x"},
	}
	if got := run(t, code); got != "7" {
		t.Errorf("global read = %q, want 7", got)
	}
}

func TestUndefinedGlobal(t *testing.T) {
	code := []bytecode.Instruction{
		{Op: bytecode.OpGetGlobal, Name: "nope"},
	}
	if kind := runtimeKind(t, code); kind != ErrUndefinedVariable {
		t.Errorf("kind = %v, want ErrUndefinedVariable", kind)
	}
}

func TestLocalSlots(t *testing.T) {
	// two locals at slots 0 and 1, read back and added
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		constant(bytecode.IntConst(2)),
		{Op: bytecode.OpGetLocal, Slot: 0},
		{Op: bytecode.OpGetLocal, Slot: 1},
		{Op: bytecode.OpAdd},
	}
	if got := run(t, code); got != "3" {
		t.Errorf("local add = %q, want 3", got)
	}
}

func TestSetLocalWritesInPlace(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		constant(bytecode.IntConst(9)),
		{Op: bytecode.OpSetLocal, Slot: 0},
		{Op: bytecode.OpGetLocal, Slot: 0},
	}
	if got := run(t, code); got != "9" {
		t.Errorf("after SetLocal, slot 0 = %q, want 9", got)
	}
}

func TestInvalidSlot(t *testing.T) {
	code := []bytecode.Instruction{
		{Op: bytecode.OpGetLocal, Slot: 3},
	}
	if kind := runtimeKind(t, code); kind != ErrInvalidSlot {
		t.Errorf("kind = %v, want ErrInvalidSlot", kind)
	}
}

func TestStackUnderflow(t *testing.T) {
	code := []bytecode.Instruction{
		{Op: bytecode.OpAdd},
	}
	if kind := runtimeKind(t, code); kind != ErrStackUnderflow {
		t.Errorf("kind = %v, want ErrStackUnderflow", kind)
	}
}

func TestJump(t *testing.T) {
	// jump over a constant push
	code := []bytecode.Instruction{
		{Op: bytecode.OpJump, Target: 2},
		constant(bytecode.IntConst(1)),
		constant(bytecode.IntConst(2)),
	}
	if got := run(t, code); got != "2" {
		t.Errorf("result = %q, want 2", got)
	}
}

func TestJumpIfFalseBranchesOnFalseOnly(t *testing.T) {
	build := func(cond bytecode.Constant) []bytecode.Instruction {
		return []bytecode.Instruction{
			constant(cond),
			{Op: bytecode.OpJumpIfFalse, Target: 3},
			constant(bytecode.StringConst("through")),
			// target: without the fall-through push, stack is empty
		}
	}

	// only the boolean false branches
	if got := run(t, build(bytecode.BoolConst(false))); got != "" {
		t.Errorf("false: output = %q, want empty", got)
	}

	// everything else falls through, including non-booleans
	for _, cond := range []bytecode.Constant{
		bytecode.BoolConst(true),
		bytecode.IntConst(0),
		bytecode.StringConst(""),
		bytecode.NullConst(),
	} {
		if got := run(t, build(cond)); got != "through" {
			t.Errorf("cond %v: output = %q, want through", cond, got)
		}
	}
}

func TestCallAndReturn(t *testing.T) {
	// The callable table registers the DefineGlobal instruction itself as
	// the entry point, so a call re-executes it: the define consumes the
	// top of stack (here, the argument the caller pushed).
	//
	// 0 JUMP 5            skip over the function at load time
	// 1 CONST null        skipped; kept for generated-code shape
	// 2 DEFINE_GLOBAL fn_answer   entry point: consumes the argument
	// 3 CONST 42          body
	// 4 RETURN
	// 5 CONST 7           argument
	// 6 CALL answer
	code := []bytecode.Instruction{
		{Op: bytecode.OpJump, Target: 5},
		constant(bytecode.NullConst()),
		{Op: bytecode.OpDefineGlobal, Name: "fn_answer"},
		constant(bytecode.IntConst(42)),
		{Op: bytecode.OpReturn},
		constant(bytecode.IntConst(7)),
		{Op: bytecode.OpCall, Name: "answer", ArgC: 1},
	}
	if got := run(t, code); got != "42" {
		t.Errorf("call result = %q, want 42", got)
	}
}

func TestUndefinedFunction(t *testing.T) {
	code := []bytecode.Instruction{
		{Op: bytecode.OpCall, Name: "missing", ArgC: 0},
	}
	if kind := runtimeKind(t, code); kind != ErrUndefinedFunction {
		t.Errorf("kind = %v, want ErrUndefinedFunction", kind)
	}
}

func TestTopLevelReturnIsNoOp(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		{Op: bytecode.OpReturn},
		constant(bytecode.IntConst(2)),
	}
	if got := run(t, code); got != "2" {
		t.Errorf("result = %q, want 2", got)
	}
}

func TestPrint(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.StringConst("hello")),
		{Op: bytecode.OpPrint},
		constant(bytecode.IntConst(3)),
		{Op: bytecode.OpPrint},
	}
	if got := run(t, code); got != "hello\n3\n" {
		t.Errorf("output = %q, want %q", got, "hello\n3\n")
	}
}

func TestHaltStopsExecution(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		{Op: bytecode.OpHalt},
		constant(bytecode.IntConst(2)),
	}
	if got := run(t, code); got != "1" {
		t.Errorf("result = %q, want 1", got)
	}
}

func TestResultRecoveryFromStackTop(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		constant(bytecode.IntConst(2)),
	}
	if got := run(t, code); got != "2" {
		t.Errorf("result = %q, want top of stack (2)", got)
	}
}

func TestResultRecoveryFromLastPopped(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(5)),
		{Op: bytecode.OpPop},
	}
	if got := run(t, code); got != "5" {
		t.Errorf("result = %q, want last popped (5)", got)
	}
}

func TestResultRecoveryStackTopWinsOverLastPopped(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		{Op: bytecode.OpPop},
		constant(bytecode.IntConst(2)),
	}
	if got := run(t, code); got != "2" {
		t.Errorf("result = %q, want stack top (2)", got)
	}
}

func TestResultRecoveryAppendsAfterPrintOutput(t *testing.T) {
	code := []bytecode.Instruction{
		constant(bytecode.StringConst("printed")),
		{Op: bytecode.OpPrint},
		constant(bytecode.IntConst(3)),
		{Op: bytecode.OpPop},
	}
	if got := run(t, code); got != "printed\n3" {
		t.Errorf("output = %q, want %q", got, "printed\n3")
	}
}

func TestInternalPopsDoNotRecordLastPopped(t *testing.T) {
	// DefineGlobal pops internally; no explicit Pop runs, so there is
	// nothing to recover
	code := []bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		{Op: bytecode.OpDefineGlobal, Name: "x"},
	}
	if got := run(t, code); got != "" {
		t.Errorf("output = %q, want empty", got)
	}
}

func TestEmptyProgram(t *testing.T) {
	if got := run(t, nil); got != "" {
		t.Errorf("output = %q, want empty", got)
	}
}

func TestExecuteResetsState(t *testing.T) {
	m := New()

	_, err := m.Execute([]bytecode.Instruction{
		constant(bytecode.IntConst(1)),
		{Op: bytecode.OpDefineGlobal, Name: "x"},
	})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	// x must be gone in the second run
	_, err = m.Execute([]bytecode.Instruction{
		{Op: bytecode.OpGetGlobal, Name: "x"},
	})
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Kind != ErrUndefinedVariable {
		t.Errorf("second Execute() error = %v, want undefined variable", err)
	}
}

func TestNumberDisplay(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{3.5, "3.5"},
		{-0.25, "-0.25"},
		{100, "100"},
	}

	for _, tc := range tests {
		if got := FromNumber(tc.in).String(); got != tc.want {
			t.Errorf("display(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	if !FromString("a").Equal(FromString("a")) {
		t.Error("equal strings compare unequal")
	}
	if FromNumber(1).Equal(FromBool(true)) {
		t.Error("number equals boolean")
	}
	if Null.Equal(Null) {
		t.Error("null == null, want unequal")
	}
}
