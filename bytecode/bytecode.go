// Package bytecode defines the instruction set shared by the generator and
// the virtual machine, plus its disassembly and wire encoding.
package bytecode

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a single instruction.
type Opcode byte

// Stack operations
const (
	OpConstant Opcode = iota // push a constant
	OpPop                    // discard (and remember) top of stack
)

// Variable operations
const (
	OpGetLocal Opcode = iota + 0x10 // push local slot
	OpSetLocal                      // store into local slot
	OpGetGlobal                     // push global by name
	OpSetGlobal                     // store into global by name
	OpDefineGlobal                  // define global by name
)

// Arithmetic
const (
	OpAdd Opcode = iota + 0x20
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
)

// Comparison
const (
	OpEqual Opcode = iota + 0x30
	OpNotEqual
	OpLessThan
	OpGreaterThan
)

// Control flow
const (
	OpJump        Opcode = iota + 0x40 // unconditional jump (absolute address)
	OpJumpIfFalse                      // pop, jump if exactly false
	OpCall                             // call named entry point
	OpReturn                           // pop call stack, or fall through at top level
)

// I/O and termination
const (
	OpPrint Opcode = iota + 0x50 // pop and append display form to output
	OpHalt                       // stop execution early
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string // human-readable name
	StackEffect int    // net effect on the operand stack (99 = variable)
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpConstant:     {"CONSTANT", 1},
	OpPop:          {"POP", -1},
	OpGetLocal:     {"GET_LOCAL", 1},
	OpSetLocal:     {"SET_LOCAL", -1},
	OpGetGlobal:    {"GET_GLOBAL", 1},
	OpSetGlobal:    {"SET_GLOBAL", -1},
	OpDefineGlobal: {"DEFINE_GLOBAL", -1},
	OpAdd:          {"ADD", -1},
	OpSubtract:     {"SUBTRACT", -1},
	OpMultiply:     {"MULTIPLY", -1},
	OpDivide:       {"DIVIDE", -1},
	OpNegate:       {"NEGATE", 0},
	OpEqual:        {"EQUAL", -1},
	OpNotEqual:     {"NOT_EQUAL", -1},
	OpLessThan:     {"LESS_THAN", -1},
	OpGreaterThan:  {"GREATER_THAN", -1},
	OpJump:         {"JUMP", 0},
	OpJumpIfFalse:  {"JUMP_IF_FALSE", -1},
	OpCall:         {"CALL", 99},
	OpReturn:       {"RETURN", 0},
	OpPrint:        {"PRINT", -1},
	OpHalt:         {"HALT", 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Compile-time constants
// ---------------------------------------------------------------------------

// ConstKind discriminates the payload of a Constant.
type ConstKind byte

const (
	ConstNull ConstKind = iota
	ConstInt
	ConstFloat
	ConstString
	ConstBool
)

// Constant is a compile-time literal carried by a CONSTANT instruction.
// It keeps the int/float distinction the source had; the collapse into a
// single runtime number happens at the compiler/VM handoff.
type Constant struct {
	Kind  ConstKind `cbor:"k"`
	Int   int64     `cbor:"i,omitempty"`
	Float float64   `cbor:"f,omitempty"`
	Str   string    `cbor:"s,omitempty"`
	Bool  bool      `cbor:"b,omitempty"`
}

// NullConst returns the null constant.
func NullConst() Constant { return Constant{Kind: ConstNull} }

// IntConst returns an integer constant.
func IntConst(v int64) Constant { return Constant{Kind: ConstInt, Int: v} }

// FloatConst returns a float constant.
func FloatConst(v float64) Constant { return Constant{Kind: ConstFloat, Float: v} }

// StringConst returns a string constant.
func StringConst(v string) Constant { return Constant{Kind: ConstString, Str: v} }

// BoolConst returns a boolean constant.
func BoolConst(v bool) Constant { return Constant{Kind: ConstBool, Bool: v} }

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'f', -1, 64)
	case ConstString:
		return strconv.Quote(c.Str)
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	default:
		return "null"
	}
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// Instruction is one element of a compiled program. Which operand fields
// are meaningful depends on Op; unused fields stay zero.
//
// Target is an absolute index into the instruction slice, never a relative
// offset. Unpatched forward jumps carry PendingTarget until the generator
// resolves them; a PendingTarget surviving generation is a generator bug.
type Instruction struct {
	Op     Opcode   `cbor:"op"`
	Const  Constant `cbor:"c,omitempty"`  // OpConstant
	Name   string   `cbor:"n,omitempty"`  // global ops; callee name for OpCall
	Slot   int      `cbor:"sl,omitempty"` // local ops
	Target int      `cbor:"t,omitempty"`  // jump ops (absolute)
	ArgC   int      `cbor:"a,omitempty"`  // OpCall
}

// PendingTarget marks a forward jump that has not been patched yet.
const PendingTarget = -1

func (in Instruction) String() string {
	name := in.Op.Name()
	switch in.Op {
	case OpConstant:
		return fmt.Sprintf("%s %s", name, in.Const)
	case OpGetLocal, OpSetLocal:
		return fmt.Sprintf("%s %d", name, in.Slot)
	case OpGetGlobal, OpSetGlobal, OpDefineGlobal:
		return fmt.Sprintf("%s %s", name, in.Name)
	case OpJump, OpJumpIfFalse:
		if in.Target == PendingTarget {
			return fmt.Sprintf("%s <unpatched>", name)
		}
		return fmt.Sprintf("%s -> %04d", name, in.Target)
	case OpCall:
		return fmt.Sprintf("%s %s argc=%d", name, in.Name, in.ArgC)
	default:
		return name
	}
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction renders one instruction at the given address.
func DisassembleInstruction(addr int, in Instruction) string {
	return fmt.Sprintf("%04d  %s", addr, in)
}

// Disassemble returns the one-line-per-instruction rendering of a program.
func Disassemble(code []Instruction) []string {
	lines := make([]string, len(code))
	for i, in := range code {
		lines[i] = DisassembleInstruction(i, in)
	}
	return lines
}
