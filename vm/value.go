// Package vm implements the stack-based virtual machine that executes
// compiled minic programs.
package vm

import (
	"strconv"

	"github.com/minic-lang/minic/bytecode"
)

// ---------------------------------------------------------------------------
// Runtime values
// ---------------------------------------------------------------------------

// Kind discriminates runtime values.
type Kind byte

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBoolean
)

var kindNames = map[Kind]string{
	KindNull:    "null",
	KindNumber:  "number",
	KindString:  "string",
	KindBoolean: "boolean",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a runtime value. There is a single numeric representation: the
// compiler's int/float distinction collapses into a float64 at the
// compiler/VM handoff. Values are small and copied, never shared.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Null is the null value.
var Null = Value{kind: KindNull}

// FromNumber creates a number value.
func FromNumber(n float64) Value { return Value{kind: KindNumber, num: n} }

// FromString creates a string value.
func FromString(s string) Value { return Value{kind: KindString, str: s} }

// FromBool creates a boolean value.
func FromBool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// FromConstant converts a compile-time constant into its runtime value.
// This is where Int and Float collapse into Number.
func FromConstant(c bytecode.Constant) Value {
	switch c.Kind {
	case bytecode.ConstInt:
		return FromNumber(float64(c.Int))
	case bytecode.ConstFloat:
		return FromNumber(c.Float)
	case bytecode.ConstString:
		return FromString(c.Str)
	case bytecode.ConstBool:
		return FromBool(c.Bool)
	default:
		return Null
	}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether the value is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsBool reports whether the value is a boolean.
func (v Value) IsBool() bool { return v.kind == KindBoolean }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Number returns the numeric payload (zero for non-numbers).
func (v Value) Number() float64 { return v.num }

// Str returns the string payload (empty for non-strings).
func (v Value) Str() string { return v.str }

// Bool returns the boolean payload (false for non-booleans).
func (v Value) Bool() bool { return v.b }

// Equal compares two values: numbers, strings, and booleans compare by
// value within their own kind; any other pairing is unequal, not an error.
// Two nulls are unequal too.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindBoolean:
		return v.b == other.b
	}
	return false
}

// String returns the display form used by Print and result recovery.
// Numbers render in shortest round-trip form: 3, not 3.0.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}
