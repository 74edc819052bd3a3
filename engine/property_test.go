package engine

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: two fresh pipelines over the same source produce identical
// output and identical disassembly.
func TestPropertyIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("identical runs for identical source", prop.ForAll(
		func(a int64, b int64, loops uint8) bool {
			source := fmt.Sprintf(
				"int x = %d; int i = 0; while (i < %d) { x = x + %d; i = i + 1; } x;",
				a, loops%8, b,
			)

			first, err1 := CompileAndRun(source)
			second, err2 := CompileAndRun(source)

			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil && err1.Error() == err2.Error()
			}
			return first.Output == second.Output &&
				strings.Join(first.Disassembly, "\n") == strings.Join(second.Disassembly, "\n")
		},
		gen.Int64Range(-1000, 1000),
		gen.Int64Range(-1000, 1000),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// Property: an integer literal round-trips through lexing, compilation,
// and execution back to its decimal rendering.
func TestPropertyIntLiteralRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("literal value survives the pipeline", prop.ForAll(
		func(n int64) bool {
			// the grammar has no negative literals; negation is unary minus
			if n < 0 {
				n = -n
			}
			res, err := CompileAndRun(strconv.FormatInt(n, 10) + ";")
			if err != nil {
				return false
			}
			return res.Output == strconv.FormatInt(n, 10)
		},
		gen.Int64Range(0, 1<<53),
	))

	properties.TestingRun(t)
}

// Property: addition of two non-negative integers matches Go's arithmetic.
func TestPropertyAdditionMatchesHost(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("a + b computes the host sum", prop.ForAll(
		func(a int64, b int64) bool {
			res, err := CompileAndRun(fmt.Sprintf("%d + %d;", a, b))
			if err != nil {
				return false
			}
			return res.Output == strconv.FormatInt(a+b, 10)
		},
		gen.Int64Range(0, 1<<26),
		gen.Int64Range(0, 1<<26),
	))

	properties.Property("comparison agrees with the host", prop.ForAll(
		func(a int64, b int64) bool {
			res, err := CompileAndRun(fmt.Sprintf("%d < %d;", a, b))
			if err != nil {
				return false
			}
			return res.Output == strconv.FormatBool(a < b)
		},
		gen.Int64Range(0, 1<<26),
		gen.Int64Range(0, 1<<26),
	))

	properties.TestingRun(t)
}

// Property: string literals concatenate byte-for-byte, escapes untouched.
func TestPropertyStringConcat(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	safeString := gen.RegexMatch("[a-zA-Z0-9 ]{0,20}")

	properties.Property("concat preserves both operands", prop.ForAll(
		func(a string, b string) bool {
			res, err := CompileAndRun(fmt.Sprintf("%q + %q;", a, b))
			if err != nil {
				return false
			}
			return res.Output == a+b
		},
		safeString,
		safeString,
	))

	properties.TestingRun(t)
}
