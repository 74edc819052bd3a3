// Package engine ties the compiler pipeline and the virtual machine into
// a single compile-and-run entry point. Every call builds fresh pipeline
// state, so the package is safe for concurrent use.
package engine

import (
	"github.com/minic-lang/minic/bytecode"
	"github.com/minic-lang/minic/compiler"
	"github.com/minic-lang/minic/vm"
)

// Result holds everything a successful run produces.
type Result struct {
	// Output is the program's print output plus the recovered final
	// expression value, if any.
	Output string

	// Disassembly lists one formatted line per instruction.
	Disassembly []string
}

// CompileAndRun compiles source through the full pipeline and executes it.
// The first error from any stage aborts the run; the error's concrete type
// (compiler.LexError, compiler.ParseError, compiler.CompileError,
// vm.RuntimeError) identifies the failing stage.
func CompileAndRun(source string) (*Result, error) {
	code, err := Compile(source)
	if err != nil {
		return nil, err
	}

	out, err := vm.New().Execute(code)
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:      out,
		Disassembly: bytecode.Disassemble(code),
	}, nil
}

// Compile runs the front half of the pipeline only: lex, parse, generate.
func Compile(source string) ([]bytecode.Instruction, error) {
	tokens, err := compiler.Tokenize(source)
	if err != nil {
		return nil, err
	}

	program, err := compiler.NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}

	return compiler.NewGenerator().Generate(program)
}
