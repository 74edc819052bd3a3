// Minic CLI - the main entry point for compiling and running minic programs
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/minic-lang/minic/bytecode"
	"github.com/minic-lang/minic/engine"
	"github.com/minic-lang/minic/server"
	"github.com/minic-lang/minic/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	disasm := flag.Bool("d", false, "Print the disassembly after running")
	output := flag.String("o", "", "Compile to a bytecode artifact instead of running")
	execArtifact := flag.Bool("exec", false, "Treat the input file as a bytecode artifact and execute it")
	serveMode := flag.Bool("serve", false, "Start the playground HTTP server")
	serveAddr := flag.String("addr", "", "Server listen address (used with --serve, overrides config)")
	configDir := flag.String("config", "", "Directory containing minic.toml (default: walk up from cwd)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: minic [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles and runs a minic source file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  minic prog.mc              # Compile and run\n")
		fmt.Fprintf(os.Stderr, "  minic -d prog.mc           # Run, then print disassembly\n")
		fmt.Fprintf(os.Stderr, "  minic -o prog.mcb prog.mc  # Compile to a bytecode artifact\n")
		fmt.Fprintf(os.Stderr, "  minic -exec prog.mcb       # Execute a bytecode artifact\n")
		fmt.Fprintf(os.Stderr, "  minic --serve              # Start the playground server\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	if *serveMode {
		if err := serve(*configDir, *serveAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *execArtifact {
		if err := runArtifact(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *output != "" {
		if err := buildArtifact(string(data), *output, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	res, err := engine.CompileAndRun(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(res.Output)
	if res.Output != "" && res.Output[len(res.Output)-1] != '\n' {
		fmt.Println()
	}

	if *disasm {
		fmt.Println("--- bytecode ---")
		for _, line := range res.Disassembly {
			fmt.Println(line)
		}
	}
}

// buildArtifact compiles source and writes the encoded program to outPath.
func buildArtifact(source, outPath string, verbose bool) error {
	code, err := engine.Compile(source)
	if err != nil {
		return err
	}

	data, err := bytecode.MarshalProgram(code)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}

	if verbose {
		fmt.Printf("Wrote %s (%d instructions, %d bytes)\n", outPath, len(code), len(data))
	}
	return nil
}

// runArtifact decodes and executes a bytecode artifact.
func runArtifact(data []byte) error {
	code, err := bytecode.UnmarshalProgram(data)
	if err != nil {
		return err
	}

	out, err := vm.New().Execute(code)
	if err != nil {
		return err
	}

	fmt.Print(out)
	if out != "" && out[len(out)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

// serve loads the configuration and starts the playground server.
func serve(configDir, addrOverride string) error {
	var cfg *server.Config
	var err error

	if configDir != "" {
		cfg, err = server.Load(configDir)
	} else {
		cfg, err = server.FindAndLoad(".")
	}
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = server.DefaultConfig()
	}
	if addrOverride != "" {
		cfg.Server.Addr = addrOverride
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	fmt.Printf("Minic playground listening on %s\n", cfg.Server.Addr)
	return srv.ListenAndServe()
}
