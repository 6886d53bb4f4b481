// cmd/slvm/main.go
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"slvm/internal/compiler"
	"slvm/internal/disasm"
	"slvm/internal/vm"
)

// main implements the CLI contract: one positional source-file
// argument, compiled and run on a fresh VM. Compile and runtime
// diagnostics are printed to stderr but never abort the pipeline
// early — that's the diag package's whole point.
func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "no input files")
		os.Exit(1)
	}
	filename := args[0]

	source, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("could not read file: %v", err)
	}

	runFile(filename, string(source), os.Stdout, os.Stderr)
}

// runFile compiles and executes source, writing the disassembly to out
// and any diagnostics to errOut. Split out of main so it can run
// end-to-end under go test without os.Args/os.Exit in the way.
func runFile(filename, source string, out, errOut io.Writer) {
	script, diags := compiler.Compile(filename, source)
	for _, d := range diags {
		fmt.Fprintln(errOut, d)
	}

	disasm.Script(out, script)

	m := vm.New()
	m.Execute(script)
	for _, d := range m.Diagnostics {
		fmt.Fprintln(errOut, d)
	}
}
