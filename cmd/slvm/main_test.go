package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// TestRunFilePrintsDisassemblyThenRunsTheScript exercises the CLI's
// whole pipeline — compile, disassemble, execute — end to end through
// the same entry point main() uses. The disassembly goes to out; the
// script's own println output goes to os.Stdout, which is captured here.
func TestRunFilePrintsDisassemblyThenRunsTheScript(t *testing.T) {
	var out, errOut strings.Builder

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	runFile("t.slv", "(println (+ 1 2))", &out, &errOut)
	os.Stdout = orig
	w.Close()
	var stdout bytes.Buffer
	io.Copy(&stdout, r)

	if errOut.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %q", errOut.String())
	}
	if !strings.Contains(out.String(), "FuncCall") {
		t.Fatalf("expected disassembly output, got:\n%s", out.String())
	}
	if !strings.Contains(stdout.String(), "3.0000") {
		t.Fatalf("expected the script's println output on stdout, got:\n%s", stdout.String())
	}
}

func TestRunFileReportsCompileDiagnosticsToErrOut(t *testing.T) {
	var out, errOut strings.Builder
	runFile("t.slv", "(def 1 2)", &out, &errOut)

	if !strings.Contains(errOut.String(), "CompileError") {
		t.Fatalf("expected a CompileError diagnostic, got %q", errOut.String())
	}
}
