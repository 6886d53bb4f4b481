package compiler

import (
	"testing"

	"slvm/internal/bytecode"
)

func opsOf(t *testing.T, code []byte) []bytecode.Op {
	t.Helper()
	if len(code)%2 != 0 {
		t.Fatalf("code buffer has odd length %d", len(code))
	}
	var ops []bytecode.Op
	for i := 0; i < len(code); i += 2 {
		ops = append(ops, bytecode.Op(code[i]))
	}
	return ops
}

func TestCompileArithmeticCall(t *testing.T) {
	script, diags := Compile("t.slv", "(println (+ 1 2))")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	ops := opsOf(t, script.Code)
	want := []bytecode.Op{
		bytecode.OpLoadSymbol, // println
		bytecode.OpLoadSymbol, // +
		bytecode.OpLoadNumber, // 1
		bytecode.OpLoadNumber, // 2
		bytecode.OpFuncCall,   // (+ 1 2)
		bytecode.OpFuncCall,   // (println ...)
		bytecode.OpPop,
		bytecode.OpHalt,
	}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("op %d: got %v, want %v (full: %v)", i, ops[i], want[i], ops)
		}
	}
}

func TestCompileDefEmitsDefAndNoExtraValue(t *testing.T) {
	script, diags := Compile("t.slv", "(def x 10)")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	ops := opsOf(t, script.Code)
	want := []bytecode.Op{bytecode.OpLoadNumber, bytecode.OpDef, bytecode.OpPop, bytecode.OpHalt}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v", ops, want)
	}
	if script.Strings[0] != "x" {
		t.Fatalf("expected 'x' interned first, got %v", script.Strings)
	}
}

func TestCompileDefun(t *testing.T) {
	script, diags := Compile("t.slv", "(defun inc [y] (+ y 1))")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(script.Funcs) != 1 {
		t.Fatalf("got %d funcs, want 1", len(script.Funcs))
	}
	fn := script.Funcs[0]
	if len(fn.Params) != 1 {
		t.Fatalf("got %d params, want 1", len(fn.Params))
	}
	ops := opsOf(t, fn.Code)
	want := []bytecode.Op{
		bytecode.OpDef, // pop y into the param slot
		bytecode.OpLoadSymbol,
		bytecode.OpLoadNumber,
		bytecode.OpFuncCall,
		// no Pop: this is the body's trailing statement, so its value
		// becomes the function's return value.
		bytecode.OpReturn,
	}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v", ops, want)
	}
}

func TestCompileDefunMultiStatementBodyPopsOnlyNonTrailing(t *testing.T) {
	script, diags := Compile("t.slv", "(defun f [] (println 1) (println 2))")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	ops := opsOf(t, script.Funcs[0].Code)
	want := []bytecode.Op{
		bytecode.OpLoadSymbol, bytecode.OpLoadNumber, bytecode.OpFuncCall, bytecode.OpPop,
		bytecode.OpLoadSymbol, bytecode.OpLoadNumber, bytecode.OpFuncCall,
		bytecode.OpReturn,
	}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("op %d: got %v, want %v (full: %v)", i, ops[i], want[i], ops)
		}
	}
}

func TestCompileDefonceAndSet(t *testing.T) {
	script, diags := Compile("t.slv", "(defonce k 1) (set k 2)")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	ops := opsOf(t, script.Code)
	want := []bytecode.Op{
		bytecode.OpLoadNumber, bytecode.OpDefonce, bytecode.OpPop,
		bytecode.OpLoadNumber, bytecode.OpSet, bytecode.OpPop,
		bytecode.OpHalt,
	}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v", ops, want)
	}
}

func TestCompileReaderMacro(t *testing.T) {
	script, diags := Compile("t.slv", "(when true #(+ 1 2))")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(script.Funcs) != 1 {
		t.Fatalf("got %d funcs, want 1", len(script.Funcs))
	}
	anon := script.Funcs[0]
	if script.Strings[anon.NameIndex] != "#" {
		t.Fatalf("anonymous function name index does not resolve to '#'")
	}
	ops := opsOf(t, anon.Code)
	want := []bytecode.Op{bytecode.OpLoadSymbol, bytecode.OpLoadNumber, bytecode.OpLoadNumber, bytecode.OpFuncCall, bytecode.OpReturn}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v (no trailing Pop in expression context)", ops, want)
	}
}

func TestInternDeduplicatesAcrossForms(t *testing.T) {
	script, _ := Compile("t.slv", `(println "hi" "hi")`)
	count := 0
	for _, s := range script.Strings {
		if s == "hi" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected 'hi' interned exactly once, appears %d times in %v", count, script.Strings)
	}
}

func TestMissingSymbolAfterDefRecordsDiagnosticAndContinues(t *testing.T) {
	script, diags := Compile("t.slv", "(def 1 2) (println 5)")
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for `(def 1 2)`")
	}
	// Compilation must still proceed best-effort to the next top-level form.
	foundLoadSymbolPrintln := false
	for _, s := range script.Strings {
		if s == "println" {
			foundLoadSymbolPrintln = true
		}
	}
	if !foundLoadSymbolPrintln {
		t.Fatalf("expected compilation to continue past the error, got strings %v", script.Strings)
	}
}

func TestTooManyParamsIsRejected(t *testing.T) {
	_, diags := Compile("t.slv", "(defun f [a b c d e f g h i] 1)")
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for more than 8 parameters")
	}
}
