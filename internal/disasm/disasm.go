// internal/disasm/disasm.go
package disasm

import (
	"fmt"
	"io"

	"slvm/internal/bytecode"
)

// Script renders a human-readable disassembly of every code buffer in
// s: the top-level code, then each function definition. The exact
// textual form isn't load-bearing anywhere — this exists so the CLI
// has something concrete to print before running.
func Script(w io.Writer, s *bytecode.Script) {
	fmt.Fprintf(w, "; %s\n", s.Filename)
	fmt.Fprintf(w, "; %d strings, %d numbers, %d funcs\n", len(s.Strings), len(s.Numbers), len(s.Funcs))
	fmt.Fprintln(w, "top-level:")
	Code(w, s, s.Code)
	for i, fn := range s.Funcs {
		name := "?"
		if fn.NameIndex >= 0 && fn.NameIndex < len(s.Strings) {
			name = s.Strings[fn.NameIndex]
		}
		fmt.Fprintf(w, "func[%d] %s (%d params):\n", i, name, len(fn.Params))
		Code(w, s, fn.Code)
	}
}

// Code walks one two-byte-instruction buffer, printing offset,
// mnemonic, and a best-effort decode of the operand against s's
// intern tables.
func Code(w io.Writer, s *bytecode.Script, code []byte) {
	for off := 0; off+1 < len(code); off += 2 {
		op := bytecode.Op(code[off])
		arg := code[off+1]
		fmt.Fprintf(w, "  %04d  %-10s %s\n", off, op, decodeArg(s, op, arg))
	}
}

func decodeArg(s *bytecode.Script, op bytecode.Op, arg byte) string {
	switch op {
	case bytecode.OpDef, bytecode.OpDefonce, bytecode.OpSet, bytecode.OpLoadSymbol, bytecode.OpLoadString:
		if int(arg) < len(s.Strings) {
			return fmt.Sprintf("%d ; %q", arg, s.Strings[arg])
		}
	case bytecode.OpLoadNumber:
		if int(arg) < len(s.Numbers) {
			return fmt.Sprintf("%d ; %g", arg, s.Numbers[arg])
		}
	case bytecode.OpDefun, bytecode.OpLoadFunc:
		if int(arg) < len(s.Funcs) {
			return fmt.Sprintf("%d", arg)
		}
	case bytecode.OpLoadBool:
		if arg != 0 {
			return "1 ; true"
		}
		return "0 ; false"
	case bytecode.OpFuncCall:
		return fmt.Sprintf("%d ; argc", arg)
	}
	return fmt.Sprintf("%d", arg)
}
