// internal/diag/diag.go
package diag

import "fmt"

// Kind distinguishes where a Diagnostic originated.
type Kind string

const (
	Compile Kind = "CompileError"
	Runtime Kind = "RuntimeError"
)

// Diagnostic is a one-line, best-effort error report. The compiler and
// VM never halt on one of these — they record it and keep going: no
// exceptions, no result types, no halting early on a data error. There
// is deliberately no source line or call stack here; the compiler's
// errors abort only the affected form, not the file.
type Diagnostic struct {
	Kind    Kind
	File    string
	Message string
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.File, d.Message)
}

// Compilef builds a Compile diagnostic.
func Compilef(file, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: Compile, File: file, Message: fmt.Sprintf(format, args...)}
}

// Runtimef builds a Runtime diagnostic.
func Runtimef(file, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: Runtime, File: file, Message: fmt.Sprintf(format, args...)}
}
