// internal/vm/natives.go
package vm

import "os"

// RegisterStdlib installs the fixed native-function table: arithmetic,
// println, read, the if/when control-flow forms, and the
// coroutine/call/yield/done? protocol.
func RegisterStdlib(m *VM) {
	reg := func(name string, fn func(*VM, []Value)) {
		m.Globals[name] = NativeVal(&NativeFunc{Name: name, Fn: fn})
	}
	reg("+", nativeArith("+", func(a, b float64) float64 { return a + b }))
	reg("-", nativeArith("-", func(a, b float64) float64 { return a - b }))
	reg("*", nativeArith("*", func(a, b float64) float64 { return a * b }))
	reg("/", nativeArith("/", func(a, b float64) float64 { return a / b }))
	reg("println", nativePrintln)
	reg("read", nativeRead)
	reg("if", nativeIf)
	reg("when", nativeWhen)
	reg("coroutine", nativeCoroutine)
	reg("call", nativeCall)
	reg("yield", nativeYield)
	reg("done?", nativeDone)
}

// nativeArith builds +, -, *, /: arity 2, both operands must be
// Number; on mismatch it records a diagnostic and pushes nothing,
// leaving the caller's stack underflowed per the usual
// runtime-type-error contract.
func nativeArith(name string, op func(a, b float64) float64) func(*VM, []Value) {
	return func(m *VM, args []Value) {
		if len(args) != 2 {
			m.diagnosticf("%s expects 2 arguments, got %d", name, len(args))
			return
		}
		a, b := args[0], args[1]
		if a.Kind != KindNumber || b.Kind != KindNumber {
			m.diagnosticf("%s requires Number operands, got %s and %s", name, a.Kind, b.Kind)
			return
		}
		m.push(NumberVal(op(a.Num, b.Num)))
	}
}

// nativePrintln prints its arguments space-separated with a trailing
// newline and pushes Nil.
func nativePrintln(m *VM, args []Value) {
	out := make([]byte, 0, 32)
	for i, a := range args {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, Display(a)...)
	}
	out = append(out, '\n')
	os.Stdout.Write(out)
	m.push(Nil())
}

// nativeRead reads a file named by its single String argument and
// pushes the contents as a fresh String. The argument's type is
// deliberately not checked before args[0].Str is dereferenced; a
// non-String argument crashes rather than failing gracefully.
func nativeRead(m *VM, args []Value) {
	path := string(args[0].Str.Bytes)
	data, err := os.ReadFile(path)
	if err != nil {
		m.diagnosticf("read: %v", err)
		m.push(Nil())
		return
	}
	m.push(StringVal(m.Strings.New(string(data))))
}

// nativeIf evaluates one of two zero-argument thunks depending on
// whether cond is truthy; the chosen thunk's result becomes if's
// result.
func nativeIf(m *VM, args []Value) {
	if len(args) != 3 {
		m.diagnosticf("if expects 3 arguments, got %d", len(args))
		m.push(Nil())
		return
	}
	if Truthy(args[0]) {
		m.invokeThunk(args[1])
	} else {
		m.invokeThunk(args[2])
	}
}

// nativeWhen is if's one-armed sibling: the else case just pushes Nil
// without invoking anything.
func nativeWhen(m *VM, args []Value) {
	if len(args) != 2 {
		m.diagnosticf("when expects 2 arguments, got %d", len(args))
		m.push(Nil())
		return
	}
	if Truthy(args[0]) {
		m.invokeThunk(args[1])
	} else {
		m.push(Nil())
	}
}

// nativeCoroutine wraps a Func value in a fresh, not-yet-started
// Coroutine.
func nativeCoroutine(m *VM, args []Value) {
	if len(args) != 1 || args[0].Kind != KindFunc {
		m.diagnosticf("coroutine expects a function argument")
		m.push(Nil())
		return
	}
	m.push(CoroutineVal(m.Coroutines.New(args[0].Func)))
}

// nativeCall implements a three-way branch: start a fresh run if the
// coroutine has never run, push Nil if it's already exhausted, or
// resume its suspended Frame otherwise. On resume, the "welcome" value
// (the first extra argument, or Nil) is pushed onto the shared operand
// stack before control transfers — it's what a pending `yield` call
// inside the coroutine body receives as its own result once execution
// resumes past it. A fresh start has no pending `yield` waiting for a
// result, so nothing is pushed there; the coroutine body runs from its
// first instruction with an empty stack contribution from this call.
func nativeCall(m *VM, args []Value) {
	if len(args) < 1 || args[0].Kind != KindCoroutine {
		m.diagnosticf("call expects a coroutine argument")
		m.push(Nil())
		return
	}
	co := args[0].Co

	if co.Suspended == nil {
		frame := m.pushFrame(co.Func.Code, co)
		m.run(frame)
		return
	}
	if co.Suspended.atReturn() {
		m.push(Nil())
		return
	}
	welcome := Nil()
	if len(args) > 1 {
		welcome = args[1]
	}
	m.push(welcome)
	frame := co.Suspended
	m.Current = frame
	m.run(frame)
}

// nativeYield detaches the current frame from the active chain into
// its coroutine's Suspended slot and hands control back to whatever
// called `call`. Called outside a coroutine frame it's a no-op that
// still satisfies its own push-one-value contract.
func nativeYield(m *VM, args []Value) {
	if m.Current == nil || m.Current.Coroutine == nil {
		m.push(Nil())
		return
	}
	v := Nil()
	if len(args) > 0 {
		v = args[0]
	}
	co := m.Current.Coroutine
	retain(v)
	m.push(v)
	co.Suspended = m.Current
	m.Current = m.Current.Parent
}

// nativeDone reports whether a coroutine has run to completion.
func nativeDone(m *VM, args []Value) {
	if len(args) != 1 || args[0].Kind != KindCoroutine {
		m.diagnosticf("done? expects a coroutine argument")
		m.push(Nil())
		return
	}
	co := args[0].Co
	m.push(BoolVal(co.Suspended != nil && co.Suspended.atReturn()))
}
