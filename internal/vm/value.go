// internal/vm/value.go
package vm

import (
	"fmt"

	"slvm/internal/bytecode"
)

// Kind is the tag of a Value's closed set of eight variants.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindFunc
	KindNative
	KindCoroutine
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "Nil"
	case KindBool:
		return "Bool"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindFunc:
		return "Func"
	case KindNative:
		return "NativeFunc"
	case KindCoroutine:
		return "Coroutine"
	case KindCustom:
		return "Custom"
	default:
		return "?"
	}
}

// Value is the tagged variant used everywhere the VM moves data: the
// operand stack, frame Vars slots, and Globals. Primitive values are
// copied by value; String and Coroutine carry shared, ref-counted
// handles; Func is a non-owning pointer into the Script that compiled
// it.
type Value struct {
	Kind   Kind
	Bool   bool
	Num    float64
	Str    *HeapString
	Func   *bytecode.FuncDef
	Native *NativeFunc
	Co     *Coroutine
	Custom interface{}
}

// NativeFunc is a native function record: a Go closure plus its
// registered name. FuncCall invokes Fn directly; Fn is responsible for
// pushing exactly one return value.
type NativeFunc struct {
	Name string
	Fn   func(vm *VM, args []Value)
}

func Nil() Value               { return Value{Kind: KindNil} }
func BoolVal(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func NumberVal(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func StringVal(h *HeapString) Value {
	return Value{Kind: KindString, Str: h}
}

func FuncVal(f *bytecode.FuncDef) Value {
	return Value{Kind: KindFunc, Func: f}
}

func NativeVal(n *NativeFunc) Value {
	return Value{Kind: KindNative, Native: n}
}

func CoroutineVal(c *Coroutine) Value {
	return Value{Kind: KindCoroutine, Co: c}
}

// Truthy implements the falsy rule: exactly {Nil, Bool(false)} are
// falsy; everything else is truthy.
func Truthy(v Value) bool {
	if v.Kind == KindNil {
		return false
	}
	if v.Kind == KindBool && !v.Bool {
		return false
	}
	return true
}

// Display renders v the way println does: numbers to four decimal
// places, strings raw and unquoted, booleans lowercase.
func Display(v Value) string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return fmt.Sprintf("%.4f", v.Num)
	case KindString:
		if v.Str == nil {
			return ""
		}
		return string(v.Str.Bytes)
	case KindFunc:
		return fmt.Sprintf("<func %s>", funcLabel(v.Func))
	case KindNative:
		return fmt.Sprintf("<native %s>", v.Native.Name)
	case KindCoroutine:
		return "<coroutine>"
	default:
		return fmt.Sprintf("<custom %v>", v.Custom)
	}
}

func funcLabel(f *bytecode.FuncDef) string {
	if f == nil {
		return "?"
	}
	return fmt.Sprintf("@%p", f)
}

// retain increments the refcount of v's heap object, if it has one.
// Moving a value from one slot to another (a plain pop into a Vars
// write, say) doesn't change how many slots tag it and needs no
// retain/release pair; retain is for the places a value gains an
// additional live slot without losing its old one — LoadSymbol
// pushing a copy of a binding that stays bound is the main case.
func retain(v Value) {
	switch v.Kind {
	case KindString:
		if v.Str != nil {
			v.Str.IncRef()
		}
	case KindCoroutine:
		if v.Co != nil {
			v.Co.IncRef()
		}
	}
}

// release decrements the refcount of v's heap object, if it has one —
// retain's counterpart, for the places a slot's value is dropped
// without moving anywhere: Pop, a Def/Set overwrite of an existing
// binding, a native's consumed arguments, and a frame's Vars at
// Return.
func release(v Value) {
	switch v.Kind {
	case KindString:
		if v.Str != nil {
			v.Str.DecRef()
		}
	case KindCoroutine:
		if v.Co != nil {
			v.Co.DecRef()
		}
	}
}
