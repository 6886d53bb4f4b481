// internal/vm/pool.go
package vm

import "slvm/internal/bytecode"

// HeapString is a ref-counted byte buffer. Strings minted by LoadString
// (the constant pool) keep pool nil so a refcount that drops to zero
// just sits idle, ready to be re-incremented by the next LoadString of
// the same index, rather than being handed out to some unrelated
// caller of StringPool.New and silently corrupting the constant pool.
// Strings minted at runtime (the read native) go through StringPool.New
// and do recycle.
type HeapString struct {
	Bytes []byte
	refs  int
	pool  *StringPool
}

func (h *HeapString) IncRef() { h.refs++ }

func (h *HeapString) DecRef() {
	h.refs--
	if h.refs <= 0 && h.pool != nil {
		h.pool.Put(h)
	}
}

// StringPool hands out HeapStrings for runtime-constructed strings,
// recycling freed buffers instead of allocating fresh ones.
type StringPool struct {
	free []*HeapString
}

func NewStringPool() *StringPool {
	return &StringPool{}
}

func (p *StringPool) New(s string) *HeapString {
	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		h.Bytes = []byte(s)
		h.refs = 1
		h.pool = p
		return h
	}
	return &HeapString{Bytes: []byte(s), refs: 1, pool: p}
}

func (p *StringPool) Put(h *HeapString) {
	h.Bytes = nil
	p.free = append(p.free, h)
}

// Coroutine is a ref-counted wrapper around a function definition and
// its (possibly nil) suspended Frame.
type Coroutine struct {
	Func      *bytecode.FuncDef
	Suspended *Frame
	refs      int
	pool      *CoroutinePool
}

func (c *Coroutine) IncRef() { c.refs++ }

// DecRef drops the coroutine's refcount. At zero it drops its hold on
// Suspended so the detached frame (and whatever it anchors) becomes
// collectible rather than outliving the coroutine that owned it.
func (c *Coroutine) DecRef() {
	c.refs--
	if c.refs <= 0 {
		c.Suspended = nil
		if c.pool != nil {
			c.pool.Put(c)
		}
	}
}

// CoroutinePool recycles Coroutine records the way StringPool recycles
// heap strings.
type CoroutinePool struct {
	free []*Coroutine
}

func NewCoroutinePool() *CoroutinePool {
	return &CoroutinePool{}
}

func (p *CoroutinePool) New(fn *bytecode.FuncDef) *Coroutine {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		c.Func = fn
		c.Suspended = nil
		c.refs = 1
		c.pool = p
		return c
	}
	return &Coroutine{Func: fn, refs: 1, pool: p}
}

func (p *CoroutinePool) Put(c *Coroutine) {
	c.Func = nil
	p.free = append(p.free, c)
}
