// internal/bytecode/script.go
package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxInternEntries is the hard limit on any one intern table imposed by
// the one-byte operand encoding.
const MaxInternEntries = 256

// MaxParams is the hard limit on a function's formal-parameter count.
const MaxParams = 8

// AnonName is the interned marker string used as a function's name
// index when it has no user-given name (the `#` reader macro).
const AnonName = "#"

// FuncDef is a compiled function definition: its own code buffer, the
// interned index of its name (or of AnonName), and its formal
// parameters as interned string indices.
type FuncDef struct {
	NameIndex int
	Params    []int
	Code      []byte
}

// Script is the immutable compilation artifact: interned strings,
// interned numbers, function definitions, a top-level code buffer, and
// a filename label for diagnostics.
type Script struct {
	Strings  []string
	Numbers  []float64
	Funcs    []*FuncDef
	Code     []byte
	Filename string
}

// NewScript constructs an empty Script labeled with filename.
func NewScript(filename string) *Script {
	return &Script{Filename: filename}
}

// InternString interns text, returning its stable index. Identical
// content always returns the same index; ok is false if the table is
// already at MaxInternEntries and text is new.
func (s *Script) InternString(text string) (idx int, ok bool) {
	for i, existing := range s.Strings {
		if existing == text {
			return i, true
		}
	}
	if len(s.Strings) >= MaxInternEntries {
		return 0, false
	}
	s.Strings = append(s.Strings, text)
	return len(s.Strings) - 1, true
}

// InternNumber interns n by exact equality, returning its stable index.
func (s *Script) InternNumber(n float64) (idx int, ok bool) {
	for i, existing := range s.Numbers {
		if existing == n {
			return i, true
		}
	}
	if len(s.Numbers) >= MaxInternEntries {
		return 0, false
	}
	s.Numbers = append(s.Numbers, n)
	return len(s.Numbers) - 1, true
}

// AddFunc appends f to the function table, returning its byte index.
// ok is false if the table is already full.
func (s *Script) AddFunc(f *FuncDef) (idx int, ok bool) {
	if len(s.Funcs) >= MaxInternEntries {
		return 0, false
	}
	s.Funcs = append(s.Funcs, f)
	return len(s.Funcs) - 1, true
}

// Emit appends one two-byte instruction to *code.
func Emit(code *[]byte, op Op, arg byte) {
	*code = append(*code, byte(op), arg)
}

// Encode serializes the Script using a canonical on-disk layout:
// header, length-prefixed string table, 4-byte-float number table,
// function table (name index, arg count, 8 padded arg indices, code
// length, code bytes), then top-level code. Not used by the CLI or
// VM — Script is in-memory only — but exercised by round-trip tests as
// an optional persistence extension.
func (s *Script) Encode() []byte {
	var buf []byte
	buf = append(buf, 's', 'l', 'v', 'm', 1)

	buf = appendU16(buf, uint16(len(s.Strings)))
	for _, str := range s.Strings {
		buf = appendU16(buf, uint16(len(str)))
		buf = append(buf, str...)
	}

	buf = appendU16(buf, uint16(len(s.Numbers)))
	for _, n := range s.Numbers {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(n)))
		buf = append(buf, b[:]...)
	}

	buf = appendU16(buf, uint16(len(s.Funcs)))
	for _, f := range s.Funcs {
		buf = append(buf, byte(f.NameIndex), byte(len(f.Params)))
		var padded [MaxParams]byte
		copy(padded[:], intsToBytes(f.Params))
		buf = append(buf, padded[:]...)
		buf = appendU16(buf, uint16(len(f.Code)))
		buf = append(buf, f.Code...)
	}

	buf = appendU16(buf, uint16(len(s.Code)))
	buf = append(buf, s.Code...)
	return buf
}

// DecodeScript parses the layout written by Encode.
func DecodeScript(filename string, data []byte) (*Script, error) {
	if len(data) < 5 || string(data[:4]) != "slvm" {
		return nil, fmt.Errorf("bytecode: bad header")
	}
	r := &reader{data: data, pos: 5}
	s := NewScript(filename)

	nStrings, err := r.u16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(nStrings); i++ {
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		str, err := r.bytes(int(n))
		if err != nil {
			return nil, err
		}
		s.Strings = append(s.Strings, string(str))
	}

	nNumbers, err := r.u16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(nNumbers); i++ {
		b, err := r.bytes(4)
		if err != nil {
			return nil, err
		}
		bits := binary.BigEndian.Uint32(b)
		s.Numbers = append(s.Numbers, float64(math.Float32frombits(bits)))
	}

	nFuncs, err := r.u16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(nFuncs); i++ {
		nameIdx, err := r.byte()
		if err != nil {
			return nil, err
		}
		paramCount, err := r.byte()
		if err != nil {
			return nil, err
		}
		padded, err := r.bytes(MaxParams)
		if err != nil {
			return nil, err
		}
		params := make([]int, paramCount)
		for j := 0; j < int(paramCount); j++ {
			params[j] = int(padded[j])
		}
		codeLen, err := r.u16()
		if err != nil {
			return nil, err
		}
		code, err := r.bytes(int(codeLen))
		if err != nil {
			return nil, err
		}
		s.Funcs = append(s.Funcs, &FuncDef{
			NameIndex: int(nameIdx),
			Params:    params,
			Code:      append([]byte{}, code...),
		})
	}

	codeLen, err := r.u16()
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	s.Code = append([]byte{}, code...)
	return s, nil
}

func intsToBytes(ints []int) []byte {
	out := make([]byte, len(ints))
	for i, v := range ints {
		out[i] = byte(v)
	}
	return out
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("bytecode: truncated")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("bytecode: truncated")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
