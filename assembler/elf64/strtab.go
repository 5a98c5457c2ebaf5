package elf64

import "bytes"

// StringTable is NUL-prefixed list of NUL-terminated names.
type StringTable struct {
	b []byte
}

const Align = 16

func NewStringTable() *StringTable {
	return &StringTable{b: []byte{0}}
}

// Add appends name and returns its offset.
func (t *StringTable) Add(name string) uint32 {
	off := len(t.b)

	t.b = append(t.b, name...)
	t.b = append(t.b, 0)

	return uint32(off)
}

func (t *StringTable) Lookup(off uint32) (string, bool) {
	if int(off) >= len(t.b) {
		return "", false
	}

	s := t.b[off:]

	end := bytes.IndexByte(s, 0)
	if end < 0 {
		return "", false
	}

	return string(s[:end]), true
}

func (t *StringTable) Len() int { return len(t.b) }

func (t *StringTable) Bytes() []byte { return t.b }

// Pad appends zeros to b up to the next multiple of align.
func Pad(b []byte, align int) []byte {
	if r := len(b) % align; r != 0 {
		b = append(b, make([]byte, align-r)...)
	}

	return b
}

func PadLen(n, align int) int {
	return (n + align - 1) / align * align
}
