package elf64

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

func TestHeaderLayout(t *testing.T) {
	h := RelocatableX86_64()
	h.Shnum = 5
	h.Shstrndx = 2

	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, HeaderSize)

	assert.Equal(t, []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}, b[:8])
	assert.Equal(t, []byte{1, 0}, b[16:18], "ET_REL")
	assert.Equal(t, []byte{0x3e, 0}, b[18:20], "EM_X86_64")
	assert.Equal(t, []byte{0x40, 0, 0, 0, 0, 0, 0, 0}, b[40:48], "shoff")
	assert.Equal(t, []byte{5, 0, 2, 0}, b[60:64])

	// compare with the layout debug/elf reads with encoding/binary
	var std elf.Header64
	err = binary.Read(bytes.NewReader(b), binary.LittleEndian, &std)
	require.NoError(t, err)

	assert.Equal(t, uint16(elf.ET_REL), std.Type)
	assert.Equal(t, uint16(elf.EM_X86_64), std.Machine)
	assert.Equal(t, uint64(HeaderSize), std.Shoff)
	assert.Equal(t, uint16(HeaderSize), std.Ehsize)
	assert.Equal(t, uint16(SectionHeaderSize), std.Shentsize)
	assert.Equal(t, uint16(5), std.Shnum)
	assert.Equal(t, uint16(2), std.Shstrndx)

	var h2 Header
	require.NoError(t, h2.UnmarshalBinary(b))
	assert.Equal(t, h, h2)
}

func TestSectionHeaderLayout(t *testing.T) {
	s := SectionHeader{
		Name:      1,
		Type:      uint32(elf.SHT_SYMTAB),
		Offset:    0x1122334455667788,
		Size:      72,
		Link:      4,
		Info:      3,
		Addralign: 8,
		Entsize:   SymbolSize,
	}

	b := s.AppendBinary(nil)
	require.Len(t, b, SectionHeaderSize)

	var std elf.Section64
	err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &std)
	require.NoError(t, err)

	assert.Equal(t, s.Type, std.Type)
	assert.Equal(t, s.Offset, std.Off)
	assert.Equal(t, s.Size, std.Size)
	assert.Equal(t, s.Link, std.Link)
	assert.Equal(t, s.Info, std.Info)
	assert.Equal(t, s.Addralign, std.Addralign)
	assert.Equal(t, s.Entsize, std.Entsize)

	assert.Equal(t, []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, b[24:32], "little endian")

	var s2 SectionHeader
	require.NoError(t, s2.UnmarshalBinary(b))
	assert.Equal(t, s, s2)
}

func TestSymbolLayout(t *testing.T) {
	s := NewSymbol(17, elf.STB_GLOBAL, elf.STT_NOTYPE, 1, 0x10)

	assert.Equal(t, uint8(0x10), s.Info)
	assert.Equal(t, elf.STB_GLOBAL, s.Bind())
	assert.Equal(t, elf.STT_NOTYPE, s.Type())

	b := s.AppendBinary(nil)
	require.Len(t, b, SymbolSize)

	assert.Equal(t, []byte{17, 0, 0, 0, 0x10, 0, 1, 0, 0x10, 0, 0, 0, 0, 0, 0, 0}, b[:16])

	var std elf.Sym64
	err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &std)
	require.NoError(t, err)

	assert.Equal(t, s.Name, std.Name)
	assert.Equal(t, s.Info, std.Info)
	assert.Equal(t, s.Shndx, std.Shndx)
	assert.Equal(t, s.Value, std.Value)

	file := NewSymbol(1, elf.STB_LOCAL, elf.STT_FILE, uint16(elf.SHN_ABS), 0)
	assert.Equal(t, uint8(4), file.Info)
	assert.Equal(t, uint16(0xfff1), file.Shndx)
}

func TestShortBuffer(t *testing.T) {
	var h Header
	assert.True(t, errors.Is(h.UnmarshalBinary(make([]byte, 10)), ErrShort))

	var s SectionHeader
	assert.True(t, errors.Is(s.UnmarshalBinary(nil), ErrShort))

	var y Symbol
	assert.True(t, errors.Is(y.UnmarshalBinary(make([]byte, SymbolSize-1)), ErrShort))
}

func TestStringTable(t *testing.T) {
	st := NewStringTable()

	assert.Equal(t, []byte{0}, st.Bytes())

	names := []string{".text", ".shstrtab", "", "./test/test.asm", "_start"}
	offs := make([]uint32, len(names))

	for i, n := range names {
		offs[i] = st.Add(n)
	}

	assert.Equal(t, uint32(1), offs[0])
	assert.Equal(t, uint32(7), offs[1])

	for i, n := range names {
		s, ok := st.Lookup(offs[i])
		assert.True(t, ok)
		assert.Equal(t, n, s)
	}

	s, ok := st.Lookup(0)
	assert.True(t, ok)
	assert.Equal(t, "", s)

	_, ok = st.Lookup(uint32(st.Len()))
	assert.False(t, ok)
}

func TestPad(t *testing.T) {
	for n := 0; n <= 40; n++ {
		b := bytes.Repeat([]byte{0xff}, n)
		p := Pad(b, Align)

		assert.Equal(t, 0, len(p)%Align, "n %d", n)
		assert.Equal(t, PadLen(n, Align), len(p), "n %d", n)
		assert.Equal(t, b, p[:n])
		assert.Equal(t, make([]byte, len(p)-n), p[n:], "n %d", n)

		assert.Equal(t, p, Pad(p, Align), "idempotent")
	}
}
