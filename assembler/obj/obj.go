package obj

import (
	"debug/elf"
	"fmt"

	"tlog.app/go/loc"

	"github.com/slowlang/rasm/assembler/asm"
	"github.com/slowlang/rasm/assembler/elf64"
)

type (
	// Object is a laid out relocatable object.
	// Sections includes the null header and the three trailing tables.
	Object struct {
		Header   elf64.Header
		Sections []elf64.SectionHeader

		Code []byte // all sections, each padded

		Shstrtab *elf64.StringTable
		Symbols  []elf64.Symbol
		Strtab   *elf64.StringTable

		FirstGlobal int
	}

	label struct {
		name   string
		shndx  uint16
		value  uint64
		global bool
	}
)

const (
	CodeAlign   = 16
	SymtabAlign = 8

	trailing = 3 // .shstrtab .symtab .strtab
)

const (
	SectionFlags = elf.SHF_ALLOC | elf.SHF_EXECINSTR
)

// Write lays out sections and returns the object file bytes.
func Write(secs []*asm.Section, path string) []byte {
	return Layout(secs, path).AppendBinary(nil)
}

func Layout(secs []*asm.Section, path string) *Object {
	n := len(secs)

	o := &Object{
		Header:   elf64.RelocatableX86_64(),
		Sections: make([]elf64.SectionHeader, 1, n+1+trailing),
		Shstrtab: elf64.NewStringTable(),
		Strtab:   elf64.NewStringTable(),
	}

	shnum := n + 1 + trailing
	shstrndx := n + 1
	strndx := n + 3

	if shnum >= int(elf.SHN_LORESERVE) {
		panic(fmt.Sprintf("too many sections: %d", n))
	}

	globals := map[string]struct{}{}

	for _, sec := range secs {
		for _, name := range sec.Globals {
			globals[name] = struct{}{}
		}
	}

	o.Header.Shnum = uint16(shnum)
	o.Header.Shstrndx = uint16(shstrndx)

	off := uint64(elf64.HeaderSize + shnum*elf64.SectionHeaderSize)

	var labels []label

	for i, sec := range secs {
		code, offs := sec.Code()

		o.Sections = append(o.Sections, elf64.SectionHeader{
			Name:      o.Shstrtab.Add(sec.Name),
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint64(SectionFlags),
			Offset:    off + uint64(len(o.Code)),
			Size:      uint64(len(code)),
			Addralign: CodeAlign,
		})

		o.Code = elf64.Pad(append(o.Code, code...), CodeAlign)

		for j, l := range sec.Labeled {
			_, global := globals[l.Name]

			labels = append(labels, label{
				name:   l.Name,
				shndx:  uint16(i + 1),
				value:  uint64(offs[j]),
				global: global,
			})
		}
	}

	off += uint64(len(o.Code))

	shstrtab := elf64.SectionHeader{
		Name:      o.Shstrtab.Add(".shstrtab"),
		Type:      uint32(elf.SHT_STRTAB),
		Addralign: 1,
	}

	symtab := elf64.SectionHeader{
		Name:      o.Shstrtab.Add(".symtab"),
		Type:      uint32(elf.SHT_SYMTAB),
		Link:      uint32(strndx),
		Addralign: SymtabAlign,
		Entsize:   elf64.SymbolSize,
	}

	strtab := elf64.SectionHeader{
		Name:      o.Shstrtab.Add(".strtab"),
		Type:      uint32(elf.SHT_STRTAB),
		Addralign: 1,
	}

	shstrtab.Offset = off
	shstrtab.Size = uint64(o.Shstrtab.Len())
	off += uint64(elf64.PadLen(o.Shstrtab.Len(), elf64.Align))

	o.symbols(path, n, labels)

	symtab.Offset = off
	symtab.Size = uint64(len(o.Symbols) * elf64.SymbolSize)
	symtab.Info = uint32(o.FirstGlobal)
	off += symtab.Size

	strtab.Offset = off
	strtab.Size = uint64(o.Strtab.Len())

	o.Sections = append(o.Sections, shstrtab, symtab, strtab)

	return o
}

// symbols fills the symbol table. Locals go first as ELF requires:
// file, sections, local labels. Global labels follow.
// A global is bound file-wide, whichever section declared it.
func (o *Object) symbols(path string, nsec int, labels []label) {
	o.Symbols = append(o.Symbols,
		elf64.Symbol{},
		elf64.NewSymbol(o.Strtab.Add(path), elf.STB_LOCAL, elf.STT_FILE, uint16(elf.SHN_ABS), 0),
	)

	for i := 0; i < nsec; i++ {
		o.Symbols = append(o.Symbols, elf64.NewSymbol(0, elf.STB_LOCAL, elf.STT_SECTION, uint16(i+1), 0))
	}

	for _, global := range []bool{false, true} {
		if global {
			o.FirstGlobal = len(o.Symbols)
		}

		bind := elf.STB_LOCAL
		if global {
			bind = elf.STB_GLOBAL
		}

		// labels keep emission order within each binding,
		// so a global defined before a local lands after it
		for _, l := range labels {
			if l.global != global {
				continue
			}

			o.Symbols = append(o.Symbols, elf64.NewSymbol(o.Strtab.Add(l.name), bind, elf.STT_NOTYPE, l.shndx, l.value))
		}
	}
}

// Size is the file size.
func (o *Object) Size() int {
	st := o.Sections[len(o.Sections)-1]

	return int(st.Offset) + elf64.PadLen(int(st.Size), elf64.Align)
}

func (o *Object) AppendBinary(b []byte) []byte {
	st := len(b)

	expect := func(b []byte, want uint64, what string) {
		if got := uint64(len(b) - st); got != want {
			panic(fmt.Sprintf("%v: %v at %#x, laid out at %#x", loc.Caller(1), what, got, want))
		}
	}

	b = o.Header.AppendBinary(b)
	expect(b, o.Header.Shoff, "section headers")

	for i := range o.Sections {
		b = o.Sections[i].AppendBinary(b)
	}

	tabs := o.Sections[len(o.Sections)-trailing:]

	if len(o.Sections) > 1+trailing {
		expect(b, o.Sections[1].Offset, "code")
	}

	b = append(b, o.Code...)

	expect(b, tabs[0].Offset, ".shstrtab")
	b = appendPadded(b, o.Shstrtab.Bytes())

	expect(b, tabs[1].Offset, ".symtab")
	for i := range o.Symbols {
		b = o.Symbols[i].AppendBinary(b)
	}

	expect(b, tabs[2].Offset, ".strtab")
	b = appendPadded(b, o.Strtab.Bytes())

	expect(b, uint64(o.Size()), "end of file")

	return b
}

func appendPadded(b, data []byte) []byte {
	b = append(b, data...)

	return append(b, make([]byte, elf64.PadLen(len(data), elf64.Align)-len(data))...)
}
