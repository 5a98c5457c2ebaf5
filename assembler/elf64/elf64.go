package elf64

import (
	"debug/elf"
	"encoding/binary"

	"tlog.app/go/errors"
)

type (
	Header struct {
		Ident     [elf.EI_NIDENT]byte
		Type      uint16
		Machine   uint16
		Version   uint32
		Entry     uint64
		Phoff     uint64
		Shoff     uint64
		Flags     uint32
		Ehsize    uint16
		Phentsize uint16
		Phnum     uint16
		Shentsize uint16
		Shnum     uint16
		Shstrndx  uint16
	}

	SectionHeader struct {
		Name      uint32
		Type      uint32
		Flags     uint64
		Addr      uint64
		Offset    uint64
		Size      uint64
		Link      uint32
		Info      uint32
		Addralign uint64
		Entsize   uint64
	}

	Symbol struct {
		Name  uint32
		Info  uint8
		Other uint8
		Shndx uint16
		Value uint64
		Size  uint64
	}
)

const (
	HeaderSize        = 64
	SectionHeaderSize = 64
	SymbolSize        = 24
)

var le = binary.LittleEndian

var ErrShort = errors.New("short buffer")

// RelocatableX86_64 is the header of an ET_REL object for x86-64 Linux
// with section headers right after it.
func RelocatableX86_64() Header {
	h := Header{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     HeaderSize,
		Ehsize:    HeaderSize,
		Shentsize: SectionHeaderSize,
	}

	copy(h.Ident[:], elf.ELFMAG)
	h.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	h.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	h.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	h.Ident[elf.EI_OSABI] = byte(elf.ELFOSABI_NONE)

	return h
}

func (h *Header) AppendBinary(b []byte) []byte {
	b = append(b, h.Ident[:]...)
	b = le.AppendUint16(b, h.Type)
	b = le.AppendUint16(b, h.Machine)
	b = le.AppendUint32(b, h.Version)
	b = le.AppendUint64(b, h.Entry)
	b = le.AppendUint64(b, h.Phoff)
	b = le.AppendUint64(b, h.Shoff)
	b = le.AppendUint32(b, h.Flags)
	b = le.AppendUint16(b, h.Ehsize)
	b = le.AppendUint16(b, h.Phentsize)
	b = le.AppendUint16(b, h.Phnum)
	b = le.AppendUint16(b, h.Shentsize)
	b = le.AppendUint16(b, h.Shnum)
	b = le.AppendUint16(b, h.Shstrndx)

	return b
}

func (h *Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize)), nil
}

func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return errors.Wrap(ErrShort, "header: %d bytes", len(b))
	}

	copy(h.Ident[:], b[:elf.EI_NIDENT])

	h.Type = le.Uint16(b[16:])
	h.Machine = le.Uint16(b[18:])
	h.Version = le.Uint32(b[20:])
	h.Entry = le.Uint64(b[24:])
	h.Phoff = le.Uint64(b[32:])
	h.Shoff = le.Uint64(b[40:])
	h.Flags = le.Uint32(b[48:])
	h.Ehsize = le.Uint16(b[52:])
	h.Phentsize = le.Uint16(b[54:])
	h.Phnum = le.Uint16(b[56:])
	h.Shentsize = le.Uint16(b[58:])
	h.Shnum = le.Uint16(b[60:])
	h.Shstrndx = le.Uint16(b[62:])

	return nil
}

func (s *SectionHeader) AppendBinary(b []byte) []byte {
	b = le.AppendUint32(b, s.Name)
	b = le.AppendUint32(b, s.Type)
	b = le.AppendUint64(b, s.Flags)
	b = le.AppendUint64(b, s.Addr)
	b = le.AppendUint64(b, s.Offset)
	b = le.AppendUint64(b, s.Size)
	b = le.AppendUint32(b, s.Link)
	b = le.AppendUint32(b, s.Info)
	b = le.AppendUint64(b, s.Addralign)
	b = le.AppendUint64(b, s.Entsize)

	return b
}

func (s *SectionHeader) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, SectionHeaderSize)), nil
}

func (s *SectionHeader) UnmarshalBinary(b []byte) error {
	if len(b) < SectionHeaderSize {
		return errors.Wrap(ErrShort, "section header: %d bytes", len(b))
	}

	s.Name = le.Uint32(b[0:])
	s.Type = le.Uint32(b[4:])
	s.Flags = le.Uint64(b[8:])
	s.Addr = le.Uint64(b[16:])
	s.Offset = le.Uint64(b[24:])
	s.Size = le.Uint64(b[32:])
	s.Link = le.Uint32(b[40:])
	s.Info = le.Uint32(b[44:])
	s.Addralign = le.Uint64(b[48:])
	s.Entsize = le.Uint64(b[56:])

	return nil
}

func NewSymbol(name uint32, bind elf.SymBind, typ elf.SymType, shndx uint16, value uint64) Symbol {
	return Symbol{
		Name:  name,
		Info:  elf.ST_INFO(bind, typ),
		Shndx: shndx,
		Value: value,
	}
}

func (s *Symbol) Bind() elf.SymBind { return elf.ST_BIND(s.Info) }
func (s *Symbol) Type() elf.SymType { return elf.ST_TYPE(s.Info) }

func (s *Symbol) AppendBinary(b []byte) []byte {
	b = le.AppendUint32(b, s.Name)
	b = append(b, s.Info, s.Other)
	b = le.AppendUint16(b, s.Shndx)
	b = le.AppendUint64(b, s.Value)
	b = le.AppendUint64(b, s.Size)

	return b
}

func (s *Symbol) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, SymbolSize)), nil
}

func (s *Symbol) UnmarshalBinary(b []byte) error {
	if len(b) < SymbolSize {
		return errors.Wrap(ErrShort, "symbol: %d bytes", len(b))
	}

	s.Name = le.Uint32(b[0:])
	s.Info = b[4]
	s.Other = b[5]
	s.Shndx = le.Uint16(b[6:])
	s.Value = le.Uint64(b[8:])
	s.Size = le.Uint64(b[16:])

	return nil
}
