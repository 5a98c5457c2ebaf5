package asm

import "github.com/slowlang/rasm/assembler/opcode"

const (
	Text  = ".text"
	Start = "_start"
)

type (
	Instr struct {
		Op       *opcode.Op
		Operands []byte
	}

	// Labeled is a run of code under one label.
	// The same name may appear more than once in a section
	// if the label was reopened after another one.
	Labeled struct {
		Name string
		Code []Instr
	}

	Section struct {
		Name string

		Globals []string // ordered set

		Default []Instr // code before the first label
		Labeled []Labeled
	}
)

func NewSection(name string) *Section {
	return &Section{Name: name}
}

// AddGlobals adds names not yet present keeping first seen order.
func (s *Section) AddGlobals(names ...string) {
outer:
	for _, n := range names {
		for _, g := range s.Globals {
			if g == n {
				continue outer
			}
		}

		s.Globals = append(s.Globals, n)
	}
}

func (s *Section) IsGlobal(name string) bool {
	for _, g := range s.Globals {
		if g == name {
			return true
		}
	}

	return false
}

func (x Instr) Append(b []byte) []byte {
	return x.Op.Encode(b, x.Operands)
}

func AppendCode(b []byte, code []Instr) []byte {
	for _, x := range code {
		b = x.Append(b)
	}

	return b
}

// Code returns section bytes and label offsets within them,
// one per Labeled entry.
func (s *Section) Code() (b []byte, offs []int) {
	b = AppendCode(b, s.Default)

	if len(s.Labeled) != 0 {
		offs = make([]int, len(s.Labeled))
	}

	for i, l := range s.Labeled {
		offs[i] = len(b)

		b = AppendCode(b, l.Code)
	}

	return b, offs
}
