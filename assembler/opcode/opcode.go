package opcode

import (
	"sort"

	"tlog.app/go/errors"
)

type (
	// Encoder appends instruction encoding to b.
	Encoder func(b, operands []byte) []byte

	Tag int

	Op struct {
		Mnemonic string
		Tag      Tag

		enc Encoder
	}

	Table struct {
		ops  []*Op
		name map[string]*Op
	}
)

var ErrDuplicate = errors.New("duplicate mnemonic")

var (
	Default = NewTable()

	Nop     = Default.Fixed("nop", 0x90)
	Syscall = Default.Fixed("syscall", 0x0f, 0x05)

	Ret   = Default.Fixed("ret", 0xc3)
	Hlt   = Default.Fixed("hlt", 0xf4)
	Int3  = Default.Fixed("int3", 0xcc)
	Leave = Default.Fixed("leave", 0xc9)
	Ud2   = Default.Fixed("ud2", 0x0f, 0x0b)
	Cpuid = Default.Fixed("cpuid", 0x0f, 0xa2)
	Rdtsc = Default.Fixed("rdtsc", 0x0f, 0x31)
	Pause = Default.Fixed("pause", 0xf3, 0x90)
	Cqo   = Default.Fixed("cqo", 0x48, 0x99)

	Clc = Default.Fixed("clc", 0xf8)
	Stc = Default.Fixed("stc", 0xf9)
	Cld = Default.Fixed("cld", 0xfc)
	Std = Default.Fixed("std", 0xfd)
	Cli = Default.Fixed("cli", 0xfa)
	Sti = Default.Fixed("sti", 0xfb)

	Lfence = Default.Fixed("lfence", 0x0f, 0xae, 0xe8)
	Mfence = Default.Fixed("mfence", 0x0f, 0xae, 0xf0)
	Sfence = Default.Fixed("sfence", 0x0f, 0xae, 0xf8)
)

func NewTable() *Table {
	return &Table{
		name: map[string]*Op{},
	}
}

// Add registers mnemonic. It panics if the mnemonic is already taken,
// tables are filled at init time.
func (t *Table) Add(mnemonic string, enc Encoder) *Op {
	if _, ok := t.name[mnemonic]; ok {
		panic(errors.Wrap(ErrDuplicate, "%q", mnemonic))
	}

	op := &Op{
		Mnemonic: mnemonic,
		Tag:      Tag(len(t.ops) + 1),
		enc:      enc,
	}

	t.ops = append(t.ops, op)
	t.name[mnemonic] = op

	return op
}

// Fixed registers an instruction with no operands and constant encoding.
func (t *Table) Fixed(mnemonic string, code ...byte) *Op {
	return t.Add(mnemonic, func(b, _ []byte) []byte {
		return append(b, code...)
	})
}

func (t *Table) Lookup(mnemonic string) (*Op, bool) {
	op, ok := t.name[mnemonic]

	return op, ok
}

func (t *Table) Len() int { return len(t.ops) }

func (t *Table) Mnemonics() []string {
	l := make([]string, 0, len(t.ops))

	for _, op := range t.ops {
		l = append(l, op.Mnemonic)
	}

	sort.Strings(l)

	return l
}

func (op *Op) Encode(b, operands []byte) []byte {
	return op.enc(b, operands)
}

// Size is the encoded length with no operands.
func (op *Op) Size() int {
	return len(op.Encode(nil, nil))
}

func (op *Op) String() string {
	if op == nil {
		return "<nil>"
	}

	return op.Mnemonic
}
