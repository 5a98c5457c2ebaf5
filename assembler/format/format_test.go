package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/rasm/assembler/build"
	"github.com/slowlang/rasm/assembler/obj"
	"github.com/slowlang/rasm/assembler/parse"
)

const text = `; exit
global _start
section .text
_start:
  nop
  syscall
movx`

func TestFormatTokens(t *testing.T) {
	b, err := Format(context.Background(), nil, parse.ParseText(text))
	require.NoError(t, err)

	assert.Equal(t, `   1  comment  ; exit
   2  global   _start
   3  section  .text
   4  label    _start
   5  instr    nop 90
   6  instr    syscall 0f 05
   7  invalid  "movx": unknown mnemonic
`, string(b))
}

func TestFormatSections(t *testing.T) {
	toks := parse.ParseText(text)
	secs := build.Build(toks[:len(toks)-1], build.Options{})

	b, err := Format(context.Background(), nil, secs)
	require.NoError(t, err)

	assert.Equal(t, "section .text\n"+
		"\tglobal _start\n"+
		"_start:\n"+
		"\tnop        // 90\n"+
		"\tsyscall    // 0f 05\n", string(b))
}

func TestFormatObject(t *testing.T) {
	secs := build.Build(parse.ParseText("_start:\nnop\n"), build.Options{})
	o := obj.Layout(secs, "a.asm")

	b, err := Format(context.Background(), nil, o)
	require.NoError(t, err)

	assert.Contains(t, string(b), "sections: 5")
	assert.Contains(t, string(b), ".symtab")
	assert.Contains(t, string(b), "STB_GLOBAL")
	assert.Contains(t, string(b), "_start")
}

func TestFormatUnsupported(t *testing.T) {
	_, err := Format(context.Background(), nil, 42)
	assert.Error(t, err)
}
