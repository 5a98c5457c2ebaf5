package build

import (
	"fmt"

	"github.com/slowlang/rasm/assembler/asm"
	"github.com/slowlang/rasm/assembler/parse"
)

type (
	Options struct {
		// MergeSections makes a repeated section directive continue
		// the earlier section of that name instead of starting a new one.
		MergeSections bool
	}

	state struct {
		opts Options

		out  []*asm.Section
		text *asm.Section

		cur   *asm.Section // nil means text
		label *asm.Labeled
	}
)

// Build folds checked tokens into sections.
// Explicit sections come in declaration order, .text is always last.
func Build(toks []parse.Token, opts Options) []*asm.Section {
	s := &state{
		opts: opts,
		text: asm.NewSection(asm.Text),
	}

	s.text.AddGlobals(asm.Start)

	for i, tok := range toks {
		switch tok := tok.(type) {
		case parse.Empty, parse.Comment:
		case parse.Instr:
			s.instr(asm.Instr(tok))
		case parse.Global:
			s.section().AddGlobals(tok...)
		case parse.Section:
			s.flush()
			s.switchSection(string(tok))
		case parse.Label:
			if s.label != nil && s.label.Name == string(tok) {
				continue
			}

			s.flush()
			s.label = &asm.Labeled{Name: string(tok)}
		default:
			panic(fmt.Sprintf("line %d: unexpected token %T (%+[2]v)", i+1, tok))
		}
	}

	s.flush()
	s.closeSection()

	return append(s.out, s.text)
}

func (s *state) section() *asm.Section {
	if s.cur != nil {
		return s.cur
	}

	return s.text
}

func (s *state) instr(x asm.Instr) {
	if s.label != nil {
		s.label.Code = append(s.label.Code, x)
		return
	}

	sec := s.section()
	sec.Default = append(sec.Default, x)
}

func (s *state) flush() {
	if s.label == nil {
		return
	}

	sec := s.section()
	sec.Labeled = append(sec.Labeled, *s.label)

	s.label = nil
}

func (s *state) closeSection() {
	if s.cur == nil {
		return
	}

	if !s.opts.MergeSections || !s.emitted(s.cur) {
		s.out = append(s.out, s.cur)
	}

	s.cur = nil
}

func (s *state) switchSection(name string) {
	s.closeSection()

	if name == asm.Text {
		return
	}

	if s.opts.MergeSections {
		for _, sec := range s.out {
			if sec.Name == name {
				s.cur = sec
				return
			}
		}
	}

	s.cur = asm.NewSection(name)
}

func (s *state) emitted(sec *asm.Section) bool {
	for _, x := range s.out {
		if x == sec {
			return true
		}
	}

	return false
}
