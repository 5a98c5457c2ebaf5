package parse

import (
	"strings"

	"github.com/slowlang/rasm/assembler/asm"
	"github.com/slowlang/rasm/assembler/opcode"
)

type (
	Parser struct {
		Ops *opcode.Table
	}

	Token any

	Empty   struct{}
	Comment string
	Label   string

	Directive interface {
		directive()
	}

	Global  []string
	Section string

	Instr asm.Instr

	Invalid struct {
		Text   string
		Reason string
	}
)

const (
	ReasonNoOperand = "directive without operand"
	ReasonNoLabel   = "empty label name"
	ReasonMnemonic  = "unknown mnemonic"
)

func New(ops *opcode.Table) *Parser {
	return &Parser{Ops: ops}
}

// Parse parses line with the default opcode table.
func Parse(line string) Token {
	return New(opcode.Default).Parse(line)
}

// ParseText returns one token per line of text.
func ParseText(text string) []Token {
	return New(opcode.Default).ParseText(text)
}

func (p *Parser) ParseText(text string) []Token {
	lines := strings.Split(text, "\n")
	toks := make([]Token, len(lines))

	for i, l := range lines {
		toks[i] = p.Parse(l)
	}

	return toks
}

// Parse never fails. Lines it can't recognize become Invalid.
func (p *Parser) Parse(line string) Token {
	line = strings.TrimSpace(line)

	if line == "" {
		return Empty{}
	}

	if line[0] == ';' {
		return Comment(line)
	}

	words := strings.Split(line, " ")

	switch words[0] {
	case "global", "section":
		args := nonEmpty(words[1:])
		if len(args) == 0 {
			return Invalid{Text: line, Reason: ReasonNoOperand}
		}

		if words[0] == "global" {
			return Global(args)
		}

		return Section(args[0])
	}

	if w := words[0]; len(words) == 1 && strings.HasSuffix(w, ":") {
		name := strings.TrimSuffix(w, ":")
		if name == "" {
			return Invalid{Text: line, Reason: ReasonNoLabel}
		}

		return Label(name)
	}

	op, ok := p.Ops.Lookup(words[0])
	if !ok {
		return Invalid{Text: line, Reason: ReasonMnemonic}
	}

	return Instr{Op: op}
}

func nonEmpty(words []string) []string {
	res := make([]string, 0, len(words))

	for _, w := range words {
		if w != "" {
			res = append(res, w)
		}
	}

	return res
}

func (Global) directive()  {}
func (Section) directive() {}
