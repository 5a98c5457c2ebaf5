package format

import (
	"context"
	"debug/elf"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/rasm/assembler/asm"
	"github.com/slowlang/rasm/assembler/obj"
	"github.com/slowlang/rasm/assembler/parse"
)

func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case []parse.Token:
		return formatTokens(ctx, b, x, d)
	case []*asm.Section:
		for i, s := range x {
			if i != 0 {
				b = append(b, '\n')
			}

			b, err = formatSection(ctx, b, s, d)
			if err != nil {
				return nil, errors.Wrap(err, "section %v", s.Name)
			}
		}

		return b, nil
	case *asm.Section:
		return formatSection(ctx, b, x, d)
	case *obj.Object:
		return formatObject(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatTokens(ctx context.Context, b []byte, toks []parse.Token, d int) (_ []byte, err error) {
	for i, t := range toks {
		b = app(b, d, "%4d  ", i+1)

		switch t := t.(type) {
		case parse.Empty:
			b = append(b, "empty"...)
		case parse.Comment:
			b = hfmt.Appendf(b, "comment  %s", string(t))
		case parse.Label:
			b = hfmt.Appendf(b, "label    %s", string(t))
		case parse.Global:
			b = hfmt.Appendf(b, "global   %s", strings.Join(t, " "))
		case parse.Section:
			b = hfmt.Appendf(b, "section  %s", string(t))
		case parse.Instr:
			b = hfmt.Appendf(b, "instr    %v % x", t.Op, t.Op.Encode(nil, t.Operands))
		case parse.Invalid:
			b = hfmt.Appendf(b, "invalid  %q: %s", t.Text, t.Reason)
		default:
			return nil, errors.New("unsupported token: %T", t)
		}

		b = append(b, '\n')
	}

	return b, nil
}

func formatSection(ctx context.Context, b []byte, s *asm.Section, d int) ([]byte, error) {
	b = app(b, d, "section %s\n", s.Name)

	if len(s.Globals) != 0 {
		b = app(b, d+1, "global %s\n", strings.Join(s.Globals, " "))
	}

	b = formatCode(b, s.Default, d+1)

	for _, l := range s.Labeled {
		b = app(b, d, "%s:\n", l.Name)
		b = formatCode(b, l.Code, d+1)
	}

	return b, nil
}

func formatCode(b []byte, code []asm.Instr, d int) []byte {
	for _, x := range code {
		b = app(b, d, "%-10v // % x\n", x.Op, x.Append(nil))
	}

	return b
}

func formatObject(ctx context.Context, b []byte, o *obj.Object, d int) ([]byte, error) {
	b = app(b, d, "sections: %d  shstrndx: %d  size: %#x\n", o.Header.Shnum, o.Header.Shstrndx, o.Size())

	for i, s := range o.Sections {
		name, _ := o.Shstrtab.Lookup(s.Name)

		b = app(b, d+1, "[%2d] %-10s %-14v off %#06x size %#06x link %d info %d align %d\n",
			i, name, elf.SectionType(s.Type), s.Offset, s.Size, s.Link, s.Info, s.Addralign)
	}

	b = app(b, d, "symbols: %d  first global: %d\n", len(o.Symbols), o.FirstGlobal)

	for i, s := range o.Symbols {
		name, _ := o.Strtab.Lookup(s.Name)

		b = app(b, d+1, "[%2d] %-12v %-12v shndx %#x value %#x %s\n",
			i, s.Bind(), s.Type(), s.Shndx, s.Value, name)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
