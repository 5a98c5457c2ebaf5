package assembler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/rasm/assembler/build"
	"github.com/slowlang/rasm/assembler/check"
	"github.com/slowlang/rasm/assembler/format"
	"github.com/slowlang/rasm/assembler/obj"
	"github.com/slowlang/rasm/assembler/opcode"
	"github.com/slowlang/rasm/assembler/parse"
)

type (
	Config struct {
		Globals       check.GlobalPolicy
		MergeSections bool

		Ops *opcode.Table
	}
)

func DefaultConfig() Config {
	return Config{
		Globals: check.GlobalFail,
		Ops:     opcode.Default,
	}
}

// AssembleFile assembles in and writes the object to out.
// Nothing is written if assembling fails.
func AssembleFile(ctx context.Context, cfg Config, in, out string) error {
	text, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", in)

	data, err := Assemble(ctx, cfg, in, text)
	if err != nil {
		return errors.Wrap(err, "%v", in)
	}

	err = os.WriteFile(out, data, 0o644)
	if err != nil {
		return errors.Wrap(err, "write file")
	}

	tlog.SpanFromContext(ctx).Printw("object written", "size", len(data), "name", out)

	return nil
}

// Assemble translates source text. name goes to the object's file symbol.
func Assemble(ctx context.Context, cfg Config, name string, text []byte) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "assemble", "name", name)
	defer tr.Finish("err", &err)

	if cfg.Ops == nil {
		cfg.Ops = opcode.Default
	}

	toks := parse.New(cfg.Ops).ParseText(string(text))
	lines := strings.Split(string(text), "\n")

	if tlog.If("tokens") {
		dump, _ := format.Format(ctx, nil, toks)
		tlog.Printw("tokens", "name", name, "dump", dump)
	}

	err = check.Check(ctx, toks, lines, cfg.Globals)
	if err != nil {
		return nil, err
	}

	secs := build.Build(toks, build.Options{
		MergeSections: cfg.MergeSections,
	})

	tr.Printw("sections built", "lines", len(lines), "sections", len(secs))

	if tlog.If("sections") {
		dump, _ := format.Format(ctx, nil, secs)
		tlog.Printw("sections", "name", name, "dump", dump)
	}

	o := obj.Layout(secs, name)

	if tlog.If("layout") {
		dump, _ := format.Format(ctx, nil, o)
		tlog.Printw("layout", "name", name, "dump", dump)
	}

	return o.AppendBinary(nil), nil
}

// OutputPath is in with extension replaced by .o.
func OutputPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".o"
}
