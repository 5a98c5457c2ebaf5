package main

import (
	"context"
	"os"
	"strings"

	"github.com/xyproto/env/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/rasm/assembler"
	"github.com/slowlang/rasm/assembler/build"
	"github.com/slowlang/rasm/assembler/check"
	"github.com/slowlang/rasm/assembler/format"
	"github.com/slowlang/rasm/assembler/obj"
	"github.com/slowlang/rasm/assembler/parse"
	"github.com/slowlang/rasm/link"
)

func main() {
	assembleCmd := &cli.Command{
		Name:        "assemble",
		Description: "assemble source files into relocatable objects",
		Action:      assembleAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "", "output object file (single input only)"),
			cli.NewFlag("link,l", false, "link the object into an executable"),
			cli.NewFlag("merge-sections", false, "continue repeated sections instead of starting new ones"),
			cli.NewFlag("globals", env.Str("RASM_GLOBALS", "fail"), "unresolved global symbols: fail, warn or ignore"),
		},
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print tokens, sections and object layout",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	linkCmd := &cli.Command{
		Name:        "link",
		Description: "link objects with the system linker ($RASM_LD)",
		Action:      linkAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "rasm",
		Description: "rasm is a tiny x86-64 assembler producing ELF64 relocatable objects",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics (tokens, sections, layout)"),
		},
		Commands: []*cli.Command{
			assembleCmd,
			parseCmd,
			linkCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	if v := c.String("verbosity"); v != "" {
		tlog.SetVerbosity(v)
	}

	return nil
}

func assembleAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg := assembler.DefaultConfig()
	cfg.MergeSections = c.Bool("merge-sections")

	cfg.Globals, err = check.ParseGlobalPolicy(c.String("globals"))
	if err != nil {
		return errors.Wrap(err, "globals flag")
	}

	out := c.String("output")
	if out != "" && len(c.Args) != 1 {
		return errors.New("--output needs exactly one input file, got %d", len(c.Args))
	}

	for _, a := range c.Args {
		o := out
		if o == "" {
			o = assembler.OutputPath(a)
		}

		err = assembler.AssembleFile(ctx, cfg, a, o)
		if err != nil {
			return errors.Wrap(err, "assemble")
		}

		if !c.Bool("link") {
			continue
		}

		err = link.Default().Link(ctx, o, link.Executable(o))
		if err != nil {
			return errors.Wrap(err, "link %v", o)
		}
	}

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		lines := strings.Split(string(text), "\n")
		toks := parse.ParseText(string(text))

		var b []byte

		b, err = format.Format(ctx, b, toks)
		if err != nil {
			return errors.Wrap(err, "format tokens")
		}

		err = check.Check(ctx, toks, lines, check.GlobalWarn)
		if err != nil {
			os.Stdout.Write(b)

			return errors.Wrap(err, "%v", a)
		}

		secs := build.Build(toks, build.Options{})

		b = append(b, '\n')

		b, err = format.Format(ctx, b, secs)
		if err != nil {
			return errors.Wrap(err, "format sections")
		}

		b = append(b, '\n')

		b, err = format.Format(ctx, b, obj.Layout(secs, a))
		if err != nil {
			return errors.Wrap(err, "format object")
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func linkAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	l := link.Default()

	for _, a := range c.Args {
		err = l.Link(ctx, a, link.Executable(a))
		if err != nil {
			return errors.Wrap(err, "link %v", a)
		}
	}

	return nil
}
