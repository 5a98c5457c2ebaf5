package link

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/xyproto/env/v2"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type Linker struct {
	Path      string
	Emulation string
}

const (
	DefaultPath      = "ld"
	DefaultEmulation = "elf_x86_64"
)

// Default takes linker settings from RASM_LD and RASM_LD_EMULATION.
// The environment is reread on each call.
func Default() Linker {
	env.Load()

	return Linker{
		Path:      env.Str("RASM_LD", DefaultPath),
		Emulation: env.Str("RASM_LD_EMULATION", DefaultEmulation),
	}
}

func (l Linker) Args(obj, out string) []string {
	return []string{"-m", l.Emulation, "-o", out, obj}
}

func (l Linker) Link(ctx context.Context, obj, out string) error {
	args := l.Args(obj, out)

	tlog.SpanFromContext(ctx).Printw("link", "linker", l.Path, "args", args)

	var buf bytes.Buffer

	cmd := exec.CommandContext(ctx, l.Path, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if err != nil {
		return errors.Wrap(err, "%v %v: %s", l.Path, strings.Join(args, " "), bytes.TrimSpace(buf.Bytes()))
	}

	return nil
}

// Executable is the output name for obj: obj without extension.
func Executable(obj string) string {
	if i := strings.LastIndexByte(obj, '.'); i > strings.LastIndexByte(obj, '/') {
		return obj[:i]
	}

	return obj + ".out"
}
