package check

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/rasm/assembler/parse"
)

type (
	Kind int

	// GlobalPolicy is what to do with global names never defined as a label.
	GlobalPolicy int

	Error struct {
		Line int // 0-based token index
		Text string
		Kind Kind

		Name   string // unresolved global
		Reason string // lexer diagnosis for invalid lines
	}
)

const (
	_ Kind = iota
	InvalidInstruction
	InvalidSectionName
	UnresolvedGlobalSymbol
)

const (
	GlobalFail GlobalPolicy = iota
	GlobalWarn
	GlobalIgnore
)

// Check reports the first offending token.
// lines are raw source lines used for messages, may be nil.
func Check(ctx context.Context, toks []parse.Token, lines []string, policy GlobalPolicy) error {
	text := func(i int) string {
		if i < len(lines) {
			return strings.TrimRight(lines[i], "\r")
		}

		return ""
	}

	labels := map[string]struct{}{}

	for _, tok := range toks {
		if l, ok := tok.(parse.Label); ok {
			labels[string(l)] = struct{}{}
		}
	}

	for i, tok := range toks {
		switch tok := tok.(type) {
		case parse.Invalid:
			return &Error{Line: i, Text: text(i), Kind: InvalidInstruction, Reason: tok.Reason}
		case parse.Section:
			if !ValidSectionName(string(tok)) {
				return &Error{Line: i, Text: text(i), Kind: InvalidSectionName}
			}
		case parse.Global:
			if policy == GlobalIgnore {
				continue
			}

			for _, name := range tok {
				if _, ok := labels[name]; ok {
					continue
				}

				if policy == GlobalFail {
					return &Error{Line: i, Text: text(i), Kind: UnresolvedGlobalSymbol, Name: name}
				}

				tlog.SpanFromContext(ctx).Printw("unresolved global symbol", "name", name, "line", i+1)
			}
		}
	}

	return nil
}

func ValidSectionName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.TrimSpace(name) != "."
}

func ParseGlobalPolicy(s string) (GlobalPolicy, error) {
	switch s {
	case "", "fail":
		return GlobalFail, nil
	case "warn":
		return GlobalWarn, nil
	case "ignore":
		return GlobalIgnore, nil
	default:
		return 0, errors.New("unknown global symbol policy: %q", s)
	}
}

func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "line %d: %q is %v", e.Line+1, e.Text, e.Kind)

	switch {
	case e.Name != "":
		fmt.Fprintf(&b, ": %v", e.Name)
	case e.Reason != "":
		fmt.Fprintf(&b, ": %v", e.Reason)
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

func (k Kind) Error() string { return k.String() }

func (k Kind) String() string {
	switch k {
	case InvalidInstruction:
		return "InvalidInstruction"
	case InvalidSectionName:
		return "InvalidSectionName"
	case UnresolvedGlobalSymbol:
		return "UnresolvedGlobalSymbol"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (p GlobalPolicy) String() string {
	switch p {
	case GlobalFail:
		return "fail"
	case GlobalWarn:
		return "warn"
	case GlobalIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("GlobalPolicy(%d)", int(p))
	}
}
