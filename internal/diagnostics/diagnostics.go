// Package diagnostics renders pebble's compile- and runtime-error values
// against their originating source text, for the CLI and REPL's
// user-facing output. It knows nothing about lexing/parsing/running
// pebble itself — it consumes the Pos/message shapes pkg/pebbleerr
// already produces.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/kristofer/pebble/pkg/pebbleerr"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	sourceLine = color.New(color.Faint).SprintFunc()
	caretColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	frameColor = color.New(color.Faint).SprintFunc()
)

// FormatCompileError renders err against source, pointing a caret at the
// offending column when its row is within range.
func FormatCompileError(source string, err *pebbleerr.CompileError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", errorLabel("error:"), err.Message)
	if line, ok := sourceLineAt(source, err.Pos.Row); ok {
		fmt.Fprintf(&b, "  %s %s\n", frameColor(fmt.Sprintf("%d |", err.Pos.Row)), sourceLine(line))
		fmt.Fprintf(&b, "  %s %s\n", frameColor(strings.Repeat(" ", len(fmt.Sprintf("%d |", err.Pos.Row)))), caret(err.Pos.Col))
	}
	return b.String()
}

// FormatRuntimeError renders a RuntimeError's message and its call-stack
// trace, most-recent frame first.
func FormatRuntimeError(err *pebbleerr.RuntimeError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", errorLabel("runtime error:"), err.Message)
	for i := len(err.StackTrace) - 1; i >= 0; i-- {
		f := err.StackTrace[i]
		fmt.Fprintf(&b, "  %s\n", frameColor(fmt.Sprintf("at %s [ip %d]", f.Name, f.IP)))
	}
	return b.String()
}

// sourceLineAt returns the 1-indexed row-th line of source.
func sourceLineAt(source string, row int) (string, bool) {
	lines := strings.Split(source, "\n")
	if row < 1 || row > len(lines) {
		return "", false
	}
	return lines[row-1], true
}

// caret renders a line of spaces with a "^" under column col (1-indexed).
func caret(col int) string {
	if col < 1 {
		col = 1
	}
	return strings.Repeat(" ", col-1) + caretColor("^")
}
