// Package repl implements pebble's interactive read-eval-print loop: read
// one statement (possibly spanning several physical lines), compile it,
// run it against a persistent VM session, print its result. The result is
// the value the compiled module returns, which is None (and not printed)
// unless the statement is a top-level return; the value of a bare
// expression statement is discarded and not shown.
//
// Unlike the teacher's shell (a flat bufio.Scanner loop with a "hey > "
// prompt and brace-balance continuation detection), pebble's grammar is
// indentation-sensitive, so "does this input need another line" is a
// question about open brackets and trailing colons rather than unmatched
// braces - see needsMoreInput.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/kristofer/pebble/internal/diagnostics"
	"github.com/kristofer/pebble/pkg/emitter"
	"github.com/kristofer/pebble/pkg/object"
	"github.com/kristofer/pebble/pkg/parser"
	"github.com/kristofer/pebble/pkg/pebbleerr"
	"github.com/kristofer/pebble/pkg/symbols"
	"github.com/kristofer/pebble/pkg/vm"
)

var resultColor = color.New(color.FgCyan).SprintFunc()

// REPL owns the readline session and the VM instance it persists across
// statements.
type REPL struct {
	rl  *readline.Instance
	vm  *vm.VM
	out io.Writer
}

// New builds a REPL writing VM output to out and prompting on the
// terminal via chzyer/readline.
func New(out io.Writer) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pebble> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &REPL{rl: rl, vm: vm.New(out), out: out}, nil
}

// Close releases the underlying readline session.
func (r *REPL) Close() error { return r.rl.Close() }

// Run reads and evaluates statements until EOF (Ctrl-D). An interrupt
// (Ctrl-C) discards the statement being typed and prompts again.
func (r *REPL) Run() error {
	for {
		source, err := r.readStatement()
		if err == io.EOF {
			return nil
		}
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(source) == "" {
			continue
		}
		r.evalAndPrint(source)
	}
}

// readStatement reads lines from the terminal, switching to a "... "
// continuation prompt while needsMoreInput holds, and returns the
// accumulated source once it doesn't (or the user submits a blank line).
func (r *REPL) readStatement() (string, error) {
	r.rl.SetPrompt("pebble> ")
	var b strings.Builder
	for {
		line, err := r.rl.Readline()
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteString("\n")
		if line == "" || !needsMoreInput(b.String()) {
			return b.String(), nil
		}
		r.rl.SetPrompt("...     ")
	}
}

// needsMoreInput reports whether source is an incomplete statement: an
// unclosed (), [], or {}, or a block header (ends in ":") whose body
// hasn't been typed yet.
func needsMoreInput(source string) bool {
	depth := 0
	for _, ch := range source {
		switch ch {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	if depth > 0 {
		return true
	}
	trimmed := strings.TrimRight(strings.TrimSpace(source), "\n")
	return strings.HasSuffix(trimmed, ":")
}

// evalAndPrint compiles and runs source against the REPL's persistent VM,
// printing either the module's returned value (when it is not None) or a
// formatted error.
func (r *REPL) evalAndPrint(source string) {
	p := parser.New(source)
	prog, err := p.Parse()
	if err != nil {
		for _, ce := range p.Errors() {
			fmt.Fprint(r.out, diagnostics.FormatCompileError(source, ce))
		}
		return
	}

	scope := symbols.Resolve(prog)
	mod := emitter.Emit(prog, scope)

	result, err := r.vm.Run(mod)
	if err != nil {
		if re, ok := err.(*pebbleerr.RuntimeError); ok {
			fmt.Fprint(r.out, diagnostics.FormatRuntimeError(re))
		} else {
			fmt.Fprintln(r.out, err)
		}
		return
	}

	if result.Kind == object.KindNone {
		return
	}
	str, callErr := r.vm.Attr(result, "__str__")
	if callErr != nil {
		return
	}
	rendered, callErr := r.vm.CallValue(str, []object.Value{result})
	if callErr != nil {
		return
	}
	fmt.Fprintln(r.out, resultColor(rendered.Str))
}
