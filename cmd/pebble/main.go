// Command pebble is the CLI entry point for the pebble language: run
// source or compiled bytecode, compile source to a .pbc file, disassemble
// a compiled file, or drop into an interactive REPL.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/kristofer/pebble/internal/diagnostics"
	"github.com/kristofer/pebble/pkg/bytecode"
	"github.com/kristofer/pebble/pkg/emitter"
	"github.com/kristofer/pebble/pkg/parser"
	"github.com/kristofer/pebble/pkg/pebbleerr"
	"github.com/kristofer/pebble/pkg/repl"
	"github.com/kristofer/pebble/pkg/symbols"
	"github.com/kristofer/pebble/pkg/vm"
)

const version = "0.1.0"

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	app := &cli.Command{
		Name:  "pebble",
		Usage: "a small class-dispatched scripting language",
		Commands: []*cli.Command{
			runCommand(&logger),
			compileCommand(),
			disasmCommand(),
			replCommand(&logger),
			debugCommand(),
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "version", Aliases: []string{"v"}, Usage: "print the version and exit"},
			&cli.BoolFlag{Name: "trace", Usage: "log every opcode dispatched at trace level"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Println("pebble version " + version)
				return nil
			}
			if cmd.Args().Len() > 0 {
				return runFile(cmd.Args().First(), vmLogger(&logger, cmd))
			}
			return startREPL(os.Stdout)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func vmLogger(base *zerolog.Logger, cmd *cli.Command) zerolog.Logger {
	if cmd.Bool("trace") {
		return base.Level(zerolog.TraceLevel)
	}
	return zerolog.Nop()
}

func runCommand(base *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a .pebble source file or a .pbc bytecode file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "trace", Usage: "log every opcode dispatched at trace level"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("run: no file specified")
			}
			return runFile(cmd.Args().First(), vmLogger(base, cmd))
		},
	}
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "compile a .pebble source file to a .pbc bytecode file",
		ArgsUsage: "<input.pebble> [output.pbc]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("compile: no file specified")
			}
			input := cmd.Args().First()
			output := cmd.Args().Get(1)
			if output == "" {
				output = trimExt(input) + ".pbc"
			}
			return compileFile(input, output)
		},
	}
}

func disasmCommand() *cli.Command {
	return &cli.Command{
		Name:      "disasm",
		Usage:     "disassemble a .pbc bytecode file to human-readable instructions",
		ArgsUsage: "<file.pbc>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("disasm: no file specified")
			}
			return disasmFile(cmd.Args().First())
		},
	}
}

func debugCommand() *cli.Command {
	return &cli.Command{
		Name:      "debug",
		Usage:     "run a file under the interactive single-step debugger",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{Name: "break", Usage: "instruction index to break at (repeatable)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("debug: no file specified")
			}
			mod, err := loadModule(cmd.Args().First())
			if err != nil {
				return err
			}

			d := vm.NewDebugger(os.Stdin, os.Stdout)
			d.Enable()
			for _, ip := range cmd.IntSlice("break") {
				d.AddBreakpoint(int(ip))
			}

			machine := vm.New(os.Stdout)
			machine.AttachDebugger(d)
			if _, err := machine.Run(mod); err != nil {
				if re, ok := err.(*pebbleerr.RuntimeError); ok {
					fmt.Fprint(os.Stderr, diagnostics.FormatRuntimeError(re))
					return cli.Exit("", 1)
				}
				return err
			}
			return nil
		},
	}
}

func replCommand(base *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "start the interactive read-eval-print loop",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return startREPL(os.Stdout)
		},
	}
}

func trimExt(path string) string {
	return path[:len(path)-len(filepath.Ext(path))]
}

// runFile loads filename (source or .pbc, by extension) and executes it on
// a fresh VM, printing a formatted diagnostic and returning an error on
// either a compile or runtime failure.
func runFile(filename string, logger zerolog.Logger) error {
	mod, err := loadModule(filename)
	if err != nil {
		return err
	}

	machine := vm.New(os.Stdout)
	machine.SetLogger(logger)
	if _, err := machine.Run(mod); err != nil {
		if re, ok := err.(*pebbleerr.RuntimeError); ok {
			fmt.Fprint(os.Stderr, diagnostics.FormatRuntimeError(re))
			return cli.Exit("", 1)
		}
		return err
	}
	return nil
}

// loadModule reads filename and produces a *bytecode.Module: a .pbc file
// decodes directly, anything else is treated as pebble source and run
// through the full lex/parse/resolve/emit pipeline.
func loadModule(filename string) (*bytecode.Module, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(filename) == ".pbc" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return bytecode.Decode(f)
	}
	return compileSource(filename, string(data))
}

// compileSource runs source through the lexer/parser/symbol resolver/
// emitter, rendering every accumulated parse error against source before
// returning a single combined error.
func compileSource(filename, source string) (*bytecode.Module, error) {
	p := parser.New(source)
	prog, err := p.Parse()
	if err != nil {
		for _, ce := range p.Errors() {
			fmt.Fprint(os.Stderr, diagnostics.FormatCompileError(source, ce))
		}
		return nil, fmt.Errorf("%s: compilation failed", filename)
	}
	scope := symbols.Resolve(prog)
	return emitter.Emit(prog, scope), nil
}

func compileFile(input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	mod, err := compileSource(input, string(data))
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := bytecode.Encode(mod, f); err != nil {
		return err
	}
	fmt.Printf("compiled %s -> %s\n", input, output)
	return nil
}

func disasmFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	mod, err := bytecode.Decode(f)
	if err != nil {
		return err
	}
	fmt.Print(bytecode.Disassemble(mod.Root, mod.Constants))
	return nil
}

func startREPL(out *os.File) error {
	r, err := repl.New(out)
	if err != nil {
		return err
	}
	defer r.Close()
	fmt.Fprintln(out, "pebble "+version+" - Ctrl-D to exit")
	return r.Run()
}
