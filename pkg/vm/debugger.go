// Package vm - debugger support
package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kristofer/pebble/pkg/object"
)

// describe renders v for debugger display directly off its tagged fields,
// deliberately bypassing __str__ dispatch - a paused debugger must not
// trigger user-visible VM execution just to print a stack slot.
func describe(v object.Value) string {
	switch v.Kind {
	case object.KindNone:
		return "None"
	case object.KindNumber:
		return fmt.Sprintf("%s(%g)", v.Kind, v.Num)
	case object.KindBoolean:
		return fmt.Sprintf("%s(%t)", v.Kind, v.Bool)
	case object.KindString:
		return fmt.Sprintf("%s(%q)", v.Kind, v.Str)
	case object.KindList:
		return fmt.Sprintf("%s(len=%d)", v.Kind, len(v.List.Items))
	case object.KindSet:
		return fmt.Sprintf("%s(len=%d)", v.Kind, len(v.Set.Items))
	case object.KindDict:
		return fmt.Sprintf("%s(len=%d)", v.Kind, len(v.Dict.Keys))
	case object.KindFunction:
		return fmt.Sprintf("%s(%s)", v.Kind, v.Fn.Name)
	default:
		return v.Kind.String()
	}
}

// Debugger provides interactive single-step debugging over a VM: pause
// before a chosen instruction executes, inspect the eval stack, the
// current frame's locals, globals, and the call stack, then resume one
// step at a time or run to the next breakpoint.
type Debugger struct {
	breakpoints map[int]bool
	stepMode    bool
	enabled     bool
	in          io.Reader
	out         io.Writer
}

// NewDebugger creates a disabled debugger reading commands from in and
// writing prompts/output to out.
func NewDebugger(in io.Reader, out io.Writer) *Debugger {
	return &Debugger{breakpoints: make(map[int]bool), in: in, out: out}
}

// Enable activates the debugger; a disabled debugger never pauses.
func (d *Debugger) Enable() { d.enabled = true }

// SetStepMode toggles pausing before every instruction rather than only
// at breakpoints.
func (d *Debugger) SetStepMode(on bool) { d.stepMode = on }

// AddBreakpoint pauses execution just before the instruction at ip runs.
func (d *Debugger) AddBreakpoint(ip int) { d.breakpoints[ip] = true }

// RemoveBreakpoint clears a previously set breakpoint.
func (d *Debugger) RemoveBreakpoint(ip int) { delete(d.breakpoints, ip) }

// ShouldPause reports whether the debugger wants to stop before ip runs.
// The VM asks this in every frame, so a breakpoint index matches that
// instruction index in whichever frame reaches it.
func (d *Debugger) ShouldPause(ip int) bool {
	if !d.enabled {
		return false
	}
	return d.stepMode || d.breakpoints[ip]
}

// InteractivePrompt is called by the VM's dispatch loop when ShouldPause
// returns true for the frame about to execute. It blocks on commands from
// d.in until one resumes execution (continue/step/next) or aborts it
// (quit), returning whether to resume.
func (d *Debugger) InteractivePrompt(vm *VM, f *Frame) bool {
	fmt.Fprintln(d.out, "\n=== paused ===")
	d.showCurrentInstruction(f)

	scanner := bufio.NewScanner(d.in)
	for {
		fmt.Fprint(d.out, "debug> ")
		if !scanner.Scan() {
			return false
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "help", "h", "?":
			d.printHelp()
		case "continue", "c":
			d.SetStepMode(false)
			return true
		case "step", "s", "next", "n":
			d.SetStepMode(true)
			return true
		case "stack", "st":
			d.showStack(vm)
		case "locals", "l":
			d.showLocals(f)
		case "globals", "g":
			d.showGlobals(vm)
		case "callstack", "cs":
			d.showCallStack(vm)
		case "instruction", "i":
			d.showCurrentInstruction(f)
		case "breakpoint", "b":
			d.handleBreakpointCmd(parts, d.AddBreakpoint, "added")
		case "delete", "d":
			d.handleBreakpointCmd(parts, d.RemoveBreakpoint, "removed")
		case "list", "ls":
			d.listInstructions(f)
		case "quit", "q":
			return false
		default:
			fmt.Fprintf(d.out, "unknown command: %s (try 'help')\n", parts[0])
		}
	}
}

func (d *Debugger) handleBreakpointCmd(parts []string, apply func(int), verb string) {
	if len(parts) < 2 {
		fmt.Fprintf(d.out, "usage: %s <instruction index>\n", parts[0])
		return
	}
	ip, err := strconv.Atoi(parts[1])
	if err != nil {
		fmt.Fprintln(d.out, "invalid instruction index")
		return
	}
	apply(ip)
	fmt.Fprintf(d.out, "breakpoint %s at %d\n", verb, ip)
}

func (d *Debugger) printHelp() {
	fmt.Fprintln(d.out, "commands: help continue step stack locals globals callstack instruction breakpoint <n> delete <n> list quit")
}

func (d *Debugger) showCurrentInstruction(f *Frame) {
	if f.IP >= len(f.Code.Instructions) {
		fmt.Fprintln(d.out, "(no current instruction)")
		return
	}
	inst := f.Code.Instructions[f.IP]
	fmt.Fprintf(d.out, "  %4d: %s %d %d\n", f.IP, inst.Op, inst.A, inst.B)
}

func (d *Debugger) showStack(vm *VM) {
	fmt.Fprintln(d.out, "stack (top to bottom):")
	if len(vm.stack) == 0 {
		fmt.Fprintln(d.out, "  (empty)")
		return
	}
	for i := len(vm.stack) - 1; i >= 0; i-- {
		fmt.Fprintf(d.out, "  [%d] %s\n", i, describe(vm.stack[i]))
	}
}

func (d *Debugger) showLocals(f *Frame) {
	fmt.Fprintln(d.out, "locals:")
	if len(f.Locals) == 0 {
		fmt.Fprintln(d.out, "  (none)")
		return
	}
	for i, v := range f.Locals {
		fmt.Fprintf(d.out, "  [%d] %s\n", i, describe(v))
	}
}

func (d *Debugger) showGlobals(vm *VM) {
	fmt.Fprintln(d.out, "globals:")
	if len(vm.globals) == 0 {
		fmt.Fprintln(d.out, "  (none)")
		return
	}
	for name, v := range vm.globals {
		fmt.Fprintf(d.out, "  %s = %s\n", name, describe(v))
	}
}

func (d *Debugger) showCallStack(vm *VM) {
	fmt.Fprintln(d.out, "call stack (top to bottom):")
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := vm.frames[i]
		fmt.Fprintf(d.out, "  %s [ip %d]\n", fr.Name, fr.IP)
	}
}

func (d *Debugger) listInstructions(f *Frame) {
	for i, inst := range f.Code.Instructions {
		marker := "  "
		if i == f.IP {
			marker = "->"
		} else if d.breakpoints[i] {
			marker = "* "
		}
		fmt.Fprintf(d.out, "%s %4d: %s %d %d\n", marker, i, inst.Op, inst.A, inst.B)
	}
}
