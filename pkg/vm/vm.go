// Package vm implements the bytecode virtual machine for pebble.
//
// The VM is a stack-based interpreter that executes the instruction stream
// pkg/emitter produces. It's the final stage in the execution pipeline:
//
//	Source -> Lexer -> Parser -> Resolver -> Emitter -> Bytecode -> VM -> Execution
//
// Virtual Machine Architecture:
//
// Unlike a typical class-based OO VM, pebble has no user-defined classes or
// method tables: every runtime value belongs to one of ten fixed built-in
// classes (pkg/object.NewClassTable), and every operator, conversion, and
// protocol (arithmetic, comparison, indexing, iteration, calling) dispatches
// through a named "dunder" attribute looked up on that class. The VM's job
// is therefore less about method resolution and more about running the
// stack machine itself: maintaining an evaluation stack and a frame stack,
// and handling the handful of opcodes (CALL_FUNCTION, MAKE_GENERATOR,
// FOR_ITER, YIELD_VALUE, RETURN_VALUE) whose semantics reach outside a
// single instruction.
//
// Execution Model:
//
// Each Frame owns an instruction pointer into its own Code object and a
// slice of local-variable slots; all frames share one evaluation stack and
// one "temp" stack (used only to park a value across a compound-assignment
// sequence - see PUSH_TEMP/POP_TEMP below). A frame's BaseOffset is the
// eval-stack depth it was pushed at: RETURN_VALUE truncates the stack back
// to that depth before pushing its result, which is what makes an
// in-progress expression's scratch values invisible to the caller.
//
// Generators add a second way a frame can end: instead of returning, its
// body suspends at a YIELD_VALUE, freezing its locals, instruction pointer,
// and any in-flight expression stack into an object.Generator value. A
// later FOR_ITER or Generator.__next__ call resumes that frozen state as a
// fresh frame and runs it back to its next yield or return. See execYield,
// execReturn, and Next for the three places that machinery lives.
package vm

import (
	"fmt"
	"io"

	"github.com/kristofer/pebble/pkg/builtin"
	"github.com/kristofer/pebble/pkg/bytecode"
	"github.com/kristofer/pebble/pkg/object"
	"github.com/rs/zerolog"
)

// VM holds every piece of state a running program needs: the class table,
// the module's constants pool, the global and builtin namespaces, the
// frame stack, and the two value stacks (eval and temp) frames share.
type VM struct {
	classes   []*object.Class         // The fixed 10-entry class table
	constants []object.Value          // Current module's constants, rebound on every Run
	globals   map[string]object.Value // STORE_GLOBAL/LOAD_GLOBAL namespace
	builtins  map[string]object.Value // print/len/iter/next - consulted only when a name isn't in globals
	frames    []*Frame                // Call stack; frames[len-1] is the running frame
	stack     []object.Value          // The shared evaluation stack
	temp      []object.Value          // PUSH_TEMP/POP_TEMP scratch stack
	stdout    io.Writer               // Where print() writes
	log       zerolog.Logger          // Structured trace-level opcode logging
	debugger  *Debugger                // Optional interactive single-step debugger
}

// New builds a VM with a fresh class table (populated by pkg/builtin's
// native dunder methods) and print() wired to stdout. A single VM can run
// any number of modules via Run, in sequence, with globals persisting
// between them - this is what lets pkg/repl evaluate one statement at a
// time against a running session. Pass zerolog.Nop() (the default) to run
// silently, or a real logger at trace level to see each opcode dispatched.
func New(stdout io.Writer) *VM {
	classes := object.NewClassTable()
	builtin.Register(classes)

	vm := &VM{
		classes: classes,
		globals: map[string]object.Value{},
		stdout:  stdout,
		log:     zerolog.Nop(),
	}
	vm.builtins = vm.registerBuiltins()
	return vm
}

// SetLogger installs l for this VM's opcode-level tracing.
func (vm *VM) SetLogger(l zerolog.Logger) { vm.log = l }

// AttachDebugger installs d so step pauses before any instruction,
// in any frame, that d.ShouldPause approves.
func (vm *VM) AttachDebugger(d *Debugger) { vm.debugger = d }

// convertConstants lowers the emitter's untyped constants pool (float64,
// string, nil, *bytecode.Code) into object.Values once, up front, so the
// dispatch loop never has to do it per-instruction.
func (vm *VM) convertConstants(raw []interface{}) []object.Value {
	out := make([]object.Value, len(raw))
	for i, c := range raw {
		switch v := c.(type) {
		case nil:
			out[i] = object.None
		case float64:
			out[i] = object.Number(v)
		case string:
			out[i] = object.Str(v)
		case *bytecode.Code:
			out[i] = object.NewCode(v)
		default:
			panic(fmt.Sprintf("vm: constant pool entry %d has unexpected type %T", i, c))
		}
	}
	return out
}

// Run executes module's root code object to completion and returns the
// value left on the stack when its (implicit or explicit) top-level
// RETURN_VALUE runs. Constants are re-bound from module on every call, so
// a REPL can reuse one VM (keeping vm.globals live) across a sequence of
// independently-compiled statements.
func (vm *VM) Run(module *bytecode.Module) (object.Value, error) {
	vm.constants = vm.convertConstants(module.Constants)
	base := len(vm.stack)
	depth := len(vm.frames)
	vm.frames = append(vm.frames, &Frame{
		Name:       "<module>",
		Code:       module.Root,
		Locals:     make([]object.Value, module.Root.NumLocals),
		Derefs:     make([]object.Value, module.Root.NumDerefs),
		BaseOffset: base,
	})
	if err := vm.runUntil(depth); err != nil {
		return object.Value{}, err
	}
	result := vm.stack[base]
	vm.stack = vm.stack[:base]
	return result, nil
}

// runUntil dispatches instructions from the top frame until the frame
// stack's depth drops to targetDepth - i.e. until the frame that was on
// top when runUntil was called (and anything it calls) has returned.
// FOR_ITER and Next both reuse this to drive a resumed generator frame to
// its next suspension point without involving the outer dispatch loop.
func (vm *VM) runUntil(targetDepth int) error {
	for len(vm.frames) > targetDepth {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) top() *Frame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) push(v object.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() object.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek() object.Value { return vm.stack[len(vm.stack)-1] }

// step decodes and executes exactly one instruction of the current top
// frame, advancing its IP (or pushing/popping a frame) as appropriate.
func (vm *VM) step() error {
	f := vm.top()
	if f.IP < 0 || f.IP >= len(f.Code.Instructions) {
		return vm.runtimeError("instruction pointer ran off the end of %s", f.Name)
	}
	inst := f.Code.Instructions[f.IP]
	vm.log.Trace().Str("frame", f.Name).Int("ip", f.IP).Str("op", inst.Op.String()).Msg("step")

	if vm.debugger != nil && vm.debugger.ShouldPause(f.IP) {
		if !vm.debugger.InteractivePrompt(vm, f) {
			return vm.runtimeError("execution aborted by debugger")
		}
	}

	switch inst.Op {
	case bytecode.NOP:
		f.IP++

	case bytecode.POP_TOP:
		vm.pop()
		f.IP++

	case bytecode.SWAP_TOP:
		n := len(vm.stack)
		vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
		f.IP++

	case bytecode.DUP_TOP:
		vm.push(vm.peek())
		f.IP++

	case bytecode.INV_TOP:
		v := vm.pop()
		result, err := vm.callDunder(v, "__inv__")
		if err != nil {
			return vm.wrapError(err)
		}
		vm.push(result)
		f.IP++

	case bytecode.JUMP_FORWARD:
		f.IP = f.IP + inst.A

	case bytecode.JUMP_IF_FALSE:
		cond := vm.pop()
		if !cond.Bool {
			f.IP = f.IP + inst.A
		} else {
			f.IP++
		}

	case bytecode.JUMP_IF_TRUE:
		cond := vm.pop()
		if cond.Bool {
			f.IP = f.IP + inst.A
		} else {
			f.IP++
		}

	case bytecode.JUMP_ABSOLUTE:
		f.IP = inst.A

	case bytecode.MAKE_GENERATOR:
		iterable := vm.pop()
		gen, err := vm.callDunder(iterable, "__iter__")
		if err != nil {
			return vm.wrapError(err)
		}
		vm.push(gen)
		f.IP++

	case bytecode.FOR_ITER:
		if err := vm.execForIter(f, inst.A); err != nil {
			return err
		}

	case bytecode.STORE_LOCAL:
		f.Locals[inst.A] = vm.pop()
		f.IP++

	case bytecode.LOAD_LOCAL:
		vm.push(f.Locals[inst.A])
		f.IP++

	case bytecode.STORE_DEREF:
		f.Derefs[inst.A] = vm.pop()
		f.IP++

	case bytecode.LOAD_DEREF:
		vm.push(f.Derefs[inst.A])
		f.IP++

	case bytecode.STORE_GLOBAL:
		vm.globals[vm.constants[inst.A].Str] = vm.pop()
		f.IP++

	case bytecode.LOAD_GLOBAL:
		name := vm.constants[inst.A].Str
		if v, ok := vm.globals[name]; ok {
			vm.push(v)
		} else if v, ok := vm.builtins[name]; ok {
			vm.push(v)
		} else {
			return vm.runtimeError("global name '%s' is not defined", name)
		}
		f.IP++

	case bytecode.LOAD_ATTR:
		name := vm.constants[inst.A].Str
		method, err := vm.Attr(vm.peek(), name)
		if err != nil {
			return vm.wrapError(err)
		}
		vm.push(method)
		f.IP++

	case bytecode.STORE_ATTR:
		return vm.runtimeError("attribute assignment is not supported")

	case bytecode.LOAD_ACCESS:
		index := vm.pop()
		recv := vm.pop()
		result, err := vm.callDunder(recv, "__getitem__", index)
		if err != nil {
			return vm.wrapError(err)
		}
		vm.push(result)
		f.IP++

	case bytecode.STORE_ACCESS:
		value := vm.pop()
		index := vm.pop()
		recv := vm.pop()
		result, err := vm.callDunder(recv, "__setitem__", value, index)
		if err != nil {
			return vm.wrapError(err)
		}
		vm.push(result)
		f.IP++

	case bytecode.LOAD_CONST:
		vm.push(vm.constants[inst.A])
		f.IP++

	case bytecode.LOAD_TRUE:
		vm.push(object.True)
		f.IP++

	case bytecode.LOAD_FALSE:
		vm.push(object.False)
		f.IP++

	case bytecode.MAKE_FUNCTION:
		argc, codeIdx := inst.A, inst.B
		vm.pop() // discard the Code value LOAD_CONST just pushed; codeIdx already names it
		vm.push(object.NewBytecodeFunction(vm.constants[codeIdx].Code.Name, argc, codeIdx))
		f.IP++

	case bytecode.CALL_FUNCTION:
		if err := vm.execCall(f, inst.A); err != nil {
			return err
		}

	case bytecode.BUILD_LIST:
		vm.push(object.NewList(vm.popN(inst.A)))
		f.IP++

	case bytecode.BUILD_SET:
		vm.push(object.NewSet(vm.popN(inst.A)))
		f.IP++

	case bytecode.BUILD_DICT:
		if err := vm.execBuildDict(inst.A); err != nil {
			return vm.wrapError(err)
		}
		f.IP++

	case bytecode.RETURN_VALUE:
		if err := vm.execReturn(); err != nil {
			return err
		}

	case bytecode.YIELD_VALUE:
		if err := vm.execYield(); err != nil {
			return err
		}

	case bytecode.PUSH_TEMP:
		vm.temp = append(vm.temp, vm.pop())
		f.IP++

	case bytecode.POP_TEMP:
		n := len(vm.temp) - 1
		vm.push(vm.temp[n])
		vm.temp = vm.temp[:n]
		f.IP++

	default:
		return vm.runtimeError("unimplemented opcode %s", inst.Op)
	}
	return nil
}

// popN pops n values off the eval stack in natural (reverse-push) order,
// so popped[0] is the value that was on top - the emitter already
// reverses list/set/dict literal elements before emitting them, so
// popped[i] is the i-th element in source order and no
// further reversal belongs here (spec.md §4.2, BUILD_LIST/BUILD_SET/
// BUILD_DICT).
func (vm *VM) popN(n int) []object.Value {
	out := make([]object.Value, n)
	for i := 0; i < n; i++ {
		out[i] = vm.pop()
	}
	return out
}

func (vm *VM) execBuildDict(n int) error {
	popped := vm.popN(n)
	dict := object.NewDict()
	for j := 0; j < n/2; j++ {
		key, value := popped[2*j], popped[2*j+1]
		if key.Kind != object.KindString {
			return fmt.Errorf("dict keys must be strings")
		}
		dict.Dict.Set(key.Str, value)
	}
	vm.push(dict)
	return nil
}

// execCall implements CALL_FUNCTION n (spec.md §4.4).
//
//  1. Pop the callee and resolve __call__ on its class; if that lookup
//     fails, or succeeds with something other than a Function, the value
//     simply isn't callable - report that directly rather than surfacing
//     the underlying "no attribute '__call__'" message. (Function.__call__
//     is an identity passthrough, so a real Function always passes this
//     check; dispatch below proceeds against the callee's OWN Argc/Body,
//     never __call__'s - there's no second level of indirection.)
//  2. A bytecode function with declared Argc != n is a call-site arity
//     error. Natives always set IgnoreArgc, since their real argument
//     count (including a receiver folded in for dunders) routinely
//     differs from the instruction's own operand.
//  3. Natives consume exactly Argc values off the stack, in stack order -
//     this is what gives a binary dunder call site args = [other, self]
//     and a plain call site args = [arg0, ..., argN-1] (no receiver).
//     Bytecode functions consume exactly n values and install them into
//     locals 0..n-1 in the same order popped; the emitter's argument
//     evaluation order already reverses things so that this "just works"
//     without another reversal here.
func (vm *VM) execCall(f *Frame, n int) error {
	callee := vm.pop()
	method, err := vm.Attr(callee, "__call__")
	if err != nil || method.Kind != object.KindFunction {
		return vm.runtimeError("'%s' object is not callable", vm.classes[callee.ClassIndex()].Name)
	}
	fn := callee.Fn

	if !fn.IgnoreArgc && fn.Argc != n {
		return vm.runtimeError("%s() takes %d positional arguments but %d was given", fn.Name, fn.Argc, n)
	}

	if fn.Body.IsNative {
		args := vm.popN(fn.Argc)
		result, err := fn.Body.Native(vm, args)
		if err != nil {
			return vm.wrapError(err)
		}
		vm.push(result)
		f.IP++
		return nil
	}

	code := vm.constants[fn.Body.CodeConst].Code
	locals := make([]object.Value, code.NumLocals)
	args := vm.popN(n)
	for i := 0; i < n; i++ {
		locals[i] = args[i]
	}
	f.IP++
	vm.frames = append(vm.frames, &Frame{
		Name:       fn.Name,
		Code:       code.Instructions,
		Locals:     locals,
		Derefs:     make([]object.Value, code.NumDerefs),
		BaseOffset: len(vm.stack),
	})
	return nil
}

// execForIter implements FOR_ITER n (spec.md §4.6): the loop's generator
// sits on the eval stack throughout (pushed by MAKE_GENERATOR before the
// loop, left there by every prior iteration), so this never pops it
// except to discard it once exhausted.
func (vm *VM) execForIter(f *Frame, n int) error {
	forIterIP := f.IP
	gen := vm.peek()
	if gen.Gen.IsDone {
		vm.pop()
		f.IP = forIterIP + n
		return nil
	}

	if err := vm.resumeGenerator(gen, len(vm.stack)); err != nil {
		return err
	}

	// A resume that just finished the generator (RETURN_VALUE's
	// from_generator path) still delivers gen's last_value for this
	// iteration - only the *next* FOR_ITER, seeing IsDone already true
	// above, skips the body.
	f.IP = forIterIP + 1
	return nil
}

// resumeGenerator spawns a frame from gen's frozen state at baseOffset and
// runs it synchronously to its next suspension (YIELD_VALUE or, for an
// exhausted generator, RETURN_VALUE). baseOffset must be exactly one past
// gen's own position on the eval stack, so YIELD_VALUE/RETURN_VALUE's
// `evalStack[baseOffset-1]` finds gen again to mutate it in place.
func (vm *VM) resumeGenerator(gen object.Value, baseOffset int) error {
	vm.stack = append(vm.stack, gen.Gen.EvalStack...)
	locals := append([]object.Value(nil), gen.Gen.LocalVars...)
	vm.frames = append(vm.frames, &Frame{
		Name:          "<generator>",
		Code:          gen.Gen.Instrs,
		IP:            gen.Gen.IP,
		Locals:        locals,
		Derefs:        make([]object.Value, gen.Gen.Instrs.NumDerefs),
		BaseOffset:    baseOffset,
		FromGenerator: true,
	})
	return vm.runUntil(len(vm.frames) - 1)
}

// execYield implements YIELD_VALUE (spec.md §4.6, 4 steps): pop the
// yielded value and the current frame, then either fold it into a
// not-yet-materialized generator's first state (a generator function's
// first call, which runs as an ordinary frame until its first yield) or
// mutate an already-suspended generator in place and surface the value it
// showed at the previous suspension - the call site (FOR_ITER/Next) is
// waiting on exactly that value, not the one just yielded.
func (vm *VM) execYield() error {
	yielded := vm.pop()
	idx := len(vm.frames) - 1
	frame := vm.frames[idx]
	vm.frames = vm.frames[:idx]

	tail := append([]object.Value(nil), vm.stack[frame.BaseOffset:]...)
	vm.stack = vm.stack[:frame.BaseOffset]

	if !frame.FromGenerator {
		gen := object.NewGenerator(frame.Locals, frame.Code, frame.IP+1, yielded, false)
		gen.Gen.EvalStack = tail
		vm.push(gen)
		return nil
	}

	gen := vm.stack[frame.BaseOffset-1]
	previous := gen.Gen.LastValue
	gen.Gen.IP = frame.IP + 1
	gen.Gen.LocalVars = frame.Locals
	gen.Gen.LastValue = yielded
	gen.Gen.EvalStack = tail
	vm.push(previous)
	return nil
}

// execReturn implements RETURN_VALUE (spec.md §4.6): an ordinary frame
// truncates the stack back to its call site and leaves its result there; a
// generator-resume frame instead marks the generator done in place and
// re-exposes its last visible value, since a generator's RETURN_VALUE
// signals exhaustion rather than producing a new result.
func (vm *VM) execReturn() error {
	idx := len(vm.frames) - 1
	frame := vm.frames[idx]
	vm.frames = vm.frames[:idx]

	if !frame.FromGenerator {
		retval := vm.pop()
		vm.stack = vm.stack[:frame.BaseOffset]
		vm.push(retval)
		return nil
	}

	vm.pop() // sentinel; a generator body's own return value is never observable
	tail := append([]object.Value(nil), vm.stack[frame.BaseOffset:]...)
	vm.stack = vm.stack[:frame.BaseOffset]
	gen := vm.stack[frame.BaseOffset-1]
	gen.Gen.IsDone = true
	gen.Gen.EvalStack = tail
	vm.push(gen.Gen.LastValue)
	return nil
}

// Next drives gen one step (object.Caller, spec.md §4.6) for the
// Generator.__next__ native; FOR_ITER's execForIter shares resumeGenerator
// with it but does not call Next. Unlike FOR_ITER, the generator isn't already resident on the eval stack
// here, so Next builds the same two-slot setup (a last_value placeholder
// plus the generator itself) that gives resumeGenerator the "one past" gap
// it needs, then discards both once it has the result.
func (vm *VM) Next(gen object.Value) (object.Value, error) {
	if gen.Gen.IsDone {
		return gen.Gen.LastValue, nil
	}
	base := len(vm.stack)
	vm.push(gen.Gen.LastValue)
	vm.push(gen)

	if err := vm.resumeGenerator(gen, len(vm.stack)); err != nil {
		return object.Value{}, err
	}

	result := vm.stack[base+2]
	vm.stack = vm.stack[:base]
	return result, nil
}

// CallValue invokes callee (already resolved, e.g. via Attr) with args, the
// object.Caller primitive pkg/builtin's natives use for nested calls like
// List.__contains__ calling an element's __eq__. Only natives reach this
// path in practice; a bytecode Function would require its own frame, which
// native bodies never construct directly.
func (vm *VM) CallValue(callee object.Value, args []object.Value) (object.Value, error) {
	if callee.Fn == nil || !callee.Fn.Body.IsNative {
		return object.Value{}, fmt.Errorf("'%s' object is not callable", callee.Kind.String())
	}
	return callee.Fn.Body.Native(vm, args)
}

// Attr resolves name on v's class (object.Caller).
func (vm *VM) Attr(v object.Value, name string) (object.Value, error) {
	return object.ClassOf(v, vm.classes).Attr(name)
}

// callDunder is Attr+CallValue in one step, with args passed in the order
// given and the receiver appended last - the convention every pkg/builtin native
// expects (see pkg/builtin/builtin.go's package doc).
func (vm *VM) callDunder(self object.Value, name string, args ...object.Value) (object.Value, error) {
	method, err := vm.Attr(self, name)
	if err != nil {
		return object.Value{}, err
	}
	full := append(append([]object.Value{}, args...), self)
	return vm.CallValue(method, full)
}
