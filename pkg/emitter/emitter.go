// Package emitter lowers a resolved AST into bytecode: a flat instruction
// stream per code object, a shared module constants pool, and the control-
// flow patching (forward jumps, loop back-edges, break targets) that ties
// the two together.
//
// One Emitter builds exactly one code object. Nested function definitions
// spawn a child Emitter sharing the parent's constants pool (so string and
// number interning is module-wide) but writing into their own instruction
// buffer; the finished child Code is interned as a constant of the parent
// and referenced by index via MAKE_FUNCTION.
package emitter

import (
	"github.com/kristofer/pebble/pkg/ast"
	"github.com/kristofer/pebble/pkg/bytecode"
	"github.com/kristofer/pebble/pkg/symbols"
)

// loopContext tracks the addresses a break/continue inside the current
// loop need: the back-edge target and the list of break placeholders still
// awaiting their final patch.
type loopContext struct {
	start       int
	breakPoints []int
}

// pool is the module-wide constants pool and its interning maps, shared by
// a root Emitter and every Emitter spawned for a nested function body.
type pool struct {
	constants []interface{}
	strings   map[string]int
	numbers   map[float64]int
}

func newPool() *pool {
	p := &pool{
		strings: map[string]int{},
		numbers: map[float64]int{},
	}
	// Constants pool index 0 is reserved as None (spec.md §3).
	p.constants = append(p.constants, nil)
	return p
}

func (p *pool) internString(s string) int {
	if idx, ok := p.strings[s]; ok {
		return idx
	}
	idx := len(p.constants)
	p.constants = append(p.constants, s)
	p.strings[s] = idx
	return idx
}

func (p *pool) internNumber(n float64) int {
	if idx, ok := p.numbers[n]; ok {
		return idx
	}
	idx := len(p.constants)
	p.constants = append(p.constants, n)
	p.numbers[n] = idx
	return idx
}

func (p *pool) addCode(c *bytecode.Code) int {
	idx := len(p.constants)
	p.constants = append(p.constants, c)
	return idx
}

// Emitter builds one code object's instruction stream against a single
// lexical scope, threading a shared pool for constants.
type Emitter struct {
	pool         *pool
	scope        *symbols.Table
	instructions []bytecode.Instruction
	childIdx     int // next unconsumed child scope, in source order
	loops        []*loopContext
}

// Emit compiles prog's root block into a *bytecode.Module ready for the VM.
func Emit(prog *ast.Program, scope *symbols.Table) *bytecode.Module {
	p := newPool()
	e := &Emitter{pool: p, scope: scope}
	e.emitBlock(prog.Body)
	e.finalize()

	return &bytecode.Module{
		Root: &bytecode.Code{
			Instructions: e.instructions,
			NumLocals:    scope.NumLocalVars(),
			NumDerefs:    scope.NumDerefVars(),
		},
		Constants: p.constants,
	}
}

func newChildEmitter(p *pool, scope *symbols.Table) *Emitter {
	return &Emitter{pool: p, scope: scope}
}

func (e *Emitter) emit(op bytecode.Op, a int) int {
	e.instructions = append(e.instructions, bytecode.Instruction{Op: op, A: a})
	return len(e.instructions) - 1
}

func (e *Emitter) emit2(op bytecode.Op, a, b int) int {
	e.instructions = append(e.instructions, bytecode.Instruction{Op: op, A: a, B: b})
	return len(e.instructions) - 1
}

// patch rewrites the operand of the instruction at ip in place.
func (e *Emitter) patch(ip int, a int) {
	e.instructions[ip].A = a
}

func (e *Emitter) finalize() {
	if len(e.instructions) == 0 || e.instructions[len(e.instructions)-1].Op != bytecode.RETURN_VALUE {
		e.emit(bytecode.LOAD_CONST, 0)
		e.emit(bytecode.RETURN_VALUE, 0)
	}
}

func (e *Emitter) emitBlock(block *ast.Block) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		e.emitStatement(stmt)
	}
}

func (e *Emitter) emitStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		e.emitBlock(s)
	case *ast.If:
		e.emitIf(s)
	case *ast.While:
		e.emitWhile(s)
	case *ast.For:
		e.emitFor(s)
	case *ast.Continue:
		e.emitContinue(s)
	case *ast.Break:
		e.emitBreak(s)
	case *ast.Return:
		e.emitReturn(s)
	case *ast.FunctionDef:
		e.emitFunctionDef(s)
	case *ast.ExprStatement:
		e.emitExpr(s.Expr)
		e.emit(bytecode.POP_TOP, 0)
	case *ast.Assignment:
		e.emitAssignment(s)
	}
}

// emitIf: condition, placeholder JUMP_IF_FALSE, then-branch, patched to
// skip the then-branch (+1 because the VM adds the offset to the jump's
// own index, so the target is the first instruction after the then-branch).
func (e *Emitter) emitIf(s *ast.If) {
	e.emitExpr(s.Condition)
	placeholder := e.emit(bytecode.JUMP_IF_FALSE, 0)
	e.emitBlock(s.Then)
	thenLen := len(e.instructions) - placeholder - 1
	e.patch(placeholder, thenLen+1)
}

func (e *Emitter) emitWhile(s *ast.While) {
	start := len(e.instructions)
	loop := &loopContext{start: start}
	e.loops = append(e.loops, loop)

	e.emitExpr(s.Condition)
	placeholder := e.emit(bytecode.JUMP_IF_FALSE, 0)
	e.emitBlock(s.Body)
	e.emit(bytecode.JUMP_ABSOLUTE, start)

	bodyLen := len(e.instructions) - placeholder - 1
	e.patch(placeholder, bodyLen+1)

	loopEnd := len(e.instructions)
	for _, bp := range loop.breakPoints {
		e.patch(bp, loopEnd)
		e.instructions[bp].Op = bytecode.JUMP_ABSOLUTE
	}
	e.loops = e.loops[:len(e.loops)-1]
}

func (e *Emitter) emitFor(s *ast.For) {
	e.emitExpr(s.Iterable)
	e.emit(bytecode.MAKE_GENERATOR, 0)

	loopIP := len(e.instructions)
	loop := &loopContext{start: loopIP}
	e.loops = append(e.loops, loop)

	placeholder := e.emit(bytecode.FOR_ITER, 0)
	e.emitStore(s.Var)
	e.emitBlock(s.Body)
	e.emit(bytecode.JUMP_ABSOLUTE, loopIP)

	bodyLen := len(e.instructions) - placeholder - 1
	e.patch(placeholder, bodyLen+1)

	loopEnd := len(e.instructions)
	for _, bp := range loop.breakPoints {
		e.patch(bp, loopEnd)
		e.instructions[bp].Op = bytecode.JUMP_ABSOLUTE
	}
	e.loops = e.loops[:len(e.loops)-1]
}

func (e *Emitter) currentLoop() *loopContext {
	return e.loops[len(e.loops)-1]
}

func (e *Emitter) emitContinue(s *ast.Continue) {
	e.emit(bytecode.JUMP_ABSOLUTE, e.currentLoop().start)
}

func (e *Emitter) emitBreak(s *ast.Break) {
	ip := e.emit(bytecode.JUMP_ABSOLUTE, 0)
	loop := e.currentLoop()
	loop.breakPoints = append(loop.breakPoints, ip)
}

func (e *Emitter) emitReturn(s *ast.Return) {
	if s.Value != nil {
		e.emitExpr(s.Value)
	} else {
		e.emit(bytecode.LOAD_CONST, 0)
	}
	e.emit(bytecode.RETURN_VALUE, 0)
}

func (e *Emitter) emitFunctionDef(s *ast.FunctionDef) {
	childScope := e.scope.Child(e.childIdx)
	e.childIdx++

	child := newChildEmitter(e.pool, childScope)
	child.emitBlock(s.Body)
	child.finalize()

	code := &bytecode.Code{
		Instructions: child.instructions,
		NumLocals:    childScope.NumLocalVars(),
		NumDerefs:    childScope.NumDerefVars(),
		Name:         s.Name,
	}
	codeIdx := e.pool.addCode(code)

	e.emit(bytecode.LOAD_CONST, codeIdx)
	e.emit2(bytecode.MAKE_FUNCTION, len(s.Params), codeIdx)
	e.emitStore(s.Name)
}

// emitAssignment implements spec.md §4.2's Assignment rule, including the
// indexed and compound variants.
func (e *Emitter) emitAssignment(s *ast.Assignment) {
	if len(s.Targets) == 0 {
		e.emitExpr(s.Value)
		e.emitStore(s.Name)
		return
	}

	e.emitLoad(s.Name)
	for _, idx := range s.Targets[:len(s.Targets)-1] {
		e.emitExpr(idx)
		e.emit(bytecode.LOAD_ACCESS, 0)
		e.emit(bytecode.SWAP_TOP, 0)
		e.emit(bytecode.POP_TOP, 0)
	}

	last := s.Targets[len(s.Targets)-1]
	e.emitExpr(last)

	if s.Op == ast.OpAssign {
		e.emitExpr(s.Value)
	} else {
		e.emit(bytecode.DUP_TOP, 0)
		e.emit(bytecode.PUSH_TEMP, 0)
		e.emit(bytecode.LOAD_ACCESS, 0)
		dunderIdx := e.pool.internString(s.Op.Dunder())
		e.emit(bytecode.LOAD_ATTR, dunderIdx)
		e.emitExpr(s.Value)
		e.emit(bytecode.SWAP_TOP, 0)
		e.emit(bytecode.CALL_FUNCTION, 1)
		e.emit(bytecode.POP_TEMP, 0)
		e.emit(bytecode.SWAP_TOP, 0)
	}

	e.emit(bytecode.STORE_ACCESS, 0)
	e.emit(bytecode.POP_TOP, 0)
}

// emitExpr lowers an expression, leaving exactly one value on the eval
// stack.
func (e *Emitter) emitExpr(expr ast.Expression) {
	switch x := expr.(type) {
	case *ast.BinaryOp:
		e.emitExpr(x.Left)
		dunderIdx := e.pool.internString(x.Op)
		e.emit(bytecode.LOAD_ATTR, dunderIdx)
		e.emitExpr(x.Right)
		e.emit(bytecode.SWAP_TOP, 0)
		e.emit(bytecode.CALL_FUNCTION, 1)
	case *ast.UnaryOp:
		e.emitExpr(x.Operand)
		dunderIdx := e.pool.internString(x.Op)
		e.emit(bytecode.LOAD_ATTR, dunderIdx)
		e.emit(bytecode.CALL_FUNCTION, 0)
	case *ast.Call:
		for i := len(x.Args) - 1; i >= 0; i-- {
			e.emitExpr(x.Args[i])
		}
		e.emitExpr(x.Callee)
		e.emit(bytecode.CALL_FUNCTION, len(x.Args))
	case *ast.Index:
		e.emitExpr(x.Recv)
		e.emitExpr(x.At)
		e.emit(bytecode.LOAD_ACCESS, 0)
	case *ast.Identifier:
		e.emitLoad(x.Name)
	case *ast.NumberLiteral:
		e.emit(bytecode.LOAD_CONST, e.pool.internNumber(x.Value))
	case *ast.StringLiteral:
		e.emit(bytecode.LOAD_CONST, e.pool.internString(x.Value))
	case *ast.BooleanLiteral:
		if x.Value {
			e.emit(bytecode.LOAD_TRUE, 0)
		} else {
			e.emit(bytecode.LOAD_FALSE, 0)
		}
	case *ast.NoneLiteral:
		e.emit(bytecode.LOAD_CONST, 0)
	case *ast.ListLiteral:
		for i := len(x.Items) - 1; i >= 0; i-- {
			e.emitExpr(x.Items[i])
		}
		e.emit(bytecode.BUILD_LIST, len(x.Items))
	case *ast.SetLiteral:
		for i := len(x.Items) - 1; i >= 0; i-- {
			e.emitExpr(x.Items[i])
		}
		e.emit(bytecode.BUILD_SET, len(x.Items))
	case *ast.DictLiteral:
		for i := len(x.Entries) - 1; i >= 0; i-- {
			entry := x.Entries[i]
			e.emitExpr(entry.Value)
			e.emit(bytecode.LOAD_CONST, e.pool.internString(entry.Key))
		}
		e.emit(bytecode.BUILD_DICT, 2*len(x.Entries))
	}
}

// emitLoad resolves name against the current scope and emits the matching
// load instruction (local, then deref, else global), per the store/load-
// resolution protocol in spec.md §4.2.
func (e *Emitter) emitLoad(name string) {
	if idx, ok := e.scope.LocalIdx(name); ok {
		e.emit(bytecode.LOAD_LOCAL, idx)
		return
	}
	if idx, ok := e.scope.DerefIdx(name); ok {
		e.emit(bytecode.LOAD_DEREF, idx)
		return
	}
	e.emit(bytecode.LOAD_GLOBAL, e.pool.internString(name))
}

// emitStore resolves name against the current scope and emits the matching
// store instruction (local, then deref, else global).
func (e *Emitter) emitStore(name string) {
	if idx, ok := e.scope.LocalIdx(name); ok {
		e.emit(bytecode.STORE_LOCAL, idx)
		return
	}
	if idx, ok := e.scope.DerefIdx(name); ok {
		e.emit(bytecode.STORE_DEREF, idx)
		return
	}
	e.emit(bytecode.STORE_GLOBAL, e.pool.internString(name))
}
