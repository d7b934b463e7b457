// Package symbols resolves, per lexical scope, which storage class each
// identifier belongs to — local, cell/free ("deref"), or global — and
// hands the emitter a tree of per-scope tables matching spec.md §6's
// SymbolTable contract: local_idx, deref_idx, num_local_vars,
// num_deref_vars, and child(i) walked in source order of function
// definitions.
//
// pebble has no closures (spec.md's Non-goals reserve STORE_DEREF/
// LOAD_DEREF for a future version), so in practice every Table's deref set
// stays empty and deref_idx never resolves. The slots exist so the
// emitter's store/load-resolution protocol and the reserved opcodes have
// something to query without a special case.
package symbols

import "github.com/kristofer/pebble/pkg/ast"

// Table is one lexical scope's symbol classification.
type Table struct {
	locals   []string
	derefs   []string
	localIdx map[string]int
	derefIdx map[string]int
	children []*Table
}

// NewTable creates an empty scope.
func NewTable() *Table {
	return &Table{
		localIdx: map[string]int{},
		derefIdx: map[string]int{},
	}
}

// LocalIdx returns the local slot for name, if any.
func (t *Table) LocalIdx(name string) (int, bool) {
	idx, ok := t.localIdx[name]
	return idx, ok
}

// DerefIdx returns the cell/free slot for name, if any. Always false until
// pebble gains closures.
func (t *Table) DerefIdx(name string) (int, bool) {
	idx, ok := t.derefIdx[name]
	return idx, ok
}

// NumLocalVars is the local slot count a Code built from this scope needs.
func (t *Table) NumLocalVars() int { return len(t.locals) }

// NumDerefVars is the deref slot count a Code built from this scope needs.
func (t *Table) NumDerefVars() int { return len(t.derefs) }

// Child returns the i-th nested function scope, in the source order
// function definitions were declared.
func (t *Table) Child(i int) *Table { return t.children[i] }

// declareLocal assigns name the next local slot if it doesn't already have
// one (re-assignment within the same scope reuses the existing slot).
func (t *Table) declareLocal(name string) {
	if _, ok := t.localIdx[name]; ok {
		return
	}
	t.localIdx[name] = len(t.locals)
	t.locals = append(t.locals, name)
}

// Resolver walks an AST, building the scope tree: one Table per Program
// and per FunctionDef body, with locals declared in assignment/parameter/
// loop-variable/function-name order of first occurrence — the same
// left-to-right pass the emitter itself makes, so the two stay in sync.
// The Program table ends up with no locals: module-level names resolve as
// globals.
type Resolver struct{}

// Resolve builds and returns the root scope for prog. Module-level names
// are globals, so the root table's locals are cleared after the walk; its
// children (one per FunctionDef) keep their local slots.
func Resolve(prog *ast.Program) *Table {
	root := NewTable()
	walkBlock(root, prog.Body)
	root.locals = nil
	root.localIdx = map[string]int{}
	return root
}

func walkBlock(scope *Table, block *ast.Block) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		walkStatement(scope, stmt)
	}
}

func walkStatement(scope *Table, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		walkBlock(scope, s)
	case *ast.If:
		walkExpr(scope, s.Condition)
		walkBlock(scope, s.Then)
	case *ast.While:
		walkExpr(scope, s.Condition)
		walkBlock(scope, s.Body)
	case *ast.For:
		walkExpr(scope, s.Iterable)
		scope.declareLocal(s.Var)
		walkBlock(scope, s.Body)
	case *ast.Continue, *ast.Break:
		// no identifiers
	case *ast.Return:
		if s.Value != nil {
			walkExpr(scope, s.Value)
		}
	case *ast.FunctionDef:
		scope.declareLocal(s.Name)
		child := NewTable()
		for _, p := range s.Params {
			child.declareLocal(p)
		}
		walkBlock(child, s.Body)
		scope.children = append(scope.children, child)
	case *ast.ExprStatement:
		walkExpr(scope, s.Expr)
	case *ast.Assignment:
		for _, t := range s.Targets {
			walkExpr(scope, t)
		}
		walkExpr(scope, s.Value)
		if len(s.Targets) == 0 {
			scope.declareLocal(s.Name)
		} else {
			// The base variable of v[a]...[z] must already be bound;
			// referencing it here would be a global/local load, not a
			// declaration, so it is intentionally not declared.
			_ = s.Name
		}
	}
}

func walkExpr(scope *Table, expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.BinaryOp:
		walkExpr(scope, e.Left)
		walkExpr(scope, e.Right)
	case *ast.UnaryOp:
		walkExpr(scope, e.Operand)
	case *ast.Call:
		walkExpr(scope, e.Callee)
		for _, a := range e.Args {
			walkExpr(scope, a)
		}
	case *ast.Index:
		walkExpr(scope, e.Recv)
		walkExpr(scope, e.At)
	case *ast.ListLiteral:
		for _, it := range e.Items {
			walkExpr(scope, it)
		}
	case *ast.SetLiteral:
		for _, it := range e.Items {
			walkExpr(scope, it)
		}
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			walkExpr(scope, entry.Value)
		}
	case *ast.Identifier, *ast.NumberLiteral, *ast.StringLiteral,
		*ast.BooleanLiteral, *ast.NoneLiteral:
		// leaves declare nothing; plain Identifier reads never
		// introduce a binding under this grammar (there's no implicit
		// declaration-by-read — only assignment and parameter binding
		// declare a local).
	}
}
