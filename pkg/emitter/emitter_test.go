package emitter

import (
	"strings"
	"testing"

	"github.com/kristofer/pebble/pkg/bytecode"
	"github.com/kristofer/pebble/pkg/parser"
	"github.com/kristofer/pebble/pkg/symbols"
)

func mustEmit(t *testing.T, src string) *bytecode.Module {
	t.Helper()
	p := parser.New(src)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	scope := symbols.Resolve(prog)
	return Emit(prog, scope)
}

func TestFinalizationAppendsReturnWhenMissing(t *testing.T) {
	mod := mustEmit(t, "x = 1\n")
	last := mod.Root.Instructions[len(mod.Root.Instructions)-1]
	if last.Op != bytecode.RETURN_VALUE {
		t.Fatalf("expected RETURN_VALUE as final instruction, got %s", last.Op)
	}
	secondToLast := mod.Root.Instructions[len(mod.Root.Instructions)-2]
	if secondToLast.Op != bytecode.LOAD_CONST || secondToLast.A != 0 {
		t.Fatalf("expected LOAD_CONST 0 before final RETURN_VALUE, got %+v", secondToLast)
	}
}

func TestConstantsPoolIndexZeroIsNone(t *testing.T) {
	mod := mustEmit(t, "x = 1\n")
	if mod.Constants[0] != nil {
		t.Fatalf("expected constants[0] == nil (None), got %#v", mod.Constants[0])
	}
}

func TestArithmeticEmission(t *testing.T) {
	mod := mustEmit(t, "x = 1 + 2 * 3\n")
	ops := opSequence(mod.Root.Instructions)
	// 1, __mul__'s receiver chain nested inside __add__'s RHS.
	want := []bytecode.Op{
		bytecode.LOAD_CONST, bytecode.LOAD_ATTR, // 1 .__add__
		bytecode.LOAD_CONST, bytecode.LOAD_ATTR, // 2 .__mul__
		bytecode.LOAD_CONST, bytecode.SWAP_TOP, bytecode.CALL_FUNCTION, // 3, call mul
		bytecode.SWAP_TOP, bytecode.CALL_FUNCTION, // call add
		bytecode.STORE_GLOBAL,
		bytecode.LOAD_CONST, bytecode.RETURN_VALUE,
	}
	assertOpSequence(t, ops, want)
}

func TestIfEmissionOffsetIsThenLengthPlusOne(t *testing.T) {
	mod := mustEmit(t, "x = 10\nif x > 5:\n    x = 1\n")
	var jumpIdx = -1
	for i, in := range mod.Root.Instructions {
		if in.Op == bytecode.JUMP_IF_FALSE {
			jumpIdx = i
			break
		}
	}
	if jumpIdx == -1 {
		t.Fatalf("expected a JUMP_IF_FALSE instruction")
	}
	// then-branch: LOAD_CONST, STORE_GLOBAL (2 instructions) -> offset 2+1=3
	in := mod.Root.Instructions[jumpIdx]
	if in.A != 3 {
		t.Fatalf("expected JUMP_IF_FALSE offset 3, got %d", in.A)
	}
}

func TestWhileEmissionPatchesBreakAndBackEdge(t *testing.T) {
	mod := mustEmit(t, "i = 0\nwhile True:\n    if i == 3:\n        break\n    i = i + 1\nprint(i)\n")
	var sawBackEdge, sawBreakJump bool
	for _, in := range mod.Root.Instructions {
		if in.Op == bytecode.JUMP_ABSOLUTE {
			if sawBackEdge {
				sawBreakJump = true
			}
			sawBackEdge = true
		}
	}
	if !sawBreakJump {
		t.Fatalf("expected both a loop back-edge and a patched break JUMP_ABSOLUTE")
	}
}

func TestForEmissionUsesForIterAndMakeGenerator(t *testing.T) {
	mod := mustEmit(t, "s = 0\nfor v in [1, 2, 3]:\n    s = s + v\n")
	var sawMakeGen, sawForIter bool
	for _, in := range mod.Root.Instructions {
		if in.Op == bytecode.MAKE_GENERATOR {
			sawMakeGen = true
		}
		if in.Op == bytecode.FOR_ITER {
			sawForIter = true
		}
	}
	if !sawMakeGen || !sawForIter {
		t.Fatalf("expected MAKE_GENERATOR and FOR_ITER in for-loop emission")
	}
}

func TestIndexedCompoundAssignmentEmitsTempStackSequence(t *testing.T) {
	mod := mustEmit(t, "d = {'k': 10}\nd['k'] += 5\n")
	ops := opSequence(mod.Root.Instructions)
	needed := []bytecode.Op{
		bytecode.DUP_TOP, bytecode.PUSH_TEMP, bytecode.LOAD_ACCESS,
		bytecode.LOAD_CONST, bytecode.SWAP_TOP, bytecode.LOAD_ATTR,
		bytecode.CALL_FUNCTION, bytecode.POP_TEMP, bytecode.SWAP_TOP,
		bytecode.STORE_ACCESS, bytecode.POP_TOP,
	}
	if !containsSubsequence(ops, needed) {
		t.Fatalf("expected compound-assignment opcode subsequence in %v", ops)
	}
}

func TestFunctionDefAndCallEmission(t *testing.T) {
	mod := mustEmit(t, "def add(a, b):\n    return a + b\nprint(add(40, 2))\n")
	if len(mod.Root.Instructions) == 0 {
		t.Fatalf("expected non-empty root instructions")
	}
	var sawMakeFunction bool
	var codeIdx int
	for _, in := range mod.Root.Instructions {
		if in.Op == bytecode.MAKE_FUNCTION {
			sawMakeFunction = true
			codeIdx = in.B
		}
	}
	if !sawMakeFunction {
		t.Fatalf("expected MAKE_FUNCTION in root instructions")
	}
	code, ok := mod.Constants[codeIdx].(*bytecode.Code)
	if !ok {
		t.Fatalf("expected constants[%d] to be a *bytecode.Code, got %#v", codeIdx, mod.Constants[codeIdx])
	}
	last := code.Instructions[len(code.Instructions)-1]
	if last.Op != bytecode.RETURN_VALUE {
		t.Fatalf("expected nested code to end in RETURN_VALUE, got %s", last.Op)
	}
}

func TestDisassembleRoundTripsReadably(t *testing.T) {
	mod := mustEmit(t, "x = 1 + 2\nprint(x)\n")
	text := bytecode.Disassemble(mod.Root, mod.Constants)
	if !strings.Contains(text, "main:") {
		t.Fatalf("expected a main: label, got:\n%s", text)
	}
	if !strings.Contains(text, "LOAD_CONST") {
		t.Fatalf("expected LOAD_CONST in disassembly, got:\n%s", text)
	}
}

func opSequence(instrs []bytecode.Instruction) []bytecode.Op {
	ops := make([]bytecode.Op, len(instrs))
	for i, in := range instrs {
		ops[i] = in.Op
	}
	return ops
}

func assertOpSequence(t *testing.T, got, want []bytecode.Op) {
	t.Helper()
	if len(got) < len(want) {
		t.Fatalf("got shorter than want: got=%v want=%v", got, want)
	}
	for i, op := range want {
		if got[i] != op {
			t.Fatalf("at index %d: expected %s, got %s (full: %v)", i, op, got[i], got)
		}
	}
}

func containsSubsequence(haystack, needle []bytecode.Op) bool {
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, op := range needle {
			if haystack[i+j] != op {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
