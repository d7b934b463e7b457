package bytecode

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeSimpleModule(t *testing.T) {
	original := &Module{
		Root: &Code{
			Instructions: []Instruction{
				{Op: LOAD_CONST, A: 0},
				{Op: RETURN_VALUE},
			},
			NumLocals: 0,
			NumDerefs: 0,
		},
		Constants: []interface{}{float64(42)},
	}

	var buf bytes.Buffer
	if err := Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("no data was encoded")
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(decoded.Root.Instructions) != len(original.Root.Instructions) {
		t.Fatalf("instruction count mismatch: got %d, want %d",
			len(decoded.Root.Instructions), len(original.Root.Instructions))
	}
	for i, in := range decoded.Root.Instructions {
		want := original.Root.Instructions[i]
		if in.Op != want.Op || in.A != want.A || in.B != want.B {
			t.Errorf("instruction %d mismatch: got %+v, want %+v", i, in, want)
		}
	}
	if len(decoded.Constants) != 1 || decoded.Constants[0] != float64(42) {
		t.Errorf("constants mismatch: got %v", decoded.Constants)
	}
}

func TestEncodeDecodeAllConstantTypes(t *testing.T) {
	original := &Module{
		Root: &Code{Instructions: []Instruction{{Op: RETURN_VALUE}}},
		Constants: []interface{}{
			nil,
			float64(3.14),
			"hello",
			true,
			false,
		},
	}

	var buf bytes.Buffer
	if err := Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.Constants) != len(original.Constants) {
		t.Fatalf("constant count mismatch: got %d, want %d", len(decoded.Constants), len(original.Constants))
	}
	if decoded.Constants[0] != nil {
		t.Errorf("expected nil, got %v", decoded.Constants[0])
	}
	if decoded.Constants[1] != float64(3.14) {
		t.Errorf("expected 3.14, got %v", decoded.Constants[1])
	}
	if decoded.Constants[2] != "hello" {
		t.Errorf("expected hello, got %v", decoded.Constants[2])
	}
	if decoded.Constants[3] != true {
		t.Errorf("expected true, got %v", decoded.Constants[3])
	}
	if decoded.Constants[4] != false {
		t.Errorf("expected false, got %v", decoded.Constants[4])
	}
}

func TestEncodeDecodeAllOpcodes(t *testing.T) {
	original := &Module{
		Root: &Code{
			Instructions: []Instruction{
				{Op: NOP}, {Op: POP_TOP}, {Op: SWAP_TOP}, {Op: DUP_TOP}, {Op: INV_TOP},
				{Op: JUMP_FORWARD, A: 3}, {Op: JUMP_IF_FALSE, A: 5}, {Op: JUMP_IF_TRUE, A: 2},
				{Op: JUMP_ABSOLUTE, A: 0},
				{Op: MAKE_GENERATOR}, {Op: FOR_ITER, A: 4},
				{Op: STORE_LOCAL, A: 0}, {Op: LOAD_LOCAL, A: 1},
				{Op: STORE_DEREF, A: 0}, {Op: LOAD_DEREF, A: 0},
				{Op: STORE_GLOBAL, A: 2}, {Op: LOAD_GLOBAL, A: 2},
				{Op: LOAD_ATTR, A: 1}, {Op: STORE_ATTR, A: 1},
				{Op: LOAD_ACCESS}, {Op: STORE_ACCESS},
				{Op: LOAD_CONST, A: 0}, {Op: LOAD_TRUE}, {Op: LOAD_FALSE},
				{Op: MAKE_FUNCTION, A: 2, B: 0}, {Op: CALL_FUNCTION, A: 2},
				{Op: BUILD_LIST, A: 3}, {Op: BUILD_DICT, A: 4}, {Op: BUILD_SET, A: 2},
				{Op: RETURN_VALUE}, {Op: YIELD_VALUE},
				{Op: PUSH_TEMP}, {Op: POP_TEMP},
			},
		},
		Constants: []interface{}{float64(0), "attr", "glob"},
	}

	var buf bytes.Buffer
	if err := Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.Root.Instructions) != len(original.Root.Instructions) {
		t.Fatalf("instruction count mismatch: got %d, want %d",
			len(decoded.Root.Instructions), len(original.Root.Instructions))
	}
	for i, in := range decoded.Root.Instructions {
		want := original.Root.Instructions[i]
		if in.Op != want.Op || in.A != want.A || in.B != want.B {
			t.Errorf("instruction %d mismatch: got %+v, want %+v", i, in, want)
		}
	}
}

func TestEncodeDecodeNestedCode(t *testing.T) {
	nested := &Code{
		Instructions: []Instruction{
			{Op: LOAD_LOCAL, A: 0},
			{Op: RETURN_VALUE},
		},
		NumLocals: 1,
	}
	original := &Module{
		Root: &Code{
			Instructions: []Instruction{
				{Op: LOAD_CONST, A: 0},
				{Op: MAKE_FUNCTION, A: 1, B: 0},
				{Op: RETURN_VALUE},
			},
		},
		Constants: []interface{}{nested},
	}

	var buf bytes.Buffer
	if err := Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.Constants) != 1 {
		t.Fatalf("constant count mismatch: got %d, want 1", len(decoded.Constants))
	}
	nestedDecoded, ok := decoded.Constants[0].(*Code)
	if !ok {
		t.Fatalf("constant 0 is not *Code: got %T", decoded.Constants[0])
	}
	if len(nestedDecoded.Instructions) != 2 {
		t.Errorf("nested instruction count mismatch: got %d, want 2", len(nestedDecoded.Instructions))
	}
	if nestedDecoded.NumLocals != 1 {
		t.Errorf("nested NumLocals mismatch: got %d, want 1", nestedDecoded.NumLocals)
	}
}

func TestDecodeInvalidMagicNumber(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x78, 0x56, 0x34, 0x12, 1, 0, 0, 0})
	if _, err := Decode(&buf); err == nil {
		t.Fatal("expected error for invalid magic number, got nil")
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	// magic number little-endian, then version 99.
	buf.Write([]byte{0x00, 0x43, 0x42, 0x50, 99, 0, 0, 0})
	if _, err := Decode(&buf); err == nil {
		t.Fatal("expected error for unsupported version, got nil")
	}
}

func TestEncodeDecodeEmptyModule(t *testing.T) {
	original := &Module{
		Root:      &Code{Instructions: []Instruction{}},
		Constants: []interface{}{},
	}
	var buf bytes.Buffer
	if err := Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.Root.Instructions) != 0 {
		t.Errorf("expected 0 instructions, got %d", len(decoded.Root.Instructions))
	}
	if len(decoded.Constants) != 0 {
		t.Errorf("expected 0 constants, got %d", len(decoded.Constants))
	}
}

func TestEncodeDecodeUnicodeStrings(t *testing.T) {
	original := &Module{
		Root: &Code{Instructions: []Instruction{{Op: RETURN_VALUE}}},
		Constants: []interface{}{
			"hello, 世界",
			"привет, мир",
			"🎉🎊✨",
		},
	}
	var buf bytes.Buffer
	if err := Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i, want := range original.Constants {
		if decoded.Constants[i] != want {
			t.Errorf("constant %d mismatch: got %v, want %v", i, decoded.Constants[i], want)
		}
	}
}
