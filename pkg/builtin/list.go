package builtin

import (
	"fmt"
	"strings"

	"github.com/kristofer/pebble/pkg/bytecode"
	"github.com/kristofer/pebble/pkg/object"
)

func registerList(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, listBool)
	class.Attrs["__str__"] = object.NewNativeFunction("__str__", 1, listStr)
	class.Attrs["__len__"] = object.NewNativeFunction("__len__", 1, listLen)
	class.Attrs["__getitem__"] = object.NewNativeFunction("__getitem__", 2, listGetitem)
	class.Attrs["__setitem__"] = object.NewNativeFunction("__setitem__", 3, listSetitem)
	class.Attrs["__delitem__"] = object.NewNativeFunction("__delitem__", 2, listDelitem)
	class.Attrs["__contains__"] = object.NewNativeFunction("__contains__", 2, listContains)
	class.Attrs["__iter__"] = object.NewNativeFunction("__iter__", 1, listIter)
}

func listBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Bool(len(args[0].List.Items) != 0), nil
}

func listStr(vm object.Caller, args []object.Value) (object.Value, error) {
	items := args[0].List.Items
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = tryStr(vm, item)
	}
	return object.Str("[" + strings.Join(parts, ", ") + "]"), nil
}

func listLen(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Number(float64(len(args[0].List.Items))), nil
}

// listIndex resolves a Number index against a list of the given length,
// wrapping negative indices from the end. Mirrors list.rs's index
// handling: non-Number or non-integral indices and out-of-range indices
// are both reported as the spec's canonical list indexing errors.
func listIndex(idx object.Value, length int) (int, error) {
	if idx.Kind != object.KindNumber || idx.Num != float64(int(idx.Num)) {
		return 0, fmt.Errorf("list indices must be integers")
	}
	n := int(idx.Num)
	if n < 0 {
		n = length + n
	}
	if n < 0 || n >= length {
		return 0, fmt.Errorf("list index out of range")
	}
	return n, nil
}

func listGetitem(vm object.Caller, args []object.Value) (object.Value, error) {
	idx, self := args[0], args[1]
	n, err := listIndex(idx, len(self.List.Items))
	if err != nil {
		return object.Value{}, err
	}
	return self.List.Items[n], nil
}

func listSetitem(vm object.Caller, args []object.Value) (object.Value, error) {
	value, idx, self := args[0], args[1], args[2]
	n, err := listIndex(idx, len(self.List.Items))
	if err != nil {
		return object.Value{}, err
	}
	self.List.Items[n] = value
	return value, nil
}

func listDelitem(vm object.Caller, args []object.Value) (object.Value, error) {
	idx, self := args[0], args[1]
	n, err := listIndex(idx, len(self.List.Items))
	if err != nil {
		return object.Value{}, err
	}
	self.List.Items = append(self.List.Items[:n], self.List.Items[n+1:]...)
	return object.None, nil
}

func listContains(vm object.Caller, args []object.Value) (object.Value, error) {
	value, self := args[0], args[1]
	for _, item := range self.List.Items {
		eq, err := callDunder(vm, item, "__eq__", value)
		if err != nil {
			continue
		}
		if eq.Kind == object.KindBoolean && eq.Bool {
			return object.True, nil
		}
	}
	return object.False, nil
}

// listIter builds a Generator walking self's elements in order. Grounded on
// list.rs's __iter__: the first element is exposed as the generator's
// initial last_value (no code runs to produce it), and a small bytecode
// body - storing its loop invariants as locals rather than constants, since
// a native-built Code has no constants pool of its own beyond the module-
// wide index 0 (always None) - yields the rest one at a time.
//
// Locals: [0]=step(1), [1]=next index, [2]=self, [3]=len, [4]=Number.__add__,
// [5]=Number.__eq__. Layout (ip):
//
//	0 LOAD_LOCAL 1        ; index
//	1 LOAD_LOCAL 3        ; len
//	2 LOAD_LOCAL 5        ; eq
//	3 CALL_FUNCTION 2     ; index == len
//	4 JUMP_IF_TRUE 11     ; -> done
//	5 LOAD_LOCAL 2        ; self
//	6 LOAD_LOCAL 1        ; index
//	7 LOAD_ACCESS         ; self[index]
//	8 YIELD_VALUE
//	9 LOAD_LOCAL 1        ; index
//	10 LOAD_LOCAL 0       ; step
//	   (continued below, see instruction list)
func listIter(vm object.Caller, args []object.Value) (object.Value, error) {
	self := args[0]
	items := self.List.Items
	switch len(items) {
	case 0:
		return object.NewGenerator(nil, &bytecode.Code{}, 0, object.None, true), nil
	case 1:
		code := &bytecode.Code{Instructions: []bytecode.Instruction{
			{Op: bytecode.LOAD_CONST, A: 0},
			{Op: bytecode.RETURN_VALUE},
		}}
		return object.NewGenerator(nil, code, 0, items[0], false), nil
	}

	addFn, err := vm.Attr(object.Number(0), "__add__")
	if err != nil {
		return object.Value{}, err
	}
	eqFn, err := vm.Attr(object.Number(0), "__eq__")
	if err != nil {
		return object.Value{}, err
	}

	locals := []object.Value{
		object.Number(1),
		object.Number(1),
		self,
		object.Number(float64(len(items))),
		addFn,
		eqFn,
	}

	instructions := []bytecode.Instruction{
		{Op: bytecode.LOAD_LOCAL, A: 1},           // 0: index
		{Op: bytecode.LOAD_LOCAL, A: 3},           // 1: len
		{Op: bytecode.LOAD_LOCAL, A: 5},           // 2: eq
		{Op: bytecode.CALL_FUNCTION, A: 2},        // 3: index == len
		{Op: bytecode.JUMP_IF_TRUE, A: 11},        // 4: -> done (ip 15)
		{Op: bytecode.LOAD_LOCAL, A: 2},            // 5: self
		{Op: bytecode.LOAD_LOCAL, A: 1},            // 6: index
		{Op: bytecode.LOAD_ACCESS},                 // 7: self[index]
		{Op: bytecode.YIELD_VALUE},                 // 8
		{Op: bytecode.LOAD_LOCAL, A: 1},            // 9: index
		{Op: bytecode.LOAD_LOCAL, A: 0},            // 10: step
		{Op: bytecode.LOAD_LOCAL, A: 4},            // 11: add
		{Op: bytecode.CALL_FUNCTION, A: 2},         // 12: index + step
		{Op: bytecode.STORE_LOCAL, A: 1},           // 13: index = ...
		{Op: bytecode.JUMP_ABSOLUTE, A: 0},         // 14: loop
		{Op: bytecode.LOAD_CONST, A: 0},            // 15: None
		{Op: bytecode.RETURN_VALUE},                // 16
	}

	code := &bytecode.Code{Instructions: instructions, NumLocals: len(locals)}
	return object.NewGenerator(locals, code, 0, items[0], false), nil
}
