package vm

import (
	"fmt"

	"github.com/kristofer/pebble/pkg/object"
)

// registerBuiltins constructs the top-level builtin namespace consulted by
// LOAD_GLOBAL whenever a name isn't in vm.globals (spec.md §4.3's "more
// context" callers: iter()/next()/len() report their own error instead of
// the generic missing-attribute message). These are ordinary native
// Function values, indistinguishable at a call site from a user-defined
// one - print(x) and x.__str__() both run through the same CALL_FUNCTION
// path.
func (vm *VM) registerBuiltins() map[string]object.Value {
	return map[string]object.Value{
		"print": object.NewNativeFunction("print", 1, vm.builtinPrint),
		"len":   object.NewNativeFunction("len", 1, builtinLen),
		"iter":  object.NewNativeFunction("iter", 1, builtinIter),
		"next":  object.NewNativeFunction("next", 1, builtinNext),
	}
}

func (vm *VM) builtinPrint(caller object.Caller, args []object.Value) (object.Value, error) {
	v := args[0]
	method, err := caller.Attr(v, "__str__")
	if err != nil {
		return object.Value{}, err
	}
	result, err := caller.CallValue(method, []object.Value{v})
	if err != nil {
		return object.Value{}, err
	}
	fmt.Fprintln(vm.stdout, result.Str)
	return object.None, nil
}

func builtinLen(caller object.Caller, args []object.Value) (object.Value, error) {
	v := args[0]
	method, err := caller.Attr(v, "__len__")
	if err != nil {
		return object.Value{}, fmt.Errorf("'%s' object has no len()", v.Kind.String())
	}
	return caller.CallValue(method, []object.Value{v})
}

func builtinIter(caller object.Caller, args []object.Value) (object.Value, error) {
	v := args[0]
	method, err := caller.Attr(v, "__iter__")
	if err != nil {
		return object.Value{}, fmt.Errorf("'%s' object is not iterable", v.Kind.String())
	}
	return caller.CallValue(method, []object.Value{v})
}

func builtinNext(caller object.Caller, args []object.Value) (object.Value, error) {
	v := args[0]
	method, err := caller.Attr(v, "__next__")
	if err != nil {
		return object.Value{}, fmt.Errorf("'%s' object is not an iterator", v.Kind.String())
	}
	return caller.CallValue(method, []object.Value{v})
}
