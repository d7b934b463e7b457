package builtin

import "github.com/kristofer/pebble/pkg/object"

func registerFunction(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, funcBool)
	class.Attrs["__eq__"] = object.NewNativeFunction("__eq__", 2, funcEq)
	// __call__ is an identity passthrough: CALL_FUNCTION resolves __call__
	// on the popped value's class before invoking it (spec.md §4.4 step
	// 1-2), so a Function's own __call__ just has to hand back a Function
	// for that check to pass; the real dispatch then proceeds against the
	// original value's Argc/Body (see DESIGN.md's CALL_FUNCTION indirection
	// decision).
	class.Attrs["__call__"] = object.NewNativeFunction("__call__", 1, funcCall)
}

func funcBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.True, nil
}

func funcCall(vm object.Caller, args []object.Value) (object.Value, error) {
	return args[0], nil
}

func funcEq(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	if other.Kind != object.KindFunction {
		return object.Value{}, notSupported("Function", "==", other.Kind.String())
	}
	return object.Bool(self.Fn == other.Fn), nil
}
