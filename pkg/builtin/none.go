package builtin

import "github.com/kristofer/pebble/pkg/object"

func registerNone(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, noneBool)
	class.Attrs["__str__"] = object.NewNativeFunction("__str__", 1, noneStr)
	class.Attrs["__eq__"] = object.NewNativeFunction("__eq__", 2, noneEq)
}

func noneBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.False, nil
}

func noneStr(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Str("None"), nil
}

func noneEq(vm object.Caller, args []object.Value) (object.Value, error) {
	other := args[0]
	if other.Kind != object.KindNone {
		return object.Value{}, notSupported("NoneType", "==", other.Kind.String())
	}
	return object.True, nil
}
