package builtin

import "github.com/kristofer/pebble/pkg/object"

func registerBoolean(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, boolBool)
	class.Attrs["__str__"] = object.NewNativeFunction("__str__", 1, boolStr)
	class.Attrs["__neg__"] = object.NewNativeFunction("__neg__", 1, boolInv)
	class.Attrs["__inv__"] = object.NewNativeFunction("__inv__", 1, boolInv)
	class.Attrs["__eq__"] = object.NewNativeFunction("__eq__", 2, boolEq)
	class.Attrs["__lt__"] = object.NewNativeFunction("__lt__", 2, boolLt)
	// Non-standard: __le__ returns !self and __ge__ returns self,
	// independent of the other operand (spec.md §9) — a documented
	// quirk of the reference implementation, preserved verbatim.
	class.Attrs["__le__"] = object.NewNativeFunction("__le__", 2, boolLe)
	class.Attrs["__gt__"] = object.NewNativeFunction("__gt__", 2, boolGt)
	class.Attrs["__ge__"] = object.NewNativeFunction("__ge__", 2, boolGe)
}

func boolBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return args[0], nil
}

func boolStr(vm object.Caller, args []object.Value) (object.Value, error) {
	self := args[0]
	if self.Bool {
		return object.Str("True"), nil
	}
	return object.Str("False"), nil
}

func boolInv(vm object.Caller, args []object.Value) (object.Value, error) {
	self := args[0]
	return object.Bool(!self.Bool), nil
}

func boolEq(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	if other.Kind != object.KindBoolean {
		return object.Value{}, notSupported("Boolean", "==", other.Kind.String())
	}
	return object.Bool(self.Bool == other.Bool), nil
}

func boolLt(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	if other.Kind != object.KindBoolean {
		return object.Value{}, notSupported("Boolean", "<", other.Kind.String())
	}
	return object.Bool(!self.Bool && other.Bool), nil
}

func boolLe(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	if other.Kind != object.KindBoolean {
		return object.Value{}, notSupported("Boolean", "<=", other.Kind.String())
	}
	return object.Bool(!self.Bool), nil
}

func boolGt(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	if other.Kind != object.KindBoolean {
		return object.Value{}, notSupported("Boolean", ">", other.Kind.String())
	}
	return object.Bool(self.Bool && !other.Bool), nil
}

func boolGe(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	if other.Kind != object.KindBoolean {
		return object.Value{}, notSupported("Boolean", ">=", other.Kind.String())
	}
	return object.Bool(self.Bool), nil
}
