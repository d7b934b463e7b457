package builtin

import "github.com/kristofer/pebble/pkg/object"

func registerString(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, strBool)
	class.Attrs["__str__"] = object.NewNativeFunction("__str__", 1, strStr)
	class.Attrs["__eq__"] = object.NewNativeFunction("__eq__", 2, strEq)
	class.Attrs["__lt__"] = object.NewNativeFunction("__lt__", 2, strLt)
	class.Attrs["__le__"] = object.NewNativeFunction("__le__", 2, strLe)
	class.Attrs["__gt__"] = object.NewNativeFunction("__gt__", 2, strGt)
	class.Attrs["__ge__"] = object.NewNativeFunction("__ge__", 2, strGe)
}

func strBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Bool(args[0].Str != ""), nil
}

func strStr(vm object.Caller, args []object.Value) (object.Value, error) {
	return args[0], nil
}

func strOperand(self, other object.Value, op string) (string, string, error) {
	if other.Kind != object.KindString {
		return "", "", notSupported("String", op, other.Kind.String())
	}
	return self.Str, other.Str, nil
}

func strEq(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := strOperand(self, other, "==")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a == b), nil
}

func strLt(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := strOperand(self, other, "<")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a < b), nil
}

func strLe(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := strOperand(self, other, "<=")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a <= b), nil
}

func strGt(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := strOperand(self, other, ">")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a > b), nil
}

func strGe(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := strOperand(self, other, ">=")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a >= b), nil
}
