package builtin

import (
	"math"
	"strconv"

	"github.com/kristofer/pebble/pkg/object"
)

func registerNumber(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, numBool)
	class.Attrs["__str__"] = object.NewNativeFunction("__str__", 1, numStr)
	class.Attrs["__add__"] = object.NewNativeFunction("__add__", 2, numAdd)
	class.Attrs["__sub__"] = object.NewNativeFunction("__sub__", 2, numSub)
	class.Attrs["__mul__"] = object.NewNativeFunction("__mul__", 2, numMul)
	class.Attrs["__truediv__"] = object.NewNativeFunction("__truediv__", 2, numTruediv)
	class.Attrs["__mod__"] = object.NewNativeFunction("__mod__", 2, numMod)
	class.Attrs["__floordiv__"] = object.NewNativeFunction("__floordiv__", 2, numFloordiv)
	class.Attrs["__pow__"] = object.NewNativeFunction("__pow__", 2, numPow)
	class.Attrs["__neg__"] = object.NewNativeFunction("__neg__", 1, numNeg)
	class.Attrs["__eq__"] = object.NewNativeFunction("__eq__", 2, numEq)
	class.Attrs["__lt__"] = object.NewNativeFunction("__lt__", 2, numLt)
	class.Attrs["__le__"] = object.NewNativeFunction("__le__", 2, numLe)
	class.Attrs["__gt__"] = object.NewNativeFunction("__gt__", 2, numGt)
	class.Attrs["__ge__"] = object.NewNativeFunction("__ge__", 2, numGe)
}

func numBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Bool(args[0].Num != 0), nil
}

func numStr(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Str(strconv.FormatFloat(args[0].Num, 'g', -1, 64)), nil
}

// numOperand extracts other as a Number or reports the canonical
// cross-type arithmetic error for op.
func numOperand(self, other object.Value, op string) (float64, float64, error) {
	if other.Kind != object.KindNumber {
		return 0, 0, notSupported("Number", op, other.Kind.String())
	}
	return self.Num, other.Num, nil
}

func numAdd(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "+")
	if err != nil {
		return object.Value{}, err
	}
	return object.Number(a + b), nil
}

func numSub(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "-")
	if err != nil {
		return object.Value{}, err
	}
	return object.Number(a - b), nil
}

func numMul(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "*")
	if err != nil {
		return object.Value{}, err
	}
	return object.Number(a * b), nil
}

func numTruediv(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "/")
	if err != nil {
		return object.Value{}, err
	}
	return object.Number(a / b), nil
}

func numMod(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "%")
	if err != nil {
		return object.Value{}, err
	}
	return object.Number(math.Mod(a, b)), nil
}

func numFloordiv(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "//")
	if err != nil {
		return object.Value{}, err
	}
	return object.Number(math.Floor(a / b)), nil
}

func numPow(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "**")
	if err != nil {
		return object.Value{}, err
	}
	return object.Number(math.Pow(a, b)), nil
}

func numNeg(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Number(-args[0].Num), nil
}

func numEq(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "==")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a == b), nil
}

func numLt(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "<")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a < b), nil
}

func numLe(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, "<=")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a <= b), nil
}

func numGt(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, ">")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a > b), nil
}

func numGe(vm object.Caller, args []object.Value) (object.Value, error) {
	other, self := args[0], args[1]
	a, b, err := numOperand(self, other, ">=")
	if err != nil {
		return object.Value{}, err
	}
	return object.Bool(a >= b), nil
}
