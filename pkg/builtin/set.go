package builtin

import (
	"strings"

	"github.com/kristofer/pebble/pkg/object"
)

func registerSet(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, setBool)
	class.Attrs["__str__"] = object.NewNativeFunction("__str__", 1, setStr)
	class.Attrs["__len__"] = object.NewNativeFunction("__len__", 1, setLen)
	class.Attrs["__contains__"] = object.NewNativeFunction("__contains__", 2, setContains)
	class.Attrs["__iter__"] = object.NewNativeFunction("__iter__", 1, setIter)
}

func setBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Bool(len(args[0].Set.Items) != 0), nil
}

func setStr(vm object.Caller, args []object.Value) (object.Value, error) {
	items := args[0].Set.Items
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = tryStr(vm, item)
	}
	return object.Str("{" + strings.Join(parts, ", ") + "}"), nil
}

func setLen(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Number(float64(len(args[0].Set.Items))), nil
}

func setContains(vm object.Caller, args []object.Value) (object.Value, error) {
	value, self := args[0], args[1]
	for _, item := range self.Set.Items {
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

// setIter wraps self's elements in a List snapshot and delegates to
// listIter, mirroring set.rs's __iter__ (a set is iterated exactly like the
// list of its current elements).
func setIter(vm object.Caller, args []object.Value) (object.Value, error) {
	self := args[0]
	snapshot := object.NewList(append([]object.Value{}, self.Set.Items...))
	return listIter(vm, []object.Value{snapshot})
}
