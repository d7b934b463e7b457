package builtin

import (
	"fmt"
	"strings"

	"github.com/kristofer/pebble/pkg/object"
)

func registerDict(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, dictBool)
	class.Attrs["__str__"] = object.NewNativeFunction("__str__", 1, dictStr)
	class.Attrs["__len__"] = object.NewNativeFunction("__len__", 1, dictLen)
	class.Attrs["__getitem__"] = object.NewNativeFunction("__getitem__", 2, dictGetitem)
	class.Attrs["__setitem__"] = object.NewNativeFunction("__setitem__", 3, dictSetitem)
	class.Attrs["__delitem__"] = object.NewNativeFunction("__delitem__", 2, dictDelitem)
	class.Attrs["__contains__"] = object.NewNativeFunction("__contains__", 2, dictContains)
	class.Attrs["__iter__"] = object.NewNativeFunction("__iter__", 1, dictIter)
}

func dictBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Bool(len(args[0].Dict.Keys) != 0), nil
}

func dictStr(vm object.Caller, args []object.Value) (object.Value, error) {
	d := args[0].Dict
	parts := make([]string, len(d.Keys))
	for i, k := range d.Keys {
		v, _ := d.Get(k)
		parts[i] = fmt.Sprintf("'%s': %s", k, tryStr(vm, v))
	}
	return object.Str("{" + strings.Join(parts, ", ") + "}"), nil
}

func dictLen(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Number(float64(len(args[0].Dict.Keys))), nil
}

// dictKey requires idx to be a String, reporting the canonical "dict keys
// must be strings" error otherwise (dict.rs: dict is string-keyed only).
func dictKey(idx object.Value) (string, error) {
	if idx.Kind != object.KindString {
		return "", fmt.Errorf("dict keys must be strings")
	}
	return idx.Str, nil
}

func dictGetitem(vm object.Caller, args []object.Value) (object.Value, error) {
	idx, self := args[0], args[1]
	key, err := dictKey(idx)
	if err != nil {
		return object.Value{}, err
	}
	v, ok := self.Dict.Get(key)
	if !ok {
		return object.Value{}, fmt.Errorf("key '%s' not found in dict", key)
	}
	return v, nil
}

func dictSetitem(vm object.Caller, args []object.Value) (object.Value, error) {
	value, idx, self := args[0], args[1], args[2]
	key, err := dictKey(idx)
	if err != nil {
		return object.Value{}, err
	}
	self.Dict.Set(key, value)
	return value, nil
}

func dictDelitem(vm object.Caller, args []object.Value) (object.Value, error) {
	idx, self := args[0], args[1]
	key, err := dictKey(idx)
	if err != nil {
		return object.Value{}, err
	}
	if _, ok := self.Dict.Get(key); !ok {
		return object.Value{}, fmt.Errorf("key '%s' not found in dict", key)
	}
	self.Dict.Delete(key)
	return object.None, nil
}

func dictContains(vm object.Caller, args []object.Value) (object.Value, error) {
	idx, self := args[0], args[1]
	key, err := dictKey(idx)
	if err != nil {
		return object.False, nil
	}
	_, ok := self.Dict.Get(key)
	return object.Bool(ok), nil
}

// dictIter yields self's keys, wrapping them in a List and delegating to
// listIter (dict.rs: iterating a dict iterates its key list).
func dictIter(vm object.Caller, args []object.Value) (object.Value, error) {
	self := args[0]
	keys := make([]object.Value, len(self.Dict.Keys))
	for i, k := range self.Dict.Keys {
		keys[i] = object.Str(k)
	}
	return listIter(vm, []object.Value{object.NewList(keys)})
}
