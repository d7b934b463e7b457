package builtin

import "github.com/kristofer/pebble/pkg/object"

func registerGenerator(class *object.Class) {
	class.Attrs["__bool__"] = object.NewNativeFunction("__bool__", 1, genBool)
	class.Attrs["__iter__"] = object.NewNativeFunction("__iter__", 1, genIter)
	class.Attrs["__next__"] = object.NewNativeFunction("__next__", 1, genNext)
}

func genBool(vm object.Caller, args []object.Value) (object.Value, error) {
	return object.Bool(args[0].Gen.IsDone), nil
}

// genIter is the identity: a Generator is already its own iterator
// (generator.rs's __iter__ is a no-op).
func genIter(vm object.Caller, args []object.Value) (object.Value, error) {
	return args[0], nil
}

func genNext(vm object.Caller, args []object.Value) (object.Value, error) {
	return vm.Next(args[0])
}
