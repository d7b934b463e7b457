package vm

import (
	"github.com/kristofer/pebble/pkg/bytecode"
	"github.com/kristofer/pebble/pkg/object"
)

// Frame is one activation record on the VM's call stack (spec.md §3
// "Frame"): a running code object, its local-variable slots, and the
// eval-stack depth it started at. A Frame spawned to resume a suspended
// generator (FOR_ITER, Generator.__next__) sets FromGenerator so
// RETURN_VALUE and YIELD_VALUE know to freeze state back into the
// generator instead of unwinding a normal call.
type Frame struct {
	Name          string
	Code          *bytecode.Code
	IP            int
	Locals        []object.Value
	Derefs        []object.Value // STORE_DEREF/LOAD_DEREF slots; unused until closures exist
	BaseOffset    int
	FromGenerator bool
}
