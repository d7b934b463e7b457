// Package vm - error handling with stack traces
package vm

import (
	"fmt"

	"github.com/kristofer/pebble/pkg/pebbleerr"
)

// wrapError lifts a plain error from pkg/builtin (or a locally-formatted
// message) into a pebbleerr.RuntimeError carrying the current call stack,
// unless it already is one.
func (vm *VM) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*pebbleerr.RuntimeError); ok {
		return err
	}
	stack := make([]pebbleerr.StackFrame, len(vm.frames))
	for i, f := range vm.frames {
		stack[i] = pebbleerr.StackFrame{Name: f.Name, IP: f.IP}
	}
	return pebbleerr.NewRuntimeError(err.Error(), stack)
}

// runtimeError formats and wraps a message in one step.
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	return vm.wrapError(fmt.Errorf(format, args...))
}
