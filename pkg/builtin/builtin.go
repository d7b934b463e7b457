// Package builtin populates pebble's fixed class table with the native
// "dunder" methods every built-in type must provide (spec.md §4.3):
// truthiness, stringification, comparison, arithmetic, indexed access, and
// iteration.
//
// Argument order. The VM always pops a dunder call's operands in the
// reverse order they were pushed and hands them to the native Go function
// as a single args slice with the receiver LAST: a binary operator's
// native sees args = [other, self]; an indexed store sees
// args = [value, index, self]; a zero-arg dunder like __bool__ sees
// args = [self]. This mirrors the stack's actual pop order under the
// emitter's "emit l, LOAD_ATTR dunder, emit r, SWAP_TOP, CALL_FUNCTION 1"
// sequence (spec.md §4.2) and keeps every native body's argument handling
// uniform regardless of arity.
package builtin

import (
	"fmt"

	"github.com/kristofer/pebble/pkg/object"
)

// Register installs every built-in class's native methods into classes,
// which must be the ten-entry table from object.NewClassTable in class-
// index order.
func Register(classes []*object.Class) {
	registerNone(classes[object.KindNone])
	registerNumber(classes[object.KindNumber])
	registerBoolean(classes[object.KindBoolean])
	registerString(classes[object.KindString])
	registerList(classes[object.KindList])
	registerSet(classes[object.KindSet])
	registerDict(classes[object.KindDict])
	registerCode(classes[object.KindCode])
	registerFunction(classes[object.KindFunction])
	registerGenerator(classes[object.KindGenerator])
	fillOperatorStubs(classes)
}

// binaryOperators lists every binary operator dunder (besides __ne__ and
// __ncontains__, which get their own generic fallbacks below) along with
// the symbol its canonical "not supported"
// error names (spec.md §4.2's operator table).
var binaryOperators = []struct{ dunder, symbol string }{
	{"__add__", "+"}, {"__sub__", "-"}, {"__mul__", "*"}, {"__truediv__", "/"},
	{"__floordiv__", "//"}, {"__mod__", "%"}, {"__pow__", "**"},
	{"__lt__", "<"}, {"__le__", "<="}, {"__gt__", ">"}, {"__ge__", ">="},
	{"__and__", "and"}, {"__or__", "or"},
	{"__bwand__", "&"}, {"__bwor__", "|"}, {"__xor__", "^"},
	{"__lshift__", "<<"}, {"__rshift__", ">>"},
	{"__eq__", "=="}, {"__contains__", "in"},
}

// fillOperatorStubs backfills every class with a generic implementation for
// each binary operator dunder it doesn't already define. Without this, an
// unsupported combination like `print + 1` would surface the generic
// "object has no attribute '__add__'" message instead of the operator's
// own "`'Function' + 'Number'` is not a supported operation" — spec.md §8's
// end-to-end error scenarios require the latter regardless of which class
// is missing the operator. __ne__ and __ncontains__ instead derive from
// their positive counterpart (__eq__, __contains__) so that equality- and
// containment-supporting types get the negation for free.
func fillOperatorStubs(classes []*object.Class) {
	for _, class := range classes {
		for _, op := range binaryOperators {
			if _, ok := class.Attrs[op.dunder]; ok {
				continue
			}
			dunder, symbol, className := op.dunder, op.symbol, class.Name
			class.Attrs[dunder] = object.NewNativeFunction(dunder, 2, func(vm object.Caller, args []object.Value) (object.Value, error) {
				return object.Value{}, notSupported(className, symbol, args[0].Kind.String())
			})
		}
		if _, ok := class.Attrs["__ne__"]; !ok {
			class.Attrs["__ne__"] = object.NewNativeFunction("__ne__", 2, negate("__eq__"))
		}
		if _, ok := class.Attrs["__ncontains__"]; !ok {
			class.Attrs["__ncontains__"] = object.NewNativeFunction("__ncontains__", 2, negate("__contains__"))
		}
	}
}

// negate builds a dunder implementation that calls positive on self and
// inverts the result, propagating any error (including a "not supported"
// error from positive itself) unchanged.
func negate(positive string) func(object.Caller, []object.Value) (object.Value, error) {
	return func(vm object.Caller, args []object.Value) (object.Value, error) {
		other, self := args[0], args[1]
		result, err := callDunder(vm, self, positive, other)
		if err != nil {
			return object.Value{}, err
		}
		return object.Bool(!result.Bool), nil
	}
}

// notSupported renders the canonical cross-type operation error (spec.md
// §7): "`'{lhs}' {op} '{rhs}'` is not a supported operation".
func notSupported(lhsClass, op, rhsClass string) error {
	return fmt.Errorf("`'%s' %s '%s'` is not a supported operation", lhsClass, op, rhsClass)
}

// callDunder looks up name on self's class and invokes it with args
// (receiver last, per the package doc comment's convention).
func callDunder(vm object.Caller, self object.Value, name string, args ...object.Value) (object.Value, error) {
	method, err := vm.Attr(self, name)
	if err != nil {
		return object.Value{}, err
	}
	full := append(append([]object.Value{}, args...), self)
	return vm.CallValue(method, full)
}

// tryStr calls v's __str__ if present, else falls back to a generic
// "<Class object>" rendering — mirrors the teacher corpus's List/Dict/Set
// __str__ bodies, which tolerate a value with no __str__.
func tryStr(vm object.Caller, v object.Value) string {
	result, err := callDunder(vm, v, "__str__")
	if err != nil {
		return fmt.Sprintf("<%s object>", v.Kind.String())
	}
	if result.Kind == object.KindString {
		if v.Kind == object.KindString {
			return "'" + result.Str + "'"
		}
		return result.Str
	}
	return fmt.Sprintf("<%s object>", v.Kind.String())
}
