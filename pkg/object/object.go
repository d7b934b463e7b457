// Package object defines pebble's runtime value representation: a tagged
// Value over the ten built-in variants, the fixed class table those
// variants dispatch through, and the composite value kinds (List, Set,
// Dict, Function, Code, Generator) that carry their own mutable
// state.
//
// Values are reference-semantic: List, Set, Dict, and Generator wrap a
// pointer to shared, mutable state, so two Values holding the same List
// observe each other's mutations — the same sharing the teacher's VM gives
// its object instances. None and the two Booleans are interned singletons.
package object

import (
	"fmt"

	"github.com/kristofer/pebble/pkg/bytecode"
)

// Kind tags the variant a Value holds. Its numeric value IS the value's
// position in the Classes table — this is load-bearing for dispatch and
// must never be reordered independently of NewClassTable.
type Kind int

const (
	KindNone Kind = iota
	KindNumber
	KindBoolean
	KindString
	KindList
	KindSet
	KindDict
	KindCode
	KindFunction
	KindGenerator
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NoneType"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindSet:
		return "Set"
	case KindDict:
		return "Dict"
	case KindCode:
		return "Code"
	case KindFunction:
		return "Function"
	case KindGenerator:
		return "Generator"
	default:
		return "Unknown"
	}
}

// Value is a tagged pebble runtime value. Exactly one payload field is
// meaningful for a given Kind; the rest are zero.
type Value struct {
	Kind   Kind
	Num    float64
	Bool   bool
	Str    string
	List   *List
	Set    *Set
	Dict   *Dict
	Code   *Code
	Fn     *Function
	Gen    *Generator
}

// ClassIndex returns v's position in the Classes table (spec.md §3: "Class
// index of a value must equal its position in this table").
func (v Value) ClassIndex() int { return int(v.Kind) }

// None, True, and False are the interned singleton values for their
// respective kinds.
var (
	None  = Value{Kind: KindNone}
	True  = Value{Kind: KindBoolean, Bool: true}
	False = Value{Kind: KindBoolean, Bool: false}
)

// Number, Str, and Bool construct the corresponding scalar Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Str(s string) Value     { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// List is the shared mutable backing store of a List value.
type List struct {
	Items []Value
}

func NewList(items []Value) Value {
	return Value{Kind: KindList, List: &List{Items: items}}
}

// Set is a shared mutable backing store; membership is by linear scan via
// __eq__ (spec.md §4.3), so no Go map is used here — element Values aren't
// guaranteed Go-comparable (e.g. two distinct Lists with equal contents).
type Set struct {
	Items []Value
}

func NewSet(items []Value) Value {
	return Value{Kind: KindSet, Set: &Set{Items: items}}
}

// Dict is insertion-ordered and string-keyed (spec.md §4.3).
type Dict struct {
	Keys   []string
	Values map[string]Value
}

func NewDict() Value {
	return Value{Kind: KindDict, Dict: &Dict{Values: map[string]Value{}}}
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.Values[key]
	return v, ok
}

func (d *Dict) Set(key string, v Value) {
	if _, exists := d.Values[key]; !exists {
		d.Keys = append(d.Keys, key)
	}
	d.Values[key] = v
}

func (d *Dict) Delete(key string) {
	if _, exists := d.Values[key]; !exists {
		return
	}
	delete(d.Values, key)
	for i, k := range d.Keys {
		if k == key {
			d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
			break
		}
	}
}

// Code is an immutable compiled program fragment (spec.md §3 "Code
// object"). The VM constructs frames from it.
type Code struct {
	Instructions *bytecode.Code
	NumLocals    int
	NumDerefs    int
	Name         string
}

func NewCode(instructions *bytecode.Code) Value {
	return Value{Kind: KindCode, Code: &Code{
		Instructions: instructions,
		NumLocals:    instructions.NumLocals,
		NumDerefs:    instructions.NumDerefs,
		Name:         instructions.Name,
	}}
}

// FunctionBody is either a Native Go implementation or a reference to a
// code object living in the module constants pool.
type FunctionBody struct {
	Native     func(vm Caller, args []Value) (Value, error)
	CodeConst  int
	IsNative   bool
}

// Caller is the minimal surface pkg/builtin's native methods need from the
// VM to perform a nested call (e.g. List.__contains__ calling an element's
// __eq__). Defined here, implemented by pkg/vm, to avoid an object<->vm
// import cycle.
type Caller interface {
	CallValue(callee Value, args []Value) (Value, error)
	Attr(v Value, name string) (Value, error)
	// Next drives gen one step per spec.md §4.6: spawn a frame from its
	// frozen state, run it to its next YIELD_VALUE or RETURN_VALUE, and
	// report the value made visible at this step. Generator.__next__
	// resolves through this path; the VM's FOR_ITER resumes generators
	// directly without calling Next.
	Next(gen Value) (Value, error)
}

// Function is a first-class callable (spec.md §3 "Function").
type Function struct {
	Name       string
	Argc       int
	IgnoreArgc bool
	Body       FunctionBody
}

// NewNativeFunction wraps a Go implementation of a dunder or top-level
// built-in. IgnoreArgc is always true for natives: argc here documents how
// many operands the implementation expects (for introspection and
// disassembly), but the VM's declared-argc check (spec.md §4.4 step 3) is
// reserved for user-defined, bytecode-backed functions, where a mismatch is
// a genuine call-site error the canonical message must report.
func NewNativeFunction(name string, argc int, fn func(vm Caller, args []Value) (Value, error)) Value {
	return Value{Kind: KindFunction, Fn: &Function{
		Name:       name,
		Argc:       argc,
		IgnoreArgc: true,
		Body:       FunctionBody{Native: fn, IsNative: true},
	}}
}

func NewBytecodeFunction(name string, argc, codeConst int) Value {
	return Value{Kind: KindFunction, Fn: &Function{
		Name: name,
		Argc: argc,
		Body: FunctionBody{CodeConst: codeConst, IsNative: false},
	}}
}

// Generator is the runtime form of a FrozenGenerator (spec.md §3). It's
// mutated in place by YIELD_VALUE / RETURN_VALUE's from_generator path and
// by Generator.__next__ (spec.md §4.6).
type Generator struct {
	LocalVars []Value
	EvalStack []Value
	Instrs    *bytecode.Code
	IP        int
	LastValue Value
	IsDone    bool
}

func NewGenerator(locals []Value, instrs *bytecode.Code, ip int, initial Value, done bool) Value {
	return Value{Kind: KindGenerator, Gen: &Generator{
		LocalVars: locals,
		Instrs:    instrs,
		IP:        ip,
		LastValue: initial,
		IsDone:    done,
	}}
}

// Class holds a name and a name→callable attribute map (spec.md §3
// "Class"). Class instances are not user-extensible; see NewClassTable.
type Class struct {
	Name  string
	Attrs map[string]Value
}

// Attr looks up name on c, returning the canonical "no attribute" runtime
// error message when absent.
func (c *Class) Attr(name string) (Value, error) {
	v, ok := c.Attrs[name]
	if !ok {
		return Value{}, fmt.Errorf("'%s' object has no attribute '%s'", c.Name, name)
	}
	return v, nil
}

// NewClassTable allocates the ten-entry class table in class-index order:
// None, Number, Boolean, String, List, Set, Dict, Code, Function,
// Generator (spec.md §3). Attrs maps start empty; pkg/builtin populates
// them with native dunder methods at VM startup.
func NewClassTable() []*Class {
	names := []string{
		"NoneType", "Number", "Boolean", "String", "List",
		"Set", "Dict", "Code", "Function", "Generator",
	}
	classes := make([]*Class, len(names))
	for i, name := range names {
		classes[i] = &Class{Name: name, Attrs: map[string]Value{}}
	}
	return classes
}

// ClassOf returns v's Class from the table, trusting v.Kind's invariant
// that it equals v's position in classes (enforced once at VM start).
func ClassOf(v Value, classes []*Class) *Class {
	return classes[v.ClassIndex()]
}
