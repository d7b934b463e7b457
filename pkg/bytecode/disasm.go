package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// attrOperands names the opcodes whose single operand indexes a name
// constant (global or attribute) rather than an arbitrary value, so
// Disassemble can render it quoted.
var attrOperands = map[Op]bool{
	STORE_GLOBAL: true,
	LOAD_GLOBAL:  true,
	LOAD_ATTR:    true,
	STORE_ATTR:   true,
}

// Disassemble renders code as human-readable text, depth-first over any
// nested Code objects reachable through constants. Each code object gets a
// header line followed by one line per instruction: index, mnemonic, and
// the operand rendered per its kind (spec.md §6).
func Disassemble(code *Code, constants []interface{}) string {
	var b strings.Builder
	disassembleOne(&b, code, constants, "main")
	for i, c := range constants {
		if nested, ok := c.(*Code); ok {
			disassembleOne(&b, nested, constants, fmt.Sprintf("Code(%d)", i))
		}
	}
	return b.String()
}

func disassembleOne(b *strings.Builder, code *Code, constants []interface{}, label string) {
	fmt.Fprintf(b, "%s:\n", label)
	width := len(strconv.Itoa(len(code.Instructions))) + 5
	for i, in := range code.Instructions {
		idx := strconv.Itoa(i)
		fmt.Fprintf(b, "%s%s%s %s\n", idx, strings.Repeat(" ", width-len(idx)), in.Op, operandText(in, constants))
	}
}

func operandText(in Instruction, constants []interface{}) string {
	switch in.Op {
	case NOP, POP_TOP, SWAP_TOP, DUP_TOP, INV_TOP, LOAD_ACCESS, STORE_ACCESS,
		LOAD_TRUE, LOAD_FALSE, RETURN_VALUE, YIELD_VALUE, PUSH_TEMP, POP_TEMP:
		return ""
	case LOAD_CONST:
		return constText(in.A, constants)
	case STORE_GLOBAL, LOAD_GLOBAL, LOAD_ATTR, STORE_ATTR:
		if name, ok := constString(in.A, constants); ok {
			return fmt.Sprintf("'%s'", name)
		}
		return strconv.Itoa(in.A)
	case MAKE_FUNCTION:
		return fmt.Sprintf("%d %s", in.A, constText(in.B, constants))
	default:
		return strconv.Itoa(in.A)
	}
}

func constString(idx int, constants []interface{}) (string, bool) {
	if idx < 0 || idx >= len(constants) {
		return "", false
	}
	s, ok := constants[idx].(string)
	return s, ok
}

func constText(idx int, constants []interface{}) string {
	if idx < 0 || idx >= len(constants) {
		return strconv.Itoa(idx)
	}
	switch v := constants[idx].(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return fmt.Sprintf("'%s'", v)
	case *Code:
		return fmt.Sprintf("Code(%d)", idx)
	default:
		return fmt.Sprintf("%v", v)
	}
}
