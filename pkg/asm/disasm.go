package asm

import (
	"fmt"
	"strings"
)

// Disassemble renders a word in the form the assembler accepts. Words that
// no instruction produces come back as a .word directive.
func Disassemble(w uint16) string {
	op := Opcode(w >> 12)
	a, b, c := (w>>8)&0xF, (w>>4)&0xF, w&0xF
	r := RegisterName

	switch instructionShapes[op] {
	case shapeNone:
		if w == 0 {
			return "END"
		}
	case shapeByteReg:
		return fmt.Sprintf("%s $%02X %s", op, w>>4&0xFF, r(c))
	case shapeSrcDst:
		if b == 0 {
			return fmt.Sprintf("%s %s %s", op, r(a), r(c))
		}
	case shapeAddrReg:
		if c == 0 {
			return fmt.Sprintf("%s %s %s", op, r(a), r(b))
		}
	case shapeThree:
		if op == OpADI || op == OpSBI {
			return fmt.Sprintf("%s %s %d %s", op, r(a), b, r(c))
		}
		return fmt.Sprintf("%s %s %s %s", op, r(a), r(b), r(c))
	case shapeShift:
		dir := "L"
		if b >= 8 {
			dir = "R"
		}
		return fmt.Sprintf("%s %s %s %d %s", op, r(a), dir, b&7+1, r(c))
	case shapeBranch:
		if c&8 != 0 {
			flag, ok := map[uint16]string{0: "-", 1: "C", 2: "V"}[c&7]
			if ok && a == 0 {
				return fmt.Sprintf("%s %s %s", op, flag, r(b))
			}
			break
		}
		if c != 0 {
			var flags strings.Builder
			for i, f := range "NZP" {
				if c&(4>>i) != 0 {
					flags.WriteRune(f)
				}
			}
			return fmt.Sprintf("%s %s %s %s", op, r(a), flags.String(), r(b))
		}
	case shapeSingleReg:
		if a == 0 && b == 0 {
			return fmt.Sprintf("%s %s", op, r(c))
		}
	}
	return ".word " + hexWord(w)
}
