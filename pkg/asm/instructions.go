package asm

import (
	"fmt"
	"strings"
)

// Opcode is the high nibble of an instruction word.
type Opcode uint16

const (
	OpEND Opcode = 0x0
	OpHBY Opcode = 0x1
	OpLBY Opcode = 0x2
	OpLOD Opcode = 0x3
	OpSTR Opcode = 0x4
	OpADD Opcode = 0x5
	OpSUB Opcode = 0x6
	OpADI Opcode = 0x7
	OpSBI Opcode = 0x8
	OpAND Opcode = 0x9
	OpORR Opcode = 0xA
	OpXOR Opcode = 0xB
	OpNOT Opcode = 0xC
	OpSHF Opcode = 0xD
	OpBRN Opcode = 0xE
	OpSPC Opcode = 0xF
)

var opcodeNames = [16]string{
	"END", "HBY", "LBY", "LOD", "STR", "ADD", "SUB", "ADI",
	"SBI", "AND", "ORR", "XOR", "NOT", "SHF", "BRN", "SPC",
}

func (op Opcode) String() string {
	return opcodeNames[op&0xF]
}

// shape describes how an instruction's operands map onto its nibbles.
type shape int

const (
	shapeNone      shape = iota // END
	shapeByteReg                // HBY LBY: byte, reg -> byte>>4, byte&F, reg
	shapeSrcDst                 // LOD NOT: src, dst -> src, 0, dst
	shapeAddrReg                // STR: addr, reg -> addr, reg, 0
	shapeThree                  // ALU: a, b, c
	shapeShift                  // SHF: reg, dir, amount, dst
	shapeBranch                 // BRN
	shapeSingleReg              // SPC: reg -> 0, 0, reg
)

var instructionShapes = map[Opcode]shape{
	OpEND: shapeNone,
	OpHBY: shapeByteReg,
	OpLBY: shapeByteReg,
	OpLOD: shapeSrcDst,
	OpSTR: shapeAddrReg,
	OpADD: shapeThree,
	OpSUB: shapeThree,
	OpADI: shapeThree,
	OpSBI: shapeThree,
	OpAND: shapeThree,
	OpORR: shapeThree,
	OpXOR: shapeThree,
	OpNOT: shapeSrcDst,
	OpSHF: shapeShift,
	OpBRN: shapeBranch,
	OpSPC: shapeSingleReg,
}

var instructionTable = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for i, name := range opcodeNames {
		m[name] = Opcode(i)
	}
	return m
}()

// LookupInstruction maps a mnemonic to its opcode.
func LookupInstruction(mnemonic string) (Opcode, bool) {
	op, ok := instructionTable[mnemonic]
	return op, ok
}

// MakeWord packs an opcode and three nibbles, opcode in the high nibble.
func MakeWord(op Opcode, a, b, c uint16) uint16 {
	return uint16(op)<<12 | (a&0xF)<<8 | (b&0xF)<<4 | c&0xF
}

// byteNibbles is shared by HBY and LBY.
func byteNibbles(value, reg uint16) (uint16, uint16, uint16) {
	return value >> 4, value & 0xF, reg
}

// Instruction is a single-word machine instruction.
type Instruction struct {
	Op  Opcode
	src SourceInfo

	operands []Token

	// SHF
	right bool
	// BRN
	cond uint16
}

// NewInstruction parses the operands of op. Operand counts, shift
// directions and branch conditions are checked here; values are resolved
// by MachineCode.
func NewInstruction(op Opcode, args string, src SourceInfo) (*Instruction, error) {
	in := &Instruction{Op: op, src: src}
	fields := strings.Fields(args)

	var err error
	switch instructionShapes[op] {
	case shapeNone:
		err = in.parseOperands(fields)
	case shapeByteReg:
		err = in.parseOperands(fields, ByteBits, NibbleBits)
	case shapeSrcDst, shapeAddrReg:
		err = in.parseOperands(fields, NibbleBits, NibbleBits)
	case shapeThree:
		err = in.parseOperands(fields, NibbleBits, NibbleBits, NibbleBits)
	case shapeShift:
		err = in.parseShift(fields)
	case shapeBranch:
		err = in.parseBranch(fields)
	case shapeSingleReg:
		err = in.parseOperands(fields, NibbleBits)
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (in *Instruction) parseOperands(fields []string, bits ...uint) error {
	if len(fields) != len(bits) {
		return fmt.Errorf("%w: %s expects %d, received %d", ErrArgumentCount, in.Op, len(bits), len(fields))
	}
	in.operands = make([]Token, len(fields))
	for i, f := range fields {
		tok, err := NewToken(f, bits[i])
		if err != nil {
			return err
		}
		in.operands[i] = tok
	}
	return nil
}

func (in *Instruction) parseShift(fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("%w: SHF expects 4, received %d", ErrArgumentCount, len(fields))
	}
	switch fields[1] {
	case "L":
	case "R":
		in.right = true
	default:
		return fmt.Errorf("%w: must be L or R, received '%s'", ErrInvalidDirection, fields[1])
	}
	return in.parseOperands(
		[]string{fields[0], fields[2], fields[3]},
		NibbleBits, WordBits, NibbleBits,
	)
}

func (in *Instruction) parseBranch(fields []string) error {
	switch len(fields) {
	case 3:
		value, flags := fields[0], fields[1]
		if !isValueCondition(flags) && isValueCondition(value) {
			value, flags = flags, value
		}
		if !isValueCondition(flags) {
			return fmt.Errorf("%w: must be a combination of NZP, received '%s'", ErrInvalidValueCondition, flags)
		}
		if strings.Contains(flags, "N") {
			in.cond |= 4
		}
		if strings.Contains(flags, "Z") {
			in.cond |= 2
		}
		if strings.Contains(flags, "P") {
			in.cond |= 1
		}
		return in.parseOperands([]string{value, fields[2]}, NibbleBits, NibbleBits)
	case 2:
		var code uint16
		switch fields[0] {
		case "V":
			code = 2
		case "C":
			code = 1
		case "-":
			code = 0
		default:
			return fmt.Errorf("%w: must be C, V or -, received '%s'", ErrInvalidFlagCondition, fields[0])
		}
		in.cond = 8 | code
		return in.parseOperands([]string{"0", fields[1]}, NibbleBits, NibbleBits)
	default:
		return fmt.Errorf("%w: BRN expects 2 or 3, received %d", ErrArgumentCount, len(fields))
	}
}

func isValueCondition(s string) bool {
	return s != "" && strings.Trim(s, "NZP") == ""
}

func (in *Instruction) WordLength() int { return 1 }

func (in *Instruction) Source() SourceInfo { return in.src }

func (in *Instruction) MachineCode(st *SymbolTable) ([]uint16, error) {
	a, b, c, err := in.nibbles(st)
	if err != nil {
		return nil, err
	}
	return []uint16{MakeWord(in.Op, a, b, c)}, nil
}

func (in *Instruction) resolve(st *SymbolTable) ([]uint16, error) {
	values := make([]uint16, len(in.operands))
	for i, tok := range in.operands {
		v, err := tok.Resolve(st)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (in *Instruction) nibbles(st *SymbolTable) (a, b, c uint16, err error) {
	v, err := in.resolve(st)
	if err != nil {
		return 0, 0, 0, err
	}

	switch instructionShapes[in.Op] {
	case shapeNone:
		return 0, 0, 0, nil
	case shapeByteReg:
		a, b, c = byteNibbles(v[0], v[1])
		return a, b, c, nil
	case shapeSrcDst:
		return v[0], 0, v[1], nil
	case shapeAddrReg:
		return v[0], v[1], 0, nil
	case shapeThree:
		return v[0], v[1], v[2], nil
	case shapeShift:
		amount := v[1]
		if amount < 1 || amount > 8 {
			return 0, 0, 0, fmt.Errorf("%w: must be 1 to 8, received %d", ErrAmountOutOfRange, amount)
		}
		amount--
		if in.right {
			amount += 8
		}
		return v[0], amount, v[2], nil
	case shapeBranch:
		return v[0], v[1], in.cond, nil
	case shapeSingleReg:
		return 0, 0, v[0], nil
	}
	return 0, 0, 0, fmt.Errorf("%w: %s", ErrUnknownInstruction, in.Op)
}
