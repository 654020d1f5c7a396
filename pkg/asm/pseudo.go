package asm

import (
	"fmt"
	"strings"
)

// rewrite turns a pseudo-instruction's operands into those of a real
// instruction. It receives the operand fields and must check their count.
type rewrite struct {
	op      Opcode
	argc    int
	operand func(f []string) string
}

var pseudoInstructions = map[string]rewrite{
	// CPY src dst => ADI src 0 dst
	"CPY": {OpADI, 2, func(f []string) string { return f[0] + " 0 " + f[1] }},
	// NOP => ADI R0 0 R0
	"NOP": {OpADI, 0, func([]string) string { return "R0 0 R0" }},
	"INC": {OpADI, 1, func(f []string) string { return f[0] + " 1 " + f[0] }},
	"DEC": {OpSBI, 1, func(f []string) string { return f[0] + " 1 " + f[0] }},
	// JMP r => BRN 0 NZP r
	"JMP": {OpBRN, 1, func(f []string) string { return "0 NZP " + f[0] }},
}

// IsPseudoInstruction reports whether mnemonic expands at assembly time.
func IsPseudoInstruction(mnemonic string) bool {
	if mnemonic == "WRD" {
		return true
	}
	_, ok := pseudoInstructions[mnemonic]
	return ok
}

// NewPseudoInstruction expands mnemonic into the command that encodes it.
func NewPseudoInstruction(mnemonic, args string, src SourceInfo) (Command, error) {
	if mnemonic == "WRD" {
		return newWideLoad(args, src)
	}

	rw, ok := pseudoInstructions[mnemonic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstruction, mnemonic)
	}
	fields := strings.Fields(args)
	if len(fields) != rw.argc {
		return nil, fmt.Errorf("%w: %s expects %d, received %d", ErrArgumentCount, mnemonic, rw.argc, len(fields))
	}
	return NewInstruction(rw.op, rw.operand(fields), src)
}

// wideLoad is WRD value reg: HBY with the high byte followed by LBY with
// the low byte, both into reg.
type wideLoad struct {
	src      SourceInfo
	value    Token
	register Token
}

func newWideLoad(args string, src SourceInfo) (*wideLoad, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: WRD expects 2, received %d", ErrArgumentCount, len(fields))
	}
	value, err := NewToken(fields[0], WordBits)
	if err != nil {
		return nil, err
	}
	register, err := NewToken(fields[1], NibbleBits)
	if err != nil {
		return nil, err
	}
	return &wideLoad{src: src, value: value, register: register}, nil
}

func (w *wideLoad) WordLength() int { return 2 }

func (w *wideLoad) Source() SourceInfo { return w.src }

func (w *wideLoad) MachineCode(st *SymbolTable) ([]uint16, error) {
	value, err := w.value.Resolve(st)
	if err != nil {
		return nil, err
	}
	rd, err := w.register.Resolve(st)
	if err != nil {
		return nil, err
	}

	ha, hb, hc := byteNibbles(value>>8, rd)
	la, lb, lc := byteNibbles(value&0xFF, rd)
	return []uint16{
		MakeWord(OpHBY, ha, hb, hc),
		MakeWord(OpLBY, la, lb, lc),
	}, nil
}
