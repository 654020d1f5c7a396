package asm

import (
	"fmt"
	"sort"
)

// deviceSymbols are the memory-mapped I/O addresses of the virtual machine.
var deviceSymbols = map[string]uint16{
	"sound":                  0xD800,
	"net-in":                 0xDC00,
	"net-out":                0xE000,
	"storage-in":             0xE400,
	"storage-out":            0xE800,
	"tiles":                  0xEC00,
	"grid":                   0xF400,
	"cell-x-y-flip":          0xFD60,
	"sprites":                0xFE8C,
	"cell-colors":            0xFF8C,
	"sprite-colors":          0xFFAC,
	"keyboard":               0xFFFA,
	"net-status":             0xFFFB,
	"enable-bits":            0xFFFC,
	"storage-read-address":   0xFFFD,
	"storage-write-address":  0xFFFE,
	"frame-interrupt-vector": 0xFFFF,
}

// RedefineFunc is called whenever a symbol that already has a value is
// assigned again. predefined is true for device and register names.
type RedefineFunc func(name string, old, value uint16, predefined bool)

// SymbolTable maps case-sensitive names to 16-bit values. Each assembly run
// owns its own table.
type SymbolTable struct {
	values     map[string]uint16
	predefined map[string]bool

	// OnRedefine is optional.
	OnRedefine RedefineFunc
}

// NewSymbolTable returns a table seeded with the device addresses and the
// register aliases R0..R9 and RA..RF.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		values:     make(map[string]uint16, len(deviceSymbols)+16),
		predefined: make(map[string]bool, len(deviceSymbols)+16),
	}
	for name, addr := range deviceSymbols {
		st.seed(name, addr)
	}
	for i := 0; i < 16; i++ {
		st.seed(RegisterName(uint16(i)), uint16(i))
	}
	return st
}

func (st *SymbolTable) seed(name string, value uint16) {
	st.values[name] = value
	st.predefined[name] = true
}

// RegisterName returns the alias of register r, e.g. "R7" or "RC".
func RegisterName(r uint16) string {
	return "R" + string("0123456789ABCDEF"[r&0xF])
}

// Set assigns a value. The last write wins.
func (st *SymbolTable) Set(name string, value uint16) {
	if old, ok := st.values[name]; ok && st.OnRedefine != nil {
		st.OnRedefine(name, old, value, st.predefined[name])
	}
	st.values[name] = value
	delete(st.predefined, name)
}

// Lookup returns the value bound to name or ErrUndefinedSymbol.
func (st *SymbolTable) Lookup(name string) (uint16, error) {
	v, ok := st.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedSymbol, name)
	}
	return v, nil
}

// IsPredefined reports whether name still holds its built-in value.
func (st *SymbolTable) IsPredefined(name string) bool {
	return st.predefined[name]
}

func (st *SymbolTable) Len() int {
	return len(st.values)
}

// Names returns every symbol name in sorted order.
func (st *SymbolTable) Names() []string {
	names := make([]string, 0, len(st.values))
	for k := range st.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Defined returns the names assigned by the program, excluding untouched
// built-ins, in sorted order.
func (st *SymbolTable) Defined() []string {
	var names []string
	for _, k := range st.Names() {
		if !st.predefined[k] {
			names = append(names, k)
		}
	}
	return names
}
