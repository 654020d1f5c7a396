package asm

import (
	"errors"
	"reflect"
	"testing"
)

func TestSymbolTablePredefined(t *testing.T) {
	st := NewSymbolTable()

	tests := map[string]uint16{
		"R0":                     0,
		"R9":                     9,
		"RA":                     10,
		"RF":                     15,
		"sound":                  0xD800,
		"tiles":                  0xEC00,
		"grid":                   0xF400,
		"keyboard":               0xFFFA,
		"frame-interrupt-vector": 0xFFFF,
	}
	for name, want := range tests {
		got, err := st.Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("Lookup(%q) = $%04X, want $%04X", name, got, want)
		}
		if !st.IsPredefined(name) {
			t.Errorf("IsPredefined(%q) = false", name)
		}
	}

	if st.Len() != len(deviceSymbols)+16 {
		t.Errorf("Len() = %d, want %d", st.Len(), len(deviceSymbols)+16)
	}
	if d := st.Defined(); len(d) != 0 {
		t.Errorf("Defined() = %v, want none", d)
	}
}

func TestSymbolTableCaseSensitive(t *testing.T) {
	st := NewSymbolTable()
	if _, err := st.Lookup("r1"); !errors.Is(err, ErrUndefinedSymbol) {
		t.Errorf("Lookup(r1) error = %v, want ErrUndefinedSymbol", err)
	}
	if _, err := st.Lookup("Sound"); !errors.Is(err, ErrUndefinedSymbol) {
		t.Errorf("Lookup(Sound) error = %v, want ErrUndefinedSymbol", err)
	}
}

func TestSymbolTableSet(t *testing.T) {
	st := NewSymbolTable()

	type call struct {
		name       string
		old, value uint16
		predefined bool
	}
	var calls []call
	st.OnRedefine = func(name string, old, value uint16, predefined bool) {
		calls = append(calls, call{name, old, value, predefined})
	}

	st.Set("loop", 4)
	st.Set("loop", 9)
	st.Set("R1", 7)
	st.Set("R1", 8)

	want := []call{
		{"loop", 4, 9, false},
		{"R1", 1, 7, true},
		{"R1", 7, 8, false},
	}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("redefinitions = %+v, want %+v", calls, want)
	}

	if v, _ := st.Lookup("loop"); v != 9 {
		t.Errorf("loop = %d, want 9", v)
	}
	if st.IsPredefined("R1") {
		t.Error("R1 still reported as predefined after Set")
	}
	if got := st.Defined(); !reflect.DeepEqual(got, []string{"R1", "loop"}) {
		t.Errorf("Defined() = %v", got)
	}
}

func TestRegisterName(t *testing.T) {
	tests := map[uint16]string{0: "R0", 9: "R9", 10: "RA", 12: "RC", 15: "RF"}
	for r, want := range tests {
		if got := RegisterName(r); got != want {
			t.Errorf("RegisterName(%d) = %q, want %q", r, got, want)
		}
	}
}

func TestTokenResolve(t *testing.T) {
	st := NewSymbolTable()
	st.Set("small", 3)

	tok, err := NewToken("small", NibbleBits)
	if err != nil {
		t.Fatal(err)
	}
	if tok.IsLiteral() || tok.Symbol() != "small" {
		t.Errorf("token = %+v, want symbol reference", tok)
	}
	if v, err := tok.Resolve(st); err != nil || v != 3 {
		t.Errorf("Resolve() = %d, %v; want 3", v, err)
	}

	tok, _ = NewToken("keyboard", NibbleBits)
	if _, err := tok.Resolve(st); !errors.Is(err, ErrValueTooLarge) {
		t.Errorf("Resolve(keyboard) in a nibble error = %v, want ErrValueTooLarge", err)
	}

	tok, _ = NewToken("keyboard", WordBits)
	if v, err := tok.Resolve(st); err != nil || v != 0xFFFA {
		t.Errorf("Resolve(keyboard) = $%04X, %v", v, err)
	}

	if _, err := NewToken("$100", ByteBits); !errors.Is(err, ErrValueTooLarge) {
		t.Errorf("NewToken($100, 8) error = %v, want ErrValueTooLarge", err)
	}
}
