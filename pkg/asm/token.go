package asm

import "fmt"

// Token is a parsed operand: either a literal resolved at construction or a
// symbol reference resolved against the symbol table on demand.
type Token struct {
	raw     string
	symbol  string
	value   uint16
	bits    uint
	literal bool
}

// NewToken parses an operand with the given bit limit.
func NewToken(str string, bits uint) (Token, error) {
	t := Token{raw: str, bits: bits}
	if !isLiteral(str) {
		t.symbol = str
		return t, nil
	}

	v, err := ParseInt(str, bits)
	if err != nil {
		return Token{}, err
	}
	t.value = v
	t.literal = true
	return t, nil
}

func literalToken(v uint16) Token {
	return Token{raw: hexWord(v), value: v, bits: WordBits, literal: true}
}

// Resolve returns the token's value. Symbol values are checked against the
// bit limit again.
func (t Token) Resolve(st *SymbolTable) (uint16, error) {
	if t.literal {
		return t.value, nil
	}

	v, err := st.Lookup(t.symbol)
	if err != nil {
		return 0, err
	}
	if t.bits < WordBits && v >= 1<<t.bits {
		return 0, fmt.Errorf("%w: %s = %d does not fit in %d bits", ErrValueTooLarge, t.symbol, v, t.bits)
	}
	return v, nil
}

func (t Token) IsLiteral() bool { return t.literal }

// Symbol returns the referenced name, or "" for literals.
func (t Token) Symbol() string { return t.symbol }

func (t Token) String() string { return t.raw }

// parseTokens parses each field with the same bit limit.
func parseTokens(fields []string, bits uint) ([]Token, error) {
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tok, err := NewToken(f, bits)
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}
