package asm

import (
	"errors"
	"fmt"
)

// Bit limits used by operand positions.
const (
	NibbleBits = 4
	ByteBits   = 8
	WordBits   = 16
)

// ParseInt parses a numeric literal. A leading '%' selects binary, '$'
// selects hexadecimal, anything else is decimal. Underscores may separate
// digits. The result must be below 2^bits.
func ParseInt(str string, bits uint) (uint16, error) {
	if len(str) >= 2 && isDigit(str[0]) && (str[1] == 'x' || str[1] == 'X') {
		return 0, fmt.Errorf("%w: '%s'", ErrMalformedInteger, str)
	}

	digits, base := str, uint64(10)
	if str != "" {
		switch str[0] {
		case '%':
			digits, base = str[1:], 2
		case '$':
			digits, base = str[1:], 16
		}
	}

	negative := false
	if digits != "" && (digits[0] == '-' || digits[0] == '+') {
		negative = digits[0] == '-'
		digits = digits[1:]
	}

	value, err := parseDigits(digits, base)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s'", ErrMalformedInteger, str)
	}

	limit := uint64(1) << bits
	if negative && value != 0 {
		return 0, fmt.Errorf("%w: '%s'", ErrNegativeNotAllowed, str)
	}
	if value >= limit {
		return 0, fmt.Errorf("%w: value must be less than %d: '%s'", ErrValueTooLarge, limit, str)
	}
	return uint16(value), nil
}

// parseDigits accepts underscores only between two digits. Values that
// overflow saturate so the caller reports them as too large.
func parseDigits(digits string, base uint64) (uint64, error) {
	if digits == "" {
		return 0, errors.New("no digits")
	}

	var value uint64
	prevDigit := false
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c == '_' {
			if !prevDigit || i == len(digits)-1 {
				return 0, errors.New("misplaced underscore")
			}
			prevDigit = false
			continue
		}

		d, ok := digitValue(c)
		if !ok || d >= base {
			return 0, fmt.Errorf("invalid digit %q", c)
		}
		if value < 1<<32 {
			value = value*base + d
		}
		prevDigit = true
	}
	return value, nil
}

func digitValue(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint64(c-'A') + 10, true
	}
	return 0, false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isLiteral reports whether an operand is spelled as a number rather than a
// symbol name.
func isLiteral(str string) bool {
	return str != "" && (str[0] == '$' || str[0] == '%' || isDigit(str[0]))
}

func hexWord(v uint16) string {
	return fmt.Sprintf("$%04X", v)
}
