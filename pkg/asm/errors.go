package asm

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInteger           = errors.New("malformed integer")
	ErrValueTooLarge              = errors.New("value too large")
	ErrNegativeNotAllowed         = errors.New("negative numbers not allowed")
	ErrUndefinedSymbol            = errors.New("undefined symbol")
	ErrArgumentCount              = errors.New("wrong number of arguments")
	ErrInvalidDirection           = errors.New("invalid shift direction")
	ErrAmountOutOfRange           = errors.New("shift amount out of range")
	ErrInvalidValueCondition      = errors.New("invalid value condition")
	ErrInvalidFlagCondition       = errors.New("invalid flag condition")
	ErrInvalidLabel               = errors.New("invalid label")
	ErrInvalidSymbolName          = errors.New("invalid symbol name")
	ErrInvalidLongStringMode      = errors.New("invalid long string mode")
	ErrUnknownDirective           = errors.New("unknown directive")
	ErrUnknownInstruction         = errors.New("unknown instruction")
	ErrFileNotFound               = errors.New("file not found")
	ErrIncludeCycle               = errors.New("include cycle")
	ErrMalformedImage             = errors.New("malformed image")
	ErrTargetBehindCurrentAddress = errors.New("target address is behind the current address")
	ErrMalformedArray             = errors.New("malformed array")
	ErrUnterminatedArray          = errors.New("unterminated array")
	ErrUnterminatedLongString     = errors.New("unterminated long string")
	ErrUnexpectedEndLongString    = errors.New("unexpected .end-long-string")
	ErrProgramTooLarge            = errors.New("program too large")
)

// Error locates a failure in the source. The wrapped error is one of the
// Err* kinds above, possibly with detail attached.
type Error struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorAt(src SourceInfo, text string, err error) error {
	var located *Error
	if errors.As(err, &located) {
		return err
	}
	return &Error{File: src.File, Line: src.Line, Text: text, Err: err}
}
