package asm

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"nibasm/pkg/vfs"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    []uint16
		wantErr error
	}{
		{
			"Basic Instructions",
			`
			ADD R1 R2 R3
			NOT R4 R5
			END
			`,
			[]uint16{0x5123, 0xC405, 0x0000},
			nil,
		},
		{
			"Labels and Forward References",
			`
			# start is 0, data is 4, later is 9
			.set count 3
			(start)
			WRD $1234 R1
			INC R2
			JMP R1
			(data)
			.word data
			.word later
			.array [1 2
			  count]
			(later)
			END
			`,
			[]uint16{0x1121, 0x2341, 0x7212, 0xE017, 4, 9, 1, 2, 3, 0},
			nil,
		},
		{
			"Comments",
			`
			# Comment
			ADI R1 %0101 R2 # comment
			`,
			[]uint16{0x7152},
			nil,
		},
		{
			".string keeps hash",
			`
			.string a#b
			`,
			[]uint16{3, 'a', '#', 'b'},
			nil,
		},
		{
			".long-string",
			".long-string keep-newlines\nab\nc\n  .end-long-string # done\nEND\n",
			[]uint16{4, 'a', 'b', '\n', 'c', 0},
			nil,
		},
		{
			".move pads with zeros",
			`
			NOP
			.move $0004
			SPC R1
			`,
			[]uint16{0x7000, 0, 0, 0, 0xF001},
			nil,
		},
		{
			".fill-array with forward symbol",
			`
			.fill-array 2 end
			(end)
			`,
			[]uint16{2, 2},
			nil,
		},
		{
			"Device symbols",
			`
			.word keyboard
			.word sound
			`,
			[]uint16{0xFFFA, 0xD800},
			nil,
		},
		{
			"Register alias from .set",
			`
			.set ptr RC
			LOD ptr R1
			`,
			[]uint16{0x3C01},
			nil,
		},
		// Errors
		{
			"Unknown Instruction",
			`FOOBAR R0`,
			nil,
			ErrUnknownInstruction,
		},
		{
			"Unknown Directive",
			`.org $10`,
			nil,
			ErrUnknownDirective,
		},
		{
			"Register too large",
			`ADD R1 16 R2`,
			nil,
			ErrValueTooLarge,
		},
		{
			"Symbol too large for register",
			`ADD R1 sound R2`,
			nil,
			ErrValueTooLarge,
		},
		{
			"Invalid Operand Count",
			`ADD R0`,
			nil,
			ErrArgumentCount,
		},
		{
			"Undefined Symbol",
			`.word NOWHERE`,
			nil,
			ErrUndefinedSymbol,
		},
		{
			"Hex with 0x",
			`.word 0x10`,
			nil,
			ErrMalformedInteger,
		},
		{
			".move Backward",
			`
			NOP
			.move 0
			`,
			nil,
			ErrTargetBehindCurrentAddress,
		},
		{
			".move forward reference",
			`
			.move later
			(later)
			`,
			nil,
			ErrUndefinedSymbol,
		},
		{
			"Empty Label",
			`()`,
			nil,
			ErrInvalidLabel,
		},
		{
			"Unclosed Label",
			`(start`,
			nil,
			ErrInvalidLabel,
		},
		{
			"Label with trailing text",
			`(start) END`,
			nil,
			ErrInvalidLabel,
		},
		{
			"Unterminated array",
			`.array [1 2`,
			nil,
			ErrUnterminatedArray,
		},
		{
			"Unterminated long string",
			`
			.long-string strip-newlines
			abc
			`,
			nil,
			ErrUnterminatedLongString,
		},
		{
			"Stray end-long-string",
			`.end-long-string`,
			nil,
			ErrUnexpectedEndLongString,
		},
		{
			"Include without files",
			`.include lib.asm`,
			nil,
			ErrFileNotFound,
		},
		{
			"Program Too Large",
			`
			.move $FFFF
			.word 1
			.word 2
			`,
			nil,
			ErrProgramTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := Assemble(tc.code)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("Assemble() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if !reflect.DeepEqual(prog.Words, tc.want) {
				t.Errorf("Assemble() = %04X, want %04X", prog.Words, tc.want)
			}
		})
	}
}

func TestAssembleErrorLocation(t *testing.T) {
	code := "ADD R1 R2 R3\n\nADD R1 R16 R3\n"
	_, err := Assemble(code)

	var located *Error
	if !errors.As(err, &located) {
		t.Fatalf("Assemble() error = %v, want *Error", err)
	}
	if located.Line != 3 {
		t.Errorf("Line = %d, want 3", located.Line)
	}
	if located.File != "<source>" {
		t.Errorf("File = %q, want <source>", located.File)
	}
	if located.Text != "ADD R1 R16 R3" {
		t.Errorf("Text = %q", located.Text)
	}
	if !errors.Is(err, ErrUndefinedSymbol) || !strings.Contains(err.Error(), "R16") {
		t.Errorf("error = %v, want undefined symbol R16", err)
	}
}

func TestAssembleInclude(t *testing.T) {
	disk := vfs.NewDisk()
	disk.WriteString("main.asm", ".include lib/consts.asm\n.word answer\n.word here\n")
	disk.WriteString("lib/consts.asm", ".set answer 42\n.include more.asm\n")
	disk.WriteString("lib/more.asm", "NOP\n(here)\n")

	prog, err := New(disk).AssembleFile("main.asm")
	if err != nil {
		t.Fatalf("AssembleFile() error = %v", err)
	}
	want := []uint16{0x7000, 42, 1}
	if !reflect.DeepEqual(prog.Words, want) {
		t.Errorf("words = %04X, want %04X", prog.Words, want)
	}

	for _, l := range prog.Listing {
		if l.Text != "NOP" {
			continue
		}
		if l.Source.File != "lib/more.asm" || l.Source.Line != 1 || l.Address != 0 {
			t.Errorf("NOP listed at %v address %d, want lib/more.asm:1 address 0", l.Source, l.Address)
		}
	}
}

func TestAssembleIncludeErrorLocation(t *testing.T) {
	disk := vfs.NewDisk()
	disk.WriteString("main.asm", "NOP\n.include bad.asm\nNOP\n")
	disk.WriteString("bad.asm", "# header\nNOP\nSHF R1 L 9 R2\n")

	_, err := New(disk).AssembleFile("main.asm")
	var located *Error
	if !errors.As(err, &located) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if located.File != "bad.asm" || located.Line != 3 {
		t.Errorf("location = %s:%d, want bad.asm:3", located.File, located.Line)
	}
	if !errors.Is(err, ErrAmountOutOfRange) {
		t.Errorf("error = %v, want ErrAmountOutOfRange", err)
	}
}

func TestAssembleIncludeCycle(t *testing.T) {
	disk := vfs.NewDisk()
	disk.WriteString("a.asm", ".include b.asm\n")
	disk.WriteString("b.asm", "NOP\n.include a.asm\n")

	_, err := New(disk).AssembleFile("a.asm")
	if !errors.Is(err, ErrIncludeCycle) {
		t.Fatalf("error = %v, want ErrIncludeCycle", err)
	}

	// Including the same file twice in sequence is not a cycle.
	disk.WriteString("twice.asm", ".include c.asm\n.include c.asm\n")
	disk.WriteString("c.asm", "NOP\n")
	prog, err := New(disk).AssembleFile("twice.asm")
	if err != nil {
		t.Fatalf("AssembleFile() error = %v", err)
	}
	if len(prog.Words) != 2 {
		t.Errorf("words = %d, want 2", len(prog.Words))
	}
}

func TestAssembleMissingFile(t *testing.T) {
	disk := vfs.NewDisk()
	if _, err := New(disk).AssembleFile("none.asm"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("AssembleFile() error = %v, want ErrFileNotFound", err)
	}

	disk.WriteString("main.asm", "NOP\n.copy missing.bin\n")
	_, err := New(disk).AssembleFile("main.asm")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("error = %v, want ErrFileNotFound", err)
	}
	var located *Error
	if errors.As(err, &located) && located.Line != 2 {
		t.Errorf("Line = %d, want 2", located.Line)
	}
}

func TestCopyRoundTrip(t *testing.T) {
	first, err := Assemble(`
		(top)
		WRD top R1
		.string hi
		.fill-array 3 $BEEF
		JMP R1
	`)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	disk := vfs.NewDisk()
	disk.Write("first.bin", EncodeImage(first.Words))
	disk.WriteString("second.asm", ".copy first.bin\n")

	second, err := New(disk).AssembleFile("second.asm")
	if err != nil {
		t.Fatalf("AssembleFile() error = %v", err)
	}
	if !reflect.DeepEqual(second.Words, first.Words) {
		t.Errorf("copied words = %04X, want %04X", second.Words, first.Words)
	}
}

func TestCopyMalformedImage(t *testing.T) {
	disk := vfs.NewDisk()
	disk.Write("odd.bin", []byte{1, 2, 3})
	disk.WriteString("main.asm", ".copy odd.bin\n")
	if _, err := New(disk).AssembleFile("main.asm"); !errors.Is(err, ErrMalformedImage) {
		t.Errorf("error = %v, want ErrMalformedImage", err)
	}
}

func TestRedefinition(t *testing.T) {
	type event struct {
		name       string
		old, value uint16
		predefined bool
		line       int
	}
	var events []event

	a := New(nil)
	a.OnRedefine = func(src SourceInfo, name string, old, value uint16, predefined bool) {
		events = append(events, event{name, old, value, predefined, src.Line})
	}
	prog, err := a.AssembleSource("redef.asm", ".set x 1\n.set x 2\n.set sound 7\n.word x\n.word sound\n")
	if err != nil {
		t.Fatalf("AssembleSource() error = %v", err)
	}

	want := []event{
		{"x", 1, 2, false, 2},
		{"sound", 0xD800, 7, true, 3},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
	if !reflect.DeepEqual(prog.Words, []uint16{2, 7}) {
		t.Errorf("words = %v, want [2 7]", prog.Words)
	}
}

func TestAssemblerRunsAreIndependent(t *testing.T) {
	a := New(nil)
	if _, err := a.AssembleSource("one.asm", ".set shared 5\n"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := a.AssembleSource("two.asm", ".word shared\n"); !errors.Is(err, ErrUndefinedSymbol) {
		t.Errorf("second run error = %v, want ErrUndefinedSymbol", err)
	}
}
