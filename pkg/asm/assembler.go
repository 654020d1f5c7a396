package asm

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang/glog"
)

// MaxWords is the size of the address space in words.
const MaxWords = 0x10000

// Files supplies the contents of source files and of .include and .copy
// targets.
type Files interface {
	ReadFile(name string) ([]byte, error)
}

// RedefinitionHook is told about every symbol assignment that replaces an
// existing value.
type RedefinitionHook func(src SourceInfo, name string, old, value uint16, predefined bool)

// Program is the result of an assembly: the machine image, the final
// symbol table and a per-line listing.
type Program struct {
	Words   []uint16
	Symbols *SymbolTable
	Listing []ListingLine
}

// ListingLine is a non-blank source line with the address it was
// assembled at and the words it produced.
type ListingLine struct {
	Source  SourceInfo
	Text    string
	Address int
	Words   []uint16
}

// Assembler holds configuration only. Every call to Assemble* starts from a
// fresh symbol table and command list.
type Assembler struct {
	files Files

	// OnRedefine replaces the default hook, which logs.
	OnRedefine RedefinitionHook
}

// New returns an assembler that reads files through files. files may be nil
// when the source uses neither .include nor .copy.
func New(files Files) *Assembler {
	return &Assembler{files: files}
}

// Assemble assembles a standalone source text.
func Assemble(src string) (*Program, error) {
	return New(nil).AssembleSource("<source>", src)
}

// AssembleFile reads name and assembles it.
func (a *Assembler) AssembleFile(name string) (*Program, error) {
	if a.files == nil {
		return nil, &Error{File: name, Err: fmt.Errorf("%w: %s", ErrFileNotFound, name)}
	}
	data, err := a.files.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, &Error{File: name, Err: err}
	}
	return a.AssembleSource(name, string(data))
}

// AssembleSource assembles src, reporting locations against name.
func (a *Assembler) AssembleSource(name, src string) (*Program, error) {
	p := &pass{
		asm:     a,
		cursor:  NewCursor(name, SplitLines(src)),
		symbols: NewSymbolTable(),
	}
	p.symbols.OnRedefine = p.redefined

	glog.V(1).Infof("pass 1: %s", name)
	if err := p.first(); err != nil {
		return nil, err
	}
	glog.V(1).Infof("pass 2: %d commands, %d words, %d symbols", len(p.commands), p.wordIndex, p.symbols.Len())
	words, err := p.second()
	if err != nil {
		return nil, err
	}

	return &Program{Words: words, Symbols: p.symbols, Listing: p.listing}, nil
}

type pending struct {
	cmd     Command
	listing int
}

// pass is the state of one assembly.
type pass struct {
	asm       *Assembler
	cursor    *Cursor
	symbols   *SymbolTable
	commands  []pending
	listing   []ListingLine
	wordIndex int
	current   SourceLine
}

func (p *pass) redefined(name string, old, value uint16, predefined bool) {
	src := p.current.Info()
	if p.asm.OnRedefine != nil {
		p.asm.OnRedefine(src, name, old, value, predefined)
		return
	}
	if predefined {
		glog.Warningf("%s: redefining predefined symbol %s: %s -> %s", src, name, hexWord(old), hexWord(value))
		return
	}
	glog.V(1).Infof("%s: redefining %s: %s -> %s", src, name, hexWord(old), hexWord(value))
}

// first walks every line, building the symbol table and the command list.
func (p *pass) first() error {
	for {
		line, ok := p.cursor.PopLine()
		if !ok {
			return nil
		}
		if line.Code == "" {
			continue
		}
		p.current = line
		if err := p.line(line); err != nil {
			return errorAt(line.Info(), line.Code, err)
		}
	}
}

func (p *pass) line(line SourceLine) error {
	p.listing = append(p.listing, ListingLine{
		Source:  line.Info(),
		Text:    line.Code,
		Address: p.wordIndex,
	})

	first, args := splitFirst(line.Code)
	var (
		cmd Command
		err error
	)
	switch {
	case first[0] == '(':
		return p.label(first, args)
	case first[0] == '.':
		cmd, err = HandleDirective(line, p.cursor, p.wordIndex, p.symbols, p.asm.files)
	case IsPseudoInstruction(first):
		cmd, err = NewPseudoInstruction(first, args, line.Info())
	default:
		op, ok := LookupInstruction(first)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownInstruction, first)
		}
		cmd, err = NewInstruction(op, args, line.Info())
	}
	if err != nil || cmd == nil {
		return err
	}

	glog.V(2).Infof("%s %04X +%d %s", line.Info(), p.wordIndex, cmd.WordLength(), line.Code)
	p.commands = append(p.commands, pending{cmd: cmd, listing: len(p.listing) - 1})
	p.wordIndex += cmd.WordLength()
	if p.wordIndex > MaxWords {
		return fmt.Errorf("%w: %d words", ErrProgramTooLarge, p.wordIndex)
	}
	return nil
}

// label handles "(name)", binding name to the current word index.
func (p *pass) label(first, rest string) error {
	if rest != "" {
		return fmt.Errorf("%w: unexpected text after label: '%s'", ErrInvalidLabel, rest)
	}
	if len(first) < 3 || !strings.HasSuffix(first, ")") {
		return fmt.Errorf("%w: '%s'", ErrInvalidLabel, first)
	}
	name := first[1 : len(first)-1]
	if isLiteral(name) || strings.ContainsAny(name, "()") {
		return fmt.Errorf("%w: '%s'", ErrInvalidLabel, first)
	}
	if p.wordIndex >= MaxWords {
		return fmt.Errorf("%w: label %s at %d", ErrProgramTooLarge, name, p.wordIndex)
	}
	p.symbols.Set(name, uint16(p.wordIndex))
	return nil
}

// second resolves every command against the complete symbol table.
func (p *pass) second() ([]uint16, error) {
	out := make([]uint16, 0, p.wordIndex)
	for _, pc := range p.commands {
		words, err := pc.cmd.MachineCode(p.symbols)
		entry := &p.listing[pc.listing]
		if err != nil {
			return nil, errorAt(pc.cmd.Source(), entry.Text, err)
		}
		if len(words) != pc.cmd.WordLength() {
			return nil, errorAt(pc.cmd.Source(), entry.Text,
				fmt.Errorf("emitted %d words, expected %d", len(words), pc.cmd.WordLength()))
		}
		entry.Words = words
		out = append(out, words...)
	}
	return out, nil
}
