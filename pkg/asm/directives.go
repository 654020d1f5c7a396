package asm

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// Directive identifies a dot-command.
type Directive int

const (
	DirSet Directive = iota
	DirWord
	DirArray
	DirFillArray
	DirMove
	DirString
	DirLongString
	DirEndLongString
	DirInclude
	DirCopy
)

var directiveTable = map[string]Directive{
	".set":             DirSet,
	".word":            DirWord,
	".array":           DirArray,
	".fill-array":      DirFillArray,
	".move":            DirMove,
	".string":          DirString,
	".str":             DirString,
	".long-string":     DirLongString,
	".end-long-string": DirEndLongString,
	".include":         DirInclude,
	".copy":            DirCopy,
}

var directiveNames = map[Directive]string{
	DirSet:           ".set",
	DirWord:          ".word",
	DirArray:         ".array",
	DirFillArray:     ".fill-array",
	DirMove:          ".move",
	DirString:        ".string",
	DirLongString:    ".long-string",
	DirEndLongString: ".end-long-string",
	DirInclude:       ".include",
	DirCopy:          ".copy",
}

// LookupDirective maps a directive name, including its leading dot.
func LookupDirective(name string) (Directive, bool) {
	d, ok := directiveTable[name]
	return d, ok
}

func (d Directive) String() string {
	return directiveNames[d]
}

// HandlerName derives a handler name from a directive name:
// ".fill-array" becomes "FillArrayDirective".
func HandlerName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(strings.TrimPrefix(name, "."), "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	b.WriteString("Directive")
	return b.String()
}

func isStringDirective(word string) bool {
	d, ok := directiveTable[word]
	return ok && d == DirString
}

const (
	keepNewlines  = "keep-newlines"
	stripNewlines = "strip-newlines"
)

// directiveState is everything a directive may read or consume while it is
// built. The cursor is only touched by directives that span several lines.
type directiveState struct {
	line      SourceLine
	args      string
	cursor    *Cursor
	wordIndex int
	symbols   *SymbolTable
	files     Files
}

// HandleDirective builds the command for a directive line. .set updates the
// symbol table immediately and .include splices lines into cursor; both
// return a nil command.
func HandleDirective(line SourceLine, cursor *Cursor, wordIndex int, st *SymbolTable, files Files) (Command, error) {
	if line.Code == "" {
		line.Code = StripLine(line.Raw)
	}
	name, args := splitFirst(line.Code)
	d, ok := LookupDirective(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDirective, name)
	}

	s := &directiveState{
		line:      line,
		args:      args,
		cursor:    cursor,
		wordIndex: wordIndex,
		symbols:   st,
		files:     files,
	}

	switch d {
	case DirSet:
		return nil, s.set()
	case DirWord:
		return s.word()
	case DirArray:
		return s.array()
	case DirFillArray:
		return s.fillArray()
	case DirMove:
		return s.move()
	case DirString:
		return s.str()
	case DirLongString:
		return s.longString()
	case DirEndLongString:
		return nil, ErrUnexpectedEndLongString
	case DirInclude:
		return nil, s.include()
	case DirCopy:
		return s.copyImage()
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDirective, name)
}

func (s *directiveState) src() SourceInfo {
	return s.line.Info()
}

func (s *directiveState) fields(name string, n int) ([]string, error) {
	f := strings.Fields(s.args)
	if len(f) != n {
		return nil, fmt.Errorf("%w: %s expects %d, received %d", ErrArgumentCount, name, n, len(f))
	}
	return f, nil
}

// resolveNow resolves a token against the table as it stands in pass 1.
func (s *directiveState) resolveNow(str string) (uint16, error) {
	tok, err := NewToken(str, WordBits)
	if err != nil {
		return 0, err
	}
	return tok.Resolve(s.symbols)
}

func (s *directiveState) set() error {
	f, err := s.fields(".set", 2)
	if err != nil {
		return err
	}
	if isLiteral(f[0]) {
		return fmt.Errorf("%w: '%s'", ErrInvalidSymbolName, f[0])
	}
	v, err := s.resolveNow(f[1])
	if err != nil {
		return err
	}
	s.symbols.Set(f[0], v)
	return nil
}

func (s *directiveState) word() (Command, error) {
	f, err := s.fields(".word", 1)
	if err != nil {
		return nil, err
	}
	tok, err := NewToken(f[0], WordBits)
	if err != nil {
		return nil, err
	}
	return &tokenCommand{src: s.src(), tokens: []Token{tok}}, nil
}

// array reads "[ v1 v2 ... ]", pulling continuation lines until one holds
// the closing bracket.
func (s *directiveState) array() (Command, error) {
	if !strings.HasPrefix(s.args, "[") {
		return nil, fmt.Errorf("%w: array must start with '['", ErrMalformedArray)
	}
	text := s.args[1:]
	var parts []string
	for {
		if i := strings.IndexByte(text, ']'); i >= 0 {
			if strings.TrimSpace(text[i+1:]) != "" {
				return nil, fmt.Errorf("%w: unexpected text after ']': '%s'", ErrMalformedArray, text[i+1:])
			}
			parts = append(parts, text[:i])
			break
		}
		parts = append(parts, text)

		next, ok := s.cursor.PopLine()
		if !ok {
			return nil, ErrUnterminatedArray
		}
		text = next.Code
	}

	tokens, err := parseTokens(strings.Fields(strings.Join(parts, " ")), WordBits)
	if err != nil {
		return nil, err
	}
	return &tokenCommand{src: s.src(), tokens: tokens}, nil
}

func (s *directiveState) fillArray() (Command, error) {
	f, err := s.fields(".fill-array", 2)
	if err != nil {
		return nil, err
	}
	count, err := s.resolveNow(f[0])
	if err != nil {
		return nil, err
	}
	value, err := NewToken(f[1], WordBits)
	if err != nil {
		return nil, err
	}
	return &fillCommand{src: s.src(), count: int(count), value: value}, nil
}

// move pads with zeros up to an address that must already be known.
func (s *directiveState) move() (Command, error) {
	f, err := s.fields(".move", 1)
	if err != nil {
		return nil, err
	}
	target, err := s.resolveNow(f[0])
	if err != nil {
		return nil, err
	}
	n := int(target) - s.wordIndex
	if n < 0 {
		return nil, fmt.Errorf("%w: %s from %s", ErrTargetBehindCurrentAddress, hexWord(target), hexWord(uint16(s.wordIndex)))
	}
	return &fillCommand{src: s.src(), count: n, value: literalToken(0)}, nil
}

// str takes its text from the raw line so '#' and whitespace survive.
func (s *directiveState) str() (Command, error) {
	words, err := encodeString(rawArgument(s.line.Raw))
	if err != nil {
		return nil, err
	}
	return &dataCommand{src: s.src(), words: words}, nil
}

func (s *directiveState) longString() (Command, error) {
	f, err := s.fields(".long-string", 1)
	if err != nil {
		return nil, err
	}
	var sep string
	switch f[0] {
	case keepNewlines:
		sep = "\n"
	case stripNewlines:
		sep = ""
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidLongStringMode, f[0])
	}

	var body []string
	for {
		next, ok := s.cursor.PopLine()
		if !ok {
			return nil, ErrUnterminatedLongString
		}
		if next.Code == directiveNames[DirEndLongString] {
			break
		}
		body = append(body, next.Raw)
	}

	words, err := encodeString(strings.Join(body, sep))
	if err != nil {
		return nil, err
	}
	return &dataCommand{src: s.src(), words: words}, nil
}

// encodeString emits the character count followed by one word per
// character.
func encodeString(text string) ([]uint16, error) {
	runes := []rune(text)
	if len(runes) > 0xFFFF {
		return nil, fmt.Errorf("%w: string of %d characters", ErrValueTooLarge, len(runes))
	}
	words := make([]uint16, 0, len(runes)+1)
	words = append(words, uint16(len(runes)))
	for _, r := range runes {
		if r > 0xFFFF {
			return nil, fmt.Errorf("%w: character %q", ErrValueTooLarge, r)
		}
		words = append(words, uint16(r))
	}
	return words, nil
}

func (s *directiveState) include() error {
	f, err := s.fields(".include", 1)
	if err != nil {
		return err
	}
	name, data, err := readRelative(s.files, s.line.File, f[0])
	if err != nil {
		return err
	}

	chain := append(append([]string(nil), s.line.includers...), s.line.File)
	for _, open := range chain {
		if filepath.Clean(open) == filepath.Clean(name) {
			return fmt.Errorf("%w: %s", ErrIncludeCycle, strings.Join(append(chain, name), " -> "))
		}
	}
	glog.V(1).Infof("%s: including %s", s.src(), name)
	s.cursor.includeFrom(chain, name, SplitLines(string(data)))
	return nil
}

func (s *directiveState) copyImage() (Command, error) {
	f, err := s.fields(".copy", 1)
	if err != nil {
		return nil, err
	}
	_, data, err := readRelative(s.files, s.line.File, f[0])
	if err != nil {
		return nil, err
	}
	words, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f[0], err)
	}
	return &dataCommand{src: s.src(), words: words}, nil
}

// readRelative looks for name next to the file that refers to it, then as
// written.
func readRelative(files Files, from, name string) (string, []byte, error) {
	if files == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	candidates := []string{name}
	if !filepath.IsAbs(name) {
		if dir := filepath.Dir(from); dir != "." && dir != "" {
			candidates = []string{filepath.Join(dir, name), name}
		}
	}

	for _, path := range candidates {
		data, err := files.ReadFile(path)
		if err == nil {
			return path, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
}
