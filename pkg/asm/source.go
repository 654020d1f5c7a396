package asm

import (
	"strconv"
	"strings"
)

// SourceInfo identifies where a command came from.
type SourceInfo struct {
	File string
	Line int
}

func (s SourceInfo) String() string {
	return s.File + ":" + strconv.Itoa(s.Line)
}

// SourceLine is one line of a translation unit. Raw is the text as read;
// Code is filled in when the line is popped from a Cursor and holds the
// text with comments and surrounding whitespace removed.
type SourceLine struct {
	File   string
	Number int
	Raw    string
	Code   string

	// includers lists the files that spliced this line in, outermost first.
	includers []string
}

func (l SourceLine) Info() SourceInfo {
	return SourceInfo{File: l.File, Line: l.Number}
}

// Cursor is the queue of lines still to be assembled. Included files are
// spliced in at the front.
type Cursor struct {
	pending []SourceLine
	count   int
}

// NewCursor returns a cursor over the lines of a single file.
func NewCursor(file string, lines []string) *Cursor {
	c := &Cursor{}
	c.IncludeLines(file, lines)
	return c
}

// SplitLines breaks file contents into lines, accepting either line ending.
func SplitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.TrimSuffix(src, "\n")
	if src == "" {
		return nil
	}
	return strings.Split(src, "\n")
}

// IncludeLines puts the lines of file in front of everything still pending.
// Line numbers restart at 1.
func (c *Cursor) IncludeLines(file string, lines []string) {
	c.includeFrom(nil, file, lines)
}

func (c *Cursor) includeFrom(includers []string, file string, lines []string) {
	spliced := make([]SourceLine, len(lines), len(lines)+len(c.pending))
	for i, text := range lines {
		spliced[i] = SourceLine{File: file, Number: i + 1, Raw: text, includers: includers}
	}
	c.pending = append(spliced, c.pending...)
}

// PopLine removes the next line and strips it. ok is false when the cursor
// is empty.
func (c *Cursor) PopLine() (line SourceLine, ok bool) {
	if len(c.pending) == 0 {
		return SourceLine{}, false
	}
	line = c.pending[0]
	c.pending = c.pending[1:]
	c.count++
	line.Code = StripLine(line.Raw)
	return line, true
}

// PeekLine returns the next line without consuming it. Code is not set.
func (c *Cursor) PeekLine() (SourceLine, bool) {
	if len(c.pending) == 0 {
		return SourceLine{}, false
	}
	return c.pending[0], true
}

func (c *Cursor) Empty() bool {
	return len(c.pending) == 0
}

// Count is the number of lines popped so far.
func (c *Cursor) Count() int {
	return c.count
}

// StripLine removes surrounding whitespace and '#' comments. Lines of the
// string directives keep their '#' characters.
func StripLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return ""
	}
	if isStringDirective(firstField(line)) {
		return line
	}
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	return line
}

func firstField(line string) string {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}

// splitFirst separates the first whitespace-delimited word from the rest.
func splitFirst(line string) (string, string) {
	first := firstField(line)
	return first, strings.TrimSpace(line[len(first):])
}

// rawArgument returns the text after the first word of a raw line and a
// single separator character, leaving everything else untouched.
func rawArgument(raw string) string {
	trimmed := strings.TrimLeft(raw, " \t")
	first := firstField(trimmed)
	rest := trimmed[len(first):]
	if rest != "" {
		rest = rest[1:]
	}
	return rest
}
