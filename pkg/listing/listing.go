// Package listing formats assembled programs for people: the annotated
// source listing, the word stream and the symbol table.
package listing

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"nibasm/pkg/asm"
)

// wordsPerRow is how many words a listing row or word-stream row shows.
const wordsPerRow = 8

// WriteListing writes one row per source line: address, the first words it
// produced, and the line itself. Lines producing more words continue on
// further rows.
func WriteListing(w io.Writer, prog *asm.Program) error {
	for _, l := range prog.Listing {
		words := l.Words
		first := words
		if len(first) > wordsPerRow {
			first = first[:wordsPerRow]
		}
		if _, err := fmt.Fprintf(w, "%04X  %-39s  %s\n", l.Address, hexWords(first), l.Text); err != nil {
			return err
		}
		for i := wordsPerRow; i < len(words); i += wordsPerRow {
			end := min(i+wordsPerRow, len(words))
			if _, err := fmt.Fprintf(w, "%04X  %s\n", l.Address+i, hexWords(words[i:end])); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteWords writes the image as rows of hexadecimal words prefixed with
// the address of the first word.
func WriteWords(w io.Writer, words []uint16) error {
	for i := 0; i < len(words); i += wordsPerRow {
		end := min(i+wordsPerRow, len(words))
		if _, err := fmt.Fprintf(w, "%04X: %s\n", i, hexWords(words[i:end])); err != nil {
			return err
		}
	}
	return nil
}

// WriteDisassembly writes one decoded instruction per word.
func WriteDisassembly(w io.Writer, words []uint16) error {
	for i, word := range words {
		if _, err := fmt.Fprintf(w, "%04X  %04X  %s\n", i, word, asm.Disassemble(word)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSymbols writes "name => value" for every symbol the program
// defined, or every symbol when all is set.
func WriteSymbols(w io.Writer, st *asm.SymbolTable, all bool) error {
	names := st.Defined()
	if all {
		names = st.Names()
	}
	for _, name := range names {
		v, err := st.Lookup(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  %22s => %5d  $%04X\n", name, v, v); err != nil {
			return err
		}
	}
	return nil
}

func hexWords(words []uint16) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%04X", w)
	}
	return strings.Join(parts, " ")
}

// ErrorBlock renders a failure the way the command line reports it.
func ErrorBlock(err error) string {
	lines := []string{"", "", "****"}
	var located *asm.Error
	if errors.As(err, &located) {
		lines = append(lines, "FILE: "+located.File)
		if located.Line > 0 {
			lines = append(lines, fmt.Sprintf("LINE # %d", located.Line), located.Text)
		}
		err = located.Err
	}
	lines = append(lines, err.Error(), "****", "", "")
	return strings.Join(lines, "\n")
}
