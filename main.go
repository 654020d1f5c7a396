package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nibasm/pkg/asm"
	"nibasm/pkg/listing"
	"nibasm/pkg/utils"
	"nibasm/pkg/vfs"
)

// errReported means the failure has already been written to stderr.
var errReported = errors.New("assembly failed")

type asmOptions struct {
	output     string
	symbols    string
	allSymbols bool
	noListing  bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nibasm",
		Short: "Assembler for the nibble-coded 16-bit virtual machine",
		Long: `nibasm translates line-oriented assembly into 16-bit machine words.

Each instruction word is four nibbles: opcode, then three operand fields.
Device addresses (sound, tiles, keyboard, ...) and the register aliases
R0..RF are predefined symbols. Source files may pull in other sources with
.include and splice pre-assembled images with .copy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// glog reads its settings from the Go flag set.
			return flag.CommandLine.Parse(nil)
		},
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	root.AddCommand(newAsmCmd(), newDumpCmd())
	return root
}

func newAsmCmd() *cobra.Command {
	var opts asmOptions
	cmd := &cobra.Command{
		Use:   "asm SOURCE",
		Short: "Assemble a source file into a word image",
		Long: `Assemble SOURCE. The annotated listing and the word stream go to
standard output, the image to --output and the symbol table to --symbols.
On failure the file, line number and message are written to standard
error and the exit status is 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "image file path (default: SOURCE with .bin extension)")
	cmd.Flags().StringVar(&opts.symbols, "symbols", "", "symbol table listing path (default: SOURCE with .sym extension)")
	cmd.Flags().BoolVar(&opts.allSymbols, "all-symbols", false, "include predefined device and register symbols in the symbol listing")
	cmd.Flags().BoolVar(&opts.noListing, "no-listing", false, "only print the word stream")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "pretty-print the assembled program to standard error")
	return cmd
}

func newDumpCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "dump IMAGE",
		Short: "Disassemble a word image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			words, err := asm.DecodeImage(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if debug {
				newPrinter(cmd.ErrOrStderr()).Println(words)
			}
			return listing.WriteDisassembly(cmd.OutOrStdout(), words)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "pretty-print the decoded words to standard error")
	return cmd
}

func runAssemble(source string, opts asmOptions, stdout, stderr io.Writer) error {
	root, name, err := utils.SourcePath(source)
	if err != nil {
		return err
	}

	assembler := asm.New(vfs.HostDir{Root: root})
	assembler.OnRedefine = func(src asm.SourceInfo, name string, old, value uint16, predefined bool) {
		if predefined {
			glog.Warningf("%s: redefining predefined symbol %s: $%04X -> $%04X", src, name, old, value)
		}
	}

	glog.V(1).Infof("assembling %s in %s", name, root)
	prog, err := assembler.AssembleFile(name)
	if err != nil {
		fmt.Fprint(stderr, listing.ErrorBlock(err))
		return errReported
	}

	if opts.debug {
		newPrinter(stderr).Println(debugView(prog))
	}

	if !opts.noListing {
		if err := listing.WriteListing(stdout, prog); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}
	if err := listing.WriteWords(stdout, prog.Words); err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = defaultOutputPath(source, ".bin")
	}
	if err := writeBinary(output, asm.EncodeImage(prog.Words)); err != nil {
		return fmt.Errorf("failed to write image %q: %w", output, err)
	}

	symbols := opts.symbols
	if symbols == "" {
		symbols = defaultOutputPath(source, ".sym")
	}
	if err := writeSymbols(symbols, prog.Symbols, opts.allSymbols); err != nil {
		return fmt.Errorf("failed to write symbols %q: %w", symbols, err)
	}

	fmt.Fprintf(stdout, "assembled %d words -> %s\n", len(prog.Words), output)
	return nil
}

func defaultOutputPath(inPath, ext string) string {
	old := filepath.Ext(inPath)
	if old == "" {
		return inPath + ext
	}
	return strings.TrimSuffix(inPath, old) + ext
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func writeSymbols(path string, st *asm.SymbolTable, all bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := listing.WriteSymbols(f, st, all); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type programView struct {
	Words   int
	Symbols map[string]uint16
	Listing []asm.ListingLine
}

func debugView(prog *asm.Program) programView {
	symbols := make(map[string]uint16)
	for _, name := range prog.Symbols.Defined() {
		symbols[name], _ = prog.Symbols.Lookup(name)
	}
	return programView{Words: len(prog.Words), Symbols: symbols, Listing: prog.Listing}
}

// newPrinter colours its output only when w is a terminal.
func newPrinter(w io.Writer) *pp.PrettyPrinter {
	printer := pp.New()
	printer.SetOutput(w)
	f, ok := w.(*os.File)
	printer.SetColoringEnabled(ok && term.IsTerminal(int(f.Fd())))
	return printer
}

func main() {
	flag.Set("logtostderr", "true")
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
