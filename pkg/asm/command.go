package asm

// Command is what pass 1 produces for every line that emits words. The
// word count is fixed when the command is built; the words themselves are
// computed in pass 2, once the symbol table is complete.
type Command interface {
	WordLength() int
	MachineCode(st *SymbolTable) ([]uint16, error)
	Source() SourceInfo
}

// dataCommand emits words that were fully known in pass 1.
type dataCommand struct {
	src   SourceInfo
	words []uint16
}

func (d *dataCommand) WordLength() int { return len(d.words) }

func (d *dataCommand) MachineCode(*SymbolTable) ([]uint16, error) {
	out := make([]uint16, len(d.words))
	copy(out, d.words)
	return out, nil
}

func (d *dataCommand) Source() SourceInfo { return d.src }

// tokenCommand emits one word per token, resolved in pass 2.
type tokenCommand struct {
	src    SourceInfo
	tokens []Token
}

func (t *tokenCommand) WordLength() int { return len(t.tokens) }

func (t *tokenCommand) MachineCode(st *SymbolTable) ([]uint16, error) {
	out := make([]uint16, len(t.tokens))
	for i, tok := range t.tokens {
		v, err := tok.Resolve(st)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (t *tokenCommand) Source() SourceInfo { return t.src }

// fillCommand emits count copies of a value resolved in pass 2.
type fillCommand struct {
	src   SourceInfo
	count int
	value Token
}

func (f *fillCommand) WordLength() int { return f.count }

func (f *fillCommand) MachineCode(st *SymbolTable) ([]uint16, error) {
	v, err := f.value.Resolve(st)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, f.count)
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (f *fillCommand) Source() SourceInfo { return f.src }
