// Package chunk stores the statements generated during one translation.
//
// A chunk is a single named value or statement. Chunks reference earlier
// chunks by ID only; rendering substitutes the referenced chunks' symbol
// names, never their definitions, so every intermediate value is
// materialised once. Rendering lives in printer.go.
package chunk

import (
	"fmt"

	"fortio.org/safecast"

	"emberc/internal/naming"
	"emberc/internal/types"
)

// ID indexes a chunk in its Store. None marks a value that failed to
// compile.
type ID int32

const None ID = -1

// Mode is the emission phase a chunk belongs to.
type Mode uint8

const (
	ModeUniform Mode = iota
	ModeSource
	ModeBody
	ModeSpawnBody
	ModeUpdateBody
	numModes
)

func (m Mode) String() string {
	switch m {
	case ModeUniform:
		return "uniform"
	case ModeSource:
		return "source"
	case ModeBody:
		return "body"
	case ModeSpawnBody:
		return "spawn-body"
	case ModeUpdateBody:
		return "update-body"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// IsBody reports the phases AddBody may emit into.
func (m Mode) IsBody() bool { return m == ModeBody || m == ModeSpawnBody || m == ModeUpdateBody }

// Chunk is one generated fragment. Definition is a template where {N}
// stands for the symbol of Sources[N].
type Chunk struct {
	Mode       Mode
	Symbol     string
	Definition string
	Type       types.Def
	Sources    []ID
	Decl       bool
	Terminated bool
}

// Store is an append-only chunk sequence indexed per mode. The active body
// mode starts as ModeBody.
type Store struct {
	chunks []Chunk
	byMode [numModes][]ID
	body   Mode
}

func NewStore() *Store { return &Store{body: ModeBody} }

func (s *Store) nextID() ID {
	id, err := safecast.Conv[int32](len(s.chunks))
	if err != nil {
		panic(fmt.Errorf("chunk id overflow: %w", err))
	}
	return ID(id)
}

func (s *Store) push(c Chunk) ID {
	id := s.nextID()
	s.chunks = append(s.chunks, c)
	s.byMode[c.Mode] = append(s.byMode[c.Mode], id)
	return id
}

func (s *Store) find(mode Mode, symbol string, t types.Def) ID {
	for _, id := range s.byMode[mode] {
		c := &s.chunks[id]
		if c.Symbol == symbol && c.Type == t {
			return id
		}
	}
	return None
}

// AddUniform declares a uniform once per (symbol, type).
func (s *Store) AddUniform(symbol string, t types.Def) ID {
	return s.addNamed(ModeUniform, symbol, t)
}

// AddSource references an existing value by symbol, once per (symbol, type).
func (s *Store) AddSource(symbol string, t types.Def) ID {
	return s.addNamed(ModeSource, symbol, t)
}

func (s *Store) addNamed(mode Mode, symbol string, t types.Def) ID {
	symbol = naming.Sanitize(symbol, false)
	if id := s.find(mode, symbol, t); id != None {
		return id
	}
	return s.push(Chunk{Mode: mode, Symbol: symbol, Type: t})
}

// AddBody appends a statement to the active body mode.
func (s *Store) AddBody(symbol, definition string, t types.Def, sources []ID, decl, terminated bool) ID {
	return s.push(Chunk{
		Mode:       s.body,
		Symbol:     naming.Sanitize(symbol, false),
		Definition: definition,
		Type:       t,
		Sources:    append([]ID(nil), sources...),
		Decl:       decl,
		Terminated: terminated,
	})
}

// Declare appends a terminated declaration of symbol.
func (s *Store) Declare(symbol, definition string, t types.Def, sources ...ID) ID {
	return s.AddBody(symbol, definition, t, sources, true, true)
}

// Statement appends an unnamed terminated statement.
func (s *Store) Statement(definition string, sources ...ID) ID {
	return s.AddBody("", definition, types.Float, sources, false, true)
}

// Raw appends an unnamed statement without terminator, used for braces.
func (s *Store) Raw(definition string, sources ...ID) ID {
	return s.AddBody("", definition, types.Float, sources, false, false)
}

// Len is the number of chunks.
func (s *Store) Len() int { return len(s.chunks) }

// At returns the chunk for id.
func (s *Store) At(id ID) (Chunk, bool) {
	if id < 0 || int(id) >= len(s.chunks) {
		return Chunk{}, false
	}
	return s.chunks[id], true
}

// Symbol returns the symbol of id, or "" when id is out of range.
func (s *Store) Symbol(id ID) string {
	c, ok := s.At(id)
	if !ok {
		return ""
	}
	return c.Symbol
}

// ByMode lists chunk ids of mode in emission order.
func (s *Store) ByMode(m Mode) []ID { return s.byMode[m] }

// Body is the active body mode.
func (s *Store) Body() Mode { return s.body }

// EnterBody switches the active body mode and returns the function that
// restores the previous one. Callers defer the restore so every exit path
// balances the switch.
func (s *Store) EnterBody(m Mode) (restore func()) {
	if !m.IsBody() {
		panic(fmt.Errorf("chunk: %s is not a body mode", m))
	}
	prev := s.body
	s.body = m
	return func() { s.body = prev }
}

// Mark is a position in the store.
type Mark struct {
	total  int
	byMode [numModes]int
}

// Mark records the current end of the store.
func (s *Store) Mark() Mark {
	m := Mark{total: len(s.chunks)}
	for i := range s.byMode {
		m.byMode[i] = len(s.byMode[i])
	}
	return m
}

// Since lists the chunks of mode appended after m.
func (s *Store) Since(m Mark, mode Mode) []ID {
	return append([]ID(nil), s.byMode[mode][m.byMode[mode]:]...)
}

// Excise removes the chunks of mode appended after m from that mode's
// index and returns them in order. The chunks stay in the sequence, so ids
// held elsewhere remain valid; uniforms and sources emitted meanwhile are
// untouched.
func (s *Store) Excise(m Mark, mode Mode) []ID {
	cut := s.Since(m, mode)
	s.byMode[mode] = s.byMode[mode][:m.byMode[mode]]
	return cut
}
