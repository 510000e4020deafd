package chunk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Undefined is substituted for a source reference that does not resolve.
const Undefined = "Undefined"

// ErrUndefinedSource reports a template reference to a missing chunk.
var ErrUndefinedSource = errors.New("undefined source chunk")

// Printer renders chunks of a store into HLSL text.
type Printer struct {
	Store *Store
}

// Source renders a chunk used as an operand: its symbol name.
func (p Printer) Source(id ID) (string, bool) {
	c, ok := p.Store.At(id)
	if !ok {
		return Undefined, false
	}
	return c.Symbol, true
}

// Code renders one chunk as a statement. Chunks of every body mode are
// indented by one tab. The text is produced even when err is non-nil, with
// Undefined in place of the unresolved operands.
func (p Printer) Code(id ID) (string, error) {
	c, ok := p.Store.At(id)
	if !ok {
		return "", fmt.Errorf("chunk %d: %w", id, ErrUndefinedSource)
	}
	args := make([]string, len(c.Sources))
	var err error
	for i, src := range c.Sources {
		var found bool
		if args[i], found = p.Source(src); !found && err == nil {
			err = fmt.Errorf("chunk %d (%s) operand %d -> %d: %w", id, c.Symbol, i, src, ErrUndefinedSource)
		}
	}
	def, ferr := Format(c.Definition, args)
	if ferr != nil && err == nil {
		err = fmt.Errorf("chunk %d (%s): %w", id, c.Symbol, ferr)
	}

	var sb strings.Builder
	if c.Mode.IsBody() {
		sb.WriteByte('\t')
	}
	switch {
	case c.Symbol == "":
		sb.WriteString(def)
		if c.Terminated {
			sb.WriteString(";\n")
		} else {
			sb.WriteString("\n")
		}
	case def == "":
		sb.WriteString(c.Type.HLSLName())
		sb.WriteByte(' ')
		sb.WriteString(c.Symbol)
		sb.WriteString(";\n")
	case c.Decl:
		sb.WriteString(c.Type.HLSLName())
		sb.WriteByte(' ')
		sb.WriteString(c.Symbol)
		sb.WriteString(" = ")
		sb.WriteString(def)
		sb.WriteString(";\n")
	default:
		sb.WriteString(c.Symbol)
		sb.WriteString(" = ")
		sb.WriteString(def)
		sb.WriteString(";\n")
	}
	return sb.String(), err
}

// Mode renders every chunk of mode in order and returns the first error.
func (p Printer) Mode(m Mode) (string, error) {
	var sb strings.Builder
	var first error
	for _, id := range p.Store.ByMode(m) {
		s, err := p.Code(id)
		if err != nil && first == nil {
			first = err
		}
		sb.WriteString(s)
	}
	return sb.String(), first
}

// Format replaces each {N} in template with args[N]. A reference past the
// end of args becomes Undefined and is reported.
func Format(template string, args []string) (string, error) {
	if !strings.Contains(template, "{") {
		return template, nil
	}
	var sb strings.Builder
	var err error
	for i := 0; i < len(template); {
		ch := template[i]
		if ch != '{' {
			sb.WriteByte(ch)
			i++
			continue
		}
		end := i + 1
		for end < len(template) && template[end] >= '0' && template[end] <= '9' {
			end++
		}
		if end == i+1 || end >= len(template) || template[end] != '}' {
			sb.WriteByte(ch)
			i++
			continue
		}
		n, convErr := strconv.Atoi(template[i+1 : end])
		if convErr == nil && n < len(args) {
			sb.WriteString(args[n])
		} else {
			sb.WriteString(Undefined)
			if err == nil {
				err = fmt.Errorf("placeholder {%d} with %d operands: %w", n, len(args), ErrUndefinedSource)
			}
		}
		i = end + 1
	}
	return sb.String(), err
}
