package graph

import (
	"strings"
)

// Signature describes a callable: a compiled function graph, a custom HLSL
// snippet or a data interface member function.
type Signature struct {
	Name    string
	Inputs  []Variable
	Outputs []Variable
	// Owner is the data interface instance a member function is called on.
	Owner string
	// Member marks data interface member functions.
	Member bool
	// RequiresContext appends the simulation context parameter.
	RequiresContext bool
}

// Valid reports whether the signature names anything.
func (s Signature) Valid() bool { return s.Name != "" }

// Clone returns a deep copy.
func (s Signature) Clone() Signature {
	s.Inputs = append([]Variable(nil), s.Inputs...)
	s.Outputs = append([]Variable(nil), s.Outputs...)
	return s
}

// Equal is structural equality; values of parameters are ignored.
func (s Signature) Equal(o Signature) bool {
	if s.Name != o.Name || s.Owner != o.Owner || s.Member != o.Member || s.RequiresContext != o.RequiresContext {
		return false
	}
	return sameVars(s.Inputs, o.Inputs) && sameVars(s.Outputs, o.Outputs)
}

// Key is a string that is equal for two signatures exactly when Equal
// holds, usable as a map key.
func (s Signature) Key() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteByte('|')
	sb.WriteString(s.Owner)
	if s.Member {
		sb.WriteString("|m")
	}
	if s.RequiresContext {
		sb.WriteString("|c")
	}
	writeVars(&sb, "|in:", s.Inputs)
	writeVars(&sb, "|out:", s.Outputs)
	return sb.String()
}

func writeVars(sb *strings.Builder, tag string, vars []Variable) {
	sb.WriteString(tag)
	for i, v := range vars {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(v.Type.Kind.String())
		sb.WriteByte(':')
		sb.WriteString(v.Type.Name)
		sb.WriteByte(' ')
		sb.WriteString(v.Name)
	}
}

func sameVars(a, b []Variable) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Same(b[i]) {
			return false
		}
	}
	return true
}
