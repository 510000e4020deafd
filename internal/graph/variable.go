package graph

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"emberc/internal/types"
)

// Value is the literal payload of a constant variable, one float64 per
// component. Booleans are stored as 1 or 0; anything else is not an
// explicit boolean.
type Value []float64

// Variable is a named, typed datum flowing along pins or stored in the
// parameter map. Two variables are the same parameter when Name and Type
// match; Value does not take part in identity.
type Variable struct {
	Name  string
	Type  types.Def
	Value Value
}

// Var is a shorthand constructor.
func Var(t types.Def, name string) Variable { return Variable{Name: name, Type: t} }

// Same reports name and type equivalence.
func (v Variable) Same(o Variable) bool { return v.Name == o.Name && v.Type == o.Type }

// HasValue reports whether a literal value is attached.
func (v Variable) HasValue() bool { return v.Value != nil }

// WithValue returns a copy carrying val.
func (v Variable) WithValue(val Value) Variable {
	v.Value = append(Value(nil), val...)
	return v
}

// WithName returns a copy renamed to name.
func (v Variable) WithName(name string) Variable {
	v.Name = name
	return v
}

func (v Variable) String() string {
	return fmt.Sprintf("%s %s", v.Type.DisplayName(), v.Name)
}

// ExplicitBool reports the boolean value and whether it was stored as an
// explicit true or false.
func (v Value) ExplicitBool() (value, ok bool) {
	if len(v) == 0 {
		return false, false
	}
	switch v[0] {
	case 1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}

// ParseValue decodes a textual default ("1.5", "1,2,3", "true") into a
// value for t. An empty string yields a nil value. A single number is
// splatted across the components of float vector types.
func ParseValue(t types.Def, s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t.Kind == types.KindBool {
		switch strings.ToLower(s) {
		case "true":
			return Value{1}, nil
		case "false":
			return Value{0}, nil
		}
	}
	parts := strings.Split(s, ",")
	want := t.ComponentCount()
	if want == 0 {
		return nil, fmt.Errorf("type %s has no literal form", t.DisplayName())
	}
	if len(parts) == 1 && want > 1 && t.IsFloatPrimitive() {
		parts = slices.Repeat(parts, want)
	}
	if len(parts) != want {
		return nil, fmt.Errorf("%s literal %q needs %d components, got %d", t.DisplayName(), s, want, len(parts))
	}
	out := make(Value, 0, want)
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad %s literal %q: %w", t.DisplayName(), s, err)
		}
		out = append(out, f)
	}
	return out, nil
}
