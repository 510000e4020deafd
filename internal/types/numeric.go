package types

import "fmt"

// SelectionMode decides how an operation with generic numeric outputs
// picks a concrete output type from its resolved inputs.
type SelectionMode uint8

const (
	SelectNone SelectionMode = iota
	SelectLargest
	SelectSmallest
	SelectScalar
)

func (m SelectionMode) String() string {
	switch m {
	case SelectNone:
		return "none"
	case SelectLargest:
		return "largest"
	case SelectSmallest:
		return "smallest"
	case SelectScalar:
		return "scalar"
	}
	return fmt.Sprintf("SelectionMode(%d)", m)
}

// ParseSelectionMode accepts the String spellings of SelectionMode.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch s {
	case "", "none":
		return SelectNone, nil
	case "largest":
		return SelectLargest, nil
	case "smallest":
		return SelectSmallest, nil
	case "scalar":
		return SelectScalar, nil
	}
	return SelectNone, fmt.Errorf("unknown numeric selection mode %q", s)
}

// rank orders types by width; float beats int beats bool at equal width.
func rank(d Def) int {
	switch d.Kind {
	case KindBool:
		return 1
	case KindInt, KindEnum:
		return 2
	case KindFloat:
		return 3
	}
	return d.ComponentCount() * 4
}

// SelectNumeric resolves the output type for mode given concrete input
// types. Numeric and invalid inputs are ignored; the result is Numeric when
// nothing can be decided.
func SelectNumeric(mode SelectionMode, inputs []Def) Def {
	if mode == SelectNone {
		return Numeric
	}
	best := Numeric
	for _, in := range inputs {
		if !in.IsValid() || in.IsNumeric() || !in.IsBuiltin() {
			continue
		}
		if best.IsNumeric() {
			best = in
			continue
		}
		switch mode {
		case SelectLargest, SelectScalar:
			if rank(in) > rank(best) {
				best = in
			}
		case SelectSmallest:
			if rank(in) < rank(best) {
				best = in
			}
		}
	}
	if mode == SelectScalar && !best.IsNumeric() {
		switch best.Kind {
		case KindInt, KindEnum:
			return Int
		case KindBool:
			return Bool
		default:
			return Float
		}
	}
	return best
}
