package graph

import (
	"sort"

	"emberc/internal/types"
)

// OpIO is one operand or result of a built-in operation. Snippet is the
// HLSL template of a result; {N} refers to the N-th operand.
type OpIO struct {
	Name    string
	Type    types.Def
	Default string
	Snippet string
}

// OpInfo describes a built-in operation.
type OpInfo struct {
	Name      string
	Category  string
	Inputs    []OpIO
	Outputs   []OpIO
	Selection types.SelectionMode
}

func num(name, def string) OpIO { return OpIO{Name: name, Type: types.Numeric, Default: def} }

func binary(name, category, snippet string) OpInfo {
	return OpInfo{
		Name:      name,
		Category:  category,
		Inputs:    []OpIO{num("A", "1"), num("B", "1")},
		Outputs:   []OpIO{{Name: "Result", Type: types.Numeric, Snippet: snippet}},
		Selection: types.SelectLargest,
	}
}

func unary(name, category, snippet string) OpInfo {
	return OpInfo{
		Name:      name,
		Category:  category,
		Inputs:    []OpIO{num("A", "0")},
		Outputs:   []OpIO{{Name: "Result", Type: types.Numeric, Snippet: snippet}},
		Selection: types.SelectLargest,
	}
}

func compare(name, snippet string) OpInfo {
	return OpInfo{
		Name:     name,
		Category: "Compare",
		Inputs:   []OpIO{num("A", "0"), num("B", "0")},
		Outputs:  []OpIO{{Name: "Result", Type: types.Bool, Snippet: snippet}},
	}
}

func boolean(name, snippet string, arity int) OpInfo {
	in := []OpIO{{Name: "A", Type: types.Bool, Default: "false"}, {Name: "B", Type: types.Bool, Default: "false"}}
	return OpInfo{
		Name:     name,
		Category: "Boolean",
		Inputs:   in[:arity],
		Outputs:  []OpIO{{Name: "Result", Type: types.Bool, Snippet: snippet}},
	}
}

var opTable = map[string]OpInfo{}

func init() {
	for _, op := range []OpInfo{
		binary("Add", "Numeric", "{0} + {1}"),
		binary("Subtract", "Numeric", "{0} - {1}"),
		binary("Multiply", "Numeric", "{0} * {1}"),
		binary("Divide", "Numeric", "{0} / {1}"),
		binary("Min", "Numeric", "min({0},{1})"),
		binary("Max", "Numeric", "max({0},{1})"),
		binary("Pow", "Numeric", "pow({0},{1})"),
		binary("Fmod", "Numeric", "fmod({0},{1})"),
		unary("Abs", "Numeric", "abs({0})"),
		unary("Negate", "Numeric", "-({0})"),
		unary("Saturate", "Numeric", "saturate({0})"),
		unary("Sqrt", "Numeric", "sqrt({0})"),
		unary("Sin", "Trigonometry", "sin({0})"),
		unary("Cos", "Trigonometry", "cos({0})"),
		unary("Frac", "Numeric", "frac({0})"),
		unary("Normalize", "Vector", "normalize({0})"),
		{
			Name:      "Lerp",
			Category:  "Numeric",
			Inputs:    []OpIO{num("A", "0"), num("B", "1"), num("Alpha", "0.5")},
			Outputs:   []OpIO{{Name: "Result", Type: types.Numeric, Snippet: "lerp({0},{1},{2})"}},
			Selection: types.SelectLargest,
		},
		{
			Name:      "Clamp",
			Category:  "Numeric",
			Inputs:    []OpIO{num("X", "0"), num("Min", "0"), num("Max", "1")},
			Outputs:   []OpIO{{Name: "Result", Type: types.Numeric, Snippet: "clamp({0},{1},{2})"}},
			Selection: types.SelectLargest,
		},
		{
			Name:      "Dot",
			Category:  "Vector",
			Inputs:    []OpIO{num("A", "1"), num("B", "1")},
			Outputs:   []OpIO{{Name: "Result", Type: types.Numeric, Snippet: "dot({0},{1})"}},
			Selection: types.SelectScalar,
		},
		{
			Name:      "Length",
			Category:  "Vector",
			Inputs:    []OpIO{num("A", "1")},
			Outputs:   []OpIO{{Name: "Result", Type: types.Numeric, Snippet: "length({0})"}},
			Selection: types.SelectScalar,
		},
		{
			Name:     "Cross",
			Category: "Vector",
			Inputs:   []OpIO{{Name: "A", Type: types.Vec3, Default: "1,0,0"}, {Name: "B", Type: types.Vec3, Default: "0,1,0"}},
			Outputs:  []OpIO{{Name: "Result", Type: types.Vec3, Snippet: "cross({0},{1})"}},
		},
		compare("CmpLT", "{0} < {1}"),
		compare("CmpLE", "{0} <= {1}"),
		compare("CmpGT", "{0} > {1}"),
		compare("CmpGE", "{0} >= {1}"),
		compare("CmpEQ", "{0} == {1}"),
		compare("CmpNEQ", "{0} != {1}"),
		boolean("LogicAnd", "{0} && {1}", 2),
		boolean("LogicOr", "{0} || {1}", 2),
		boolean("LogicNot", "!({0})", 1),
	} {
		opTable[op.Name] = op
	}
}

// LookupOp finds a built-in operation by name.
func LookupOp(name string) (OpInfo, bool) {
	op, ok := opTable[name]
	return op, ok
}

// OpNames lists the known operations in sorted order.
func OpNames() []string {
	names := make([]string, 0, len(opTable))
	for name := range opTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
