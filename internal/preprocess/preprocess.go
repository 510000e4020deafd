// Package preprocess resolves the generic numeric type on a cloned graph
// before code generation.
//
// Every pass works on pins reachable from a root node, visiting each node
// once per pass. Inputs are fixed first (from their upstream output pin),
// then outputs are typed from the inputs by the node's selection mode.
package preprocess

import (
	"fmt"

	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/types"
)

// FixUp resolves numeric pins of every node upstream of root.
func FixUp(g *graph.Graph, root *graph.Node, rep diag.Reporter) {
	for _, n := range g.Traversal(root) {
		fixNode(g, n, rep)
	}
}

func fixNode(g *graph.Graph, n *graph.Node, rep diag.Reporter) {
	mode := n.NumericSelection()
	inputTypes := make([]types.Def, len(n.Inputs))
	var pending []int
	for i, in := range n.Inputs {
		if in.Type.IsNumeric() && len(in.Links) == 1 {
			if up := in.Links[0].Type; up.IsValid() {
				in.Type = up
			}
		}
		inputTypes[i] = in.Type
		if in.Type.IsNumeric() {
			pending = append(pending, i)
		}
	}

	// Unlinked numeric operands of a typed operation follow its widest
	// resolved operand; their literal defaults splat accordingly.
	if len(pending) > 0 && mode != types.SelectNone {
		if guess := types.SelectNumeric(types.SelectLargest, inputTypes); !guess.IsNumeric() {
			for _, i := range pending {
				if in := n.Inputs[i]; !in.Linked() {
					in.Type = guess
					inputTypes[i] = guess
				}
			}
		}
	}

	for i, in := range n.Inputs {
		if inputTypes[i].IsNumeric() {
			diag.ReportError(rep, diag.TypNumericUnresolved, graph.Anchor(g, n, in), "Unable to deduce type for numeric input pin.").Emit()
		}
	}

	if len(inputTypes) == 0 || mode == types.SelectNone {
		return
	}
	out := types.SelectNumeric(mode, inputTypes)
	if out.IsNumeric() {
		return
	}
	for _, p := range n.Outputs {
		if p.Type.IsNumeric() {
			p.Type = out
		}
	}
}

// InputNumerics forces numeric input nodes to float so a standalone
// function can compile without a call site. The original variables are
// returned for Revert.
func InputNumerics(g *graph.Graph) []graph.Variable {
	var changed []graph.Variable
	for _, n := range g.Nodes() {
		in, ok := n.Payload.(*graph.Input)
		if !ok {
			continue
		}
		for _, p := range n.Outputs {
			if p.Type.IsNumeric() {
				p.Type = types.Float
			}
		}
		if in.Var.Type.IsNumeric() {
			changed = append(changed, in.Var)
			in.Var.Type = types.Float
		}
	}
	return changed
}

// AttributeNumerics copies resolved pin types onto the numeric variables of
// an output node and returns the original variables.
func AttributeNumerics(out *graph.Node) []graph.Variable {
	o, ok := out.Payload.(*graph.Output)
	if !ok {
		return nil
	}
	var changed []graph.Variable
	for i := range o.Vars {
		if i >= len(out.Inputs) {
			break
		}
		pin := out.Inputs[i]
		if o.Vars[i].Type.IsNumeric() && !pin.Type.IsNumeric() {
			changed = append(changed, o.Vars[i])
			o.Vars[i].Type = pin.Type
		}
	}
	return changed
}

// Revert restores the numeric type of variables forced by InputNumerics
// and AttributeNumerics on g, so the compiled graph still exposes the
// polymorphic signature. Every changed variable must exist in the script's
// stored tables.
func Revert(s *graph.Script, g *graph.Graph, changed []graph.Variable, rep diag.Reporter) {
	for _, v := range changed {
		if !s.FindParameter(v) {
			diag.ReportError(rep, diag.TypNumericRevert, graph.Anchor(g, nil, nil),
				fmt.Sprintf("Unable to find parameter '%s' in outputs!", v)).Emit()
			continue
		}
		for _, n := range g.Nodes() {
			switch p := n.Payload.(type) {
			case *graph.Input:
				if p.Var.Name == v.Name {
					p.Var.Type = v.Type
				}
			case *graph.Output:
				for i := range p.Vars {
					if p.Vars[i].Name == v.Name {
						p.Vars[i].Type = v.Type
					}
				}
			}
		}
	}
}

// Script clones the script graph and resolves its numeric pins from every
// output node. Standalone usages first force numeric inputs to float and
// afterwards sync output variables; the forced variables are returned.
func Script(s *graph.Script, rep diag.Reporter) (*graph.Graph, []graph.Variable) {
	g := s.Graph.Clone()
	var changed []graph.Variable
	standalone := s.Usage.IsStandalone()
	if standalone {
		changed = InputNumerics(g)
	}
	for _, out := range g.OutputNodes() {
		FixUp(g, out, rep)
		if standalone {
			changed = append(changed, AttributeNumerics(out)...)
		}
	}
	for _, w := range g.FindWriteDataSetNodes() {
		FixUp(g, w, rep)
	}
	return g, changed
}

// Graph resolves numeric pins from the output node of usage.
func Graph(g *graph.Graph, usage graph.Usage, rep diag.Reporter) {
	out := g.FindOutputNode(usage.OutputUsage(), 0)
	if out == nil {
		diag.ReportError(rep, diag.GrfMissingOutputNode, graph.Anchor(g, nil, nil),
			fmt.Sprintf("Unable to preprocess graph due to missing output node of type '%s'!", usage)).Emit()
		return
	}
	FixUp(g, out, rep)
}

// FunctionGraph specialises a callee graph for one call site: numeric
// inputs and outputs take the type of the call pin with the same name, then
// the body and every data set write are fixed up.
func FunctionGraph(g *graph.Graph, callInputs, callOutputs []*graph.Pin, usage graph.Usage, rep diag.Reporter) {
	opts := graph.DefaultFindInputOptions()
	opts.FilterDuplicates = false
	opts.FilterByUsage = true
	opts.TargetUsage = usage
	for _, n := range g.FindInputNodes(opts) {
		in := n.Payload.(*graph.Input)
		if !in.Var.Type.IsNumeric() {
			continue
		}
		if pin := pinByName(callInputs, in.Var.Name); pin != nil {
			in.Var.Type = pin.Type
			if len(n.Outputs) > 0 {
				n.Outputs[0].Type = pin.Type
			}
		}
	}

	out := g.FindOutputNode(usage, 0)
	if out == nil {
		Graph(g, usage, rep)
		return
	}
	o := out.Payload.(*graph.Output)
	for i := range o.Vars {
		if !o.Vars[i].Type.IsNumeric() {
			continue
		}
		if pin := pinByName(callOutputs, o.Vars[i].Name); pin != nil {
			o.Vars[i].Type = pin.Type
		}
	}

	FixUp(g, out, rep)
	for _, w := range g.FindWriteDataSetNodes() {
		FixUp(g, w, rep)
	}
}

func pinByName(pins []*graph.Pin, name string) *graph.Pin {
	for _, p := range pins {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Unresolved lists pins reachable from root that are still numeric.
func Unresolved(g *graph.Graph, root *graph.Node) []*graph.Pin {
	var out []*graph.Pin
	for _, n := range g.Traversal(root) {
		for _, p := range n.Pins() {
			if p.Type.IsNumeric() {
				out = append(out, p)
			}
		}
	}
	return out
}
