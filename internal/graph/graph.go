package graph

import (
	"fmt"
	"slices"
	"sort"

	"fortio.org/safecast"

	"emberc/internal/types"
)

// Graph owns a set of nodes and the links between their pins.
type Graph struct {
	Name  string
	nodes []*Node
	pins  uint32
}

// New creates an empty graph.
func New(name string) *Graph { return &Graph{Name: name} }

// Nodes returns the nodes in insertion order. The slice must not be
// modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool { return len(g.nodes) == 0 }

// AddNode appends a node built from payload and returns it. Pins are added
// with AddInput / AddOutput.
func (g *Graph) AddNode(name string, payload Payload) *Node {
	id, err := safecast.Conv[uint32](len(g.nodes) + 1)
	if err != nil {
		panic(fmt.Errorf("graph node overflow: %w", err))
	}
	n := &Node{ID: NodeID(id), Name: name, Payload: payload}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *Graph) newPin(n *Node, name string, dir PinDir, t types.Def) *Pin {
	g.pins++
	return &Pin{ID: PinID(g.pins), Node: n, Name: name, Dir: dir, Type: t}
}

// AddInput adds an input pin to n.
func (g *Graph) AddInput(n *Node, name string, t types.Def, def string) *Pin {
	p := g.newPin(n, name, PinInput, t)
	p.Default = def
	n.Inputs = append(n.Inputs, p)
	return p
}

// AddOutput adds an output pin to n.
func (g *Graph) AddOutput(n *Node, name string, t types.Def) *Pin {
	p := g.newPin(n, name, PinOutput, t)
	n.Outputs = append(n.Outputs, p)
	return p
}

// Link connects an output pin to an input pin, replacing any previous link
// of the input.
func (g *Graph) Link(from, to *Pin) error {
	if from == nil || to == nil {
		return fmt.Errorf("link: nil pin")
	}
	if from.Dir != PinOutput || to.Dir != PinInput {
		return fmt.Errorf("link %s.%s -> %s.%s: direction mismatch", from.Node.Name, from.Name, to.Node.Name, to.Name)
	}
	for _, prev := range to.Links {
		prev.Links = slices.DeleteFunc(prev.Links, func(p *Pin) bool { return p == to })
	}
	to.Links = []*Pin{from}
	from.Links = append(from.Links, to)
	return nil
}

// Clone deep-copies the graph. Node and pin ids are preserved; callee
// scripts referenced by function call and emitter nodes are shared.
func (g *Graph) Clone() *Graph {
	c := &Graph{Name: g.Name, pins: g.pins, nodes: make([]*Node, 0, len(g.nodes))}
	pinMap := make(map[*Pin]*Pin)
	copyPins := func(n *Node, pins []*Pin) []*Pin {
		out := make([]*Pin, len(pins))
		for i, p := range pins {
			cp := *p
			cp.Node = n
			cp.Links = nil
			out[i] = &cp
			pinMap[p] = &cp
		}
		return out
	}
	for _, n := range g.nodes {
		cn := &Node{ID: n.ID, Name: n.Name, Disabled: n.Disabled}
		if n.Payload != nil {
			cn.Payload = n.Payload.clone()
		}
		cn.Inputs = copyPins(cn, n.Inputs)
		cn.Outputs = copyPins(cn, n.Outputs)
		c.nodes = append(c.nodes, cn)
	}
	for _, n := range g.nodes {
		for _, old := range n.Pins() {
			cp := pinMap[old]
			for _, l := range old.Links {
				if target, ok := pinMap[l]; ok {
					cp.Links = append(cp.Links, target)
				}
			}
		}
	}
	return c
}

// OutputNodes lists every output node.
func (g *Graph) OutputNodes() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if _, ok := n.Payload.(*Output); ok {
			out = append(out, n)
		}
	}
	return out
}

// FindOutputNode returns the output node for usage and usage id, or nil.
func (g *Graph) FindOutputNode(usage Usage, usageID int) *Node {
	for _, n := range g.nodes {
		if o, ok := n.Payload.(*Output); ok && o.Usage == usage && o.UsageID == usageID {
			return n
		}
	}
	return nil
}

// OutputNodeVariables returns the variables of the output node for usage.
func (g *Graph) OutputNodeVariables(usage Usage) []Variable {
	n := g.FindOutputNode(usage, 0)
	if n == nil {
		return nil
	}
	return append([]Variable(nil), n.Payload.(*Output).Vars...)
}

// FindInputOptions filters FindInputNodes.
type FindInputOptions struct {
	Sort                       bool
	FilterDuplicates           bool
	IncludeParameters          bool
	IncludeAttributes          bool
	IncludeSystemConstants     bool
	IncludeTranslatorConstants bool
	// FilterByUsage restricts the search to nodes reachable from the
	// output node of TargetUsage.
	FilterByUsage bool
	TargetUsage   Usage
}

// DefaultFindInputOptions includes parameters, attributes and system
// constants and removes duplicates.
func DefaultFindInputOptions() FindInputOptions {
	return FindInputOptions{
		FilterDuplicates:       true,
		IncludeParameters:      true,
		IncludeAttributes:      true,
		IncludeSystemConstants: true,
	}
}

// FindInputNodes collects input nodes according to opts.
func (g *Graph) FindInputNodes(opts FindInputOptions) []*Node {
	candidates := g.nodes
	if opts.FilterByUsage {
		out := g.FindOutputNode(opts.TargetUsage, 0)
		if out == nil {
			return nil
		}
		candidates = g.Traversal(out)
	}
	var found []*Node
	for _, n := range candidates {
		in, ok := n.Payload.(*Input)
		if !ok || !opts.includes(in.Usage) {
			continue
		}
		if opts.FilterDuplicates && slices.ContainsFunc(found, func(o *Node) bool {
			return o.Payload.(*Input).Var.Same(in.Var)
		}) {
			continue
		}
		found = append(found, n)
	}
	if opts.Sort {
		SortInputNodes(found)
	}
	return found
}

func (o FindInputOptions) includes(u InputUsage) bool {
	switch u {
	case InputParameter:
		return o.IncludeParameters
	case InputAttribute:
		return o.IncludeAttributes
	case InputSystemConstant:
		return o.IncludeSystemConstants
	case InputTranslatorConstant:
		return o.IncludeTranslatorConstants
	}
	return false
}

// SortInputNodes orders input nodes by sort priority, then name.
func SortInputNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Payload.(*Input), nodes[j].Payload.(*Input)
		if a.SortPriority != b.SortPriority {
			return a.SortPriority < b.SortPriority
		}
		return a.Var.Name < b.Var.Name
	})
}

// Parameters returns the exposed inputs and the output variables of the
// graph.
func (g *Graph) Parameters() (inputs, outputs []Variable) {
	for _, n := range g.nodes {
		switch p := n.Payload.(type) {
		case *Input:
			if p.Usage == InputParameter {
				inputs = append(inputs, p.Var)
			}
		case *Output:
			outputs = append(outputs, p.Vars...)
		}
	}
	return inputs, outputs
}

// HasNumericParameters reports whether any parameter or output is still
// typed as the generic numeric placeholder.
func (g *Graph) HasNumericParameters() bool {
	return g.anyParameter(func(d types.Def) bool { return d.IsNumeric() })
}

// HasParameterMapParameters reports whether a parameter map flows in or
// out of the graph.
func (g *Graph) HasParameterMapParameters() bool {
	return g.anyParameter(func(d types.Def) bool { return d.IsParameterMap() })
}

func (g *Graph) anyParameter(pred func(types.Def) bool) bool {
	in, out := g.Parameters()
	for _, v := range in {
		if pred(v.Type) {
			return true
		}
	}
	for _, v := range out {
		if pred(v.Type) {
			return true
		}
	}
	return false
}

// Traversal returns every node reachable backwards from root through input
// links, dependencies first, each node once. It walks an explicit stack so
// deep graphs do not grow the goroutine stack.
func (g *Graph) Traversal(root *Node) []*Node {
	if root == nil {
		return nil
	}
	type frame struct {
		n    *Node
		next int
	}
	var out []*Node
	visited := map[*Node]struct{}{root: {}}
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.n.Inputs) {
			out = append(out, top.n)
			stack = stack[:len(stack)-1]
			continue
		}
		in := top.n.Inputs[top.next]
		top.next++
		for _, l := range in.Links {
			if _, seen := visited[l.Node]; seen {
				continue
			}
			visited[l.Node] = struct{}{}
			stack = append(stack, frame{n: l.Node})
			break
		}
	}
	return out
}

// FindWriteDataSetNodes lists data set write nodes.
func (g *Graph) FindWriteDataSetNodes() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if _, ok := n.Payload.(*WriteDataSet); ok {
			out = append(out, n)
		}
	}
	return out
}
