package history

import (
	"emberc/internal/graph"
)

// maxCallDepth bounds recursion into called graphs; a script calling
// itself would otherwise never terminate.
const maxCallDepth = 64

// Build traces every output node of g, the preprocessed graph of s, and
// returns one history per output node in graph order.
func Build(s *graph.Script, g *graph.Graph) []*History {
	outs := g.OutputNodes()
	hs := make([]*History, 0, len(outs))
	for _, out := range outs {
		hs = append(hs, Trace(s, g, out))
	}
	return hs
}

// Trace builds the history of a single output node.
func Trace(s *graph.Script, g *graph.Graph, out *graph.Node) *History {
	t := &tracer{
		script:  s,
		aliases: NewAliases(s.Usage),
		h:       &History{OutputNode: out},
	}
	t.walk(g, out, 0)
	return t.h
}

type tracer struct {
	script  *graph.Script
	aliases *Aliases
	h       *History
}

// walk visits the nodes upstream of root, dependencies first, so map
// writes are recorded in execution order.
func (t *tracer) walk(g *graph.Graph, root *graph.Node, depth int) {
	for _, n := range g.Traversal(root) {
		if !n.Enabled() {
			continue
		}
		switch p := n.Payload.(type) {
		case *graph.Input:
			if depth == 0 && p.Var.Type.IsParameterMap() {
				t.h.Origins = append(t.h.Origins, n)
			}
		case *graph.ParamMapGet:
			for _, out := range n.Outputs {
				i := t.record(graph.Var(out.Type, out.Name))
				t.h.Reads[i] = append(t.h.Reads[i], out)
				if t.h.DefaultPins[i] == nil {
					t.h.DefaultPins[i] = n.DefaultPin(out)
				}
			}
		case *graph.ParamMapSet:
			for _, in := range n.Inputs[1:] {
				i := t.record(graph.Var(in.Type, in.Name))
				t.h.Writes[i] = append(t.h.Writes[i], in)
			}
		case *graph.FunctionCall:
			if p.Script == nil || p.Script.Graph == nil || !p.Script.Graph.HasParameterMapParameters() {
				continue
			}
			alias := p.Function
			if alias == "" {
				alias = n.Name
			}
			t.call(p.Script, alias, depth)
		case *graph.Emitter:
			if p.Script == nil || p.Script.Graph == nil {
				continue
			}
			t.aliases.EnterEmitter(p.EmitterName)
			t.h.Emitters = append(t.h.Emitters, p.EmitterName)
			t.call(p.Script, p.EmitterName, depth)
			t.aliases.ExitEmitter()
		}
	}
}

func (t *tracer) call(callee *graph.Script, alias string, depth int) {
	if depth >= maxCallDepth {
		return
	}
	out := callee.Graph.FindOutputNode(callee.Usage.OutputUsage(), 0)
	if out == nil {
		return
	}
	t.aliases.EnterFunction(alias)
	t.walk(callee.Graph, out, depth+1)
	t.aliases.ExitFunction()
}

func (t *tracer) record(v graph.Variable) int {
	resolved := t.aliases.ResolveAliases(v)
	i := t.h.touch(resolved, v)
	if graph.InNamespace(resolved.Name, graph.NamespaceCollection) {
		if c := t.script.Collection(resolved.Name); c != nil {
			t.h.addCollection(c)
		}
	}
	return i
}
