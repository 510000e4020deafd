package main

import (
	"emberc/internal/diag"
	"emberc/internal/diagfmt"
	"emberc/internal/graph"
)

// describeScript names the nodes and pins diagnostics point at, across the
// script graph and every graph it calls.
func describeScript(s *graph.Script) diagfmt.Describer {
	graphs := make(map[string]*graph.Graph)
	var visit func(g *graph.Graph)
	visit = func(g *graph.Graph) {
		if g == nil {
			return
		}
		if _, seen := graphs[g.Name]; seen {
			return
		}
		graphs[g.Name] = g
		for _, n := range g.Nodes() {
			switch p := n.Payload.(type) {
			case *graph.FunctionCall:
				if p.Script != nil {
					visit(p.Script.Graph)
				}
			case *graph.Emitter:
				if p.Script != nil {
					visit(p.Script.Graph)
				}
			}
		}
	}
	if s != nil {
		visit(s.Graph)
	}

	return func(a diag.Anchor) string {
		g := graphs[a.Graph]
		if g == nil || a.Node == 0 {
			return ""
		}
		for _, n := range g.Nodes() {
			if uint32(n.ID) != a.Node {
				continue
			}
			if a.Pin == 0 {
				return n.Name
			}
			for _, p := range n.Pins() {
				if uint32(p.ID) == a.Pin {
					return n.Name + "." + p.Name
				}
			}
			return n.Name
		}
		return ""
	}
}
