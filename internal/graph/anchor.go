package graph

import "emberc/internal/diag"

// Anchor locates n (and optionally p) of g for diagnostics. Any argument
// may be nil.
func Anchor(g *Graph, n *Node, p *Pin) diag.Anchor {
	var a diag.Anchor
	if g != nil {
		a.Graph = g.Name
	}
	if n != nil {
		a.Node = uint32(n.ID)
	}
	if p != nil {
		a.Pin = uint32(p.ID)
	}
	return a
}
