// Package history records what a parameter map carries on its way to an
// output node.
//
// A History is built once per output node by tracing the graph backwards
// from the output through every node that reads or writes the map,
// including the graphs of called modules and referenced emitters. The
// translator consumes histories read-only.
package history

import (
	"emberc/internal/graph"
)

// History is the parameter map record of one output node.
type History struct {
	// Variables holds every variable read or written, aliases resolved, in
	// first-touch order.
	Variables []graph.Variable
	// Original is parallel to Variables with the names as written in the
	// graph (Module.X rather than Alias.X).
	Original []graph.Variable
	// Writes and Reads list, per variable, the pins that touched it.
	Writes [][]*graph.Pin
	Reads  [][]*graph.Pin
	// DefaultPins is parallel to Variables: the first default value pin
	// seen for a read, or nil.
	DefaultPins []*graph.Pin
	// Origins are the map input nodes the traced map starts from.
	Origins []*graph.Node
	// OutputNode is the node the history was traced from.
	OutputNode  *graph.Node
	Collections []*graph.Collection
	// Emitters lists the emitter aliases entered while tracing.
	Emitters []string
}

// OutputUsage is the usage of the traced output node.
func (h *History) OutputUsage() graph.Usage {
	if h.OutputNode == nil {
		return graph.UsageFunction
	}
	return h.OutputNode.Payload.(*graph.Output).Usage
}

// FindVariable returns the index of the variable with v's name and type,
// or -1.
func (h *History) FindVariable(v graph.Variable) int {
	for i, hv := range h.Variables {
		if hv.Same(v) {
			return i
		}
	}
	return -1
}

// FindVariableByName returns the index of the first variable named name,
// or -1.
func (h *History) FindVariableByName(name string) int {
	for i, hv := range h.Variables {
		if hv.Name == name {
			return i
		}
	}
	return -1
}

// DefaultPin returns the default value pin recorded for variable i.
func (h *History) DefaultPin(i int) *graph.Pin {
	if i < 0 || i >= len(h.DefaultPins) {
		return nil
	}
	return h.DefaultPins[i]
}

// HasOrigin reports whether the map starts at an input node producing v.
func (h *History) HasOrigin(v graph.Variable) bool {
	for _, n := range h.Origins {
		if in, ok := n.Payload.(*graph.Input); ok && in.Var.Same(v) {
			return true
		}
	}
	return false
}

// IsPrimaryDataSetOutput reports whether v is stored in the primary data
// set of a script with usage: particle attributes for particle scripts,
// system and emitter values for system scripts. Data interfaces never are.
func (h *History) IsPrimaryDataSetOutput(v graph.Variable, usage graph.Usage) bool {
	if v.Type.IsDataInterface() {
		return false
	}
	switch {
	case usage.IsParticle():
		return graph.InNamespace(v.Name, graph.NamespaceParticles)
	case usage.IsSystem() || usage.IsEmitter():
		if graph.InNamespace(v.Name, graph.NamespaceSystem) || graph.InNamespace(v.Name, graph.NamespaceEmitter) {
			return true
		}
		for _, e := range h.Emitters {
			if graph.InNamespace(v.Name, e+".") {
				return true
			}
		}
	}
	return false
}

// IsCollectionParameter reports whether v belongs to a parameter
// collection referenced by the history.
func (h *History) IsCollectionParameter(v graph.Variable) bool {
	for _, c := range h.Collections {
		if c.Find(v) {
			return true
		}
	}
	return false
}

func (h *History) touch(v, original graph.Variable) int {
	if i := h.FindVariable(v); i >= 0 {
		return i
	}
	h.Variables = append(h.Variables, v)
	h.Original = append(h.Original, original)
	h.Writes = append(h.Writes, nil)
	h.Reads = append(h.Reads, nil)
	h.DefaultPins = append(h.DefaultPins, nil)
	return len(h.Variables) - 1
}

func (h *History) addCollection(c *graph.Collection) {
	for _, have := range h.Collections {
		if have == c {
			return
		}
	}
	h.Collections = append(h.Collections, c)
}
