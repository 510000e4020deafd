package graph

import "emberc/internal/types"

// Collection is a named parameter collection shared between systems. Its
// variables are addressed as NPC.<Name>.<Var>.
type Collection struct {
	Name string
	Vars []Variable
}

// Namespace returns the prefix of the collection's variables.
func (c *Collection) Namespace() string { return CollectionNamespace(c.Name) }

// Find reports whether v (fully namespaced) belongs to the collection.
func (c *Collection) Find(v Variable) bool {
	ns := c.Namespace()
	for _, cv := range c.Vars {
		if ns+cv.Name == v.Name && cv.Type == v.Type {
			return true
		}
	}
	return false
}

// Script is a compilable unit: a graph plus the metadata that decides how
// it is compiled.
type Script struct {
	Name        string
	Usage       Usage
	UsageID     int
	EmitterName string
	Graph       *Graph
	// Selection types the numeric outputs of call sites of this script.
	Selection types.SelectionMode
	// Parameters and Attributes are the stored variable tables of the
	// script, consulted when numeric parameters are restored after a
	// standalone compile.
	Parameters []Variable
	Attributes []Variable
	// Overrides holds baked rapid-iteration constants.
	Overrides      []Variable
	Collections    []*Collection
	DataInterfaces []*DataInterface
}

// FullName qualifies the script name by its emitter.
func (s *Script) FullName() string {
	if s.EmitterName == "" {
		return s.Name
	}
	return s.EmitterName + "." + s.Name
}

// Override finds a rapid-iteration override by name and type.
func (s *Script) Override(v Variable) (Variable, bool) {
	for _, o := range s.Overrides {
		if o.Same(v) {
			return o, true
		}
	}
	return Variable{}, false
}

// Collection finds the collection whose namespace prefixes name.
func (s *Script) Collection(name string) *Collection {
	for _, c := range s.Collections {
		if InNamespace(name, c.Namespace()) {
			return c
		}
	}
	return nil
}

// DataInterfaceClass finds a declared data interface class.
func (s *Script) DataInterfaceClass(class string) *DataInterface {
	for _, d := range s.DataInterfaces {
		if d.Class == class {
			return d
		}
	}
	return nil
}

// FindParameter looks v up in the stored parameter and attribute tables.
func (s *Script) FindParameter(v Variable) bool {
	for _, p := range s.Parameters {
		if p.Same(v) {
			return true
		}
	}
	for _, a := range s.Attributes {
		if a.Name == v.Name {
			return true
		}
	}
	return false
}

// SyncVariables fills empty Parameters and Attributes tables from the
// graph's exposed inputs and output variables.
func (s *Script) SyncVariables() {
	if s.Graph == nil {
		return
	}
	in, out := s.Graph.Parameters()
	if len(s.Parameters) == 0 {
		s.Parameters = in
	}
	if len(s.Attributes) == 0 {
		s.Attributes = out
	}
}
