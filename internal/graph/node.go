package graph

import (
	"emberc/internal/types"
)

type (
	NodeID uint32
	PinID  uint32
)

// PinDir is the direction of a pin relative to its node.
type PinDir uint8

const (
	PinInput PinDir = iota
	PinOutput
)

// Pin is one connection point of a node. Input pins hold at most one
// link; output pins fan out.
type Pin struct {
	ID   PinID
	Node *Node
	Name string
	Dir  PinDir
	Type types.Def
	// Default is the literal used when an input pin is unlinked.
	Default string
	// DefaultIgnored marks input pins whose literal must never be compiled.
	DefaultIgnored bool
	Links          []*Pin
}

// Linked reports whether the pin has at least one connection.
func (p *Pin) Linked() bool { return len(p.Links) > 0 }

// Variable converts the pin into the variable it carries. The default
// literal is decoded when present and valid for the pin type.
func (p *Pin) Variable() Variable {
	v := Variable{Name: p.Name, Type: p.Type}
	if val, err := ParseValue(p.Type, p.Default); err == nil {
		v.Value = val
	}
	return v
}

// Node is one graph vertex. Payload selects the node kind; the set of kinds
// is closed.
type Node struct {
	ID       NodeID
	Name     string
	Disabled bool
	Inputs   []*Pin
	Outputs  []*Pin
	Payload  Payload
}

// Enabled reports whether the node participates in compilation.
func (n *Node) Enabled() bool { return !n.Disabled }

// Pins returns inputs followed by outputs.
func (n *Node) Pins() []*Pin {
	out := make([]*Pin, 0, len(n.Inputs)+len(n.Outputs))
	out = append(out, n.Inputs...)
	return append(out, n.Outputs...)
}

// InputPin finds an input pin by name.
func (n *Node) InputPin(name string) *Pin {
	for _, p := range n.Inputs {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// OutputPin finds an output pin by name.
func (n *Node) OutputPin(name string) *Pin {
	for _, p := range n.Outputs {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// NumericSelection is the rule used to type numeric outputs of the node.
func (n *Node) NumericSelection() types.SelectionMode {
	switch p := n.Payload.(type) {
	case *Op:
		if info, ok := LookupOp(p.Name); ok {
			return info.Selection
		}
	case *CustomHlsl:
		return p.Selection
	case *FunctionCall:
		if p.Script != nil {
			return p.Script.Selection
		}
	}
	return types.SelectNone
}

// DefaultPin returns the input pin holding the default of a parameter-map
// get output: the input with the same name.
func (n *Node) DefaultPin(out *Pin) *Pin {
	if _, ok := n.Payload.(*ParamMapGet); !ok || out == nil {
		return nil
	}
	for _, p := range n.Inputs[1:] {
		if p.Name == out.Name {
			return p
		}
	}
	return nil
}

// Payload is the kind specific part of a node.
type Payload interface {
	payload()
	clone() Payload
}

// InputUsage says how an input node produces its value.
type InputUsage uint8

const (
	InputParameter InputUsage = iota
	InputSystemConstant
	InputAttribute
	InputTranslatorConstant
)

func (u InputUsage) String() string {
	switch u {
	case InputParameter:
		return "parameter"
	case InputSystemConstant:
		return "system-constant"
	case InputAttribute:
		return "attribute"
	case InputTranslatorConstant:
		return "translator-constant"
	}
	return "unknown"
}

// Input is a graph input: a parameter of the enclosing function, a system
// constant, an attribute or a data interface instance.
type Input struct {
	Var   Variable
	Usage InputUsage
	// Exposed inputs become function parameters of callees.
	Exposed      bool
	SortPriority int
	// DataInterface is the instance bound to a data interface parameter.
	DataInterface *DataInterface
}

// Output terminates a compiled stage. Its input pins match Vars.
type Output struct {
	Usage   Usage
	UsageID int
	Vars    []Variable
}

// Op is a built-in operation from the op table.
type Op struct {
	Name string
}

// FunctionCall invokes a function, module or dynamic input script, or a
// data interface member function when Script is nil.
type FunctionCall struct {
	Script *Script
	// Function is the call's alias for module parameters; the node name
	// when empty.
	Function  string
	Signature *Signature
}

// CustomHlsl is an inline HLSL snippet used as a function body.
type CustomHlsl struct {
	Usage     Usage
	Signature Signature
	Code      string
	Selection types.SelectionMode
}

// ParamMapGet reads variables from a parameter map. Input 0 is the map;
// the remaining inputs are per-output default pins.
type ParamMapGet struct{}

// ParamMapSet writes variables into a parameter map. Input 0 is the map.
type ParamMapSet struct{}

// DataSetKind distinguishes event payload sets from other sets.
type DataSetKind uint8

const (
	DataSetEvent DataSetKind = iota
)

// DataSetID names a data set read or written outside the particle stream.
type DataSetID struct {
	Name string
	Kind DataSetKind
}

// ReadDataSet reads one record of a data set; one output per variable.
type ReadDataSet struct {
	DataSet DataSetID
	Vars    []Variable
}

// WriteDataSet writes one record. Input 0 is the valid condition, then one
// input per variable.
type WriteDataSet struct {
	DataSet DataSetID
	Vars    []Variable
}

// ConvertConnection copies Src (a member path of input pin SrcInput) into
// Dst (a member path of output pin DstOutput).
type ConvertConnection struct {
	SrcInput  int
	SrcPath   []string
	DstOutput int
	DstPath   []string
}

// Convert packs and unpacks components between pins.
type Convert struct {
	Connections []ConvertConnection
}

// If selects between two sets of values. Inputs are the condition, then
// Vars for path A, then Vars for path B.
type If struct {
	Vars []Variable
}

// Emitter compiles an emitter's script inside a system script.
type Emitter struct {
	EmitterName string
	Usage       Usage
	Script      *Script
}

func (*Input) payload()        {}
func (*Output) payload()       {}
func (*Op) payload()           {}
func (*FunctionCall) payload() {}
func (*CustomHlsl) payload()   {}
func (*ParamMapGet) payload()  {}
func (*ParamMapSet) payload()  {}
func (*ReadDataSet) payload()  {}
func (*WriteDataSet) payload() {}
func (*Convert) payload()      {}
func (*If) payload()           {}
func (*Emitter) payload()      {}

func (p *Input) clone() Payload {
	c := *p
	c.Var.Value = append(Value(nil), p.Var.Value...)
	return &c
}

func (p *Output) clone() Payload {
	c := *p
	c.Vars = append([]Variable(nil), p.Vars...)
	return &c
}

func (p *Op) clone() Payload { c := *p; return &c }

func (p *FunctionCall) clone() Payload {
	c := *p
	if p.Signature != nil {
		sig := p.Signature.Clone()
		c.Signature = &sig
	}
	return &c
}

func (p *CustomHlsl) clone() Payload {
	c := *p
	c.Signature = p.Signature.Clone()
	return &c
}

func (*ParamMapGet) clone() Payload { return &ParamMapGet{} }
func (*ParamMapSet) clone() Payload { return &ParamMapSet{} }

func (p *ReadDataSet) clone() Payload {
	c := *p
	c.Vars = append([]Variable(nil), p.Vars...)
	return &c
}

func (p *WriteDataSet) clone() Payload {
	c := *p
	c.Vars = append([]Variable(nil), p.Vars...)
	return &c
}

func (p *Convert) clone() Payload {
	c := &Convert{Connections: make([]ConvertConnection, len(p.Connections))}
	for i, conn := range p.Connections {
		conn.SrcPath = append([]string(nil), conn.SrcPath...)
		conn.DstPath = append([]string(nil), conn.DstPath...)
		c.Connections[i] = conn
	}
	return c
}

func (p *If) clone() Payload {
	c := *p
	c.Vars = append([]Variable(nil), p.Vars...)
	return &c
}

func (p *Emitter) clone() Payload { c := *p; return &c }
