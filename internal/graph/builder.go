package graph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"emberc/internal/types"
)

// MapPin is the conventional name of parameter map pins.
const MapPin = "Map"

// Builder assembles graphs for fixtures and script loaders. The first error
// is kept and reported by Graph; later calls become no-ops on bad input.
type Builder struct {
	g   *Graph
	err error
}

func NewBuilder(name string) *Builder { return &Builder{g: New(name)} }

// Graph returns the built graph or the first recorded error.
func (b *Builder) Graph() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.g, nil
}

// MustGraph is Graph for fixtures that cannot fail.
func (b *Builder) MustGraph() *Graph {
	g, err := b.Graph()
	if err != nil {
		panic(err)
	}
	return g
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// FormatValue renders a value in the literal syntax ParseValue accepts.
func FormatValue(v Value) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Input adds an input node producing v.
func (b *Builder) Input(v Variable, usage InputUsage) *Node {
	n := b.g.AddNode(v.Name, &Input{Var: v, Usage: usage, Exposed: usage == InputParameter})
	b.g.AddOutput(n, v.Name, v.Type)
	return n
}

// Parameter adds an exposed parameter input.
func (b *Builder) Parameter(v Variable) *Node { return b.Input(v, InputParameter) }

// MapInput adds the parameter map input of a graph.
func (b *Builder) MapInput(name string) *Node {
	return b.Parameter(Var(types.ParameterMap, name))
}

// DataInterfaceInput adds a parameter bound to a data interface instance.
func (b *Builder) DataInterfaceInput(name string, di *DataInterface) *Node {
	n := b.g.AddNode(name, &Input{Var: Var(di.Type(), name), Usage: InputParameter, Exposed: true, DataInterface: di})
	b.g.AddOutput(n, name, di.Type())
	return n
}

// Output adds an output node of usage with one input per variable.
func (b *Builder) Output(usage Usage, vars ...Variable) *Node {
	n := b.g.AddNode("Output"+usage.String(), &Output{Usage: usage, Vars: append([]Variable(nil), vars...)})
	for _, v := range vars {
		b.g.AddInput(n, v.Name, v.Type, "")
	}
	return n
}

// Op adds a built-in operation node.
func (b *Builder) Op(name string) *Node {
	info, ok := LookupOp(name)
	if !ok {
		b.fail(fmt.Errorf("unknown op %q", name))
	}
	n := b.g.AddNode(name, &Op{Name: name})
	for _, in := range info.Inputs {
		b.g.AddInput(n, in.Name, in.Type, in.Default)
	}
	for _, out := range info.Outputs {
		b.g.AddOutput(n, out.Name, out.Type)
	}
	return n
}

// Get adds a parameter map get node reading vars.
func (b *Builder) Get(vars ...Variable) *Node {
	n := b.g.AddNode("MapGet", &ParamMapGet{})
	b.g.AddInput(n, MapPin, types.ParameterMap, "")
	for _, v := range vars {
		b.g.AddInput(n, v.Name, v.Type, FormatValue(v.Value))
		b.g.AddOutput(n, v.Name, v.Type)
	}
	return n
}

// Set adds a parameter map set node writing vars.
func (b *Builder) Set(vars ...Variable) *Node {
	n := b.g.AddNode("MapSet", &ParamMapSet{})
	b.g.AddInput(n, MapPin, types.ParameterMap, "")
	for _, v := range vars {
		b.g.AddInput(n, v.Name, v.Type, FormatValue(v.Value))
	}
	b.g.AddOutput(n, MapPin, types.ParameterMap)
	return n
}

// SignatureInputNodes returns the input nodes of a callee graph in the
// order its call sites bind arguments.
func SignatureInputNodes(g *Graph, usage Usage) []*Node {
	opts := DefaultFindInputOptions()
	opts.Sort = true
	opts.FilterByUsage = true
	opts.TargetUsage = usage
	return g.FindInputNodes(opts)
}

func (b *Builder) calleePins(n *Node, callee *Script) {
	if callee == nil || callee.Graph == nil {
		b.fail(errors.New("call: callee script has no graph"))
		return
	}
	for _, in := range SignatureInputNodes(callee.Graph, callee.Usage) {
		v := in.Payload.(*Input).Var
		b.g.AddInput(n, v.Name, v.Type, FormatValue(v.Value))
	}
	for _, v := range callee.Graph.OutputNodeVariables(callee.Usage) {
		b.g.AddOutput(n, v.Name, v.Type)
	}
}

// Call adds a function call to callee. function is the call alias used for
// the callee's module parameters; the script name when empty.
func (b *Builder) Call(callee *Script, function string) *Node {
	if function == "" && callee != nil {
		function = callee.Name
	}
	n := b.g.AddNode(function, &FunctionCall{Script: callee, Function: function})
	b.calleePins(n, callee)
	return n
}

// CallInterface adds a data interface member call. Input 0 binds the
// interface instance.
func (b *Builder) CallInterface(sig Signature) *Node {
	s := sig.Clone()
	n := b.g.AddNode(sig.Name, &FunctionCall{Signature: &s, Function: sig.Name})
	for _, v := range sig.Inputs {
		b.g.AddInput(n, v.Name, v.Type, FormatValue(v.Value))
	}
	for _, v := range sig.Outputs {
		b.g.AddOutput(n, v.Name, v.Type)
	}
	return n
}

// Custom adds an inline HLSL node with the given signature.
func (b *Builder) Custom(name string, usage Usage, sig Signature, code string) *Node {
	s := sig.Clone()
	if s.Name == "" {
		s.Name = name
	}
	n := b.g.AddNode(name, &CustomHlsl{Usage: usage, Signature: s, Code: code})
	for _, v := range s.Inputs {
		b.g.AddInput(n, v.Name, v.Type, FormatValue(v.Value))
	}
	for _, v := range s.Outputs {
		b.g.AddOutput(n, v.Name, v.Type)
	}
	return n
}

// ReadDataSet adds a data set read with one output per variable.
func (b *Builder) ReadDataSet(id DataSetID, vars ...Variable) *Node {
	n := b.g.AddNode("Read"+id.Name, &ReadDataSet{DataSet: id, Vars: append([]Variable(nil), vars...)})
	for _, v := range vars {
		b.g.AddOutput(n, v.Name, v.Type)
	}
	return n
}

// WriteDataSet adds a data set write; input 0 is the valid condition.
func (b *Builder) WriteDataSet(id DataSetID, vars ...Variable) *Node {
	n := b.g.AddNode("Write"+id.Name, &WriteDataSet{DataSet: id, Vars: append([]Variable(nil), vars...)})
	b.g.AddInput(n, "Valid", types.Bool, "true")
	for _, v := range vars {
		b.g.AddInput(n, v.Name, v.Type, FormatValue(v.Value))
	}
	return n
}

// Convert adds a convert node with the given pins and connections.
func (b *Builder) Convert(inputs, outputs []Variable, conns ...ConvertConnection) *Node {
	for _, c := range conns {
		if c.SrcInput < 0 || c.SrcInput >= len(inputs) || c.DstOutput < 0 || c.DstOutput >= len(outputs) {
			b.fail(fmt.Errorf("convert connection %d -> %d out of range", c.SrcInput, c.DstOutput))
		}
	}
	n := b.g.AddNode("Convert", &Convert{Connections: append([]ConvertConnection(nil), conns...)})
	for _, v := range inputs {
		b.g.AddInput(n, v.Name, v.Type, "")
	}
	for _, v := range outputs {
		b.g.AddOutput(n, v.Name, v.Type)
	}
	return n
}

// If adds a branch selecting vars from path A or path B.
func (b *Builder) If(vars ...Variable) *Node {
	n := b.g.AddNode("If", &If{Vars: append([]Variable(nil), vars...)})
	b.g.AddInput(n, "Condition", types.Bool, "true")
	for _, v := range vars {
		b.g.AddInput(n, v.Name+" A", v.Type, "")
	}
	for _, v := range vars {
		b.g.AddInput(n, v.Name+" B", v.Type, "")
	}
	for _, v := range vars {
		b.g.AddOutput(n, v.Name, v.Type)
	}
	return n
}

// Emitter adds an emitter reference compiling script inside a system.
func (b *Builder) Emitter(name string, script *Script) *Node {
	var usage Usage
	if script != nil {
		usage = script.Usage
	}
	n := b.g.AddNode(name, &Emitter{EmitterName: name, Usage: usage, Script: script})
	b.calleePins(n, script)
	return n
}

// Link connects output pin out of from to input pin in of to.
func (b *Builder) Link(from *Node, out string, to *Node, in string) *Builder {
	src, dst := from.OutputPin(out), to.InputPin(in)
	if src == nil {
		b.fail(fmt.Errorf("node %s has no output pin %q", from.Name, out))
		return b
	}
	if dst == nil {
		b.fail(fmt.Errorf("node %s has no input pin %q", to.Name, in))
		return b
	}
	if err := b.g.Link(src, dst); err != nil {
		b.fail(err)
	}
	return b
}

// LinkMap connects the parameter map output of from to the map input of
// to.
func (b *Builder) LinkMap(from, to *Node) *Builder {
	src := from.OutputPin(MapPin)
	if src == nil && len(from.Outputs) > 0 && from.Outputs[0].Type.IsParameterMap() {
		src = from.Outputs[0]
	}
	var dst *Pin
	for _, p := range to.Inputs {
		if p.Type.IsParameterMap() {
			dst = p
			break
		}
	}
	if src == nil || dst == nil {
		b.fail(fmt.Errorf("no parameter map link between %s and %s", from.Name, to.Name))
		return b
	}
	if err := b.g.Link(src, dst); err != nil {
		b.fail(err)
	}
	return b
}

// SetDefault replaces the literal default of an input pin.
func (b *Builder) SetDefault(n *Node, pin, literal string) *Builder {
	p := n.InputPin(pin)
	if p == nil {
		b.fail(fmt.Errorf("node %s has no input pin %q", n.Name, pin))
		return b
	}
	p.Default = literal
	return b
}
