// Package scriptfile reads TOML script descriptions into graph.Script
// values.
//
// A file names the script (usage, emitter, numeric selection), declares user
// struct types, data interface classes, parameter collections and baked
// overrides, and lists the nodes and links of the script graph. Function
// scripts called by the graph are declared inline under [[callees]], before
// their first use.
package scriptfile

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"emberc/internal/graph"
	"emberc/internal/types"
)

var (
	// ErrNameMissing indicates a script or callee without a name.
	ErrNameMissing = errors.New("missing name")
	// ErrNoNodes indicates a graph without nodes.
	ErrNoNodes = errors.New("graph has no nodes")
	// ErrUnknownNode indicates a link or call naming an undeclared node,
	// callee or interface.
	ErrUnknownNode = errors.New("unknown reference")
)

// File is a loaded script description.
type File struct {
	Path   string
	Script *graph.Script
	// Types holds the struct layouts declared by the file; nil when none.
	Types *types.Registry
	// Raw is the file content the script was decoded from.
	Raw []byte
}

// Load reads and decodes the script file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes a script description from raw TOML.
func Parse(raw []byte) (*File, error) {
	var fs fileScript
	meta, err := toml.Decode(string(raw), &fs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	if strings.TrimSpace(fs.Name) == "" {
		return nil, fmt.Errorf("script: %w", ErrNameMissing)
	}

	l := &loader{
		callees:    make(map[string]*graph.Script),
		interfaces: make(map[string]*graph.DataInterface),
	}
	if len(fs.Types) > 0 {
		l.types = types.NewRegistry()
		for _, t := range fs.Types {
			if err := l.defineType(t); err != nil {
				return nil, err
			}
		}
	}

	script := &graph.Script{
		Name:        fs.Name,
		UsageID:     fs.UsageID,
		EmitterName: fs.Emitter,
	}
	if script.Usage, err = parseUsage(fs.Usage, graph.UsageParticleSpawn); err != nil {
		return nil, err
	}
	if script.Selection, err = types.ParseSelectionMode(fs.Selection); err != nil {
		return nil, err
	}

	for _, di := range fs.Interfaces {
		d, err := l.dataInterface(di)
		if err != nil {
			return nil, err
		}
		script.DataInterfaces = append(script.DataInterfaces, d)
	}
	for _, c := range fs.Collections {
		vars, err := l.vars(c.Vars)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.Name, err)
		}
		script.Collections = append(script.Collections, &graph.Collection{Name: c.Name, Vars: vars})
	}
	if script.Overrides, err = l.vars(fs.Overrides); err != nil {
		return nil, fmt.Errorf("overrides: %w", err)
	}

	for _, c := range fs.Callees {
		callee, err := l.callee(c)
		if err != nil {
			return nil, err
		}
		l.callees[callee.Name] = callee
	}

	g, err := l.build(fs.Name, script.Usage, fs.Nodes, fs.Links)
	if err != nil {
		return nil, err
	}
	script.Graph = g
	script.SyncVariables()

	return &File{Script: script, Types: l.types, Raw: raw}, nil
}

type loader struct {
	types      *types.Registry
	callees    map[string]*graph.Script
	interfaces map[string]*graph.DataInterface
}

func parseUsage(s string, def graph.Usage) (graph.Usage, error) {
	if s == "" {
		return def, nil
	}
	return graph.ParseUsage(s)
}

func (l *loader) defineType(t fileType) error {
	if t.Name == "" {
		return fmt.Errorf("type: %w", ErrNameMissing)
	}
	fields := make([]types.Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		def, err := types.Parse(f.Type)
		if err != nil {
			return fmt.Errorf("type %s field %s: %w", t.Name, f.Name, err)
		}
		fields = append(fields, types.Field{Name: f.Name, Type: def})
	}
	l.types.Define(t.Name, fields...)
	return nil
}

func (l *loader) variable(fv fileVar) (graph.Variable, error) {
	t, err := types.Parse(fv.Type)
	if err != nil {
		return graph.Variable{}, fmt.Errorf("variable %s: %w", fv.Name, err)
	}
	v := graph.Var(t, fv.Name)
	if fv.Value != "" {
		val, err := graph.ParseValue(t, fv.Value)
		if err != nil {
			return graph.Variable{}, fmt.Errorf("variable %s: %w", fv.Name, err)
		}
		v = v.WithValue(val)
	}
	return v, nil
}

func (l *loader) vars(fvs []fileVar) ([]graph.Variable, error) {
	if len(fvs) == 0 {
		return nil, nil
	}
	out := make([]graph.Variable, 0, len(fvs))
	for _, fv := range fvs {
		v, err := l.variable(fv)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *loader) signature(name string, inputs, outputs []fileVar) (graph.Signature, error) {
	ins, err := l.vars(inputs)
	if err != nil {
		return graph.Signature{}, fmt.Errorf("%s inputs: %w", name, err)
	}
	outs, err := l.vars(outputs)
	if err != nil {
		return graph.Signature{}, fmt.Errorf("%s outputs: %w", name, err)
	}
	return graph.Signature{Name: name, Inputs: ins, Outputs: outs}, nil
}

func (l *loader) dataInterface(fi fileInterface) (*graph.DataInterface, error) {
	if fi.Class == "" {
		return nil, fmt.Errorf("interface: %w", ErrNameMissing)
	}
	d := &graph.DataInterface{
		Class:               fi.Class,
		PerInstanceDataSize: fi.InstanceSize,
		GPU:                 fi.GPU,
		GPUBuffers:          fi.Buffers,
		GPUFunctions:        fi.GPUFunctions,
	}
	for _, fn := range fi.Functions {
		sig, err := l.signature(fn.Name, fn.Inputs, fn.Outputs)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", fi.Class, err)
		}
		sig.RequiresContext = fn.RequiresContext
		d.Functions = append(d.Functions, sig)
	}
	l.interfaces[d.Class] = d
	return d, nil
}

func (l *loader) callee(fg fileGraph) (*graph.Script, error) {
	if fg.Name == "" {
		return nil, fmt.Errorf("callee: %w", ErrNameMissing)
	}
	usage, err := parseUsage(fg.Usage, graph.UsageFunction)
	if err != nil {
		return nil, fmt.Errorf("callee %s: %w", fg.Name, err)
	}
	sel, err := types.ParseSelectionMode(fg.Selection)
	if err != nil {
		return nil, fmt.Errorf("callee %s: %w", fg.Name, err)
	}
	g, err := l.build(fg.Name, usage, fg.Nodes, fg.Links)
	if err != nil {
		return nil, err
	}
	s := &graph.Script{Name: fg.Name, Usage: usage, Graph: g, Selection: sel}
	s.SyncVariables()
	return s, nil
}

// build assembles one graph from its node and link tables.
func (l *loader) build(name string, usage graph.Usage, nodes []fileNode, links []fileLink) (*graph.Graph, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoNodes)
	}
	b := graph.NewBuilder(name)
	byID := make(map[string]*graph.Node, len(nodes))
	for i, fn := range nodes {
		id := fn.ID
		if id == "" {
			return nil, fmt.Errorf("%s: node %d: missing id", name, i)
		}
		if strings.Contains(id, ".") {
			return nil, fmt.Errorf("%s: node id %q must not contain dots", name, id)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("%s: duplicate node id %q", name, id)
		}
		n, err := l.node(b, usage, fn)
		if err != nil {
			return nil, fmt.Errorf("%s: node %s: %w", name, id, err)
		}
		keys := make([]string, 0, len(fn.Defaults))
		for k := range fn.Defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.SetDefault(n, k, fn.Defaults[k])
		}
		n.Disabled = fn.Disabled
		byID[id] = n
	}

	for _, lk := range links {
		fromID, out, fromPin := strings.Cut(lk.From, ".")
		toID, in, toPin := strings.Cut(lk.To, ".")
		from, ok := byID[fromID]
		if !ok {
			return nil, fmt.Errorf("%s: link from %q: %w", name, lk.From, ErrUnknownNode)
		}
		to, ok := byID[toID]
		if !ok {
			return nil, fmt.Errorf("%s: link to %q: %w", name, lk.To, ErrUnknownNode)
		}
		switch {
		case !fromPin && !toPin:
			b.LinkMap(from, to)
		case fromPin && toPin:
			b.Link(from, out, to, in)
		default:
			return nil, fmt.Errorf("%s: link %s -> %s mixes a map link with a pin link", name, lk.From, lk.To)
		}
	}

	g, err := b.Graph()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return g, nil
}

func (l *loader) node(b *graph.Builder, usage graph.Usage, fn fileNode) (*graph.Node, error) {
	switch fn.Kind {
	case "map-input":
		name := fn.Name
		if name == "" {
			name = graph.MapPin
		}
		return b.MapInput(name), nil

	case "input", "parameter":
		v, err := l.variable(fileVar{Name: fn.Name, Type: fn.Type, Value: fn.Value})
		if err != nil {
			return nil, err
		}
		iu, err := parseInputUsage(fn.Input)
		if err != nil {
			return nil, err
		}
		n := b.Input(v, iu)
		n.Payload.(*graph.Input).SortPriority = fn.Priority
		return n, nil

	case "di-input":
		di, ok := l.interfaces[fn.Interface]
		if !ok {
			return nil, fmt.Errorf("interface %q: %w", fn.Interface, ErrUnknownNode)
		}
		return b.DataInterfaceInput(fn.Name, di), nil

	case "output":
		vars, err := l.vars(fn.Vars)
		if err != nil {
			return nil, err
		}
		ou, err := parseUsage(fn.Usage, usage.OutputUsage())
		if err != nil {
			return nil, err
		}
		return b.Output(ou, vars...), nil

	case "op":
		if _, ok := graph.LookupOp(fn.Op); !ok {
			return nil, fmt.Errorf("op %q: %w", fn.Op, ErrUnknownNode)
		}
		return b.Op(fn.Op), nil

	case "get", "set":
		vars, err := l.vars(fn.Vars)
		if err != nil {
			return nil, err
		}
		if fn.Kind == "get" {
			return b.Get(vars...), nil
		}
		return b.Set(vars...), nil

	case "call", "emitter":
		callee, ok := l.callees[fn.Callee]
		if !ok {
			return nil, fmt.Errorf("callee %q: %w", fn.Callee, ErrUnknownNode)
		}
		if fn.Kind == "emitter" {
			name := fn.Name
			if name == "" {
				name = callee.Name
			}
			return b.Emitter(name, callee), nil
		}
		return b.Call(callee, fn.Alias), nil

	case "interface-call":
		di, ok := l.interfaces[fn.Interface]
		if !ok {
			return nil, fmt.Errorf("interface %q: %w", fn.Interface, ErrUnknownNode)
		}
		for _, sig := range di.Functions {
			if sig.Name == fn.Function {
				return b.CallInterface(sig), nil
			}
		}
		return nil, fmt.Errorf("function %s.%s: %w", fn.Interface, fn.Function, ErrUnknownNode)

	case "custom":
		sig, err := l.signature(fn.Name, fn.Inputs, fn.Outputs)
		if err != nil {
			return nil, err
		}
		cu, err := parseUsage(fn.Usage, usage)
		if err != nil {
			return nil, err
		}
		return b.Custom(fn.Name, cu, sig, fn.Code), nil

	case "read-dataset", "write-dataset":
		if fn.DataSet == "" {
			return nil, fmt.Errorf("data set: %w", ErrNameMissing)
		}
		vars, err := l.vars(fn.Vars)
		if err != nil {
			return nil, err
		}
		id := graph.DataSetID{Name: fn.DataSet, Kind: graph.DataSetEvent}
		if fn.Kind == "read-dataset" {
			return b.ReadDataSet(id, vars...), nil
		}
		return b.WriteDataSet(id, vars...), nil

	case "convert":
		ins, err := l.vars(fn.Inputs)
		if err != nil {
			return nil, err
		}
		outs, err := l.vars(fn.Outputs)
		if err != nil {
			return nil, err
		}
		conns := make([]graph.ConvertConnection, 0, len(fn.Connections))
		for _, c := range fn.Connections {
			conns = append(conns, graph.ConvertConnection{SrcInput: c.Src, SrcPath: c.SrcPath, DstOutput: c.Dst, DstPath: c.DstPath})
		}
		return b.Convert(ins, outs, conns...), nil

	case "if":
		vars, err := l.vars(fn.Vars)
		if err != nil {
			return nil, err
		}
		return b.If(vars...), nil
	}
	return nil, fmt.Errorf("unknown node kind %q", fn.Kind)
}

func parseInputUsage(s string) (graph.InputUsage, error) {
	for _, u := range []graph.InputUsage{graph.InputParameter, graph.InputSystemConstant, graph.InputAttribute, graph.InputTranslatorConstant} {
		if s == u.String() {
			return u, nil
		}
	}
	if s == "" {
		return graph.InputParameter, nil
	}
	return graph.InputParameter, fmt.Errorf("unknown input usage %q", s)
}
