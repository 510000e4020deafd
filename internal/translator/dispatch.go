package translator

import (
	"strings"

	"emberc/internal/chunk"
	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/trace"
	"emberc/internal/types"
)

// compileNode lowers one node and returns one chunk per output pin.
func (a *arena) compileNode(n *graph.Node) []chunk.ID {
	span := trace.Begin(a.tracer, trace.ScopeNode, n.Name, a.span)
	defer span.End("")

	switch p := n.Payload.(type) {
	case *graph.Input:
		return a.input(n, p)
	case *graph.Output:
		a.output(n, p)
		return nil
	case *graph.Op:
		return a.operation(n, p)
	case *graph.FunctionCall:
		return a.functionCall(n, p)
	case *graph.CustomHlsl:
		return a.customHlsl(n, p)
	case *graph.ParamMapGet:
		return a.mapGet(n)
	case *graph.ParamMapSet:
		return a.mapSet(n)
	case *graph.ReadDataSet:
		return a.readDataSet(n, p)
	case *graph.WriteDataSet:
		a.writeDataSet(n, p)
		return nil
	case *graph.Convert:
		return a.convert(n, p)
	case *graph.If:
		return a.ifNode(n, p)
	case *graph.Emitter:
		return a.emitter(n, p)
	}
	a.errorf(diag.GrfUnsupportedNode, n, nil, "Node %s cannot be compiled.", n.Name)
	return nones(len(n.Outputs))
}

func nones(n int) []chunk.ID {
	out := make([]chunk.ID, n)
	for i := range out {
		out[i] = chunk.None
	}
	return out
}

// compilePin returns the chunk feeding p: the upstream output for linked
// inputs, a constant for unlinked literals.
func (a *arena) compilePin(p *graph.Pin) chunk.ID {
	if p == nil {
		return chunk.None
	}
	if p.Dir == graph.PinOutput {
		return a.compileOutputPin(p)
	}
	if p.Linked() {
		return a.compileOutputPin(p.Links[0])
	}
	switch {
	case p.DefaultIgnored, p.Type.IsDataInterface():
		return chunk.None
	case p.Type.IsParameterMap():
		a.errorf(diag.GrfBadPin, p.Node, p, "Cannot create a constant ParameterMap!")
		return chunk.None
	}
	return a.constant(p.Variable(), p.Node)
}

// compileOutputPin compiles the node owning p once per function scope and
// returns the chunk of p.
func (a *arena) compileOutputPin(p *graph.Pin) chunk.ID {
	cache := a.pinCache()
	if id, ok := cache[p]; ok {
		return id
	}
	n := p.Node
	outs := a.compileNode(n)
	if len(outs) != len(n.Outputs) {
		a.errorf(diag.GrfOutputCountMismatch, n, p, "Incorrect number of outputs. Can possibly be fixed with a graph refresh.")
		return chunk.None
	}
	for i, op := range n.Outputs {
		cache[op] = outs[i]
	}
	return cache[p]
}

func (a *arena) compileInputs(n *graph.Node) []chunk.ID {
	ins := make([]chunk.ID, len(n.Inputs))
	for i, p := range n.Inputs {
		ins[i] = a.compilePin(p)
	}
	return ins
}

// passThrough forwards the first input of matching type to each output of a
// disabled node.
func passThrough(n *graph.Node, ins []chunk.ID) []chunk.ID {
	outs := nones(len(n.Outputs))
	used := make([]bool, len(n.Inputs))
	for i, op := range n.Outputs {
		for j, ip := range n.Inputs {
			if !used[j] && ip.Type == op.Type {
				outs[i] = ins[j]
				used[j] = true
				break
			}
		}
	}
	return outs
}

func (a *arena) input(n *graph.Node, in *graph.Input) []chunk.ID {
	v := in.Var
	switch in.Usage {
	case graph.InputAttribute:
		return []chunk.ID{a.attribute(v, n)}
	case graph.InputSystemConstant, graph.InputTranslatorConstant:
		return []chunk.ID{a.parameter(v, n)}
	}

	if in.DataInterface != nil || v.Type.IsDataInterface() {
		di := in.DataInterface
		if di == nil {
			di = a.script.DataInterfaceClass(v.Type.Name)
		}
		return []chunk.ID{a.registerDataInterface(v, di, n)}
	}
	if in.Exposed {
		// Unbound callee inputs fall back to their own default.
		if id, inFunction := a.functionParameter(v); inFunction && id == chunk.None && !v.Type.IsParameterMap() {
			return []chunk.ID{a.constant(v, n)}
		}
	}
	return []chunk.ID{a.parameter(v, n)}
}

func (a *arena) output(n *graph.Node, o *graph.Output) {
	ins := a.compileInputs(n)

	if a.frame() != nil {
		for i, v := range o.Vars {
			if i >= len(ins) || ins[i] == chunk.None || v.Type.IsParameterMap() {
				continue
			}
			a.defineStruct(v.Type, v.Name, n)
			a.store.AddBody("Out_"+sanitizeParam(v.Name), "{0}", v.Type, []chunk.ID{ins[i]}, false, true)
		}
		return
	}

	for i, v := range o.Vars {
		if i >= len(ins) {
			break
		}
		a.defineStruct(v.Type, v.Name, n)
		if v.Type.IsParameterMap() {
			a.instanceWrite.add(v, ins[i])
			continue
		}
		if ins[i] == chunk.None {
			continue
		}
		ns := graph.BasicAttributeToNamespaced(v)
		id := a.store.AddBody(a.member(ns.Name), "{0}", ns.Type, []chunk.ID{ins[i]}, false, true)
		if _, ok := a.attrChunks[ns.Name]; !ok {
			a.attrChunks[ns.Name] = ins[i]
			a.definedAttrs.set(ns.Name, ns)
		}
		a.instanceWrite.add(ns, id)
	}
}

func (a *arena) operation(n *graph.Node, op *graph.Op) []chunk.ID {
	ins := a.compileInputs(n)
	if !n.Enabled() {
		return passThrough(n, ins)
	}
	info, ok := graph.LookupOp(op.Name)
	if !ok {
		a.errorf(diag.GrfUnsupportedNode, n, nil, "Unknown operation %s.", op.Name)
		return nones(len(n.Outputs))
	}
	outs := nones(len(n.Outputs))
	for i, io := range info.Outputs {
		if i >= len(n.Outputs) {
			break
		}
		t := n.Outputs[i].Type
		if !a.defineStruct(t, n.Outputs[i].Name, n) {
			continue
		}
		outs[i] = a.store.AddBody(a.local(io.Name), io.Snippet, t, ins, true, true)
	}
	return outs
}

func (a *arena) ifNode(n *graph.Node, p *graph.If) []chunk.ID {
	ins := a.compileInputs(n)
	count := len(p.Vars)
	if len(ins) != 1+2*count {
		a.errorf(diag.GrfBadPin, n, nil, "If node has %d inputs, expected %d.", len(ins), 1+2*count)
		return nones(len(n.Outputs))
	}
	cond, pathA, pathB := ins[0], ins[1:1+count], ins[1+count:]

	outs := make([]chunk.ID, count)
	syms := make([]string, count)
	for i, v := range p.Vars {
		a.defineStruct(v.Type, v.Name, n)
		syms[i] = a.local(v.Name + "_IfResult")
		outs[i] = a.store.AddBody(syms[i], "", v.Type, nil, true, true)
	}
	a.store.Raw("if({0})\n\t{", cond)
	for i, v := range p.Vars {
		a.store.AddBody(syms[i], "{0}", v.Type, []chunk.ID{pathA[i]}, false, true)
	}
	a.store.Raw("}\n\telse\n\t{")
	for i, v := range p.Vars {
		a.store.AddBody(syms[i], "{0}", v.Type, []chunk.ID{pathB[i]}, false, true)
	}
	a.store.Raw("}")
	return outs
}

func (a *arena) convert(n *graph.Node, c *graph.Convert) []chunk.ID {
	ins := a.compileInputs(n)
	outs := make([]chunk.ID, len(n.Outputs))
	for i, p := range n.Outputs {
		a.defineStruct(p.Type, p.Name, n)
		outs[i] = a.store.AddBody(a.local(p.Name), "", p.Type, nil, true, true)
	}
	for _, conn := range c.Connections {
		if conn.SrcInput < 0 || conn.SrcInput >= len(n.Inputs) || conn.DstOutput < 0 || conn.DstOutput >= len(n.Outputs) {
			a.errorf(diag.TypConvert, n, nil, "Convert connection %d -> %d is out of range.", conn.SrcInput, conn.DstOutput)
			continue
		}
		srcType, dstType := n.Inputs[conn.SrcInput].Type, n.Outputs[conn.DstOutput].Type
		dst, okDst := a.namePath(n, "{0}", dstType, a.conditionPath(dstType, conn.DstPath))
		src, okSrc := a.namePath(n, "{1}", srcType, a.conditionPath(srcType, conn.SrcPath))
		if !okDst || !okSrc {
			continue
		}
		a.store.Statement(dst+" = "+src, outs[conn.DstOutput], ins[conn.SrcInput])
	}
	return outs
}

// conditionPath maps a member path onto HLSL member names: vector
// components are lower case, scalars have no members.
func (a *arena) conditionPath(t types.Def, path []string) []string {
	if len(path) == 0 {
		return nil
	}
	switch {
	case t.IsBuiltinVector():
		return []string{strings.ToLower(path[0])}
	case t.IsScalar():
		return nil
	case t.IsStruct():
		child := a.types.ChildType(t, path[0])
		if !child.IsValid() {
			return path
		}
		return append([]string{path[0]}, a.conditionPath(child, path[1:])...)
	}
	return path
}

// namePath renders prefix followed by the accessors of path into root.
func (a *arena) namePath(n *graph.Node, prefix string, root types.Def, path []string) (string, bool) {
	var sb strings.Builder
	sb.WriteString(prefix)
	cur := root
	parentMatrix := root.Kind == types.KindMatrix4
	for i, name := range path {
		child := a.types.ChildType(cur, name)
		if !child.IsValid() && cur.IsBuiltinVector() {
			child = a.types.ChildType(cur, strings.ToUpper(name))
		}
		switch {
		case child.Kind == types.KindMatrix4:
			sb.WriteString("." + name)
			parentMatrix = true
		case parentMatrix && child == types.Vec4:
			row, ok := types.MatrixRowAccess(name)
			if !ok {
				row = "." + name
			}
			sb.WriteString(row)
		case parentMatrix && child == types.Float:
			col, ok := types.MatrixColumnAccess(name)
			if !ok {
				col = "." + name
			}
			sb.WriteString(col)
		case child.IsValid():
			sb.WriteString("." + name)
		default:
			a.errorf(diag.TypConvert, n, nil, "Failed to generate type for %s up to path %s", name, strings.Join(path[:i+1], "."))
			return "", false
		}
		cur = child
	}
	return sb.String(), true
}
