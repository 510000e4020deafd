package translator

import (
	"fmt"
	"strings"

	"emberc/internal/chunk"
	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/naming"
	"emberc/internal/preprocess"
	"emberc/internal/trace"
)

// maxCallDepth bounds nested function compilation.
const maxCallDepth = 64

// functionCall compiles a call to a function, module or dynamic input
// script, or to a data interface member function.
func (a *arena) functionCall(n *graph.Node, fc *graph.FunctionCall) []chunk.ID {
	ins := a.compileInputs(n)
	if !n.Enabled() {
		return passThrough(n, ins)
	}
	if fc.Script == nil {
		if fc.Signature == nil || !fc.Signature.Valid() {
			a.errorf(diag.FncMissingScript, n, nil, "Function call %s has no function script and no valid signature.", n.Name)
			return nones(len(n.Outputs))
		}
		return a.interfaceCall(n, fc, ins)
	}
	callee := fc.Script
	if callee.Graph == nil {
		a.errorf(diag.FncInvalidGraph, n, nil, "Function %s has no graph.", callee.Name)
		return nones(len(n.Outputs))
	}
	alias := fc.Function
	if alias == "" {
		alias = n.Name
	}
	withMap := callee.Graph.HasParameterMapParameters()
	name := callee.Name
	if withMap {
		name = alias
	}
	sig := a.callSignature(n, name, ins, withMap)

	if withMap {
		a.aliases.EnterFunction(alias)
		defer a.aliases.ExitFunction()
	}
	a.registerFunctionCall(n, callee, sig, ins)
	return a.generateFunctionCall(n, sig, ins)
}

// emitter compiles an emitter script referenced by a system script. The
// emitter's values are addressed through its name.
func (a *arena) emitter(n *graph.Node, e *graph.Emitter) []chunk.ID {
	ins := a.compileInputs(n)
	if !n.Enabled() {
		return passThrough(n, ins)
	}
	if e.Script == nil || e.Script.Graph == nil {
		a.errorf(diag.GrfEmitterCall, n, nil, "Emitter %s has no script.", e.EmitterName)
		return nones(len(n.Outputs))
	}
	if !e.Usage.IsEmitter() || !a.usage.IsSystem() {
		a.errorf(diag.GrfEmitterCall, n, nil, "Emitter %s of usage %s cannot be compiled into a %s script.", e.EmitterName, e.Usage, a.usage)
		return nones(len(n.Outputs))
	}
	sig := a.callSignature(n, e.EmitterName, ins, true)

	a.aliases.EnterEmitter(e.EmitterName)
	defer a.aliases.ExitEmitter()
	a.aliases.EnterFunction(e.EmitterName)
	defer a.aliases.ExitFunction()
	a.registerFunctionCall(n, e.Script, sig, ins)
	return a.generateFunctionCall(n, sig, ins)
}

// callSignature derives the signature of a call site from its resolved
// pins. Data interface arguments are bound by instance, so their names
// become part of the owner.
func (a *arena) callSignature(n *graph.Node, name string, ins []chunk.ID, withMap bool) graph.Signature {
	sig := graph.Signature{Name: name, RequiresContext: withMap}
	var owners []string
	for i, p := range n.Inputs {
		sig.Inputs = append(sig.Inputs, graph.Var(p.Type, p.Name))
		if !p.Type.IsDataInterface() || i >= len(ins) {
			continue
		}
		if idx, ok := a.diChunks[ins[i]]; ok {
			owners = append(owners, a.dataInterfaces[idx].Name)
		}
	}
	for _, p := range n.Outputs {
		sig.Outputs = append(sig.Outputs, graph.Var(p.Type, p.Name))
	}
	sig.Owner = strings.Join(owners, "_")
	return sig
}

// registerFunctionCall compiles the body of sig once per translation.
func (a *arena) registerFunctionCall(n *graph.Node, callee *graph.Script, sig graph.Signature, ins []chunk.ID) {
	key := sig.Key()
	if _, ok := a.fnIndex[key]; ok {
		return
	}
	if len(a.frames) >= maxCallDepth {
		a.errorf(diag.FncInvalidGraph, n, nil, "Function %s nests deeper than %d calls.", callee.Name, maxCallDepth)
		return
	}
	span := trace.Begin(a.tracer, trace.ScopeFunction, sig.Name, a.span)
	defer span.End("")

	fn := &function{sig: sig}
	a.fnIndex[key] = len(a.functions)
	a.functions = append(a.functions, fn)

	g := a.calleeGraph(n, callee)
	out := g.FindOutputNode(callee.Usage.OutputUsage(), 0)
	if out == nil {
		a.errorf(diag.FncInvalidGraph, n, nil, "Function %s has no output node of type %s.", callee.Name, callee.Usage.OutputUsage())
		return
	}

	inputs := make([]chunk.ID, len(sig.Inputs))
	for i, v := range sig.Inputs {
		switch {
		case v.Type.IsParameterMap():
			inputs[i] = a.mapSource()
		case v.Type.IsDataInterface():
			if i < len(ins) {
				inputs[i] = ins[i]
			}
		default:
			inputs[i] = a.store.AddSource("In_"+sanitizeParam(v.Name), v.Type)
		}
	}
	fn.body = a.functionBody(func() {
		a.enterFrame(callee.Name, sig, inputs, g)
		defer a.exitFrame()
		a.compileNode(out)
		a.compileDataSetWrites(g)
	})
}

// calleeGraph returns the preprocessed callee graph for a call site.
// Numeric functions are specialised per call site; the others are
// prepared once and shared.
func (a *arena) calleeGraph(n *graph.Node, callee *graph.Script) *graph.Graph {
	if callee.Graph.HasNumericParameters() {
		g := callee.Graph.Clone()
		preprocess.FunctionGraph(g, n.Inputs, n.Outputs, callee.Usage.OutputUsage(), a.rep)
		return g
	}
	if g, ok := a.prepared[callee.Graph]; ok {
		return g
	}
	g := callee.Graph.Clone()
	preprocess.Graph(g, callee.Usage, a.rep)
	for _, w := range g.FindWriteDataSetNodes() {
		preprocess.FixUp(g, w, a.rep)
	}
	a.prepared[callee.Graph] = g
	return g
}

// functionBody runs compile with the plain body active and lifts the body
// chunks it emits out of the caller's stream. Uniforms and sources emitted
// meanwhile stay registered.
func (a *arena) functionBody(compile func()) string {
	defer a.store.EnterBody(chunk.ModeBody)()
	mark := a.store.Mark()
	compile()

	var sb strings.Builder
	for _, id := range a.store.Since(mark, chunk.ModeBody) {
		code, err := a.printer.Code(id)
		if err != nil && !a.failed() {
			a.critical(diag.TrnUndefinedChunk, err.Error())
		}
		sb.WriteString(code)
	}
	a.store.Excise(mark, chunk.ModeBody)
	return sb.String()
}

// generateFunctionCall emits the call statement of sig and declares its
// outputs. Every argument that failed to compile is reported.
func (a *arena) generateFunctionCall(n *graph.Node, sig graph.Signature, ins []chunk.ID) []chunk.ID {
	var (
		args    []chunk.ID
		text    []string
		mapIn   = chunk.None
		missing bool
	)
	for i, v := range sig.Inputs {
		switch {
		case v.Type.IsParameterMap():
			if i < len(ins) {
				mapIn = ins[i]
			}
			continue
		case v.Type.IsDataInterface():
			continue
		}
		if i >= len(ins) || ins[i] == chunk.None {
			a.errorf(diag.FncMissingParameter, n, pinAt(n.Inputs, i), "Error compiling parameter %s in function call %s", v.Name, n.Name)
			missing = true
			continue
		}
		text = append(text, fmt.Sprintf("{%d}", len(args)))
		args = append(args, ins[i])
	}
	if missing {
		return nones(len(n.Outputs))
	}

	outs := nones(len(n.Outputs))
	for i, v := range sig.Outputs {
		if v.Type.IsParameterMap() {
			outs[i] = mapIn
			continue
		}
		if !a.defineStruct(v.Type, v.Name, n) {
			continue
		}
		outs[i] = a.store.AddBody(a.local(n.Name+"Output_"+v.Name), "", v.Type, nil, true, true)
		text = append(text, fmt.Sprintf("{%d}", len(args)))
		args = append(args, outs[i])
	}
	if sig.RequiresContext {
		text = append(text, "Context")
	}

	sym := signatureSymbol(sig)
	a.enterStatScope(sym, n.Name)
	a.store.Statement(sym+"("+strings.Join(text, ", ")+")", args...)
	a.exitStatScope()
	return outs
}

func pinAt(pins []*graph.Pin, i int) *graph.Pin {
	if i < 0 || i >= len(pins) {
		return nil
	}
	return pins[i]
}

// customHlsl compiles an inline HLSL node into a function whose body is
// the node's code with its pin names rewritten.
func (a *arena) customHlsl(n *graph.Node, c *graph.CustomHlsl) []chunk.ID {
	ins := a.compileInputs(n)
	if !n.Enabled() {
		return passThrough(n, ins)
	}
	sig := graph.Signature{Name: "CustomHlsl_" + naming.Sanitize(n.Name, true)}
	repl := make(map[string]string)
	for _, p := range n.Inputs {
		sig.Inputs = append(sig.Inputs, graph.Var(p.Type, p.Name))
		if p.Type.IsParameterMap() {
			sig.RequiresContext = true
			repl[p.Name] = a.instanceName()
			continue
		}
		repl[p.Name] = "In_" + sanitizeParam(p.Name)
	}
	for _, p := range n.Outputs {
		sig.Outputs = append(sig.Outputs, graph.Var(p.Type, p.Name))
		if p.Type.IsParameterMap() {
			sig.RequiresContext = true
			continue
		}
		repl[p.Name] = "Out_" + sanitizeParam(p.Name)
	}

	if _, ok := a.fnIndex[sig.Key()]; !ok {
		a.fnIndex[sig.Key()] = len(a.functions)
		a.functions = append(a.functions, &function{
			sig:  sig,
			body: "\t" + replaceIdentifiers(c.Code, repl) + "\n",
		})
	}
	return a.generateFunctionCall(n, sig, ins)
}

// replaceIdentifiers substitutes whole identifiers of code found in repl.
func replaceIdentifiers(code string, repl map[string]string) string {
	var sb strings.Builder
	isStart := func(c byte) bool { return c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') }
	isPart := func(c byte) bool { return isStart(c) || (c >= '0' && c <= '9') }
	for i := 0; i < len(code); {
		if !isStart(code[i]) || (i > 0 && (isPart(code[i-1]) || code[i-1] == '.')) {
			sb.WriteByte(code[i])
			i++
			continue
		}
		j := i + 1
		for j < len(code) && isPart(code[j]) {
			j++
		}
		word := code[i:j]
		if r, ok := repl[word]; ok {
			word = r
		}
		sb.WriteString(word)
		i = j
	}
	return sb.String()
}

// registerDataInterface records the data interface instance v and returns
// the chunk standing for it.
func (a *arena) registerDataInterface(v graph.Variable, di *graph.DataInterface, n *graph.Node) chunk.ID {
	if id, inFunction := a.functionParameter(v); inFunction && id != chunk.None {
		return id
	}
	if di == nil {
		a.errorf(diag.FncInterfaceNotFound, n, nil, "Data interface %s has no class %s.", v.Name, v.Type.Name)
		return chunk.None
	}
	name := a.aliases.ResolveAliases(v).Name
	idx := -1
	for i, info := range a.dataInterfaces {
		if info.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		info := DataInterfaceInfo{Name: name, Type: di.Type(), Interface: di, UserPtrIdx: -1}
		if di.PerInstanceDataSize > 0 {
			info.UserPtrIdx = a.numUserPtrs
			a.numUserPtrs++
		}
		idx = len(a.dataInterfaces)
		a.dataInterfaces = append(a.dataInterfaces, info)
	}
	id := a.store.AddSource(sanitizeParam(name), di.Type())
	a.diChunks[id] = idx
	return id
}

// interfaceCall calls a member function of the data interface bound to
// input 0.
func (a *arena) interfaceCall(n *graph.Node, fc *graph.FunctionCall, ins []chunk.ID) []chunk.ID {
	if len(ins) == 0 {
		a.errorf(diag.FncInterfaceNotFound, n, nil, "Data interface function %s has no interface input.", n.Name)
		return nones(len(n.Outputs))
	}
	idx, ok := a.diChunks[ins[0]]
	if !ok {
		a.errorf(diag.FncInterfaceNotFound, n, pinAt(n.Inputs, 0), "Cannot find a data interface for function call %s.", n.Name)
		return nones(len(n.Outputs))
	}
	info := &a.dataInterfaces[idx]

	sig := fc.Signature.Clone()
	sig.Owner = ""
	if !info.Interface.HasFunction(sig) {
		a.errorf(diag.FncInterfaceSig, n, nil, "Function call signature %s does not match any function of data interface %s (%s).", sig.Name, info.Name, info.Interface.Class)
		return nones(len(n.Outputs))
	}
	sig.Owner = info.Name
	sig.Member = true
	have := false
	for _, f := range info.Functions {
		if f.Equal(sig) {
			have = true
			break
		}
	}
	if !have {
		info.Functions = append(info.Functions, sig)
	}
	return a.generateFunctionCall(n, sig, ins)
}

// signatureSymbol is the HLSL name of a function. Instantiations of one
// numeric function share it and overload by parameter type.
func signatureSymbol(sig graph.Signature) string {
	s := sig.Name
	if sig.Owner != "" {
		s += "_" + strings.ReplaceAll(sig.Owner, ".", "")
	} else {
		s += "_Func_"
	}
	return naming.Sanitize(s, true)
}

// signatureText is the HLSL declaration of a function.
func signatureText(sig graph.Signature) string {
	var params []string
	for _, v := range sig.Inputs {
		if v.Type.IsParameterMap() || v.Type.IsDataInterface() {
			continue
		}
		params = append(params, v.Type.HLSLName()+" In_"+sanitizeParam(v.Name))
	}
	for _, v := range sig.Outputs {
		if v.Type.IsParameterMap() || v.Type.IsDataInterface() {
			continue
		}
		params = append(params, "out "+v.Type.HLSLName()+" Out_"+sanitizeParam(v.Name))
	}
	if sig.RequiresContext {
		params = append(params, "inout FSimulationContext Context")
	}
	return "void " + signatureSymbol(sig) + "(" + strings.Join(params, ", ") + ")"
}

// functionDefinitions renders forward declarations followed by the body of
// every generated function.
func (a *arena) functionDefinitions() string {
	var sb strings.Builder
	for _, f := range a.functions {
		sb.WriteString(signatureText(f.sig))
		sb.WriteString(";\n")
	}
	sb.WriteString("\n")
	for _, f := range a.functions {
		if f.body == "" {
			continue
		}
		sb.WriteString(signatureText(f.sig))
		sb.WriteString("\n{\n")
		sb.WriteString(f.body)
		sb.WriteString("}\n\n")
	}
	return sb.String()
}

// dataInterfaceHLSL declares the GPU buffers and member functions of every
// data interface instance.
func (a *arena) dataInterfaceHLSL() string {
	var sb strings.Builder
	for _, info := range a.dataInterfaces {
		if !info.Interface.GPU {
			a.critical(diag.FncInterfaceGPU, fmt.Sprintf("DataInterface %s (%s) cannot run on the GPU.", info.Name, info.Interface.Class))
			continue
		}
		owner := sanitizeParam(info.Name)
		sb.WriteString(info.Interface.BufferHLSL(owner))
		for _, f := range info.Functions {
			body, ok := info.Interface.FunctionHLSL(f.Name, signatureSymbol(f), owner)
			if !ok {
				a.critical(diag.FncInterfaceGPU, fmt.Sprintf("DataInterface %s (%s) has no GPU implementation of %s.", info.Name, info.Interface.Class, f.Name))
				continue
			}
			sb.WriteString(body)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
