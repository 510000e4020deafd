package translator

import (
	"fmt"
	"strings"

	"emberc/internal/chunk"
	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/naming"
	"emberc/internal/types"
)

func sanitizeParam(name string) string { return naming.Sanitize(name, true) }

// functionParameter binds v to an argument of the open function. inFunction
// is false at the top level; id is None when the call site has no argument
// named v.
func (a *arena) functionParameter(v graph.Variable) (id chunk.ID, inFunction bool) {
	f := a.frame()
	if f == nil {
		return chunk.None, false
	}
	for i, in := range f.sig.Inputs {
		if in.Same(v) && i < len(f.inputs) {
			return f.inputs[i], true
		}
	}
	return chunk.None, true
}

// parameter resolves a named value that is not produced by the graph:
// a function argument, the parameter map, or an external constant.
func (a *arena) parameter(v graph.Variable, n *graph.Node) chunk.ID {
	if id, inFunction := a.functionParameter(v); inFunction && id != chunk.None {
		return id
	}
	if v.Type.IsParameterMap() {
		return a.mapSource()
	}
	if !a.defineStruct(v.Type, v.Name, n) {
		return chunk.None
	}
	if graph.IsExternalConstantNamespace(v, a.usage) {
		return a.registerExternal(v, n)
	}
	if graph.IsRapidIterationParameter(v) {
		return a.rapidConstant(v, v, nil, n)
	}
	moved := graph.MoveToExternalConstantNamespace(v, a.usage)
	if graph.IsExternalConstantNamespace(moved, a.usage) {
		return a.registerExternal(moved, n)
	}
	a.errorf(diag.NspUnresolved, n, nil, "Unable to resolve parameter, Type: %s Variable: %s", v.Type.DisplayName(), v.Name)
	return chunk.None
}

// mapSource is the parameter map instance being compiled.
func (a *arena) mapSource() chunk.ID {
	return a.store.AddSource(a.instanceName(), types.ParameterMap)
}

// mapInstances lists every context member holding a parameter map.
func (a *arena) mapInstances() []string {
	if a.interpolated() {
		return []string{"Context.MapSpawn", "Context.MapUpdate"}
	}
	return []string{"Context.Map"}
}

// isBulk reports engine and user values of system scripts, which run many
// instances per invocation and read them per instance.
func (a *arena) isBulk(v graph.Variable) bool {
	if !a.usage.IsSystem() || strings.Contains(a.script.Name, "Solo") || v.Type.IsDataInterface() {
		return false
	}
	return graph.InNamespace(v.Name, graph.NamespaceEngine) || graph.InNamespace(v.Name, graph.NamespaceUser)
}

// registerExternal binds an engine, user, system, emitter or collection
// value. Each is declared once in the constant buffer and copied into the
// parameter map before the simulation runs.
func (a *arena) registerExternal(v graph.Variable, n *graph.Node) chunk.ID {
	if !graph.IsKnownEngineConstant(v) {
		a.errorf(diag.NspUnknownConstant, n, nil, "Unknown System constant, Type: %s Variable: %s", v.Type.DisplayName(), v.Name)
		return chunk.None
	}
	if graph.InNamespace(v.Name, graph.NamespaceCollection) {
		c := a.script.Collection(v.Name)
		if c == nil || !c.Find(v) {
			a.errorf(diag.NspCollectionMissing, n, nil, "Parameter %s was not found in Parameter Collection %s", v.Name, collectionName(c, v))
			return chunk.None
		}
		a.addCollection(c)
	}
	if a.usage.IsParticleSpawn() && !a.twoPhase() && (v.Same(graph.EngineDeltaTime) || v.Same(graph.EngineInverseDeltaTime)) {
		a.warnf(diag.NspSpawnDeltaTime, n, nil, "Cannot call system variable %s in a spawn script! It is invalid.", v.Name)
		return a.constant(v.WithValue(graph.Value{0}), n)
	}
	if a.isBulk(v) {
		a.bulkVars = appendUniqueVar(a.bulkVars, v)
		return a.store.AddSource(a.member(v.Name), v.Type)
	}

	a.addParameter(v)
	a.definedSystem.add(v.Name, v)
	id, ok := a.systemUniforms[v.Name]
	if !ok {
		id = a.store.AddUniform(sanitizeParam(v.Name), v.Type)
		a.systemUniforms[v.Name] = id
	}
	if a.interpolated() && a.insideSpawn && shouldInterpolate(v) {
		return a.store.AddSource("Context.MapSpawn."+naming.Sanitize(v.Name, false), v.Type)
	}
	return id
}

// collectionName names the collection v was looked up in, falling back to
// the namespace part of v when the script declares no such collection.
func collectionName(c *graph.Collection, v graph.Variable) string {
	if c != nil {
		return c.Name
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(v.Name, graph.NamespaceCollection), ".")
	return name
}

// shouldInterpolate reports external values lerped between the previous
// and current frame for interpolated spawning. Only float values are.
func shouldInterpolate(v graph.Variable) bool {
	if v.Type == types.Matrix4 || !v.Type.IsFloatPrimitive() || graph.IsRapidIterationParameter(v) {
		return false
	}
	for _, skip := range []graph.Variable{
		graph.EngineDeltaTime,
		graph.EngineInverseDeltaTime,
		graph.EngineExecutionCount,
		graph.EmitterSpawnRate,
		graph.EmitterSpawnInterval,
		graph.EmitterInterpSpawnStartDt,
	} {
		if v.Same(skip) {
			return false
		}
	}
	return true
}

// attribute is an attribute input node. Spawn scripts see what this script
// wrote so far or the default; other scripts read the instance data.
func (a *arena) attribute(v graph.Variable, n *graph.Node) chunk.ID {
	ns := graph.BasicAttributeToNamespaced(v)
	if !a.defineStruct(ns.Type, ns.Name, n) {
		return chunk.None
	}
	if a.spawnContext() {
		if id, ok := a.attrChunks[ns.Name]; ok {
			return id
		}
		return a.constant(v, n)
	}
	return a.readInstance(ns)
}

func (a *arena) readInstance(v graph.Variable) chunk.ID {
	a.instanceRead.add(v, chunk.None)
	a.readsAttrs = true
	return a.store.AddSource(a.member(v.Name), v.Type)
}

// spawnContext reports code running before any instance data exists.
func (a *arena) spawnContext() bool {
	return a.insideSpawn || (!a.twoPhase() && a.usage.IsSpawn())
}

// constant renders the literal of v as a local.
func (a *arena) constant(v graph.Variable, n *graph.Node) chunk.ID {
	s, ok := a.constantString(v, n)
	if !ok {
		return chunk.None
	}
	return a.store.Declare(a.local("Constant"), s, v.Type)
}

func (a *arena) constantString(v graph.Variable, n *graph.Node) (string, bool) {
	t := v.Type
	switch {
	case t.IsParameterMap(), t.IsDataInterface():
		return "", false
	case t.IsStruct():
		a.errorf(diag.TypStructConstant, n, nil, "Constants of struct types are currently unsupported. Variable: %s", v.Name)
		return "", false
	case !v.HasValue():
		return t.HLSLName() + t.HLSLDefault(), true
	}

	val := v.Value
	switch t.Kind {
	case types.KindBool:
		b, ok := val.ExplicitBool()
		if !ok {
			a.errorf(diag.TypBoolConstant, n, nil, "Boolean constant %s is not set to explicit True or False. Defaulting to False.", v.Name)
		}
		if b {
			return "true", true
		}
		return "false", true
	case types.KindInt, types.KindEnum:
		return fmt.Sprintf("%d", int64(val[0])), true
	case types.KindFloat:
		return formatFloat(val[0]), true
	}
	if len(val) != t.ComponentCount() {
		return t.HLSLName() + t.HLSLDefault(), true
	}
	parts := make([]string, len(val))
	for i, f := range val {
		parts[i] = formatFloat(f)
	}
	return t.HLSLName() + "(" + strings.Join(parts, ",") + ")", true
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// mapSet writes every linked or literal input into the active map.
func (a *arena) mapSet(n *graph.Node) []chunk.ID {
	ins := a.compileInputs(n)
	if len(ins) == 0 {
		return []chunk.ID{chunk.None}
	}
	if !n.Enabled() {
		return []chunk.ID{ins[0]}
	}
	for i := 1; i < len(n.Inputs); i++ {
		p := n.Inputs[i]
		v := a.aliases.ResolveAliases(graph.Var(p.Type, p.Name))
		if graph.IsExternalConstantNamespace(v, a.usage) {
			a.errorf(diag.NspSetExternal, n, p, "Cannot write to %s, it is an external constant of this script.", v.Name)
			continue
		}
		if ins[i] == chunk.None || v.Type.IsDataInterface() {
			continue
		}
		if !a.defineStruct(v.Type, v.Name, n) {
			continue
		}
		a.store.AddBody(a.member(v.Name), "{0}", v.Type, []chunk.ID{ins[i]}, false, true)
		src := a.store.AddSource(a.member(v.Name), v.Type)
		for _, mi := range a.curMaps {
			hs := a.histories[mi]
			if idx := hs.h.FindVariable(v); idx >= 0 {
				hs.set[idx] = src
			}
		}
	}
	return []chunk.ID{ins[0]}
}

// mapGet reads variables from the active map. The map input is compiled
// first so earlier writes are recorded.
func (a *arena) mapGet(n *graph.Node) []chunk.ID {
	outs := nones(len(n.Outputs))
	if len(n.Inputs) == 0 {
		return outs
	}
	a.compilePin(n.Inputs[0])
	if !n.Enabled() {
		return outs
	}
	for i, out := range n.Outputs {
		orig := graph.Var(out.Type, out.Name)
		v := a.aliases.ResolveAliases(orig)
		outs[i] = a.readMapVariable(v, orig, n.DefaultPin(out), n)
	}
	return outs
}

func (a *arena) readMapVariable(v, orig graph.Variable, def *graph.Pin, n *graph.Node) chunk.ID {
	if !a.defineStruct(v.Type, v.Name, n) {
		return chunk.None
	}
	if v.Type.IsParameterMap() {
		return a.mapSource()
	}
	if last := a.lastSet(v); last != chunk.None {
		return last
	}
	switch {
	case v.Type.IsDataInterface():
		return a.registerDataInterface(v, a.script.DataInterfaceClass(v.Type.Name), n)
	case graph.IsExternalConstantNamespace(v, a.usage):
		return a.parameter(v, n)
	case graph.IsInitialValue(v):
		src := graph.SourceForInitialValue(v)
		if !a.spawnContext() {
			a.warnf(diag.NspInitialSource, n, def, "Initial value %s is only tracked by spawn scripts, reading %s instead.", v.Name, src.Name)
			return a.readInitialSource(src, def, n)
		}
		if !a.tracedAnywhere(src) {
			a.errorf(diag.NspInitialSource, n, def, "Variable %s is used, but its source variable %s is not set!", v.Name, src.Name)
			return chunk.None
		}
		id := a.readInitialSource(src, def, n)
		a.recordSet(v, id)
		return id
	}
	if id, ok := a.rapidIteration(v, orig, def, n); ok {
		return id
	}
	if a.isPerInstance(v) {
		return a.readAttribute(v, def, n)
	}
	return a.defaultValue(v, def, n)
}

func (a *arena) readInitialSource(src graph.Variable, def *graph.Pin, n *graph.Node) chunk.ID {
	prev := a.initialSource
	a.initialSource = true
	defer func() { a.initialSource = prev }()
	return a.readMapVariable(src, src, def, n)
}

// lastSet is the chunk of the latest write of v in the active maps.
func (a *arena) lastSet(v graph.Variable) chunk.ID {
	for _, mi := range a.curMaps {
		hs := a.histories[mi]
		if idx := hs.h.FindVariable(v); idx >= 0 && hs.set[idx] != chunk.None {
			return hs.set[idx]
		}
	}
	return chunk.None
}

func (a *arena) isPerInstance(v graph.Variable) bool {
	if len(a.curMaps) == 0 {
		return false
	}
	return a.histories[a.curMaps[0]].h.IsPrimaryDataSetOutput(v, a.usage)
}

func (a *arena) readAttribute(v graph.Variable, def *graph.Pin, n *graph.Node) chunk.ID {
	if !a.spawnContext() {
		return a.readInstance(v)
	}
	if a.usage.IsParticleSpawn() && !a.interpolated() && !a.gpu && !a.writtenAnywhere(v) {
		a.errorf(diag.NspSpawnAttributeRead, n, def, "Cannot read attribute in a spawn script as it's value is not yet initialized. Attribute: %s", v.Name)
		return chunk.None
	}
	return a.defaultValue(v, def, n)
}

// writtenAnywhere reports whether any traced stage or output node writes v.
func (a *arena) writtenAnywhere(v graph.Variable) bool {
	if _, ok := a.definedAttrs.get(v.Name); ok {
		return true
	}
	for _, h := range a.others {
		if idx := h.FindVariable(v); idx >= 0 && len(h.Writes[idx]) > 0 {
			return true
		}
	}
	return false
}

// defaultValue compiles the default pin of v once. Later reads of v in the
// same maps get the recorded chunk.
func (a *arena) defaultValue(v graph.Variable, def *graph.Pin, n *graph.Node) chunk.ID {
	if def == nil {
		return a.constant(v, n)
	}
	id := a.compilePin(def)
	if id == chunk.None || v.Type.IsDataInterface() || len(a.curMaps) == 0 {
		return id
	}
	if !a.recordSet(v, id) && !a.initialSource {
		a.errorf(diag.NspDefaultNotTraced, n, def, "Default found for %s, but not found in ParameterMap traversal", v.Name)
	}
	return id
}

// recordSet makes id the latest value of v in every active map that
// traces v.
func (a *arena) recordSet(v graph.Variable, id chunk.ID) bool {
	found := false
	for _, mi := range a.curMaps {
		hs := a.histories[mi]
		if idx := hs.h.FindVariable(v); idx >= 0 {
			hs.set[idx] = id
			found = true
		}
	}
	return found
}

// tracedAnywhere reports whether any traced stage reads or writes v.
func (a *arena) tracedAnywhere(v graph.Variable) bool {
	for _, h := range a.others {
		if h.FindVariableByName(v.Name) >= 0 {
			return true
		}
	}
	return false
}

// rapidIteration redirects unlinked module inputs of top level calls to a
// per-emitter constant.
func (a *arena) rapidIteration(v, orig graph.Variable, def *graph.Pin, n *graph.Node) (chunk.ID, bool) {
	if graph.IsRapidIterationParameter(v) {
		return a.rapidConstant(v, v, def, n), true
	}
	if !graph.IsAliasedModuleParameter(orig) || !a.aliases.InTopLevelFunctionCall() {
		return chunk.None, false
	}
	if def != nil && def.Linked() {
		return chunk.None, false
	}
	t := v.Type
	if t.Kind == types.KindBool || !t.IsBuiltin() || t.IsEnum() {
		return chunk.None, false
	}
	return a.rapidConstant(v, a.rapidIterationVar(v), def, n), true
}

func (a *arena) rapidIterationVar(v graph.Variable) graph.Variable {
	emitter := a.aliases.EmitterAlias()
	if emitter == "" && !a.usage.IsSystem() {
		emitter = a.script.EmitterName
	}
	return graph.RapidIterationName(v, emitter)
}

// rapidConstant is a uniform in rapid iteration mode and the baked
// override (or the default of v) otherwise.
func (a *arena) rapidConstant(v, rv graph.Variable, def *graph.Pin, n *graph.Node) chunk.ID {
	if def != nil && !rv.HasValue() {
		rv.Value = def.Variable().Value
	}
	if a.opts.RapidIteration {
		a.addParameter(rv)
		return a.store.AddUniform(sanitizeParam(rv.Name), rv.Type)
	}
	if o, ok := a.script.Override(rv); ok {
		return a.constant(o, n)
	}
	if def == nil {
		return a.constant(rv, n)
	}
	return a.defaultValue(v, def, n)
}
