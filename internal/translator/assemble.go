package translator

import (
	"fmt"
	"sort"
	"strings"

	"emberc/internal/chunk"
	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/naming"
)

// interpolationTiming are the values InterpolateParameters derives the
// spawn time of each particle from.
var interpolationTiming = []graph.Variable{
	graph.EngineDeltaTime,
	graph.EngineInverseDeltaTime,
	graph.EngineExecutionCount,
	graph.EmitterSpawnRate,
	graph.EmitterSpawnInterval,
	graph.EmitterInterpSpawnStartDt,
}

// assemble renders the compiled chunks into the final HLSL source.
func (a *arena) assemble() string {
	if a.interpolated() {
		for _, v := range interpolationTiming {
			a.registerExternal(v, nil)
		}
	}

	mapVars := a.paramMapVariables()
	paramMap := ""
	if len(mapVars) > 0 {
		paramMap = a.paramMapDefinitions(mapVars)
	}
	layout := a.attributeLayout()

	var sb strings.Builder
	for _, d := range a.structs {
		sb.WriteString(a.types.Declaration(d))
	}
	sb.WriteString(a.constantBuffer())
	sb.WriteString(a.dataSetDeclarations())
	sb.WriteString(paramMap)
	sb.WriteString(a.contextStruct(len(mapVars) > 0))

	if a.gpu {
		sb.WriteString(a.dataInterfaceHLSL())
	} else {
		for _, info := range a.dataInterfaces {
			for _, f := range info.Functions {
				sb.WriteString(signatureText(f) + ";\n")
			}
		}
	}
	sb.WriteString(a.functionDefinitions())

	if a.interpolated() {
		sb.WriteString(a.interpolationFunction())
	}
	if a.needsMissingDefaults() {
		sb.WriteString(a.missingDefaultsFunction())
	}
	sb.WriteString(a.readDataSetsFunction())
	sb.WriteString(a.writeDataSetsFunction())
	sb.WriteString(a.simulateFunctions())
	sb.WriteString(a.mainFunction(layout))
	if a.gpu {
		sb.WriteString(a.copyInstanceFunction(layout))
	}

	a.attributes = a.attributes[:0]
	for _, v := range layout {
		a.attributes = append(a.attributes, graph.NamespacedToBasicAttribute(v))
	}
	return sb.String()
}

// attributeLayout is the register layout of the primary data set: every
// attribute read or written, sorted by name.
func (a *arena) attributeLayout() []graph.Variable {
	var vars []graph.Variable
	for _, v := range a.instanceRead.vars {
		if !v.Type.IsDataInterface() {
			vars = appendUniqueVar(vars, v)
		}
	}
	for _, v := range a.instanceWrite.vars {
		if !v.Type.IsParameterMap() {
			vars = appendUniqueVar(vars, v)
			continue
		}
		for _, hs := range a.histories {
			for _, hv := range hs.h.Variables {
				if hs.h.IsPrimaryDataSetOutput(hv, a.usage) && !hv.Type.IsParameterMap() {
					vars = appendUniqueVar(vars, hv)
				}
			}
		}
	}
	sort.SliceStable(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

func (a *arena) constantBuffer() string {
	var sb strings.Builder
	sb.WriteString("cbuffer FEmitterParameters\n{\n")
	for _, id := range a.store.ByMode(chunk.ModeUniform) {
		code, err := a.printer.Code(id)
		if err != nil {
			a.critical(diag.TrnUndefinedChunk, err.Error())
			continue
		}
		sb.WriteString("\t" + code)
		if a.interpolated() {
			c, _ := a.store.At(id)
			fmt.Fprintf(&sb, "\t%s PREV__%s;\n", c.Type.HLSLName(), c.Symbol)
		}
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

func (a *arena) contextStruct(withMap bool) string {
	var sb strings.Builder
	sb.WriteString("struct FSimulationContext\n{\n")
	if withMap {
		for _, inst := range a.mapInstances() {
			fmt.Fprintf(&sb, "\t%s %s;\n", paramMapStruct, strings.TrimPrefix(inst, "Context."))
		}
	}
	for _, ds := range a.reads {
		fmt.Fprintf(&sb, "\tF%sDataSet %sRead;\n", ds.id.Name, ds.id.Name)
	}
	for _, ds := range a.writes {
		fmt.Fprintf(&sb, "\tbool %sWrite_Valid;\n", ds.id.Name)
		fmt.Fprintf(&sb, "\tF%sDataSet %sWrite;\n", ds.id.Name, ds.id.Name)
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

// interpolationFunction lerps external values between the previous and
// the current frame at the spawn time of the particle.
func (a *arena) interpolationFunction() string {
	var sb strings.Builder
	sb.WriteString("void InterpolateParameters(inout FSimulationContext Context)\n{\n")
	sb.WriteString("\tint InterpSpawn_Index = ExecIndex();\n")
	sb.WriteString("\tfloat InterpSpawn_SpawnTime = Emitter_SpawnInterval * InterpSpawn_Index + Emitter_InterpSpawnStartDt;\n")
	sb.WriteString("\tfloat InterpSpawn_UpdateTime = Engine_DeltaTime - InterpSpawn_SpawnTime;\n")
	sb.WriteString("\tfloat InterpSpawn_InvSpawnTime = 1.0 / InterpSpawn_SpawnTime;\n")
	sb.WriteString("\tfloat InterpSpawn_InvUpdateTime = 1.0 / InterpSpawn_UpdateTime;\n")
	sb.WriteString("\tfloat SpawnInterp = InterpSpawn_SpawnTime * Engine_InverseDeltaTime;\n")
	for _, v := range a.definedSystem.values() {
		if !shouldInterpolate(v) {
			continue
		}
		sym := sanitizeParam(v.Name)
		fmt.Fprintf(&sb, "\tContext.MapSpawn.%s = lerp(PREV__%s, %s, SpawnInterp);\n", naming.Sanitize(v.Name, false), sym, sym)
	}
	sb.WriteString("\tContext.MapSpawn.Engine.DeltaTime = 0.0f;\n")
	sb.WriteString("\tContext.MapSpawn.Engine.InverseDeltaTime = 0.0f;\n")
	sb.WriteString("\tContext.MapUpdate.Engine.DeltaTime = InterpSpawn_UpdateTime;\n")
	sb.WriteString("\tContext.MapUpdate.Engine.InverseDeltaTime = InterpSpawn_InvUpdateTime;\n")
	sb.WriteString("}\n\n")
	return sb.String()
}

// simulateFunctions renders the compiled bodies. Two phase scripts get one
// function per phase.
func (a *arena) simulateFunctions() string {
	var sb strings.Builder
	render := func(name string, mode chunk.Mode) {
		fmt.Fprintf(&sb, "void %s(inout FSimulationContext Context)\n{\n", name)
		for _, id := range a.store.ByMode(mode) {
			code, err := a.printer.Code(id)
			if err != nil && !a.failed() {
				a.critical(diag.TrnUndefinedChunk, err.Error())
			}
			sb.WriteString(code)
		}
		sb.WriteString("}\n\n")
	}
	if !a.twoPhase() {
		render("Simulate", chunk.ModeBody)
		return sb.String()
	}
	render("SimulateSpawn", chunk.ModeSpawnBody)
	render("SimulateUpdate", chunk.ModeUpdateBody)
	if !a.gpu {
		sb.WriteString("void Simulate(inout FSimulationContext Context)\n{\n")
		sb.WriteString("\tSimulateSpawn(Context);\n\tSimulateUpdate(Context);\n}\n\n")
	}
	return sb.String()
}

// mainFunction renders SimulateMain: load the instance, run the script,
// store the instance.
func (a *arena) mainFunction(layout []graph.Variable) string {
	var sb strings.Builder
	if a.gpu {
		sb.WriteString("void SimulateMain(in int InstanceIdx, in int InEventIndex, in int Phase)\n{\n")
	} else {
		sb.WriteString("void SimulateMain()\n{\n")
	}
	mainScope := -1
	if a.opts.StatScopes {
		full := a.script.FullName() + "_Main"
		mainScope = a.statScopeIndex(StatScope{FullName: full, FriendlyName: "Main"})
		fmt.Fprintf(&sb, "\tEnterStatScope(%d /**%s*/);\n", mainScope, full)
	}
	sb.WriteString("\n\tFSimulationContext Context = (FSimulationContext)0;\n")

	a.writeInstanceReads(&sb, layout)
	a.writeBulkReads(&sb)

	for _, v := range a.definedSystem.values() {
		for _, inst := range a.mapInstances() {
			a.addPreSimulate(fmt.Sprintf("%s.%s = %s;", inst, naming.Sanitize(v.Name, false), sanitizeParam(v.Name)))
		}
	}
	for _, line := range a.preSimulate {
		sb.WriteString("\t" + line + "\n")
	}

	switch {
	case a.gpu && a.usage.IsParticleEvent():
		sb.WriteString("\tfor (int EventIdx = 0; EventIdx < NumEventsPerParticle; EventIdx++)\n\t{\n")
		sb.WriteString("\t\tReadDataSets(Context, InEventIndex * NumEventsPerParticle + EventIdx);\n")
		sb.WriteString("\t\tSimulate(Context);\n\t}\n")
	default:
		sb.WriteString("\tReadDataSets(Context);\n")
		if a.interpolated() {
			sb.WriteString("\tInterpolateParameters(Context);\n")
		}
		if a.gpu && a.twoPhase() {
			sb.WriteString("\tif (Phase == 0)\n\t{\n\t\tSimulateSpawn(Context);\n\t}\n")
			sb.WriteString("\telse\n\t{\n\t\tSimulateUpdate(Context);\n\t}\n")
		} else {
			sb.WriteString("\tSimulate(Context);\n")
		}
	}
	sb.WriteString("\tWriteDataSets(Context);\n")

	a.writeInstanceWrites(&sb, layout)

	if mainScope >= 0 {
		fmt.Fprintf(&sb, "\tExitStatScope(/**%s*/);\n", a.statScopes[mainScope].FullName)
	}
	sb.WriteString("}\n\n")
	return sb.String()
}

// outputInstance is the map instance whose values are stored.
func (a *arena) outputInstance() string {
	if a.interpolated() {
		return "Context.MapUpdate"
	}
	return "Context.Map"
}

// writeInstanceReads loads the primary data set. Spawn scripts have no
// instance yet and start from register defaults.
func (a *arena) writeInstanceReads(sb *strings.Builder, layout []graph.Variable) {
	if len(layout) > 0 {
		switch {
		case a.gpu && a.twoPhase():
			sb.WriteString("\tif (Phase == 0)\n\t{\n")
			a.spawnDefaults(sb, layout, "\t\t")
			sb.WriteString("\t}\n\telse\n\t{\n")
			a.loadInstance(sb, layout, "\t\t")
			sb.WriteString("\t}\n")
		case a.usage.IsSpawn():
			a.spawnDefaults(sb, layout, "\t")
		default:
			a.loadInstance(sb, layout, "\t")
		}
	}
	if a.gpu {
		fmt.Fprintf(sb, "\t%s.DataInstance.Alive = true;\n", a.outputInstance())
	}
}

func (a *arena) spawnDefaults(sb *strings.Builder, layout []graph.Variable, indent string) {
	inst := a.outputInstance()
	if a.interpolated() {
		inst = "Context.MapSpawn"
	}
	for vi, regs := range a.registers(layout) {
		field := naming.Sanitize(layout[vi].Name, false)
		for _, r := range regs {
			fmt.Fprintf(sb, "%s%s.%s%s = %s;\n", indent, inst, field, r.suffix, r.base.Default())
		}
	}
}

func (a *arena) loadInstance(sb *strings.Builder, layout []graph.Variable, indent string) {
	index := ""
	if a.gpu {
		index = ", InstanceIdx"
	}
	inst := a.outputInstance()
	for vi, regs := range a.registers(layout) {
		field := naming.Sanitize(layout[vi].Name, false)
		for _, r := range regs {
			fmt.Fprintf(sb, "%s%s.%s%s = InputData%s(0, %d%s);\n", indent, inst, field, r.suffix, r.base, r.index, index)
		}
	}
}

// writeBulkReads loads engine and user values that system scripts read
// per instance.
func (a *arena) writeBulkReads(sb *strings.Builder) {
	if len(a.bulkVars) == 0 {
		return
	}
	vars := append([]graph.Variable(nil), a.bulkVars...)
	sort.SliceStable(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	index := ""
	if a.gpu {
		index = ", InstanceIdx"
	}
	for vi, regs := range a.registers(vars) {
		field := naming.Sanitize(vars[vi].Name, false)
		for _, r := range regs {
			fmt.Fprintf(sb, "\tContext.Map.%s%s = InputData%s(1, %d%s);\n", field, r.suffix, r.base, r.index, index)
		}
	}
}

// writeInstanceWrites stores the primary data set. On the GPU dead
// instances are dropped through DataInstance.Alive.
func (a *arena) writeInstanceWrites(sb *strings.Builder, layout []graph.Variable) {
	if len(layout) == 0 {
		return
	}
	inst := a.outputInstance()
	if a.gpu {
		fmt.Fprintf(sb, "\tint TmpWriteIndex = AcquireIndex(0, %s.DataInstance.Alive);\n", inst)
		sb.WriteString("\tif(TmpWriteIndex>=0)\n\t{\n")
	} else {
		sb.WriteString("\tint TmpWriteIndex = ExecIndex();\n\t{\n")
	}
	for vi, regs := range a.registers(layout) {
		field := naming.Sanitize(layout[vi].Name, false)
		for _, r := range regs {
			fmt.Fprintf(sb, "\t\tOutputData%s(0, %d, TmpWriteIndex, %s.%s%s);\n", r.base, r.index, inst, field, r.suffix)
		}
	}
	sb.WriteString("\t}\n")
}

// copyInstanceFunction copies an instance unchanged on the GPU, used when
// the simulation of a particle is skipped.
func (a *arena) copyInstanceFunction(layout []graph.Variable) string {
	var sb strings.Builder
	sb.WriteString("void CopyInstance(in int InstanceIdx)\n{\n")
	if len(layout) > 0 {
		sb.WriteString("\tFSimulationContext Context = (FSimulationContext)0;\n")
		a.loadInstance(&sb, layout, "\t")
		sb.WriteString("\tint TmpWriteIndex = AcquireIndex(0, true);\n")
		sb.WriteString("\tif(TmpWriteIndex>=0)\n\t{\n")
		inst := a.outputInstance()
		for vi, regs := range a.registers(layout) {
			field := naming.Sanitize(layout[vi].Name, false)
			for _, r := range regs {
				fmt.Fprintf(&sb, "\t\tOutputData%s(0, %d, TmpWriteIndex, %s.%s%s);\n", r.base, r.index, inst, field, r.suffix)
			}
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
