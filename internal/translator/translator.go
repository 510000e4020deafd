// Package translator lowers a particle simulation graph into HLSL.
//
// A translation walks the graph backwards from the output node of the
// script's usage, emitting chunks (uniforms, sources, statements) into a
// chunk store. Called modules are compiled once per distinct signature into
// function definitions. When every node has been lowered, the chunks are
// assembled into the final source: parameter map structs, the constant
// buffer, the simulation context, function definitions, the per-instance
// Simulate functions and the SimulateMain entry point.
//
// All state lives in an arena owned by a single Translate call, so
// translations of different scripts can run concurrently.
package translator

import (
	"context"
	"fmt"

	"emberc/internal/chunk"
	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/history"
	"emberc/internal/observ"
	"emberc/internal/preprocess"
)

// Translate compiles s for opts.Target. Problems are reported in
// Results.Diagnostics; HLSL is only filled when no error was reported.
func Translate(ctx context.Context, s *graph.Script, opts Options) *Results {
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil || s.Graph == nil {
		bag := diag.NewBag(defaultMaxDiagnostics)
		diag.ReportCritical(diag.BagReporter{Bag: bag}, diag.GrfMissingNode, diag.Anchor{}, "Cannot find graph node!").Emit()
		return &Results{Diagnostics: bag}
	}

	a := newArena(ctx, s, opts)
	res := &Results{Diagnostics: a.bag}

	phases := observ.NewPhases(a.tracer, a.span, opts.Timings)
	defer func() { res.Timings = phases.Report() }()

	prep := phases.Begin("preprocess")
	g, changed := preprocess.Script(s, a.rep)
	a.root = g
	prep.End(fmt.Sprintf("%d nodes", len(g.Nodes())))

	out, update, ok := a.validate(g)
	if !ok {
		return res
	}

	hist := phases.Begin("histories")
	if !a.selectHistories(g, out, update) {
		hist.End("failed")
		return res
	}
	hist.End(fmt.Sprintf("%d histories", len(a.others)))

	compile := phases.Begin("compile")
	a.compileStages(out, update)
	if s.Usage.IsStandalone() && len(changed) > 0 {
		preprocess.Revert(s, g, changed, a.rep)
	}
	compile.End(fmt.Sprintf("%d chunks", a.store.Len()))

	if a.store.Body() != chunk.ModeBody {
		a.critical(diag.TrnPhaseGuard, fmt.Sprintf("body mode left at %s after translation", a.store.Body()))
	}

	if !a.failed() {
		asm := phases.Begin("assemble")
		hlsl := a.assemble()
		asm.End(fmt.Sprintf("%d bytes", len(hlsl)))
		if !a.failed() {
			res.HLSL = hlsl
		}
	}

	a.fillResults(res)
	res.OK = !a.failed()
	if !res.OK {
		res.HLSL = ""
	}
	a.bag.Sort()
	return res
}

// validate finds the output nodes the script compiles.
func (a *arena) validate(g *graph.Graph) (out, update *graph.Node, ok bool) {
	if g.IsEmpty() {
		if a.usage.IsSystem() {
			a.errorf(diag.GrfEmptyGraph, nil, nil, "Graph contains no nodes! Please add an emitter.")
		} else {
			a.errorf(diag.GrfEmptyGraph, nil, nil, "Graph contains no nodes! Please add an output node.")
		}
		return nil, nil, false
	}

	out = g.FindOutputNode(a.targetUsage(), a.script.UsageID)
	if out == nil {
		a.errorf(diag.GrfMissingOutputNode, nil, nil, "Cannot find output node of type %s!", a.targetUsage())
		return nil, nil, false
	}
	linked := false
	for _, p := range out.Inputs {
		if p.Linked() {
			linked = true
			break
		}
	}
	if !linked {
		a.errorf(diag.GrfNoOutputLinks, out, nil, "Cannot find any connections to output node of type %s!", a.targetUsage())
		return nil, nil, false
	}

	if a.twoPhase() {
		update = g.FindOutputNode(graph.UsageParticleUpdate, 0)
		if update == nil {
			a.errorf(diag.GrfMissingOutputNode, nil, nil, "Cannot find output node of type %s!", graph.UsageParticleUpdate)
			return nil, nil, false
		}
	}
	return out, update, true
}

// selectHistories traces every output node of g and keeps the ones this
// translation compiles, in stage order.
func (a *arena) selectHistories(g *graph.Graph, out, update *graph.Node) bool {
	targets := []*graph.Node{out}
	if update != nil {
		targets = append(targets, update)
	}
	a.histories = make([]*histState, len(targets))

	for _, h := range history.Build(a.script, g) {
		if h.OutputNode != nil && !a.usage.Accepts(h.OutputUsage()) {
			continue
		}
		a.others = append(a.others, h)
		for i, t := range targets {
			if h.OutputNode != t {
				continue
			}
			set := make([]chunk.ID, len(h.Variables))
			for j := range set {
				set[j] = chunk.None
			}
			a.histories[i] = &histState{h: h, set: set}
		}
	}

	for i, hs := range a.histories {
		if hs == nil {
			a.errorf(diag.GrfMissingOutputNode, targets[i], nil, "Cannot trace the parameter map of output node %s!", targets[i].Name)
			return false
		}
		for _, c := range hs.h.Collections {
			a.addCollection(c)
		}
	}
	return true
}

// compileStages lowers the selected output nodes into body chunks.
func (a *arena) compileStages(out, update *graph.Node) {
	defer func() { a.curMaps = nil }()
	if a.twoPhase() {
		a.compileSpawnPhase(out)
		a.compileUpdatePhase(update)
		return
	}

	a.enterStatScope(a.script.FullName(), a.script.FullName())
	a.curMaps = []int{0}
	a.compileNode(out)
	a.compileDataSetWrites(a.root)
	if (a.usage.IsParticleSpawn() && !a.interpolated()) || a.usage.IsSystemSpawn() {
		a.store.Raw("HandleMissingDefaultValues(Context);")
	}
	a.exitStatScope()
}

func (a *arena) compileSpawnPhase(out *graph.Node) {
	defer a.store.EnterBody(chunk.ModeSpawnBody)()

	a.enterStatScope(a.script.FullName(), a.script.FullName())
	if a.interpolated() {
		a.store.Raw("//Begin Interpolated Spawn Script!")
	} else {
		a.store.Raw("//Begin Spawn Script!")
	}
	a.insideSpawn = true
	a.curMaps = []int{0}
	a.compileNode(out)
	a.insideSpawn = false
	a.store.Raw("//End Spawn Script!\n\n")

	if a.interpolated() {
		a.store.Raw("//Begin Transfer of Attributes!")
		a.store.Statement("Context.MapUpdate.Particles = Context.MapSpawn.Particles")
		a.store.Raw("//End Transfer of Attributes!\n\n")
		a.store.Raw("HandleMissingDefaultValues(Context);")
	}
	a.exitStatScope()
}

func (a *arena) compileUpdatePhase(update *graph.Node) {
	defer a.store.EnterBody(chunk.ModeUpdateBody)()

	// Locals of the spawn body are not visible in the update body.
	a.rootPins = make(map[*graph.Pin]chunk.ID)
	a.enterStatScope(a.script.FullName(), a.script.FullName())
	a.store.Raw("//Begin Update Script!")
	a.curMaps = []int{1}
	a.compileNode(update)
	a.compileDataSetWrites(a.root)
	a.store.Raw("//End Update Script!\n\n")
	a.exitStatScope()
}

// compileDataSetWrites lowers the data set writes of g. They have no
// outputs, so nothing downstream reaches them.
func (a *arena) compileDataSetWrites(g *graph.Graph) {
	for _, w := range g.FindWriteDataSetNodes() {
		a.compileNode(w)
	}
}

// fillResults copies the side tables of the arena into res.
func (a *arena) fillResults(res *Results) {
	for _, f := range a.functions {
		res.Functions = append(res.Functions, f.sig)
	}
	res.DataInterfaces = append(res.DataInterfaces, a.dataInterfaces...)
	res.NumUserPtrs = a.numUserPtrs
	res.Parameters = append(res.Parameters, a.parameters...)
	res.Collections = append(res.Collections, a.collections...)
	res.StatScopes = append(res.StatScopes, a.statScopes...)
	for _, ds := range a.reads {
		res.DataSetReads = append(res.DataSetReads, DataSetInfo{ID: ds.id, Vars: ds.vars()})
	}
	for _, ds := range a.writes {
		res.DataSetWrites = append(res.DataSetWrites, DataSetInfo{ID: ds.id, Vars: ds.vars()})
	}
	res.Attributes = append(res.Attributes, a.attributes...)
	res.ReadsAttributeData = a.readsAttrs
}
