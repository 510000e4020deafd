package history

import (
	"testing"

	"emberc/internal/graph"
	"emberc/internal/types"
)

// gravityModule reads Module.Strength and writes Particles.Velocity.
func gravityModule(t *testing.T) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Gravity")
	in := b.MapInput("Map")
	get := b.Get(graph.Var(types.Float, "Module.Strength").WithValue(graph.Value{9.8}))
	set := b.Set(graph.Var(types.Vec3, "Particles.Velocity"))
	out := b.Output(graph.UsageModule, graph.Var(types.ParameterMap, "Map"))
	conv := b.Op("Multiply")
	b.LinkMap(in, get).LinkMap(in, set).
		Link(get, "Module.Strength", conv, "A").
		Link(conv, "Result", set, "Particles.Velocity").
		LinkMap(set, out)
	g, err := b.Graph()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return &graph.Script{Name: "Gravity", Usage: graph.UsageModule, Graph: g}
}

func TestTraceRecordsReadsWritesInOrder(t *testing.T) {
	b := graph.NewBuilder("Spawn")
	in := b.MapInput("Map")
	set := b.Set(graph.Var(types.Float, "Particles.Lifetime"))
	get := b.Get(graph.Var(types.Float, "Particles.Lifetime"), graph.Var(types.Float, "NPC.Wind.Speed"))
	set2 := b.Set(graph.Var(types.Float, "Particles.Age"))
	out := b.Output(graph.UsageParticleSpawn, graph.Var(types.ParameterMap, "Map"))
	b.LinkMap(in, set).LinkMap(set, get).LinkMap(set, set2).
		Link(get, "Particles.Lifetime", set2, "Particles.Age").
		LinkMap(set2, out)
	s := &graph.Script{
		Name: "Spawn", Usage: graph.UsageParticleSpawn, Graph: b.MustGraph(),
		Collections: []*graph.Collection{{Name: "Wind", Vars: []graph.Variable{graph.Var(types.Float, "Speed")}}},
	}

	hs := Build(s, s.Graph)
	if len(hs) != 1 {
		t.Fatalf("expected 1 history, got %d", len(hs))
	}
	h := hs[0]
	want := []string{"Particles.Lifetime", "NPC.Wind.Speed", "Particles.Age"}
	if len(h.Variables) != len(want) {
		t.Fatalf("variables = %v", h.Variables)
	}
	for i, name := range want {
		if h.Variables[i].Name != name {
			t.Fatalf("variable %d = %s, want %s", i, h.Variables[i].Name, name)
		}
	}
	if len(h.Writes[0]) != 1 || len(h.Reads[0]) != 1 {
		t.Fatalf("lifetime touches: writes=%d reads=%d", len(h.Writes[0]), len(h.Reads[0]))
	}
	if h.DefaultPin(0) == nil || h.DefaultPin(2) != nil {
		t.Fatalf("default pins not recorded as expected")
	}
	if !h.HasOrigin(graph.Var(types.ParameterMap, "Map")) {
		t.Fatalf("map input not recorded as origin")
	}
	if !h.IsCollectionParameter(graph.Var(types.Float, "NPC.Wind.Speed")) {
		t.Fatalf("collection parameter not found")
	}
	if !h.IsPrimaryDataSetOutput(h.Variables[2], graph.UsageParticleSpawn) || h.IsPrimaryDataSetOutput(h.Variables[1], graph.UsageParticleSpawn) {
		t.Fatalf("primary classification wrong")
	}
}

func TestTraceResolvesModuleAliases(t *testing.T) {
	mod := gravityModule(t)
	b := graph.NewBuilder("Update")
	in := b.MapInput("Map")
	call := b.Call(mod, "Gravity001")
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.ParameterMap, "Map"))
	b.LinkMap(in, call).LinkMap(call, out)
	s := &graph.Script{Name: "Update", Usage: graph.UsageParticleUpdate, Graph: b.MustGraph()}

	h := Build(s, s.Graph)[0]
	i := h.FindVariableByName("Gravity001.Strength")
	if i < 0 {
		t.Fatalf("module alias not resolved: %v", h.Variables)
	}
	if h.Original[i].Name != "Module.Strength" {
		t.Fatalf("original alias lost: %s", h.Original[i].Name)
	}
	if len(h.Origins) != 1 {
		t.Fatalf("callee map input must not be an origin, got %d", len(h.Origins))
	}
	if h.FindVariable(graph.Var(types.Vec3, "Particles.Velocity")) < 0 {
		t.Fatalf("callee write missing")
	}
}

func TestAliasesTopLevel(t *testing.T) {
	a := NewAliases(graph.UsageSystemSpawn)
	a.EnterEmitter("Sparks")
	a.EnterFunction("Sparks")
	if a.InTopLevelFunctionCall() {
		t.Fatalf("emitter call itself is not a module call")
	}
	a.EnterFunction("SpawnRate")
	if !a.InTopLevelFunctionCall() {
		t.Fatalf("module directly under an emitter is top level")
	}
	got := a.ResolveAliases(graph.Var(types.Float, "Emitter.Rate"))
	if got.Name != "Sparks.Rate" {
		t.Fatalf("emitter alias: %s", got.Name)
	}
	if got := a.ResolveAliases(graph.Var(types.Float, "Module.Rate")); got.Name != "SpawnRate.Rate" {
		t.Fatalf("module alias: %s", got.Name)
	}
	if !a.IsInEncounteredFunctionNamespace(graph.Var(types.Float, "SpawnRate.Rate")) {
		t.Fatalf("encountered namespace")
	}
	a.ExitFunction()
	a.ExitFunction()
	a.ExitEmitter()
	if a.ModuleAlias() != "" || a.EmitterAlias() != "" {
		t.Fatalf("stacks not empty")
	}
}
