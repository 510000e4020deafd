package translator

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/types"
)

func translate(t *testing.T, s *graph.Script, opts Options) *Results {
	t.Helper()
	return Translate(context.Background(), s, opts)
}

func script(t *testing.T, name string, usage graph.Usage, b *graph.Builder) *graph.Script {
	t.Helper()
	g, err := b.Graph()
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	s := &graph.Script{Name: name, Usage: usage, Graph: g, EmitterName: "Fountain"}
	s.SyncVariables()
	return s
}

func mustOK(t *testing.T, res *Results) {
	t.Helper()
	if !res.OK || res.HLSL == "" {
		for _, d := range res.Diagnostics.Items() {
			t.Logf("%s %s: %s", d.Severity, d.Code, d.Message)
		}
		t.Fatalf("translation failed")
	}
}

func hasDiagnostic(res *Results, code diag.Code, text string) bool {
	for _, d := range res.Diagnostics.Items() {
		if d.Code == code && strings.Contains(d.Message, text) {
			return true
		}
	}
	return false
}

// funcBody returns the body of the HLSL function whose declaration starts
// with header.
func funcBody(t *testing.T, hlsl, header string) string {
	t.Helper()
	start := strings.Index(hlsl, header+"\n{\n")
	if start < 0 {
		t.Fatalf("function %q not found in:\n%s", header, hlsl)
	}
	body := hlsl[start+len(header)+3:]
	end := strings.Index(body, "\n}\n")
	if end < 0 {
		t.Fatalf("function %q is not terminated", header)
	}
	return body[:end+1]
}

func lifetimeSpawn(t *testing.T, linked bool) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Spawn")
	in := b.Parameter(graph.Var(types.Float, "User.Lifetime"))
	out := b.Output(graph.UsageParticleSpawn, graph.Var(types.Float, "Particles.Lifetime"))
	if linked {
		b.Link(in, "User.Lifetime", out, "Particles.Lifetime")
	}
	return script(t, "Spawn", graph.UsageParticleSpawn, b)
}

func TestSpawnWritesAttribute(t *testing.T) {
	res := translate(t, lifetimeSpawn(t, true), Options{})
	mustOK(t, res)

	if n := strings.Count(res.HLSL, "cbuffer "); n != 1 {
		t.Fatalf("expected one cbuffer, got %d", n)
	}
	if !strings.Contains(res.HLSL, "struct FParamMap0_Particles\n{\n\tfloat Lifetime;\n};") {
		t.Fatalf("Lifetime not nested under Particles:\n%s", res.HLSL)
	}
	if !strings.Contains(res.HLSL, "\tFParamMap0_Particles Particles;\n") {
		t.Fatalf("FParamMap0 lacks the Particles namespace:\n%s", res.HLSL)
	}
	body := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	if n := strings.Count(body, " = "); n != 1 {
		t.Fatalf("expected one assignment in Simulate, got %d:\n%s", n, body)
	}
	if !strings.Contains(body, "Context.Map.Particles.Lifetime = User_Lifetime;") {
		t.Fatalf("unexpected Simulate body:\n%s", body)
	}
	if res.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors")
	}
	if len(res.Attributes) != 1 || res.Attributes[0].Name != "Lifetime" {
		t.Fatalf("unexpected attributes %v", res.Attributes)
	}
	if len(res.Parameters) != 1 || res.Parameters[0].Name != "User.Lifetime" {
		t.Fatalf("unexpected parameters %v", res.Parameters)
	}
}

func TestUnconnectedOutputFails(t *testing.T) {
	res := translate(t, lifetimeSpawn(t, false), Options{})
	if res.OK || res.HLSL != "" {
		t.Fatalf("translation of an unconnected output succeeded")
	}
	if !hasDiagnostic(res, diag.GrfNoOutputLinks, "connections to output node") {
		t.Fatalf("missing no-connections error: %v", res.Diagnostics.Items())
	}
}

func scaleFunction(t *testing.T) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Scale")
	x := b.Parameter(graph.Var(types.Numeric, "X"))
	mul := b.Op("Multiply")
	out := b.Output(graph.UsageFunction, graph.Var(types.Numeric, "Out"))
	b.Link(x, "X", mul, "A").SetDefault(mul, "B", "2").Link(mul, "Result", out, "Out")
	s := script(t, "Scale", graph.UsageFunction, b)
	s.Selection = types.SelectLargest
	return s
}

// scaledUpdate calls Scale once per input, each result feeding its own
// attribute.
func scaledUpdate(t *testing.T, inputs ...graph.Variable) *graph.Script {
	t.Helper()
	callee := scaleFunction(t)
	b := graph.NewBuilder("Update")
	outVars := make([]graph.Variable, len(inputs))
	for i, v := range inputs {
		outVars[i] = graph.Var(v.Type, "Particles."+strings.TrimPrefix(v.Name, "User."))
	}
	out := b.Output(graph.UsageParticleUpdate, outVars...)
	for i, v := range inputs {
		in := b.Parameter(v)
		call := b.Call(callee, "")
		b.Link(in, v.Name, call, "X").Link(call, "Out", out, outVars[i].Name)
	}
	return script(t, "Update", graph.UsageParticleUpdate, b)
}

func TestNumericFunctionSpecialisedPerType(t *testing.T) {
	s := scaledUpdate(t, graph.Var(types.Float, "User.Size"), graph.Var(types.Vec3, "User.Velocity"))
	res := translate(t, s, Options{})
	mustOK(t, res)

	for _, header := range []string{
		"void Scale_Func_(float In_X, out float Out_Out)",
		"void Scale_Func_(float3 In_X, out float3 Out_Out)",
	} {
		funcBody(t, res.HLSL, header)
	}
	if len(res.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(res.Functions))
	}
}

func TestEqualSignaturesShareOneDefinition(t *testing.T) {
	s := scaledUpdate(t, graph.Var(types.Float, "User.Size"), graph.Var(types.Float, "User.Mass"))
	res := translate(t, s, Options{})
	mustOK(t, res)

	header := "void Scale_Func_(float In_X, out float Out_Out)"
	if n := strings.Count(res.HLSL, header+"\n{\n"); n != 1 {
		t.Fatalf("expected one definition, got %d", n)
	}
	if n := strings.Count(res.HLSL, "\tScale_Func_("); n != 2 {
		t.Fatalf("expected two calls, got %d:\n%s", n, res.HLSL)
	}
}

func TestTranslationIsDeterministic(t *testing.T) {
	build := func() *graph.Script {
		return scaledUpdate(t, graph.Var(types.Float, "User.Size"), graph.Var(types.Vec3, "User.Velocity"))
	}
	first := translate(t, build(), Options{StatScopes: true})
	second := translate(t, build(), Options{StatScopes: true})
	mustOK(t, first)
	if first.HLSL != second.HLSL {
		t.Fatalf("outputs differ")
	}
	if !reflect.DeepEqual(first.Diagnostics.Items(), second.Diagnostics.Items()) {
		t.Fatalf("diagnostics differ")
	}
	if !reflect.DeepEqual(first.StatScopes, second.StatScopes) {
		t.Fatalf("stat scopes differ")
	}
}

func TestStatScopesBalance(t *testing.T) {
	s := scaledUpdate(t, graph.Var(types.Float, "User.Size"))
	res := translate(t, s, Options{StatScopes: true})
	mustOK(t, res)
	enter := strings.Count(res.HLSL, "EnterStatScope(")
	exit := strings.Count(res.HLSL, "ExitStatScope(")
	if enter == 0 || enter != exit {
		t.Fatalf("unbalanced stat scopes: %d enters, %d exits", enter, exit)
	}
	if len(res.StatScopes) == 0 {
		t.Fatalf("no stat scopes recorded")
	}
}

// positionGraph reads Particles.Position from the map and stores it as
// Particles.Velocity.
func positionGraph(t *testing.T, usage graph.Usage) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Position")
	m := b.MapInput("Map")
	get := b.Get(graph.Var(types.Vec3, "Particles.Position"))
	set := b.Set(graph.Var(types.Vec3, "Particles.Velocity"))
	out := b.Output(usage, graph.Var(types.ParameterMap, "Map"))
	b.LinkMap(m, get).LinkMap(m, set).
		Link(get, "Particles.Position", set, "Particles.Velocity").
		LinkMap(set, out)
	return script(t, "Position", usage, b)
}

func TestUpdateReadsInstanceData(t *testing.T) {
	res := translate(t, positionGraph(t, graph.UsageParticleUpdate), Options{})
	mustOK(t, res)

	main := funcBody(t, res.HLSL, "void SimulateMain()")
	if !strings.Contains(main, "\tContext.Map.Particles.Position.x = InputDataFloat(0, 0);\n") {
		t.Fatalf("position not read from instance data:\n%s", main)
	}
	if !strings.Contains(main, "OutputDataFloat(0, 3, TmpWriteIndex, Context.Map.Particles.Velocity.x);") {
		t.Fatalf("velocity not written after position:\n%s", main)
	}
	if !res.ReadsAttributeData {
		t.Fatalf("ReadsAttributeData not set")
	}
	body := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	if !strings.Contains(body, "Context.Map.Particles.Velocity = Context.Map.Particles.Position;") {
		t.Fatalf("unexpected Simulate body:\n%s", body)
	}
}

func TestSpawnCannotReadUnwrittenAttribute(t *testing.T) {
	res := translate(t, positionGraph(t, graph.UsageParticleSpawn), Options{})
	if res.OK || res.HLSL != "" {
		t.Fatalf("spawn read of an unwritten attribute succeeded")
	}
	if !hasDiagnostic(res, diag.NspSpawnAttributeRead, "Cannot read attribute in a spawn script") {
		t.Fatalf("missing spawn read error: %v", res.Diagnostics.Items())
	}
}

func TestDuplicateDataSetWrite(t *testing.T) {
	b := graph.NewBuilder("Update")
	in := b.Parameter(graph.Var(types.Float, "User.Size"))
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Size"))
	b.Link(in, "User.Size", out, "Particles.Size")
	events := graph.DataSetID{Name: "Death"}
	first := b.WriteDataSet(events, graph.Var(types.Float, "Age"))
	b.Link(in, "User.Size", first, "Age")
	b.WriteDataSet(events, graph.Var(types.Float, "Age"))
	res := translate(t, script(t, "Update", graph.UsageParticleUpdate, b), Options{})

	if res.OK {
		t.Fatalf("duplicate write accepted")
	}
	count := 0
	for _, d := range res.Diagnostics.Items() {
		if d.Code == diag.DstDuplicateWrite {
			count++
			if d.Message != "Writing to the same dataset with the same condition/index." {
				t.Fatalf("unexpected message %q", d.Message)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected one duplicate write error, got %d", count)
	}
	if len(res.DataSetWrites) != 1 || len(res.DataSetWrites[0].Vars) != 1 {
		t.Fatalf("second write was recorded: %v", res.DataSetWrites)
	}
}

func TestDataSetReadAndWrite(t *testing.T) {
	b := graph.NewBuilder("Event")
	events := graph.DataSetID{Name: "Death"}
	rd := b.ReadDataSet(events, graph.Var(types.Float, "Age"))
	out := b.Output(graph.UsageParticleEvent, graph.Var(types.Float, "Particles.Age"))
	b.Link(rd, "Age", out, "Particles.Age")
	wr := b.WriteDataSet(events, graph.Var(types.Float, "Age"))
	b.Link(rd, "Age", wr, "Age")
	res := translate(t, script(t, "Event", graph.UsageParticleEvent, b), Options{})
	mustOK(t, res)

	for _, want := range []string{
		"struct FDeathDataSet\n{\n\tfloat Age;\n};",
		"\tFDeathDataSet DeathRead;\n",
		"\tbool DeathWrite_Valid;\n",
		"\tContext.DeathRead.Age = InputDataNoadvanceFloat(1, 0);\n",
		"\tTmpWriteIndex = AcquireIndex(1, bValid);\n",
		"\t\tOutputDataFloat(1, 0, TmpWriteIndex, Context.DeathWrite.Age);\n",
	} {
		if !strings.Contains(res.HLSL, want) {
			t.Fatalf("missing %q in:\n%s", want, res.HLSL)
		}
	}
}

func interpolatedSpawn(t *testing.T) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Spawn")
	life := b.Parameter(graph.Var(types.Float, "User.Lifetime"))
	spawn := b.Output(graph.UsageParticleSpawn, graph.Var(types.Float, "Particles.Lifetime"))
	b.Link(life, "User.Lifetime", spawn, "Particles.Lifetime")
	size := b.Parameter(graph.Var(types.Float, "User.Size"))
	update := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Size"))
	b.Link(size, "User.Size", update, "Particles.Size")
	return script(t, "Spawn", graph.UsageParticleSpawnInterpolated, b)
}

func TestInterpolatedSpawnRunsTwoPhases(t *testing.T) {
	res := translate(t, interpolatedSpawn(t), Options{})
	mustOK(t, res)

	spawn := funcBody(t, res.HLSL, "void SimulateSpawn(inout FSimulationContext Context)")
	funcBody(t, res.HLSL, "void SimulateUpdate(inout FSimulationContext Context)")
	transfer := strings.Index(spawn, "Context.MapUpdate.Particles = Context.MapSpawn.Particles;")
	if transfer < 0 {
		t.Fatalf("no attribute transfer in spawn phase:\n%s", spawn)
	}
	if !strings.Contains(spawn, "Context.MapSpawn.Particles.Lifetime = Context.MapSpawn.User.Lifetime;") {
		t.Fatalf("spawn phase does not read the interpolated value:\n%s", spawn)
	}
	sim := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	if strings.Index(sim, "SimulateSpawn(Context);") > strings.Index(sim, "SimulateUpdate(Context);") {
		t.Fatalf("update phase runs before spawn phase:\n%s", sim)
	}
	for _, want := range []string{
		"\tfloat PREV__User_Lifetime;\n",
		"Context.MapSpawn.User.Lifetime = lerp(PREV__User_Lifetime, User_Lifetime, SpawnInterp);",
		"\tInterpolateParameters(Context);\n",
	} {
		if !strings.Contains(res.HLSL, want) {
			t.Fatalf("missing %q in:\n%s", want, res.HLSL)
		}
	}
	for _, d := range res.Diagnostics.Items() {
		if d.Code == diag.TrnPhaseGuard {
			t.Fatalf("body mode not restored: %s", d.Message)
		}
	}
}

func TestGPUSpawnSwitchesOnPhase(t *testing.T) {
	b := graph.NewBuilder("Spawn")
	life := b.Parameter(graph.Var(types.Float, "User.Lifetime"))
	spawn := b.Output(graph.UsageParticleSpawn, graph.Var(types.Float, "Particles.Lifetime"))
	b.Link(life, "User.Lifetime", spawn, "Particles.Lifetime")
	size := b.Parameter(graph.Var(types.Float, "User.Size"))
	update := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Size"))
	b.Link(size, "User.Size", update, "Particles.Size")

	res := translate(t, script(t, "Spawn", graph.UsageParticleSpawn, b), Options{Target: TargetGPU})
	mustOK(t, res)
	main := funcBody(t, res.HLSL, "void SimulateMain(in int InstanceIdx, in int InEventIndex, in int Phase)")
	for _, want := range []string{
		"\tif (Phase == 0)\n\t{\n\t\tSimulateSpawn(Context);\n\t}\n",
		"\t\tContext.Map.Particles.Lifetime = InputDataFloat(0, 0, InstanceIdx);\n",
		"\tContext.Map.DataInstance.Alive = true;\n",
		"AcquireIndex(0, Context.Map.DataInstance.Alive)",
	} {
		if !strings.Contains(main, want) {
			t.Fatalf("missing %q in:\n%s", want, main)
		}
	}
	if strings.Contains(res.HLSL, "void Simulate(inout") {
		t.Fatalf("GPU spawn should not define a combined Simulate")
	}
	funcBody(t, res.HLSL, "void CopyInstance(in int InstanceIdx)")
}

func TestNilScriptIsReported(t *testing.T) {
	res := translate(t, nil, Options{})
	if res.OK || res.HLSL != "" || !res.Diagnostics.HasErrors() {
		t.Fatalf("nil script translated")
	}
}

func TestSpawnDeltaTimeIsZero(t *testing.T) {
	b := graph.NewBuilder("Spawn")
	dt := b.Input(graph.EngineDeltaTime, graph.InputSystemConstant)
	out := b.Output(graph.UsageParticleSpawn, graph.Var(types.Float, "Particles.Age"))
	b.Link(dt, graph.EngineDeltaTime.Name, out, "Particles.Age")
	res := translate(t, script(t, "Spawn", graph.UsageParticleSpawn, b), Options{})
	mustOK(t, res)
	if !hasDiagnostic(res, diag.NspSpawnDeltaTime, "Cannot call system variable Engine.DeltaTime in a spawn script! It is invalid.") {
		t.Fatalf("missing delta time warning")
	}
	if strings.Contains(res.HLSL, "Engine_DeltaTime") {
		t.Fatalf("delta time bound in a spawn script:\n%s", res.HLSL)
	}
}

// initialGraph reads Initial.Local.Foo into Particles.Size, optionally
// writing Local.Foo from User.Foo first.
func initialGraph(t *testing.T, writeSource bool) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Spawn")
	m := b.MapInput("Map")
	get := b.Get(graph.Var(types.Float, "Initial.Local.Foo"))
	set := b.Set(graph.Var(types.Float, "Particles.Size"))
	out := b.Output(graph.UsageParticleSpawn, graph.Var(types.ParameterMap, "Map"))
	if writeSource {
		foo := b.Parameter(graph.Var(types.Float, "User.Foo"))
		src := b.Set(graph.Var(types.Float, "Local.Foo"))
		b.LinkMap(m, src).Link(foo, "User.Foo", src, "Local.Foo").
			LinkMap(src, get).LinkMap(src, set)
	} else {
		b.LinkMap(m, get).LinkMap(m, set)
	}
	b.Link(get, "Initial.Local.Foo", set, "Particles.Size").LinkMap(set, out)
	return script(t, "Spawn", graph.UsageParticleSpawn, b)
}

func TestInitialValueNeedsSource(t *testing.T) {
	res := translate(t, initialGraph(t, false), Options{})
	if res.OK || res.HLSL != "" {
		t.Fatalf("initial value without a source translated")
	}
	if !hasDiagnostic(res, diag.NspInitialSource, "its source variable Local.Foo is not set") {
		t.Fatalf("missing initial source error: %v", res.Diagnostics.Items())
	}
}

func TestInitialValueReadsSource(t *testing.T) {
	res := translate(t, initialGraph(t, true), Options{})
	mustOK(t, res)
	body := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	if !strings.Contains(body, "Context.Map.Particles.Size = Context.Map.Local.Foo;") {
		t.Fatalf("initial value does not read its source:\n%s", body)
	}
}

// assigned returns the right hand side of the assignment to lhs in body.
func assigned(t *testing.T, body, lhs string) string {
	t.Helper()
	start := strings.Index(body, lhs+" = ")
	if start < 0 {
		t.Fatalf("no assignment to %s in:\n%s", lhs, body)
	}
	rest := body[start+len(lhs)+3:]
	return rest[:strings.Index(rest, ";")]
}

func TestGetDefaultIsCompiledOnce(t *testing.T) {
	b := graph.NewBuilder("Update")
	m := b.MapInput("Map")
	first := b.Get(graph.Var(types.Float, "Local.Foo"))
	second := b.Get(graph.Var(types.Float, "Local.Foo"))
	set := b.Set(graph.Var(types.Float, "Particles.A"), graph.Var(types.Float, "Particles.B"))
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.ParameterMap, "Map"))
	b.LinkMap(m, first).LinkMap(m, second).LinkMap(m, set).
		SetDefault(first, "Local.Foo", "1").SetDefault(second, "Local.Foo", "2").
		Link(first, "Local.Foo", set, "Particles.A").
		Link(second, "Local.Foo", set, "Particles.B").
		LinkMap(set, out)
	res := translate(t, script(t, "Update", graph.UsageParticleUpdate, b), Options{})
	mustOK(t, res)

	body := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	a := assigned(t, body, "Context.Map.Particles.A")
	if b := assigned(t, body, "Context.Map.Particles.B"); a != b {
		t.Fatalf("second read compiled its own default: %s vs %s", a, b)
	}
	if strings.Contains(res.HLSL, "= 2.0;") {
		t.Fatalf("second default was compiled:\n%s", res.HLSL)
	}
}

func TestCollectionParameterMissing(t *testing.T) {
	b := graph.NewBuilder("Update")
	gust := b.Input(graph.Var(types.Float, "NPC.Wind.Gust"), graph.InputSystemConstant)
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Gust"))
	b.Link(gust, "NPC.Wind.Gust", out, "Particles.Gust")
	s := script(t, "Update", graph.UsageParticleUpdate, b)
	s.Collections = []*graph.Collection{{Name: "Wind", Vars: []graph.Variable{graph.Var(types.Float, "Speed")}}}

	res := translate(t, s, Options{})
	if res.OK {
		t.Fatalf("read of a parameter missing from its collection translated")
	}
	if !hasDiagnostic(res, diag.NspCollectionMissing, "Parameter NPC.Wind.Gust was not found in Parameter Collection Wind") {
		t.Fatalf("missing collection error: %v", res.Diagnostics.Items())
	}
}

// growUpdate calls the Grow module, which writes its Module.Scale input
// (default 3) to Particles.Size.
func growUpdate(t *testing.T) *graph.Script {
	t.Helper()
	mb := graph.NewBuilder("Grow")
	in := mb.MapInput("Map")
	get := mb.Get(graph.Var(types.Float, "Module.Scale").WithValue(graph.Value{3}))
	set := mb.Set(graph.Var(types.Float, "Particles.Size"))
	mout := mb.Output(graph.UsageModule, graph.Var(types.ParameterMap, "Map"))
	mb.LinkMap(in, get).LinkMap(in, set).
		Link(get, "Module.Scale", set, "Particles.Size").
		LinkMap(set, mout)
	grow := script(t, "Grow", graph.UsageModule, mb)

	b := graph.NewBuilder("Update")
	m := b.MapInput("Map")
	call := b.Call(grow, "Grow")
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.ParameterMap, "Map"))
	b.LinkMap(m, call).LinkMap(call, out)
	return script(t, "Update", graph.UsageParticleUpdate, b)
}

func TestRapidIterationParameters(t *testing.T) {
	const name = "Constants.Fountain.Grow.Scale"

	t.Run("uniform", func(t *testing.T) {
		res := translate(t, growUpdate(t), Options{RapidIteration: true})
		mustOK(t, res)
		found := false
		for _, p := range res.Parameters {
			found = found || p.Name == name
		}
		if !found {
			t.Fatalf("%s not exposed: %v", name, res.Parameters)
		}
		if !strings.Contains(res.HLSL, "Constants_Fountain_Grow_Scale") || strings.Contains(res.HLSL, "= 3.0;") {
			t.Fatalf("module input not read from its uniform:\n%s", res.HLSL)
		}
	})
	t.Run("override", func(t *testing.T) {
		s := growUpdate(t)
		s.Overrides = []graph.Variable{graph.Var(types.Float, name).WithValue(graph.Value{5})}
		res := translate(t, s, Options{})
		mustOK(t, res)
		if !strings.Contains(res.HLSL, "= 5.0;") || strings.Contains(res.HLSL, "= 3.0;") {
			t.Fatalf("override not baked:\n%s", res.HLSL)
		}
	})
	t.Run("default", func(t *testing.T) {
		res := translate(t, growUpdate(t), Options{})
		mustOK(t, res)
		if !strings.Contains(res.HLSL, "= 3.0;") || strings.Contains(res.HLSL, "Constants_Fountain_Grow_Scale") {
			t.Fatalf("default not baked:\n%s", res.HLSL)
		}
	})
	t.Run("deterministic", func(t *testing.T) {
		for _, rapid := range []bool{true, false} {
			first := translate(t, growUpdate(t), Options{RapidIteration: rapid})
			second := translate(t, growUpdate(t), Options{RapidIteration: rapid})
			if first.HLSL != second.HLSL {
				t.Fatalf("rapid=%v: outputs differ", rapid)
			}
		}
	})
}

func TestCustomHlslRenamesWholeIdentifiers(t *testing.T) {
	b := graph.NewBuilder("Update")
	in := b.Parameter(graph.Var(types.Float, "User.A"))
	sig := graph.Signature{
		Inputs:  []graph.Variable{graph.Var(types.Float, "A")},
		Outputs: []graph.Variable{graph.Var(types.Float, "B")},
	}
	custom := b.Custom("Blend", graph.UsageFunction, sig, "B = A * AB + A.x;")
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.B"))
	b.Link(in, "User.A", custom, "A").Link(custom, "B", out, "Particles.B")
	res := translate(t, script(t, "Update", graph.UsageParticleUpdate, b), Options{})
	mustOK(t, res)

	body := funcBody(t, res.HLSL, "void CustomHlsl_Blend_Func_(float In_A, out float Out_B)")
	if body != "\tOut_B = In_A * AB + In_A.x;\n" {
		t.Fatalf("unexpected custom body %q", body)
	}
}

func sampleSignature(name string) graph.Signature {
	return graph.Signature{
		Name:    name,
		Inputs:  []graph.Variable{graph.Var(types.DataInterface("Curve"), "Curve"), graph.Var(types.Float, "X")},
		Outputs: []graph.Variable{graph.Var(types.Float, "Value")},
	}
}

// curveUpdate samples two curve instances with a call of the given name.
func curveUpdate(t *testing.T, call string) *graph.Script {
	t.Helper()
	curve := &graph.DataInterface{Class: "Curve", PerInstanceDataSize: 8, Functions: []graph.Signature{sampleSignature("Sample")}}
	b := graph.NewBuilder("Update")
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.A"), graph.Var(types.Float, "Particles.B"))
	for _, suffix := range []string{"A", "B"} {
		di := b.DataInterfaceInput("User.Curve"+suffix, curve)
		sample := b.CallInterface(sampleSignature(call))
		b.Link(di, "User.Curve"+suffix, sample, "Curve").Link(sample, "Value", out, "Particles."+suffix)
	}
	return script(t, "Update", graph.UsageParticleUpdate, b)
}

func TestDataInterfaceUserPointers(t *testing.T) {
	res := translate(t, curveUpdate(t, "Sample"), Options{})
	mustOK(t, res)
	if len(res.DataInterfaces) != 2 || res.NumUserPtrs != 2 {
		t.Fatalf("unexpected interfaces %v, %d user pointers", res.DataInterfaces, res.NumUserPtrs)
	}
	for i, name := range []string{"User.CurveA", "User.CurveB"} {
		info := res.DataInterfaces[i]
		if info.Name != name || info.UserPtrIdx != i || len(info.Functions) != 1 {
			t.Fatalf("interface %d = %+v", i, info)
		}
	}
}

func TestDataInterfaceSignatureMismatch(t *testing.T) {
	res := translate(t, curveUpdate(t, "SampleCurve"), Options{})
	if res.OK || res.HLSL != "" {
		t.Fatalf("call to an undeclared interface function translated")
	}
	if !hasDiagnostic(res, diag.FncInterfaceSig, "does not match any function of data interface User.CurveA (Curve)") {
		t.Fatalf("missing signature error: %v", res.Diagnostics.Items())
	}
}

func TestDisabledNodePassesInputThrough(t *testing.T) {
	b := graph.NewBuilder("Update")
	size := b.Parameter(graph.Var(types.Float, "User.Size"))
	mul := b.Op("Multiply")
	mul.Disabled = true
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Size"))
	b.Link(size, "User.Size", mul, "A").SetDefault(mul, "B", "2").
		Link(mul, "Result", out, "Particles.Size")
	res := translate(t, script(t, "Update", graph.UsageParticleUpdate, b), Options{})
	mustOK(t, res)

	body := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	if !strings.Contains(body, "Context.Map.Particles.Size = User_Size;") || strings.Contains(body, " * ") {
		t.Fatalf("disabled multiply was compiled:\n%s", body)
	}
}

func TestMissingCallParametersAreAllReported(t *testing.T) {
	fb := graph.NewBuilder("Sum")
	x := fb.Parameter(graph.Var(types.Float, "X"))
	y := fb.Parameter(graph.Var(types.Float, "Y"))
	add := fb.Op("Add")
	fout := fb.Output(graph.UsageFunction, graph.Var(types.Float, "Out"))
	fb.Link(x, "X", add, "A").Link(y, "Y", add, "B").Link(add, "Result", fout, "Out")
	sum := script(t, "Sum", graph.UsageFunction, fb)

	b := graph.NewBuilder("Update")
	bogus := b.Input(graph.Var(types.Float, "Engine.Bogus"), graph.InputSystemConstant)
	call := b.Call(sum, "")
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Size"))
	b.Link(bogus, "Engine.Bogus", call, "X").Link(bogus, "Engine.Bogus", call, "Y").
		Link(call, "Out", out, "Particles.Size")
	res := translate(t, script(t, "Update", graph.UsageParticleUpdate, b), Options{})
	if res.OK {
		t.Fatalf("call with failed arguments translated")
	}
	for _, want := range []string{"parameter X in function call Sum", "parameter Y in function call Sum"} {
		if !hasDiagnostic(res, diag.FncMissingParameter, want) {
			t.Fatalf("missing %q: %v", want, res.Diagnostics.Items())
		}
	}
}

func TestIfNodeBranches(t *testing.T) {
	b := graph.NewBuilder("Update")
	pa := b.Parameter(graph.Var(types.Float, "User.A"))
	pb := b.Parameter(graph.Var(types.Float, "User.B"))
	sel := b.If(graph.Var(types.Float, "Value"))
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Size"))
	b.Link(pa, "User.A", sel, "Value A").Link(pb, "User.B", sel, "Value B").
		Link(sel, "Value", out, "Particles.Size")
	res := translate(t, script(t, "Update", graph.UsageParticleUpdate, b), Options{})
	mustOK(t, res)

	body := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	a := strings.Index(body, " = User_A;\n")
	els := strings.Index(body, "\t}\n\telse\n\t{\n")
	bb := strings.Index(body, " = User_B;\n")
	if !strings.Contains(body, "\tif(") || a < 0 || els < a || bb < els {
		t.Fatalf("branches out of order:\n%s", body)
	}
}

func TestConvertSplitsComponents(t *testing.T) {
	b := graph.NewBuilder("Update")
	vel := b.Parameter(graph.Var(types.Vec3, "User.Velocity"))
	conv := b.Convert(
		[]graph.Variable{graph.Var(types.Vec3, "In")},
		[]graph.Variable{graph.Var(types.Float, "Speed")},
		graph.ConvertConnection{SrcInput: 0, SrcPath: []string{"X"}, DstOutput: 0},
	)
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Float, "Particles.Speed"))
	b.Link(vel, "User.Velocity", conv, "In").Link(conv, "Speed", out, "Particles.Speed")
	res := translate(t, script(t, "Update", graph.UsageParticleUpdate, b), Options{})
	mustOK(t, res)

	body := funcBody(t, res.HLSL, "void Simulate(inout FSimulationContext Context)")
	if !strings.Contains(body, " = User_Velocity.x;\n") {
		t.Fatalf("component not extracted:\n%s", body)
	}
}

func TestEmitterCompiledIntoSystem(t *testing.T) {
	eb := graph.NewBuilder("SparksUpdate")
	in := eb.MapInput("Map")
	set := eb.Set(graph.Var(types.Float, "Emitter.Rate").WithValue(graph.Value{4}))
	eout := eb.Output(graph.UsageEmitterUpdate, graph.Var(types.ParameterMap, "Map"))
	eb.LinkMap(in, set).LinkMap(set, eout)
	sparks := script(t, "SparksUpdate", graph.UsageEmitterUpdate, eb)

	b := graph.NewBuilder("System")
	m := b.MapInput("Map")
	em := b.Emitter("Sparks", sparks)
	out := b.Output(graph.UsageSystemUpdate, graph.Var(types.ParameterMap, "Map"))
	b.LinkMap(m, em).LinkMap(em, out)
	res := translate(t, script(t, "System", graph.UsageSystemUpdate, b), Options{})
	mustOK(t, res)

	body := funcBody(t, res.HLSL, "void Sparks_Func_(inout FSimulationContext Context)")
	if !strings.Contains(body, "\tContext.Map.Sparks.Rate = ") {
		t.Fatalf("emitter value not addressed through the emitter name:\n%s", body)
	}
	if !strings.Contains(res.HLSL, "\tSparks_Func_(Context);\n") {
		t.Fatalf("emitter function not called:\n%s", res.HLSL)
	}
}
