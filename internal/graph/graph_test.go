package graph

import (
	"testing"

	"emberc/internal/types"
)

func simpleFunction(t *testing.T) *Script {
	t.Helper()
	b := NewBuilder("AddOne")
	a := b.Parameter(Var(types.Float, "A"))
	one := b.Parameter(Var(types.Float, "B").WithValue(Value{1}))
	add := b.Op("Add")
	out := b.Output(UsageFunction, Var(types.Float, "Result"))
	b.Link(a, "A", add, "A").Link(one, "B", add, "B").Link(add, "Result", out, "Result")
	g, err := b.Graph()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return &Script{Name: "AddOne", Usage: UsageFunction, Graph: g}
}

func TestBuilderRejectsUnknownPins(t *testing.T) {
	b := NewBuilder("bad")
	a := b.Parameter(Var(types.Float, "A"))
	add := b.Op("Add")
	b.Link(a, "Missing", add, "A")
	if _, err := b.Graph(); err == nil {
		t.Fatalf("expected error for unknown output pin")
	}
	b = NewBuilder("bad-op")
	b.Op("NoSuchOp")
	if _, err := b.Graph(); err == nil {
		t.Fatalf("expected error for unknown op")
	}
}

func TestLinkReplacesPreviousConnection(t *testing.T) {
	b := NewBuilder("relink")
	x := b.Parameter(Var(types.Float, "X"))
	y := b.Parameter(Var(types.Float, "Y"))
	neg := b.Op("Negate")
	b.Link(x, "X", neg, "A").Link(y, "Y", neg, "A")
	g := b.MustGraph()
	in := neg.InputPin("A")
	if len(in.Links) != 1 || in.Links[0].Node != y {
		t.Fatalf("input should be linked to Y only, got %v", in.Links)
	}
	if x.Outputs[0].Linked() {
		t.Fatalf("X output still linked after relink")
	}
	if err := g.Link(in, x.Outputs[0]); err == nil {
		t.Fatalf("expected direction error")
	}
}

func TestCloneIsDeepAndKeepsIDs(t *testing.T) {
	s := simpleFunction(t)
	c := s.Graph.Clone()
	if len(c.Nodes()) != len(s.Graph.Nodes()) {
		t.Fatalf("node count %d != %d", len(c.Nodes()), len(s.Graph.Nodes()))
	}
	owned := make(map[*Node]bool)
	for _, n := range c.Nodes() {
		owned[n] = true
	}
	for i, n := range c.Nodes() {
		orig := s.Graph.Nodes()[i]
		if n == orig || n.ID != orig.ID {
			t.Fatalf("node %d: not a distinct copy with the same id", i)
		}
		for j, p := range n.Pins() {
			op := orig.Pins()[j]
			if p.ID != op.ID || p.Node != n {
				t.Fatalf("pin %s: bad clone", p.Name)
			}
			for _, l := range p.Links {
				if !owned[l.Node] {
					t.Fatalf("link of %s points into the source graph", p.Name)
				}
			}
		}
	}
	c.Nodes()[0].Payload.(*Input).Var.Name = "Changed"
	if s.Graph.Nodes()[0].Payload.(*Input).Var.Name != "A" {
		t.Fatalf("payload shared between clone and source")
	}
}

func TestFindInputNodesSortsAndFilters(t *testing.T) {
	b := NewBuilder("inputs")
	z := b.Parameter(Var(types.Float, "Z"))
	a := b.Parameter(Var(types.Float, "A"))
	b.Parameter(Var(types.Float, "A"))
	unused := b.Parameter(Var(types.Float, "Unused"))
	b.Input(Var(types.Float, "Tc"), InputTranslatorConstant)
	mx := b.Op("Max")
	out := b.Output(UsageFunction, Var(types.Float, "R"))
	b.Link(z, "Z", mx, "A").Link(a, "A", mx, "B").Link(mx, "Result", out, "R")
	g := b.MustGraph()

	opts := DefaultFindInputOptions()
	opts.Sort = true
	all := g.FindInputNodes(opts)
	if len(all) != 3 {
		t.Fatalf("expected 3 deduplicated inputs, got %d", len(all))
	}
	if all[0].Payload.(*Input).Var.Name != "A" || all[2].Payload.(*Input).Var.Name != "Z" {
		t.Fatalf("unexpected order")
	}
	used := SignatureInputNodes(g, UsageFunction)
	for _, n := range used {
		if n == unused {
			t.Fatalf("unreachable input returned by usage filter")
		}
	}
	if len(used) != 2 {
		t.Fatalf("expected 2 reachable inputs, got %d", len(used))
	}
}

func TestCallPinsFollowCallee(t *testing.T) {
	callee := simpleFunction(t)
	b := NewBuilder("caller")
	call := b.Call(callee, "")
	if _, err := b.Graph(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(call.Inputs) != 2 || call.Inputs[0].Name != "A" || call.Inputs[1].Name != "B" {
		t.Fatalf("unexpected call inputs %v", call.Inputs)
	}
	if call.Inputs[1].Default != "1" {
		t.Fatalf("default not carried: %q", call.Inputs[1].Default)
	}
	if len(call.Outputs) != 1 || call.Outputs[0].Name != "Result" {
		t.Fatalf("unexpected call outputs")
	}
	if call.Payload.(*FunctionCall).Function != "AddOne" {
		t.Fatalf("call alias should default to script name")
	}
}

func TestTraversalVisitsEachNodeOnce(t *testing.T) {
	b := NewBuilder("diamond")
	x := b.Parameter(Var(types.Float, "X"))
	l := b.Op("Abs")
	r := b.Op("Negate")
	add := b.Op("Add")
	out := b.Output(UsageFunction, Var(types.Float, "R"))
	b.Link(x, "X", l, "A").Link(x, "X", r, "A").
		Link(l, "Result", add, "A").Link(r, "Result", add, "B").
		Link(add, "Result", out, "R")
	g := b.MustGraph()
	order := g.Traversal(out)
	if len(order) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(order))
	}
	if order[0] != x || order[len(order)-1] != out {
		t.Fatalf("dependencies must come first")
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(types.Vec3, "1, 2,3")
	if err != nil || len(v) != 3 || v[2] != 3 {
		t.Fatalf("vec3 parse: %v %v", v, err)
	}
	if _, err := ParseValue(types.Vec3, "1,2"); err == nil {
		t.Fatalf("expected component count error")
	}
	if s, err := ParseValue(types.Vec2, "0.5"); err != nil || len(s) != 2 || s[1] != 0.5 {
		t.Fatalf("scalar splat: %v %v", s, err)
	}
	b, err := ParseValue(types.Bool, "true")
	if err != nil {
		t.Fatalf("bool parse: %v", err)
	}
	if val, ok := b.ExplicitBool(); !ok || !val {
		t.Fatalf("true should be explicit")
	}
	if _, ok := (Value{0.5}).ExplicitBool(); ok {
		t.Fatalf("0.5 is not an explicit bool")
	}
	if FormatValue(Value{1, 2.5}) != "1,2.5" {
		t.Fatalf("format mismatch")
	}
}

func TestExternalNamespaces(t *testing.T) {
	cases := []struct {
		name  string
		usage Usage
		want  bool
	}{
		{"Engine.Time", UsageSystemSpawn, true},
		{"User.Speed", UsageFunction, true},
		{"System.Age", UsageParticleUpdate, true},
		{"System.Age", UsageSystemUpdate, false},
		{"Emitter.Rate", UsageParticleSpawn, true},
		{"Emitter.Rate", UsageEmitterSpawn, false},
		{"Particles.Position", UsageParticleSpawn, false},
	}
	for _, c := range cases {
		if got := IsExternalConstantNamespace(Var(types.Float, c.name), c.usage); got != c.want {
			t.Fatalf("%s in %s: got %v", c.name, c.usage, got)
		}
	}
	if RapidIterationName(Var(types.Float, "Module.X"), "E").Name != "Constants.E.Module.X" {
		t.Fatalf("rapid iteration name")
	}
}

func TestUsageFamilies(t *testing.T) {
	if !UsageParticleSpawnInterpolated.IsParticleSpawn() || UsageParticleSpawnInterpolated.OutputUsage() != UsageParticleSpawn {
		t.Fatalf("interpolated spawn")
	}
	if !UsageSystemSpawn.Accepts(UsageSystemUpdate) || UsageSystemUpdate.Accepts(UsageSystemSpawn) {
		t.Fatalf("system accepts")
	}
	u, err := ParseUsage("emitter-update")
	if err != nil || u != UsageEmitterUpdate {
		t.Fatalf("parse usage: %v %v", u, err)
	}
}
