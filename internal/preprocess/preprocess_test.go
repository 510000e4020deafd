package preprocess

import (
	"strings"
	"testing"

	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/types"
)

func newReporter() (*diag.Bag, diag.Reporter) {
	bag := diag.NewBag(32)
	return bag, diag.BagReporter{Bag: bag}
}

func numericFunction(t *testing.T) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Scale")
	x := b.Parameter(graph.Var(types.Numeric, "X"))
	mul := b.Op("Multiply")
	out := b.Output(graph.UsageFunction, graph.Var(types.Numeric, "Out"))
	b.Link(x, "X", mul, "A").SetDefault(mul, "B", "2").Link(mul, "Result", out, "Out")
	s := &graph.Script{Name: "Scale", Usage: graph.UsageFunction, Graph: b.MustGraph()}
	s.SyncVariables()
	return s
}

func TestFixUpPropagatesFromLeaves(t *testing.T) {
	b := graph.NewBuilder("Update")
	pos := b.Parameter(graph.Var(types.Vec3, "Offset"))
	add := b.Op("Add")
	abs := b.Op("Abs")
	out := b.Output(graph.UsageParticleUpdate, graph.Var(types.Vec3, "Particles.Position"))
	b.Link(pos, "Offset", add, "A").Link(add, "Result", abs, "A").Link(abs, "Result", out, "Particles.Position")
	g := b.MustGraph()

	bag, rep := newReporter()
	FixUp(g, out, rep)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diag.FormatGoldenDiagnostics(bag.Items(), false))
	}
	if left := Unresolved(g, out); len(left) != 0 {
		t.Fatalf("numeric pins remain: %d", len(left))
	}
	if add.InputPin("B").Type != types.Vec3 {
		t.Fatalf("unlinked operand should follow the linked one, got %s", add.InputPin("B").Type)
	}
	if abs.Outputs[0].Type != types.Vec3 {
		t.Fatalf("abs output = %s", abs.Outputs[0].Type)
	}
	if v := add.InputPin("B").Variable(); len(v.Value) != 3 || v.Value[2] != 1 {
		t.Fatalf("default did not splat: %v", v.Value)
	}
}

func TestFixUpScalarSelection(t *testing.T) {
	b := graph.NewBuilder("Len")
	v := b.Parameter(graph.Var(types.Vec4, "V"))
	dot := b.Op("Dot")
	out := b.Output(graph.UsageFunction, graph.Var(types.Float, "L"))
	b.Link(v, "V", dot, "A").Link(v, "V", dot, "B").Link(dot, "Result", out, "L")
	g := b.MustGraph()
	_, rep := newReporter()
	FixUp(g, out, rep)
	if dot.Outputs[0].Type != types.Float {
		t.Fatalf("dot output = %s", dot.Outputs[0].Type)
	}
}

func TestFixUpReportsUndeducible(t *testing.T) {
	b := graph.NewBuilder("Bad")
	abs := b.Op("Abs")
	out := b.Output(graph.UsageFunction, graph.Var(types.Float, "R"))
	b.Link(abs, "Result", out, "R")
	g := b.MustGraph()
	bag, rep := newReporter()
	FixUp(g, out, rep)
	if !bag.HasErrors() {
		t.Fatalf("expected an error")
	}
	d := bag.Items()[0]
	if d.Code != diag.TypNumericUnresolved || d.Message != "Unable to deduce type for numeric input pin." {
		t.Fatalf("unexpected diagnostic %v", d)
	}
	if d.Primary.Node != uint32(abs.ID) || d.Primary.Pin != uint32(abs.Inputs[0].ID) {
		t.Fatalf("diagnostic not anchored to the pin: %v", d.Primary)
	}
}

func TestStandaloneScriptForcesAndReverts(t *testing.T) {
	s := numericFunction(t)
	bag, rep := newReporter()
	g, changed := Script(s, rep)
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %s", diag.FormatGoldenDiagnostics(bag.Items(), false))
	}
	if len(changed) != 2 || !changed[0].Type.IsNumeric() {
		t.Fatalf("changed = %v", changed)
	}
	outNode := g.FindOutputNode(graph.UsageFunction, 0)
	if outNode.Payload.(*graph.Output).Vars[0].Type != types.Float {
		t.Fatalf("output variable not synced")
	}
	if s.Graph.FindOutputNode(graph.UsageFunction, 0).Payload.(*graph.Output).Vars[0].Type != types.Numeric {
		t.Fatalf("source graph mutated")
	}

	Revert(s, g, changed, rep)
	if bag.Len() != 0 {
		t.Fatalf("revert diagnostics: %s", diag.FormatGoldenDiagnostics(bag.Items(), false))
	}
	if outNode.Payload.(*graph.Output).Vars[0].Type != types.Numeric {
		t.Fatalf("output variable not reverted")
	}
}

func TestRevertReportsMissingParameter(t *testing.T) {
	s := numericFunction(t)
	s.Parameters, s.Attributes = nil, []graph.Variable{graph.Var(types.Float, "Other")}
	bag, rep := newReporter()
	g, changed := Script(s, rep)
	Revert(s, g, changed, rep)
	if bag.Len() != 2 {
		t.Fatalf("expected one error per missing variable, got %d", bag.Len())
	}
	if !strings.Contains(bag.Items()[0].Message, "Unable to find parameter 'Numeric X' in outputs!") {
		t.Fatalf("message %q", bag.Items()[0].Message)
	}
}

func TestFunctionGraphSpecialisesCallSite(t *testing.T) {
	s := numericFunction(t)
	caller := graph.NewBuilder("Caller")
	call := caller.Call(s, "")
	caller.MustGraph()
	call.Inputs[0].Type = types.Vec3
	call.Outputs[0].Type = types.Vec3

	g := s.Graph.Clone()
	bag, rep := newReporter()
	FunctionGraph(g, call.Inputs, call.Outputs, graph.UsageFunction, rep)
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %s", diag.FormatGoldenDiagnostics(bag.Items(), false))
	}
	out := g.FindOutputNode(graph.UsageFunction, 0)
	if out.Payload.(*graph.Output).Vars[0].Type != types.Vec3 {
		t.Fatalf("output var not specialised")
	}
	if left := Unresolved(g, out); len(left) != 0 {
		t.Fatalf("numeric pins remain after specialisation")
	}
	if out.Inputs[0].Type != types.Vec3 {
		t.Fatalf("output pin = %s", out.Inputs[0].Type)
	}
}

func TestFunctionGraphFixesDataSetWrites(t *testing.T) {
	b := graph.NewBuilder("Emit")
	x := b.Parameter(graph.Var(types.Numeric, "X"))
	abs := b.Op("Abs")
	neg := b.Op("Negate")
	w := b.WriteDataSet(graph.DataSetID{Name: "Collision"}, graph.Var(types.Float, "Speed"))
	out := b.Output(graph.UsageFunction, graph.Var(types.Numeric, "R"))
	b.Link(x, "X", abs, "A").Link(abs, "Result", out, "R").
		Link(x, "X", neg, "A").Link(neg, "Result", w, "Speed")
	g := b.MustGraph()
	callIn := []*graph.Pin{{Name: "X", Type: types.Float}}
	bag, rep := newReporter()
	FunctionGraph(g, callIn, nil, graph.UsageFunction, rep)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %s", diag.FormatGoldenDiagnostics(bag.Items(), false))
	}
	if neg.Outputs[0].Type != types.Float {
		t.Fatalf("write path not fixed up: %s", neg.Outputs[0].Type)
	}
	if out.Inputs[0].Type != types.Float {
		t.Fatalf("output pin = %s", out.Inputs[0].Type)
	}
}
