package chunk

import (
	"errors"
	"strings"
	"testing"

	"emberc/internal/types"
)

func TestUniformAndSourceDedup(t *testing.T) {
	s := NewStore()
	a := s.AddUniform("Engine_Time", types.Float)
	b := s.AddUniform("Engine_Time", types.Float)
	c := s.AddUniform("Engine_Time", types.Int)
	if a != b || a == c {
		t.Fatalf("uniform dedup: %d %d %d", a, b, c)
	}
	src := s.AddSource("Context.Map.Particles.Age", types.Float)
	if s.AddSource("Context.Map.Particles.Age", types.Float) != src {
		t.Fatalf("source dedup")
	}
	if s.AddBody("X", "1", types.Float, nil, true, true) == s.AddBody("X", "1", types.Float, nil, true, true) {
		t.Fatalf("body chunks are never deduplicated")
	}
	if len(s.ByMode(ModeUniform)) != 2 || len(s.ByMode(ModeSource)) != 1 || len(s.ByMode(ModeBody)) != 2 {
		t.Fatalf("per-mode index mismatch")
	}
}

func TestPrinterCode(t *testing.T) {
	s := NewStore()
	u := s.AddUniform("Emitter_Scale", types.Float)
	k := s.Declare("Constant", "2", types.Float)
	r := s.Declare("Result", "{0} * {1}", types.Float, u, k)
	asg := s.AddBody("Context.Map.Particles.Scale", "{0}", types.Float, []ID{r}, false, true)
	open := s.Raw("if({0})\n\t{", k)
	p := Printer{Store: s}
	cases := []struct {
		id   ID
		want string
	}{
		{k, "\tfloat Constant = 2;\n"},
		{r, "\tfloat Result = Emitter_Scale * Constant;\n"},
		{asg, "\tContext.Map.Particles.Scale = Result;\n"},
		{open, "\tif(Constant)\n\t{\n"},
	}
	for _, c := range cases {
		got, err := p.Code(c.id)
		if err != nil {
			t.Fatalf("chunk %d: %v", c.id, err)
		}
		if got != c.want {
			t.Errorf("chunk %d = %q, want %q", c.id, got, c.want)
		}
	}
	decl := s.AddBody("Tmp", "", types.Vec3, nil, true, true)
	if got, _ := p.Code(decl); got != "\tfloat3 Tmp;\n" {
		t.Errorf("bare declaration = %q", got)
	}
}

func TestPrinterReportsUndefined(t *testing.T) {
	s := NewStore()
	bad := s.Declare("Out", "{0} + {1}", types.Float, ID(42))
	got, err := Printer{Store: s}.Code(bad)
	if !errors.Is(err, ErrUndefinedSource) {
		t.Fatalf("expected ErrUndefinedSource, got %v", err)
	}
	if strings.Contains(got, "{") || !strings.Contains(got, Undefined) {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestBodyModeGuard(t *testing.T) {
	s := NewStore()
	func() {
		defer s.EnterBody(ModeSpawnBody)()
		id := s.Statement("Foo()")
		if c, _ := s.At(id); c.Mode != ModeSpawnBody {
			t.Fatalf("statement emitted into %s", c.Mode)
		}
		got, _ := Printer{Store: s}.Code(id)
		if got != "\tFoo();\n" {
			t.Fatalf("spawn body chunk not indented: %q", got)
		}
	}()
	if s.Body() != ModeBody {
		t.Fatalf("body mode not restored: %s", s.Body())
	}
}

func TestExciseKeepsUniformsAndIDs(t *testing.T) {
	s := NewStore()
	before := s.Declare("Keep", "1", types.Float)
	m := s.Mark()
	u := s.AddUniform("User_Speed", types.Float)
	tmp := s.Declare("Tmp", "{0}", types.Float, u)
	cut := s.Excise(m, ModeBody)
	if len(cut) != 1 || cut[0] != tmp {
		t.Fatalf("Excise = %v", cut)
	}
	if ids := s.ByMode(ModeBody); len(ids) != 1 || ids[0] != before {
		t.Fatalf("body index after excise: %v", ids)
	}
	if ids := s.ByMode(ModeUniform); len(ids) != 1 || ids[0] != u {
		t.Fatalf("uniform dropped: %v", ids)
	}
	got, err := Printer{Store: s}.Code(tmp)
	if err != nil || got != "\tfloat Tmp = User_Speed;\n" {
		t.Fatalf("excised chunk no longer renders: %q, %v", got, err)
	}
}

func TestFormat(t *testing.T) {
	got, err := Format("lerp({0},{1},{2}) {x} {", []string{"a", "b", "c"})
	if err != nil || got != "lerp(a,b,c) {x} {" {
		t.Fatalf("Format = %q, %v", got, err)
	}
	if _, err := Format("{3}", nil); err == nil {
		t.Fatalf("expected error for missing operand")
	}
}
