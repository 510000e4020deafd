package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"emberc/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.GrfNoOutputLinks, diag.Anchor{Graph: "Spawn", Node: 3},
		"Cannot find any connections to output node of type particle-spawn!").
		WithNote(diag.Anchor{Graph: "Spawn", Node: 1}, "callstack: Spawn.Scale"))
	bag.Add(diag.New(diag.SevWarning, diag.NspSpawnDeltaTime, diag.Anchor{Graph: "Spawn", Node: 4, Pin: 5},
		"Cannot call system variable Engine.DeltaTime in a spawn script! It is invalid.").
		WithFix("read Engine.DeltaTime in the update script"))
	bag.Sort()
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true, ShowFixes: true, Summary: true})
	out := buf.String()

	for _, want := range []string{
		"Spawn#3: ERROR GRF1003: Cannot find any connections",
		"Spawn#4:5: WARNING NSP3005:",
		"= note: Spawn#1: callstack: Spawn.Scale",
		"= fix: read Engine.DeltaTime in the update script",
		"1 error, 1 warning",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("escape codes in plain output:\n%s", out)
	}
}

func TestPrettyColor(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("no escape codes in colored output")
	}
}

func TestPrettyDescribe(t *testing.T) {
	var buf bytes.Buffer
	describe := func(a diag.Anchor) string {
		if a.Node == 3 {
			return "OutputParticleSpawn"
		}
		return ""
	}
	Pretty(&buf, sampleBag(), PrettyOpts{Describe: describe})
	if !strings.Contains(buf.String(), "Spawn#3 (OutputParticleSpawn): ERROR") {
		t.Fatalf("description not rendered:\n%s", buf.String())
	}
}

func TestPrettyWraps(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{Width: 50})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) <= 2 {
		t.Fatalf("expected wrapped output, got:\n%s", buf.String())
	}
	for _, l := range lines[1:] {
		if strings.HasPrefix(l, "Spawn#") {
			continue
		}
		if !strings.HasPrefix(l, "   ") {
			t.Errorf("continuation line not indented: %q", l)
		}
	}
}
