package naming

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		in       string
		collapse bool
		want     string
	}{
		{"Particles.Position", false, "Particles.Position"},
		{"Particles.Position", true, "Particles_Position"},
		{"My Module/Out-1", false, "MyModule_Out_1"},
		{"a:b,c\\d", false, "a_b_c_d"},
		{"Café", false, "Café"},
	}
	for _, c := range cases {
		if got := Sanitize(c.in, c.collapse); got != c.want {
			t.Errorf("Sanitize(%q, %v) = %q, want %q", c.in, c.collapse, got, c.want)
		}
	}
}

func TestCounterUnique(t *testing.T) {
	c := NewCounter()
	got := []string{c.Unique("Result"), c.Unique("Result"), c.Unique("Result"), c.Unique("Other")}
	want := []string{"Result", "Result1", "Result2", "Other"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Unique #%d = %q, want %q", i, got[i], want[i])
		}
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
}

func TestEscapeReserved(t *testing.T) {
	if Escape("float") != "_float" || Escape("Return") != "_Return" {
		t.Fatalf("reserved words must be escaped")
	}
	if Escape("Speed") != "Speed" || Escape("") != "_unnamed" {
		t.Fatalf("unexpected escape")
	}
	c := NewCounter()
	if c.Unique("if") != "_if" {
		t.Fatalf("Unique must escape reserved bases")
	}
}
