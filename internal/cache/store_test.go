package cache

import (
	"context"
	"errors"
	"testing"

	"emberc/internal/graph"
	"emberc/internal/translator"
	"emberc/internal/types"
)

func lifetimeScript(t *testing.T, linked bool) *graph.Script {
	t.Helper()
	b := graph.NewBuilder("Spawn")
	in := b.Parameter(graph.Var(types.Float, "User.Lifetime"))
	out := b.Output(graph.UsageParticleSpawn, graph.Var(types.Float, "Particles.Lifetime"))
	if linked {
		b.Link(in, "User.Lifetime", out, "Particles.Lifetime")
	}
	s := &graph.Script{Name: "Spawn", EmitterName: "Fountain", Usage: graph.UsageParticleSpawn, Graph: b.MustGraph()}
	s.SyncVariables()
	return s
}

func TestKeyDependsOnContentAndOptions(t *testing.T) {
	raw := []byte("name = \"Spawn\"\n")
	cpu := Key(raw, translator.Options{})
	if cpu != Key(raw, translator.Options{}) {
		t.Fatalf("key is not stable")
	}
	if cpu == Key(raw, translator.Options{Target: translator.TargetGPU}) {
		t.Fatalf("target does not change the key")
	}
	if cpu == Key(raw, translator.Options{RapidIteration: true}) {
		t.Fatalf("rapid iteration does not change the key")
	}
	if cpu == Key([]byte("name = \"Update\"\n"), translator.Options{}) {
		t.Fatalf("content does not change the key")
	}
	if cpu != Key(raw, translator.Options{Timings: true, MaxDiagnostics: 3}) {
		t.Fatalf("output-neutral options changed the key")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	opts := translator.Options{}
	res := translator.Translate(context.Background(), lifetimeScript(t, true), opts)
	if !res.OK {
		t.Fatalf("fixture translation failed")
	}
	key := Key([]byte("v1"), opts)
	if err := store.Put("Fountain.Spawn", key, opts, res); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	e, ok, err := store.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if e.HLSL != res.HLSL || e.Key != key || e.Target != "cpu" {
		t.Fatalf("entry mismatch: %+v", e)
	}
	if len(e.Attributes) != 1 || e.Attributes[0] != (Attribute{Name: "Lifetime", Type: "float"}) {
		t.Fatalf("attributes = %v", e.Attributes)
	}
	if _, ok, _ := store.Get(Key([]byte("v2"), opts)); ok {
		t.Fatalf("unexpected hit for unknown key")
	}
}

func TestFailedTranslationKeepsLastGood(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	opts := translator.Options{}
	good := translator.Translate(context.Background(), lifetimeScript(t, true), opts)
	if err := store.Put("Fountain.Spawn", Key([]byte("v1"), opts), opts, good); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	bad := translator.Translate(context.Background(), lifetimeScript(t, false), opts)
	if bad.OK {
		t.Fatalf("broken fixture translated")
	}
	badKey := Key([]byte("v2"), opts)
	if err := store.Put("Fountain.Spawn", badKey, opts, bad); !errors.Is(err, ErrNotSuccessful) {
		t.Fatalf("Put of failed result = %v, want ErrNotSuccessful", err)
	}
	if _, ok, _ := store.Get(badKey); ok {
		t.Fatalf("failed translation was stored")
	}

	last, ok, err := store.LastGood("Fountain.Spawn")
	if err != nil || !ok {
		t.Fatalf("LastGood = %v, %v", ok, err)
	}
	if last.HLSL != good.HLSL {
		t.Fatalf("last good output was replaced")
	}
}

func TestLastGoodUnknownScript(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok, err := store.LastGood("Nobody.Spawn"); ok || err != nil {
		t.Fatalf("LastGood = %v, %v", ok, err)
	}
}

func TestDropAll(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	opts := translator.Options{}
	res := translator.Translate(context.Background(), lifetimeScript(t, true), opts)
	key := Key([]byte("v1"), opts)
	if err := store.Put("Fountain.Spawn", key, opts, res); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.DropAll(); err != nil {
		t.Fatalf("DropAll returned error: %v", err)
	}
	if _, ok, _ := store.Get(key); ok {
		t.Fatalf("entry survived DropAll")
	}
	if _, ok, _ := store.LastGood("Fountain.Spawn"); ok {
		t.Fatalf("last good survived DropAll")
	}
}

func TestNilStoreIsInert(t *testing.T) {
	var store *Store
	if err := store.Put("x", Digest{}, translator.Options{}, nil); err != nil {
		t.Fatalf("nil Put returned %v", err)
	}
	if _, ok, err := store.LastGood("x"); ok || err != nil {
		t.Fatalf("nil LastGood = %v, %v", ok, err)
	}
}
