package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"emberc/internal/queue"
)

func TestProgressTracksJobEvents(t *testing.T) {
	events := make(chan queue.Event)
	m := NewProgressModel("Translating", []string{"spawn.toml", "update.toml", "empty"}, events).(*model)

	m.Update(eventMsg{Job: "spawn.toml", Stage: queue.StageTranslate, Status: queue.StatusWorking})
	m.Update(eventMsg{Job: "update.toml", Stage: queue.StageCache, Status: queue.StatusDone})
	m.Update(eventMsg{Job: "empty", Stage: queue.StageLoad, Status: queue.StatusAbandoned})
	m.Update(eventMsg{Job: "unknown", Stage: queue.StageLoad, Status: queue.StatusError})

	if got := m.rows[0].label(); got != "translating" {
		t.Fatalf("spawn label = %q", got)
	}
	if !m.rows[1].cached() {
		t.Fatalf("cache hit not recorded")
	}
	if n, failed := m.finished(); n != 2 || failed != 0 {
		t.Fatalf("finished = %d (%d failed), want 2", n, failed)
	}
	view := m.View()
	for _, want := range []string{"Translating 2/3", "translating", "cached", "abandoned"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressCountsFailures(t *testing.T) {
	events := make(chan queue.Event)
	m := NewProgressModel("Translating", []string{"a", "b"}, events).(*model)
	m.Update(eventMsg{Job: "a", Stage: queue.StageTranslate, Status: queue.StatusError})
	if view := m.View(); !strings.Contains(view, "Translating 1/2, 1 failed") {
		t.Fatalf("view:\n%s", view)
	}
	if w := m.rows[1].weight(); w != 0 {
		t.Fatalf("queued weight = %v", w)
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	events := make(chan queue.Event)
	close(events)
	m := NewProgressModel("Translating", []string{"a"}, events).(*model)
	if _, ok := m.next().(closedMsg); !ok {
		t.Fatalf("closed channel did not end the view")
	}
	m.Update(closedMsg{})
	if !strings.Contains(m.View(), "done: Translating 0/1") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("fx/sparks/update.toml", 10); got != "fx/spar..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("火花.toml", 6); runewidth.StringWidth(got) > 6 {
		t.Fatalf("truncate exceeded width: %q", got)
	}
	if got := truncate("short", 20); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
