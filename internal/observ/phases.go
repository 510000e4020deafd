// Package observ measures the phases of a translation.
package observ

import (
	"time"

	"emberc/internal/trace"
)

// PhaseReport is one finished phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report lists the finished phases in the order they started.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Phases times translation phases and opens a trace span for each. Timing
// is only kept when enabled; spans follow the tracer's level either way.
type Phases struct {
	tracer trace.Tracer
	parent uint64
	timed  bool
	done   []PhaseReport
	total  time.Duration
}

// NewPhases records phases under the span parent of tracer.
func NewPhases(tracer trace.Tracer, parent uint64, timed bool) *Phases {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Phases{tracer: tracer, parent: parent, timed: timed}
}

// Phase is a running phase.
type Phase struct {
	set     *Phases
	name    string
	span    *trace.Span
	started time.Time
}

// Begin starts the phase name.
func (p *Phases) Begin(name string) *Phase {
	return &Phase{
		set:     p,
		name:    name,
		span:    trace.Begin(p.tracer, trace.ScopePhase, name, p.parent),
		started: time.Now(),
	}
}

// End finishes the phase with an optional note.
func (ph *Phase) End(note string) {
	if ph == nil || ph.set == nil {
		return
	}
	ph.span.End(note)
	p := ph.set
	ph.set = nil
	if !p.timed {
		return
	}
	d := time.Since(ph.started)
	p.total += d
	p.done = append(p.done, PhaseReport{Name: ph.name, DurationMS: millis(d), Note: note})
}

// Report is empty unless timing was enabled.
func (p *Phases) Report() Report {
	if p == nil || !p.timed || len(p.done) == 0 {
		return Report{}
	}
	return Report{
		TotalMS: millis(p.total),
		Phases:  append([]PhaseReport(nil), p.done...),
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
