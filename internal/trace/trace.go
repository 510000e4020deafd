// Package trace records spans around translation work.
//
// Tracing is off unless the CLI enables it:
//
//	emberc batch --trace=- --trace-level=phase scripts/
//
// The tracer travels in the context. Code that does traced work opens a
// span under the current one:
//
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "assemble", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
package trace

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Level controls how fine grained the recorded spans are.
type Level uint8

const (
	LevelOff    Level = iota
	LevelPhase        // queue, jobs and translation phases
	LevelDetail       // plus function bodies
	LevelDebug        // plus single graph nodes
)

var levelNames = [...]string{"off", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel reads a level name, ignoring case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|phase|detail|debug)", s)
}

// Emits reports whether spans of scope are recorded at this level.
func (l Level) Emits(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopePhase
	case LevelDetail:
		return scope <= ScopeFunction
	case LevelDebug:
		return true
	}
	return false
}

// Scope is the granularity of a span. Lower values are coarser.
type Scope uint8

const (
	ScopeQueue Scope = iota + 1
	ScopePhase
	ScopeFunction
	ScopeNode
)

func (s Scope) String() string {
	switch s {
	case ScopeQueue:
		return "queue"
	case ScopePhase:
		return "phase"
	case ScopeFunction:
		return "function"
	case ScopeNode:
		return "node"
	}
	return "unknown"
}

// Kind tells span boundaries from heartbeats.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindHeartbeat:
		return "heartbeat"
	}
	return "unknown"
}

// Event is one recorded span boundary or heartbeat.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string // "assemble", "job:Sparks.ParticleUpdate", ...
	Detail   string
	Extra    map[string]string
	Elapsed  time.Duration // set on KindEnd
}

// Tracer receives events. Implementations must be safe for concurrent use.
type Tracer interface {
	Emit(ev Event)
	Level() Level
	Close() error
}

type nopTracer struct{}

func (nopTracer) Emit(Event)   {}
func (nopTracer) Level() Level { return LevelOff }
func (nopTracer) Close() error { return nil }

// Nop drops everything.
var Nop Tracer = nopTracer{}

type tracerKey struct{}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer of ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// SpanContext names the span new work should nest under.
type SpanContext struct {
	SpanID uint64
}

type spanKey struct{}

// WithSpanContext records sc as the current span of ctx.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanKey{}, sc)
}

// CurrentSpan returns the current span of ctx, zero at the root.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanKey{}).(SpanContext)
	return sc
}
