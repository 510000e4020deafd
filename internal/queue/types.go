package queue

import "time"

// Stage is the step a job is in.
type Stage string

const (
	StageLoad      Stage = "load"
	StageTranslate Stage = "translate"
	StageCache     Stage = "cache"
)

// Status captures progress state of a job.
type Status string

const (
	// StatusQueued indicates the job is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the job is running.
	StatusWorking Status = "working"
	// StatusDone indicates the script translated (or was served from the
	// cache).
	StatusDone Status = "done"
	// StatusError indicates the job failed to load or translate.
	StatusError Status = "error"
	// StatusAbandoned indicates the job had no script to translate.
	StatusAbandoned Status = "abandoned"
)

// Finished reports whether no further events follow for the job.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusError || s == StatusAbandoned
}

// Event reports progress for a job, or for the whole run when Job is
// empty.
type Event struct {
	Job     string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events. OnEvent is called from worker
// goroutines.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }
