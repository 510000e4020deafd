// Package queue translates many scripts in parallel. Every job compiles in
// its own translation arena; a job without a script is abandoned.
package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"emberc/internal/cache"
	"emberc/internal/graph"
	"emberc/internal/scriptfile"
	"emberc/internal/trace"
	"emberc/internal/translator"
)

// ErrLoad wraps script loading failures in Result.Err.
var ErrLoad = errors.New("load script")

// Job is one script to translate. Either Script is set, or Load produces
// it when the job starts.
type Job struct {
	// Name identifies the job in events and results, usually the script
	// file path.
	Name   string
	Script *graph.Script
	// Raw is the script description the cache key is computed from. Jobs
	// without it bypass the cache.
	Raw  []byte
	Load func() (*scriptfile.File, error)
}

// FileJob loads the script file at path when the job starts.
func FileJob(path string) Job {
	return Job{Name: path, Load: func() (*scriptfile.File, error) { return scriptfile.Load(path) }}
}

// Options configure a run.
type Options struct {
	// Jobs bounds the number of concurrent translations; GOMAXPROCS when
	// zero.
	Jobs      int
	Translate translator.Options
	// Cache, when set, serves unchanged scripts and keeps the last good
	// output of every script.
	Cache *cache.Store
	Sink  Sink

	translate func(context.Context, *graph.Script, translator.Options) *translator.Results
}

// Result is the outcome of one job.
type Result struct {
	Name    string
	Status  Status
	Script  string
	Results *translator.Results
	// HLSL is the generated code, from the translation or the cache.
	HLSL   string
	Cached bool
	// LastGood is the previously stored output of a script whose
	// translation failed.
	LastGood *cache.Entry
	// Err is a load failure. Translation problems are in Results.
	Err error
	// CacheErr is a cache IO failure; it does not fail the job.
	CacheErr error
	Elapsed  time.Duration
}

// Failed reports jobs that produced no output.
func (r *Result) Failed() bool { return r.Status == StatusError }

// Run executes jobs with at most opts.Jobs in flight. Results are in job
// order. The returned error is only set when ctx is cancelled.
func Run(ctx context.Context, jobs []Job, opts Options) ([]Result, error) {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}
	limit := opts.Jobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	if opts.translate == nil {
		opts.translate = translator.Translate
	}

	tracer := trace.FromContext(ctx)
	runSpan := trace.Begin(tracer, trace.ScopeQueue, "queue", trace.CurrentSpan(ctx).SpanID)
	defer func() {
		runSpan.End(fmt.Sprintf("%d jobs", len(jobs)))
	}()

	for _, job := range jobs {
		emit(opts.Sink, Event{Job: job.Name, Stage: StageLoad, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(limit, len(jobs)))
	for i := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			jobCtx := trace.WithSpanContext(gctx, trace.SpanContext{SpanID: runSpan.ID()})
			results[i] = runJob(jobCtx, jobs[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("queue: %w", err)
	}
	return results, nil
}

func runJob(ctx context.Context, job Job, opts Options) Result {
	start := time.Now()
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeQueue, "job:"+job.Name, trace.CurrentSpan(ctx).SpanID)
	res := Result{Name: job.Name}
	finish := func(stage Stage, status Status, err error) Result {
		res.Status = status
		res.Elapsed = time.Since(start)
		span.WithExtra("status", string(status)).End(res.Script)
		emit(opts.Sink, Event{Job: job.Name, Stage: stage, Status: status, Err: err, Elapsed: res.Elapsed})
		return res
	}

	script, raw := job.Script, job.Raw
	if script == nil && job.Load != nil {
		emit(opts.Sink, Event{Job: job.Name, Stage: StageLoad, Status: StatusWorking})
		f, err := job.Load()
		if err != nil {
			res.Err = fmt.Errorf("%w: %w", ErrLoad, err)
			return finish(StageLoad, StatusError, res.Err)
		}
		script, raw = f.Script, f.Raw
		if f.Types != nil && opts.Translate.Types == nil {
			opts.Translate.Types = f.Types
		}
	}
	if script == nil {
		return finish(StageLoad, StatusAbandoned, nil)
	}
	res.Script = script.FullName()

	var key cache.Digest
	if opts.Cache != nil && raw != nil {
		key = cache.Key(raw, opts.Translate)
		entry, ok, err := opts.Cache.Get(key)
		if err != nil {
			res.CacheErr = err
		}
		if ok {
			res.HLSL = entry.HLSL
			res.Cached = true
			return finish(StageCache, StatusDone, nil)
		}
	}

	emit(opts.Sink, Event{Job: job.Name, Stage: StageTranslate, Status: StatusWorking})
	tr := opts.translate(ctx, script, opts.Translate)
	res.Results = tr
	if !tr.OK {
		if opts.Cache != nil {
			last, ok, err := opts.Cache.LastGood(res.Script)
			if err != nil && res.CacheErr == nil {
				res.CacheErr = err
			}
			if ok {
				res.LastGood = last
			}
		}
		return finish(StageTranslate, StatusError, nil)
	}
	res.HLSL = tr.HLSL

	if opts.Cache != nil && raw != nil {
		emit(opts.Sink, Event{Job: job.Name, Stage: StageCache, Status: StatusWorking})
		if err := opts.Cache.Put(res.Script, key, opts.Translate, tr); err != nil {
			res.CacheErr = err
		}
	}
	return finish(StageTranslate, StatusDone, nil)
}

func emit(sink Sink, ev Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(ev)
}

// Summary counts results by status.
type Summary struct {
	Done, Failed, Abandoned, Cached int
}

// Summarize counts the results of a run.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusDone:
			s.Done++
			if r.Cached {
				s.Cached++
			}
		case StatusError:
			s.Failed++
		case StatusAbandoned:
			s.Abandoned++
		}
	}
	return s
}
