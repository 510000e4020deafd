package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"emberc/internal/queue"
	"emberc/internal/ui"
)

// progressView resolves --ui: "on" and "off" force the choice, "auto"
// shows the view when stdout is a terminal.
func progressView(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(os.Stdout), nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

type queueOutcome struct {
	results []queue.Result
	err     error
}

// runQueueWithUI runs the queue while a progress view renders its events.
// Leaving the view early cancels the jobs that have not finished.
func runQueueWithUI(ctx context.Context, title string, jobs []queue.Job, opts queue.Options) ([]queue.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan queue.Event, 256)
	outcome := make(chan queueOutcome, 1)
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name
	}

	go func() {
		opts.Sink = queue.ChannelSink{Ch: events}
		res, err := queue.Run(ctx, jobs, opts)
		close(events)
		outcome <- queueOutcome{results: res, err: err}
	}()

	_, uiErr := tea.NewProgram(ui.NewProgressModel(title, names, events), tea.WithOutput(os.Stdout)).Run()
	cancel()
	// The view may be gone before the queue; keep workers from blocking.
	for range events {
	}
	out := <-outcome
	if uiErr != nil {
		return out.results, uiErr
	}
	return out.results, out.err
}
