// Package ui renders batch translation progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"emberc/internal/queue"
)

// row is the last known state of one job.
type row struct {
	job    string
	stage  queue.Stage
	status queue.Status
}

func (r row) cached() bool {
	return r.status == queue.StatusDone && r.stage == queue.StageCache
}

// label is what the status column shows.
func (r row) label() string {
	switch {
	case r.cached():
		return "cached"
	case r.status != queue.StatusWorking:
		return string(r.status)
	}
	switch r.stage {
	case queue.StageLoad:
		return "loading"
	case queue.StageTranslate:
		return "translating"
	case queue.StageCache:
		return "storing"
	}
	return string(r.status)
}

// weight is how far the job counts toward the progress bar.
func (r row) weight() float64 {
	switch {
	case r.status.Finished():
		return 1
	case r.status != queue.StatusWorking:
		return 0
	case r.stage == queue.StageTranslate:
		return 0.5
	case r.stage == queue.StageCache:
		return 0.9
	}
	return 0.1
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	labelColors = map[string]lipgloss.Color{
		"done":        "2",
		"cached":      "2",
		"error":       "1",
		"abandoned":   "3",
		"loading":     "6",
		"translating": "6",
		"storing":     "6",
	}
)

func renderLabel(label string) string {
	color, ok := labelColors[label]
	if !ok {
		color = "7"
	}
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%12s", label))
}

type model struct {
	title   string
	events  <-chan queue.Event
	rows    []row
	byJob   map[string]int
	spinner spinner.Model
	bar     progress.Model
	width   int
	closed  bool
}

type eventMsg queue.Event

type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model listing jobs with their
// current stage. It quits once events is closed.
func NewProgressModel(title string, jobs []string, events <-chan queue.Event) tea.Model {
	m := &model{
		title:   title,
		events:  events,
		rows:    make([]row, len(jobs)),
		byJob:   make(map[string]int, len(jobs)),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		width:   80,
	}
	for i, job := range jobs {
		m.rows[i] = row{job: job, status: queue.StatusQueued}
		m.byJob[job] = i
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next)
}

// next waits for the following queue event.
func (m *model) next() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return closedMsg{}
	}
	return eventMsg(ev)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(queue.Event(msg)), m.next)
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case spinner.TickMsg:
		if !m.closed {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// apply records ev and moves the bar. Events of unknown jobs, like the
// run-level ones, are ignored.
func (m *model) apply(ev queue.Event) tea.Cmd {
	i, ok := m.byJob[ev.Job]
	if !ok {
		return nil
	}
	m.rows[i].stage = ev.Stage
	m.rows[i].status = ev.Status

	var sum float64
	for _, r := range m.rows {
		sum += r.weight()
	}
	return m.bar.SetPercent(sum / float64(len(m.rows)))
}

func (m *model) finished() (n, failed int) {
	for _, r := range m.rows {
		if r.status.Finished() {
			n++
		}
		if r.status == queue.StatusError {
			failed++
		}
	}
	return n, failed
}

func (m *model) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	n, failed := m.finished()
	header := fmt.Sprintf("%s %d/%d", m.title, n, len(m.rows))
	if failed > 0 {
		header += fmt.Sprintf(", %d failed", failed)
	}
	if m.closed {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")
	nameWidth := max(m.width-16, 20)
	for _, r := range m.rows {
		fmt.Fprintf(&b, "  %s %s\n", renderLabel(r.label()), truncate(r.job, nameWidth))
	}
	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// truncate shortens s to width display cells, marking the cut with "...".
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
