package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/riftdata/schemadiff/internal/introspect"
)

// Progress shows one line per database being introspected: a spinner until
// the table count is known, then a progress bar.
type Progress struct {
	out     io.Writer
	enabled bool

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

type sourceProgress struct {
	label    string
	done     int
	total    int
	table    string
	finished bool
}

type progressModel struct {
	spinner  spinner.Model
	bar      progress.Model
	sources  []*sourceProgress
	quitting bool
}

type progressUpdateMsg struct {
	label string
	done  int
	total int
	table string
}

type progressDoneMsg struct{}

func initialProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return progressModel{
		spinner: s,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
		),
	}
}

func (m *progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *progressModel) source(label string) *sourceProgress {
	for _, s := range m.sources {
		if s.label == label {
			return s
		}
	}
	s := &sourceProgress{label: label}
	m.sources = append(m.sources, s)
	return s
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressUpdateMsg:
		s := m.source(msg.label)
		s.done, s.total, s.table = msg.done, msg.total, msg.table
		s.finished = msg.total > 0 && msg.done >= msg.total
		return m, nil
	case progressDoneMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder
	for _, s := range m.sources {
		switch {
		case s.finished:
			fmt.Fprintf(&b, "%s %s %s (%d tables)\n", Success.Render(IconSuccess), IconDatabase, s.label, s.total)
		case m.quitting:
			// interrupted; leave nothing behind
		case s.total == 0:
			fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), s.label)
		default:
			pct := float64(s.done) / float64(s.total)
			fmt.Fprintf(&b, "%s %s %s\n", m.bar.ViewAs(pct), s.label, Muted.Render(s.table))
		}
	}
	return b.String()
}

// NewProgress creates a progress display writing to o's error stream. It
// draws nothing unless that stream is a terminal.
func NewProgress(o *Output) *Progress {
	return &Progress{
		out:     o.errWriter,
		enabled: o.IsInteractiveErr(),
		done:    make(chan struct{}),
	}
}

// Start starts the display
func (p *Progress) Start() {
	if !p.enabled {
		return
	}
	model := initialProgressModel()

	p.mu.Lock()
	defer p.mu.Unlock()
	// No input: stdin may be a schema source.
	p.program = tea.NewProgram(&model, tea.WithOutput(p.out), tea.WithInput(nil))

	go func() {
		_, _ = p.program.Run()
		close(p.done)
	}()
}

// Track returns the callback for one database. It is safe to call from
// several goroutines.
func (p *Progress) Track(label string) introspect.ProgressFunc {
	p.send(progressUpdateMsg{label: label})
	return func(done, total int, table string) {
		p.send(progressUpdateMsg{label: label, done: done, total: total, table: table})
	}
}

func (p *Progress) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()
	if program != nil {
		program.Send(msg)
	}
}

// Stop stops the display, leaving a line for each finished database
func (p *Progress) Stop() {
	p.mu.Lock()
	program := p.program
	p.program = nil
	p.mu.Unlock()

	if program != nil {
		program.Send(progressDoneMsg{})
		<-p.done
	}
}
