// Package progress reports pipeline status: field index, dropped-frame
// count, and elapsed time. When stdout is a terminal it drives a small
// bubbletea program; otherwise it falls back to periodic slog lines, the
// same ticker-driven shape as e7canasta-orion-care-sensor's stats
// reporter, adapted from fmt.Println to a structured logger.
//
// The teacher's go.mod already carries bubbletea and lipgloss (unused in
// the retrieved snapshot); this package is their first caller.
package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Stats is the snapshot the pipeline reports on each tick.
type Stats struct {
	FieldIndex int64
	Dropped    int64
	Total      int64 // 0 if unknown (e.g. streaming input)
}

// Source is polled once per tick for the latest Stats.
type Source func() Stats

// Reporter drives either the terminal UI or the slog fallback, selected
// once at New based on whether out is a terminal.
type Reporter struct {
	source   Source
	interval time.Duration
	isTTY    bool
	out      io.Writer
}

// New builds a Reporter. out is typically os.Stdout; isTTY detection
// follows mattn/go-isatty, the same library termenv (a bubbletea
// dependency) already uses internally.
func New(out io.Writer, fd uintptr, source Source) *Reporter {
	return &Reporter{
		source:   source,
		interval: 500 * time.Millisecond,
		isTTY:    isatty.IsTerminal(fd),
		out:      out,
	}
}

// Run blocks until ctx is canceled, reporting Stats at Reporter's
// interval. It never returns an error: a broken terminal or write failure
// degrades progress reporting, not the transcode itself.
func (r *Reporter) Run(ctx context.Context) {
	if r.isTTY {
		r.runTUI(ctx)
		return
	}
	r.runPlain(ctx)
}

func (r *Reporter) runPlain(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := r.source()
			slog.Info("progress",
				"field_index", s.FieldIndex,
				"dropped", s.Dropped,
				"total", s.Total,
				"elapsed", time.Since(start).Round(time.Second))
		}
	}
}

func (r *Reporter) runTUI(ctx context.Context) {
	m := newModel(r.source, r.interval)
	p := tea.NewProgram(m, tea.WithOutput(r.out), tea.WithContext(ctx))
	p.Run() //nolint:errcheck
}

type tickMsg time.Time

type model struct {
	source   Source
	interval time.Duration
	start    time.Time
	stats    Stats
}

func newModel(source Source, interval time.Duration) model {
	return model{source: source, interval: interval, start: time.Now()}
}

func (m model) Init() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tickMsg:
		m.stats = m.source()
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78"))
)

func (m model) View() string {
	elapsed := time.Since(m.start).Round(time.Second)
	total := ""
	if m.stats.Total > 0 {
		total = fmt.Sprintf(" / %d", m.stats.Total)
	}
	return fmt.Sprintf(
		"%s %s%s   %s %s   %s %s\n",
		labelStyle.Render("field"), valueStyle.Render(fmt.Sprintf("%d", m.stats.FieldIndex)), total,
		labelStyle.Render("dropped"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Dropped)),
		labelStyle.Render("elapsed"), valueStyle.Render(elapsed.String()),
	)
}
