package progress

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelUpdateOnTickRefreshesStats(t *testing.T) {
	calls := 0
	source := func() Stats {
		calls++
		return Stats{FieldIndex: int64(calls), Dropped: 1, Total: 10}
	}
	m := newModel(source, 10*time.Millisecond)

	next, cmd := m.Update(tickMsg(time.Now()))
	nm := next.(model)

	if nm.stats.FieldIndex != 1 {
		t.Errorf("stats.FieldIndex = %d, want 1", nm.stats.FieldIndex)
	}
	if cmd == nil {
		t.Error("Update on tickMsg should return a follow-up tea.Cmd")
	}
}

func TestModelUpdateOnCtrlCQuits(t *testing.T) {
	m := newModel(func() Stats { return Stats{} }, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Ctrl+C should return a tea.Cmd")
	}
}

func TestModelViewRendersFieldIndexAndDropped(t *testing.T) {
	m := newModel(func() Stats { return Stats{FieldIndex: 42, Dropped: 3, Total: 100} }, time.Second)
	m.stats = Stats{FieldIndex: 42, Dropped: 3, Total: 100}

	view := m.View()
	if !strings.Contains(view, "42") {
		t.Errorf("View() = %q, want it to contain field index 42", view)
	}
	if !strings.Contains(view, "3") {
		t.Errorf("View() = %q, want it to contain dropped count 3", view)
	}
	if !strings.Contains(view, "100") {
		t.Errorf("View() = %q, want it to contain total 100", view)
	}
}

func TestModelViewOmitsTotalWhenUnknown(t *testing.T) {
	m := newModel(func() Stats { return Stats{} }, time.Second)
	m.stats = Stats{FieldIndex: 5, Total: 0}
	view := m.View()
	if strings.Contains(view, "/ 0") {
		t.Errorf("View() = %q, should not render a total when Total is 0", view)
	}
}

func TestRunPlainStopsOnContextCancel(t *testing.T) {
	r := New(nil, 0, func() Stats { return Stats{} })
	r.interval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.runPlain(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runPlain did not return after context cancellation")
	}
}
