package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTimerFinishesAfterPlannedTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	m := newTimerModel("Focus", start, 25*time.Minute, clock.now)

	clock.t = start.Add(10 * time.Minute)
	next, cmd := m.Update(timerTickMsg(clock.t))
	m = next.(timerModel)
	if m.quitting {
		t.Fatal("timer should still be running")
	}
	if cmd == nil {
		t.Fatal("expected the next tick to be scheduled")
	}
	if !strings.Contains(m.View(), "15:00 left") {
		t.Errorf("unexpected view:\n%s", m.View())
	}

	clock.t = start.Add(25 * time.Minute)
	next, _ = m.Update(timerTickMsg(clock.t))
	m = next.(timerModel)
	if !m.quitting || m.outcome != TimerFinished {
		t.Errorf("expected finished, got quitting=%v outcome=%v", m.quitting, m.outcome)
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestTimerKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want TimerOutcome
	}{
		{"stop", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}, TimerStopped},
		{"abandon", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, TimerAbandoned},
		{"leave", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, TimerDetached},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, TimerDetached},
	}

	start := time.Now()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTimerModel("Focus", start, time.Minute, func() time.Time { return start })
			next, cmd := m.Update(tt.key)
			got := next.(timerModel)
			if !got.quitting || got.outcome != tt.want {
				t.Errorf("outcome = %v, want %v", got.outcome, tt.want)
			}
			if cmd == nil {
				t.Error("expected quit command")
			}
		})
	}
}

func TestTimerClampsFutureStart(t *testing.T) {
	now := time.Now()
	m := newTimerModel("Focus", now.Add(time.Minute), 5*time.Minute, func() time.Time { return now })
	if m.elapsed != 0 {
		t.Errorf("elapsed = %v, want 0", m.elapsed)
	}
	if m.percent() != 0 {
		t.Errorf("percent = %v, want 0", m.percent())
	}
}
