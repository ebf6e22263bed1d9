package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// TimerOutcome says how a pomodoro timer view ended
type TimerOutcome int

const (
	// TimerDetached means the user left the view; the session keeps running
	TimerDetached TimerOutcome = iota
	// TimerFinished means the planned time elapsed
	TimerFinished
	// TimerStopped means the user ended the session early as completed
	TimerStopped
	// TimerAbandoned means the user gave up on the session
	TimerAbandoned
)

type timerTickMsg time.Time

// timerModel is the bubbletea model counting down a running session
type timerModel struct {
	title    string
	started  time.Time
	planned  time.Duration
	elapsed  time.Duration
	now      func() time.Time
	bar      progress.Model
	outcome  TimerOutcome
	quitting bool
}

func newTimerModel(title string, started time.Time, planned time.Duration, now func() time.Time) timerModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 40
	m := timerModel{
		title:   title,
		started: started,
		planned: planned,
		now:     now,
		bar:     bar,
	}
	m.elapsed = m.clampElapsed()
	return m
}

func timerTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

func (m timerModel) clampElapsed() time.Duration {
	elapsed := m.now().Sub(m.started)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Init starts the one second tick
func (m timerModel) Init() tea.Cmd {
	return timerTick()
}

// Update handles ticks and keys
func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			return m.quit(TimerStopped)
		case "a":
			return m.quit(TimerAbandoned)
		case "q", "esc", "ctrl+c":
			return m.quit(TimerDetached)
		}

	case timerTickMsg:
		m.elapsed = m.clampElapsed()
		if m.elapsed >= m.planned {
			return m.quit(TimerFinished)
		}
		return m, timerTick()
	}

	return m, nil
}

func (m timerModel) quit(outcome TimerOutcome) (tea.Model, tea.Cmd) {
	m.outcome = outcome
	m.quitting = true
	return m, tea.Quit
}

func (m timerModel) percent() float64 {
	if m.planned <= 0 {
		return 1
	}
	return min(float64(m.elapsed)/float64(m.planned), 1)
}

// View renders the countdown
func (m timerModel) View() string {
	if m.quitting {
		return ""
	}

	remaining := (m.planned - m.elapsed).Round(time.Second)
	if remaining < 0 {
		remaining = 0
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %02d:%02d left\n", int(remaining.Minutes()), int(remaining.Seconds())%60)
	b.WriteString("  " + m.bar.ViewAs(m.percent()) + "\n\n")
	b.WriteString(dimStyle.Render("  s stop • a abandon • q leave running"))
	b.WriteString("\n")
	return b.String()
}

// RunTimer shows a countdown for a session started at started until the
// planned time elapses or the user leaves.
func RunTimer(title string, started time.Time, planned time.Duration) (TimerOutcome, error) {
	p := tea.NewProgram(newTimerModel(title, started, planned, time.Now))
	final, err := p.Run()
	if err != nil {
		return TimerDetached, fmt.Errorf("timer view failed: %w", err)
	}
	return final.(timerModel).outcome, nil
}
