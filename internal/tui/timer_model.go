package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/pulse/internal/models"
)

// TimerAction is what the user chose before leaving the timer
type TimerAction int

const (
	// ActionDetach leaves the entry running
	ActionDetach TimerAction = iota
	ActionStop
	ActionPause
)

// TimerController closes the running entry once the timer exits
type TimerController interface {
	Stop(ctx context.Context, taskID string) (*models.TimeEntry, error)
	Pause(ctx context.Context, taskID string) (*models.TimeEntry, error)
}

type timerKeyMap struct {
	Stop  key.Binding
	Pause key.Binding
	Quit  key.Binding
}

func (k timerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Pause, k.Quit}
}

func (k timerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var timerKeys = timerKeyMap{
	Stop: key.NewBinding(
		key.WithKeys("s", "S"),
		key.WithHelp("s", "stop & save"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", "P"),
		key.WithHelp("p", "pause"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "q", "ctrl+c"),
		key.WithHelp("esc/q", "exit (keep running)"),
	),
}

// TimerModel represents the TUI model for time tracking
type TimerModel struct {
	width  int
	height int
	entry  *models.TimeEntry
	task   *models.Task

	// prior closed minutes on the task, shown next to the live clock
	priorMinutes int

	now         func() time.Time
	elapsedTime time.Duration

	timerAnimation int

	help   help.Model
	action TimerAction
	done   bool
}

// timerTickMsg is sent every second to update the timer
type timerTickMsg struct{}

// animationTickMsg is sent for faster animations
type animationTickMsg struct{}

// NewTimerModel creates a new timer TUI model
func NewTimerModel(entry *models.TimeEntry, task *models.Task, now func() time.Time) TimerModel {
	if now == nil {
		now = time.Now
	}
	return TimerModel{
		entry:        entry,
		task:         task,
		priorMinutes: task.ActualDuration,
		now:          now,
		elapsedTime:  now().Sub(entry.StartTime),
		help:         help.New(),
	}
}

// Action returns what the user chose when the program exited
func (m TimerModel) Action() TimerAction {
	return m.action
}

// Init initializes the timer model
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(tickTimer(), tickAnimation())
}

func tickTimer() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{}
	})
}

func tickAnimation() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		m.elapsedTime = m.now().Sub(m.entry.StartTime)
		if m.done {
			return m, nil
		}
		return m, tickTimer()

	case animationTickMsg:
		m.timerAnimation = (m.timerAnimation + 1) % 4
		if m.done {
			return m, nil
		}
		return m, tickAnimation()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, timerKeys.Stop):
			m.action, m.done = ActionStop, true
			return m, tea.Quit
		case key.Matches(msg, timerKeys.Pause):
			m.action, m.done = ActionPause, true
			return m, tea.Quit
		case key.Matches(msg, timerKeys.Quit):
			m.action, m.done = ActionDetach, true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the timer TUI
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(m.width).
		Render(m.help.View(timerKeys))
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTimerPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderTaskDetailsPanel(rightWidth),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

// renderTimerPanel renders the left timer panel
func (m TimerModel) renderTimerPanel(width, height int) string {
	var components []string
	centered := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)

	animChars := []string{"⏱", "⏲", "⏱", "⏲"}
	animChar := animChars[m.timerAnimation]
	components = append(components, centered.
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(fmt.Sprintf("%s  TRACKING TIME  %s", animChar, animChar)))

	components = append(components, centered.
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Render(models.ShortID(m.task.ID)))

	components = append(components, centered.
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render(truncate(m.task.Title, width-4)))

	var clock strings.Builder
	for _, line := range strings.Split(renderBigClock(m.elapsedTime), "\n") {
		clock.WriteString(centered.Render(line))
		clock.WriteString("\n")
	}
	components = append(components, strings.TrimRight(clock.String(), "\n"))

	info := fmt.Sprintf("Started at %s", m.entry.StartTime.Format("15:04:05"))
	if m.priorMinutes > 0 {
		info += fmt.Sprintf(" · %s logged before", formatMinutes(m.priorMinutes))
	}
	components = append(components, centered.
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Render(info))

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

var clockDigits = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// renderBigClock renders the elapsed time as block digits
func renderBigClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	timeStr := fmt.Sprintf("%02d:%02d", minutes, seconds)
	if hours > 0 {
		timeStr = fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}

	var lines [5]strings.Builder
	for _, char := range timeStr {
		art := clockDigits[char]
		for i := range lines {
			lines[i].WriteString(art[i])
			lines[i].WriteString(" ")
		}
	}

	clockStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true)

	rendered := make([]string, len(lines))
	for i := range lines {
		rendered[i] = clockStyle.Render(lines[i].String())
	}
	return strings.Join(rendered, "\n")
}

// renderTaskDetailsPanel renders the right panel
func (m TimerModel) renderTaskDetailsPanel(width int) string {
	var b strings.Builder
	inner := width - 8

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Align(lipgloss.Center).
		Width(inner).
		Render(strings.Join(logoLines, "\n")))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorBorder)).
		Align(lipgloss.Center).
		Width(inner).
		Render(strings.Repeat("─", max(0, min(width-12, 40)))))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width-12).
		Padding(0, 1).
		Render(m.task.Title))
	b.WriteString("\n\n")

	row := lipgloss.NewStyle().Align(lipgloss.Center).Width(inner)
	for _, line := range detailLines(m.task, m.now()) {
		b.WriteString(row.Render(line))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// RunTimerTUI shows the live timer for a running entry and applies the
// chosen action once the program exits.
func RunTimerTUI(ctx context.Context, ctrl TimerController, entry *models.TimeEntry, task *models.Task, out io.Writer) error {
	p := tea.NewProgram(NewTimerModel(entry, task, nil), tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	timer, ok := finalModel.(TimerModel)
	if !ok {
		return fmt.Errorf("unexpected timer model %T", finalModel)
	}
	return ApplyTimerAction(ctx, ctrl, timer.Action(), task, out)
}

// ApplyTimerAction stops or pauses the task's entry, or reports that it
// keeps running.
func ApplyTimerAction(ctx context.Context, ctrl TimerController, action TimerAction, task *models.Task, out io.Writer) error {
	switch action {
	case ActionStop:
		closed, err := ctrl.Stop(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to stop session: %w", err)
		}
		fmt.Fprintf(out, "⏹️  Stopped tracking time for %s: %s\n", models.ShortID(task.ID), task.Title)
		fmt.Fprintf(out, "📊 Session duration: %s\n", formatMinutes(closed.Minutes()))
	case ActionPause:
		closed, err := ctrl.Pause(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to pause session: %w", err)
		}
		fmt.Fprintf(out, "⏸️  Paused %s after %s. Resume with 'pulse resume %s'.\n",
			task.Title, formatMinutes(closed.Minutes()), models.ShortID(task.ID))
	default:
		fmt.Fprintf(out, "\n💡 Timer is still running for %s: %s\n", models.ShortID(task.ID), task.Title)
		fmt.Fprintln(out, "   Use 'pulse status' to check it or 'pulse stop' to stop it.")
	}
	return nil
}
