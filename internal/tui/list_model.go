package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

// Toggler flips a task between done and open
type Toggler interface {
	ToggleCompletion(ctx context.Context, id string) (*models.Task, error)
}

// Focus represents what UI element has focus
type Focus int

const (
	FocusTable Focus = iota
	FocusSearch
)

type listKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Prev   key.Binding
	Next   key.Binding
	Search key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Prev, k.Next, k.Search, k.Toggle, k.Quit}
}

func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var listKeys = listKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev page")),
	Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next page")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Toggle: key.NewBinding(key.WithKeys("d", " "), key.WithHelp("d", "toggle done")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
}

// ListModel represents the TUI model for browsing tasks
type ListModel struct {
	ctx    context.Context
	width  int
	height int

	all     []models.Task
	visible []models.Task
	blocked map[string]bool
	toggler Toggler
	now     func() time.Time

	selectedTask int
	focus        Focus
	search       textinput.Model
	help         help.Model
	status       string

	currentPage  int
	tasksPerPage int
}

// NewListModel creates a new list TUI model. blocked marks tasks that
// still wait on a gating prerequisite.
func NewListModel(ctx context.Context, all []models.Task, blocked map[string]bool, toggler Toggler) ListModel {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title or #tag"
	search.CharLimit = 64

	m := ListModel{
		ctx:          ctx,
		all:          all,
		blocked:      blocked,
		toggler:      toggler,
		now:          time.Now,
		search:       search,
		help:         help.New(),
		tasksPerPage: 10,
	}
	m.applyFilter()
	return m
}

// Init initializes the model
func (m ListModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// header, column headers, pagination, help, borders and margins
		m.tasksPerPage = max(3, m.height-12)
		m.clampPage()
		return m, nil

	case tea.KeyMsg:
		if m.focus == FocusSearch {
			return m.handleSearchKeys(msg)
		}

		switch {
		case key.Matches(msg, listKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, listKeys.Up):
			m = m.moveSelection(-1)
		case key.Matches(msg, listKeys.Down):
			m = m.moveSelection(1)
		case key.Matches(msg, listKeys.Prev):
			m = m.turnPage(-1)
		case key.Matches(msg, listKeys.Next):
			m = m.turnPage(1)
		case key.Matches(msg, listKeys.Search):
			m.focus = FocusSearch
			cmd := m.search.Focus()
			return m, cmd
		case key.Matches(msg, listKeys.Toggle):
			m = m.toggleSelected()
		}
	}

	return m, nil
}

// handleSearchKeys handles key input when in search mode
func (m ListModel) handleSearchKeys(msg tea.KeyMsg) (ListModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.focus = FocusTable
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		m.focus = FocusTable
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter narrows the visible tasks to the search query
func (m *ListModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	m.visible = nil
	for _, t := range m.all {
		if query == "" || matchesQuery(t, query) {
			m.visible = append(m.visible, t)
		}
	}
	m.selectedTask = 0
	m.currentPage = 0
}

func matchesQuery(t models.Task, query string) bool {
	if tag, ok := strings.CutPrefix(query, "#"); ok {
		for _, tt := range t.Tags {
			if strings.HasPrefix(tt, tag) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(t.Title), query) || strings.HasPrefix(t.ID, query)
}

func (m ListModel) moveSelection(delta int) ListModel {
	next := m.selectedTask + delta
	if next < 0 || next >= len(m.visible) {
		return m
	}
	m.selectedTask = next
	m.currentPage = next / m.tasksPerPage
	return m
}

func (m ListModel) turnPage(delta int) ListModel {
	next := m.currentPage + delta
	if next < 0 || next >= m.pageCount() {
		return m
	}
	m.currentPage = next
	start := next * m.tasksPerPage
	end := min(start+m.tasksPerPage, len(m.visible)) - 1
	m.selectedTask = max(start, min(m.selectedTask, end))
	return m
}

func (m ListModel) pageCount() int {
	return max(1, (len(m.visible)+m.tasksPerPage-1)/m.tasksPerPage)
}

func (m *ListModel) clampPage() {
	if len(m.visible) == 0 {
		m.currentPage = 0
		return
	}
	m.currentPage = m.selectedTask / m.tasksPerPage
}

// toggleSelected flips the selected task and reports gating failures
func (m ListModel) toggleSelected() ListModel {
	if m.toggler == nil || len(m.visible) == 0 {
		return m
	}
	selected := m.visible[m.selectedTask]
	updated, err := m.toggler.ToggleCompletion(m.ctx, selected.ID)
	if err != nil {
		var unmet *tasks.DependencyUnmetError
		if errors.As(err, &unmet) {
			m.status = fmt.Sprintf("Blocked by %d unfinished task(s)", len(unmet.Missing))
		} else {
			m.status = "Error: " + err.Error()
		}
		return m
	}

	m.visible[m.selectedTask] = *updated
	for i := range m.all {
		if m.all[i].ID == updated.ID {
			m.all[i] = *updated
		}
	}
	if updated.Completed {
		m.status = "Completed " + updated.Title
	} else {
		m.status = "Reopened " + updated.Title
	}
	return m
}

// View renders the TUI
func (m ListModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 1

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTaskTable(leftWidth),
		" ",
		m.renderTaskDetails(rightWidth),
	)

	bottom := lipgloss.NewStyle().Align(lipgloss.Center).Width(m.width).Render(m.help.View(listKeys))
	if m.focus == FocusSearch {
		bottom = lipgloss.NewStyle().
			Background(lipgloss.Color(ColorBorder)).
			Padding(0, 1).
			Width(m.width - 2).
			Render(m.search.View())
	}

	status := ""
	if m.status != "" {
		status = colored(ColorWarning, m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, "", content, status, bottom)
}

// renderTaskTable renders the left panel with the task table
func (m ListModel) renderTaskTable(width int) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Render(fmt.Sprintf("📋 Tasks (%d)", len(m.visible))))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(mutedStyle.Italic(true).Render("No tasks found"))
		return boxStyle.Width(width).Render(b.String())
	}

	const idWidth, statusWidth, dueWidth = 8, 9, 10
	titleWidth := max(20, width-4-idWidth-statusWidth-dueWidth-6)

	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Padding(0, 1).
		Render(fmt.Sprintf("%-*s %-*s %-*s %-*s",
			idWidth, "ID", titleWidth, "TITLE", statusWidth, "STATUS", dueWidth, "DUE")))
	b.WriteString("\n\n")

	now := m.now()
	start := m.currentPage * m.tasksPerPage
	end := min(start+m.tasksPerPage, len(m.visible))
	for i := start; i < end; i++ {
		t := m.visible[i]
		row := fmt.Sprintf("%-*s %-*s %s %s",
			idWidth, models.ShortID(t.ID),
			titleWidth, truncate(t.Title, titleWidth-1),
			pad(m.statusCell(t), statusWidth),
			pad(dueCell(t.Due, now), dueWidth))

		if i == m.selectedTask {
			b.WriteString(lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorAccentMain)).
				Bold(true).
				Padding(0, 1).
				Render(row))
		} else {
			b.WriteString(" " + row)
		}
		b.WriteString("\n")
	}

	if pages := m.pageCount(); pages > 1 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorHelpText)).
			Align(lipgloss.Center).
			Width(width - 2).
			MarginTop(1).
			Render(fmt.Sprintf("Page %d/%d", m.currentPage+1, pages)))
	}

	return boxStyle.Width(width).Render(b.String())
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

func (m ListModel) statusCell(t models.Task) string {
	switch {
	case t.Completed:
		return colored(ColorSuccess, "✓ done")
	case m.blocked[t.ID]:
		return colored(ColorBlocked, "⛔ blocked")
	case t.Status == models.StatusInProgress:
		return colored(ColorAccentBright, "▶ doing")
	}
	return colored(ColorSecondaryText, "○ todo")
}

func dueCell(due *time.Time, now time.Time) string {
	if due == nil {
		return mutedStyle.Render("-")
	}
	days := int(models.StartOfDay(due.In(now.Location())).Sub(models.StartOfDay(now)).Hours() / 24)
	switch {
	case days < 0:
		return colored(ColorError, "OVERDUE")
	case days == 0:
		return colored(ColorWarning, "TODAY")
	case days == 1:
		return colored(ColorWarning, "TOMORROW")
	case days <= 7:
		return colored(ColorAccentBright, fmt.Sprintf("%dd", days))
	}
	return due.Format("02/01")
}

// renderTaskDetails renders the right panel with task details
func (m ListModel) renderTaskDetails(width int) string {
	var b strings.Builder

	if len(m.visible) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccentMain)).
			Bold(true).
			Align(lipgloss.Center).
			Width(width).
			Render(strings.Join(logoLines, "\n")))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Italic(true).Align(lipgloss.Center).Width(width).Render("Select a task to view details"))
	} else {
		t := m.visible[m.selectedTask]
		b.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimaryText)).
			Width(width - 4).
			Render(t.Title))
		b.WriteString("\n\n")
		b.WriteString(strings.Join(detailLines(&t, m.now()), "\n"))
		if m.blocked[t.ID] {
			b.WriteString("\n")
			b.WriteString(colored(ColorBlocked, "Waiting on prerequisites"))
		}
		if t.Description != "" {
			b.WriteString("\n\n")
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSecondaryText)).
				Italic(true).
				Width(width - 4).
				Render(t.Description))
		}
	}

	return boxStyle.Width(width).Render(b.String())
}

// RunListTUI opens the interactive task browser
func RunListTUI(ctx context.Context, all []models.Task, blocked map[string]bool, toggler Toggler) error {
	p := tea.NewProgram(NewListModel(ctx, all, blocked, toggler), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
