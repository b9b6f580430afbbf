package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskboard/board"
	"taskboard/domain"
)

// Form fields, in tab order.
const (
	fieldTitle = iota
	fieldDescription
	fieldStatus
	fieldPriority
	fieldDueDate
	fieldTags
	fieldOutput
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Status", "Priority", "Due", "Tags", "Output"}

// filterCycle is the order the filter key steps through.
var filterCycle = append([]domain.Filter{domain.FilterAll}, statusFilters()...)

func statusFilters() []domain.Filter {
	out := make([]domain.Filter, len(domain.Statuses))
	for i, s := range domain.Statuses {
		out[i] = domain.FilterFor(s)
	}
	return out
}

// carried is a task picked up in the kanban view and not yet dropped.
type carried struct {
	id     string
	source domain.Status
}

// Model is the bubbletea model of the terminal board. The board must already
// have a project open.
type Model struct {
	ctx    context.Context
	board  *board.Board
	keys   KeyMap
	styles styles
	help   help.Model

	width  int
	height int

	// cursor
	column int
	row    int
	carry  *carried

	// editor form
	editing bool
	inputs  [fieldCount]textinput.Model
	focus   int

	status string
	err    error
}

func New(ctx context.Context, b *board.Board) *Model {
	m := &Model{
		ctx:    ctx,
		board:  b,
		keys:   DefaultKeyMap(),
		styles: newStyles(),
		help:   help.New(),
	}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		m.inputs[i] = in
	}
	m.inputs[fieldTitle].Placeholder = "Task title"
	m.inputs[fieldStatus].Placeholder = string(domain.DefaultStatus)
	m.inputs[fieldPriority].Placeholder = string(domain.DefaultPriority)
	m.inputs[fieldDueDate].Placeholder = "YYYY-MM-DD"
	m.inputs[fieldTags].Placeholder = "comma separated"
	m.inputs[fieldOutput].Placeholder = string(domain.DefaultOutputFormat)
	return m
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditor(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m *Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, m.keys.Down):
		if m.row < len(m.visible())-1 {
			m.row++
		}
	case key.Matches(msg, m.keys.Left):
		if m.kanban() && m.column > 0 {
			m.column--
			m.clampRow()
		}
	case key.Matches(msg, m.keys.Right):
		if m.kanban() && m.column < len(domain.Statuses)-1 {
			m.column++
			m.clampRow()
		}

	case key.Matches(msg, m.keys.Grab):
		m.grabOrDrop()
	case key.Matches(msg, m.keys.Back):
		if m.carry != nil {
			// Released outside every column.
			m.board.DropHandler().OnDragEnd(string(m.carry.source), "", m.carry.id)
			m.carry = nil
			m.status = "drop cancelled"
		}

	case key.Matches(msg, m.keys.Status):
		if t, ok := m.selected(); ok {
			next := nextStatus(t.Status)
			if _, err := m.board.SetStatus(t.ID, next); err != nil {
				m.err = err
			} else {
				m.status = fmt.Sprintf("%s → %s", t.Title, next)
			}
			m.clampRow()
		}

	case key.Matches(msg, m.keys.New):
		m.board.Editor().OpenCreate()
		return m, m.openForm()
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok {
			m.board.Editor().OpenEdit(t)
			return m, m.openForm()
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.board.Delete(t.ID)
			m.status = "deleted " + t.Title
			m.clampRow()
		}

	case key.Matches(msg, m.keys.View):
		mode := domain.ViewKanban
		if m.kanban() {
			mode = domain.ViewList
		}
		m.carry = nil
		if err := m.board.SetViewMode(m.ctx, mode); err != nil {
			m.err = fmt.Errorf("view mode not saved: %w", err)
		}
		m.row = 0
	case key.Matches(msg, m.keys.Filter):
		_ = m.board.SetFilter(nextFilter(m.board.Filter()))
		m.row = 0
	}
	return m, nil
}

func (m *Model) grabOrDrop() {
	if !m.kanban() {
		return
	}
	dest := domain.Statuses[m.column]
	if m.carry == nil {
		if t, ok := m.selected(); ok {
			m.carry = &carried{id: t.ID, source: t.Status}
			m.status = "carrying " + t.Title
		}
		return
	}
	c := m.carry
	m.carry = nil
	if m.board.DropHandler().OnDragEnd(string(c.source), string(dest), c.id) {
		m.status = "moved to " + string(dest)
	} else {
		m.status = ""
	}
	m.clampRow()
}

func (m *Model) openForm() tea.Cmd {
	d := m.board.Editor().Draft()
	values := [fieldCount]string{
		d.Title,
		d.Description,
		string(d.Status),
		string(d.Priority),
		"",
		strings.Join(d.Tags, ", "),
		string(d.OutputFormat),
	}
	if d.DueDate != nil {
		values[fieldDueDate] = d.DueDate.Format(domain.DueDateLayout)
	}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
		m.inputs[i].CursorEnd()
		m.inputs[i].Blur()
	}
	m.editing = true
	m.focus = fieldTitle
	m.err = nil
	return m.inputs[m.focus].Focus()
}

func (m *Model) closeForm() {
	m.editing = false
	m.inputs[m.focus].Blur()
}

func (m *Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.board.Editor().Cancel()
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.moveFocus(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.moveFocus(-1)
	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	return m.inputs[m.focus].Focus()
}

func (m *Model) submit() {
	ed := m.board.Editor()
	due, err := domain.ParseDueDate(m.inputs[fieldDueDate].Value())
	if err != nil {
		m.err = err
		return
	}
	d := ed.Draft()
	d.Title = m.inputs[fieldTitle].Value()
	d.Description = m.inputs[fieldDescription].Value()
	d.Status = domain.Status(strings.TrimSpace(m.inputs[fieldStatus].Value()))
	d.Priority = domain.Priority(strings.TrimSpace(m.inputs[fieldPriority].Value()))
	d.DueDate = due
	d.Tags = splitTags(m.inputs[fieldTags].Value())
	d.OutputFormat = domain.OutputFormat(strings.TrimSpace(m.inputs[fieldOutput].Value()))

	t, err := ed.Submit()
	if err != nil {
		m.err = err
		return
	}
	m.closeForm()
	m.err = nil
	m.status = "saved " + t.Title
	m.clampRow()
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (m *Model) kanban() bool { return m.board.Mode() == domain.ViewKanban }

// visible returns the tasks under the cursor's scope: the focused column in the
// kanban view, every visible task in the list view.
func (m *Model) visible() []domain.Task {
	if m.kanban() {
		return m.board.Columns()[m.column].Tasks
	}
	return m.board.Tasks()
}

func (m *Model) selected() (domain.Task, bool) {
	tasks := m.visible()
	if m.row < 0 || m.row >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.row], true
}

func (m *Model) clampRow() {
	n := len(m.visible())
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func nextStatus(s domain.Status) domain.Status {
	for i, st := range domain.Statuses {
		if st == s {
			return domain.Statuses[(i+1)%len(domain.Statuses)]
		}
	}
	return domain.DefaultStatus
}

func nextFilter(f domain.Filter) domain.Filter {
	for i, cur := range filterCycle {
		if cur == f {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return domain.FilterAll
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("taskboard · " + m.board.ProjectID()))
	b.WriteString(m.styles.subtle.Render(fmt.Sprintf("  %s view · filter: %s", m.board.Mode(), m.board.Filter())))
	b.WriteString("\n\n")

	switch {
	case m.editing:
		b.WriteString(m.viewForm())
	case m.kanban():
		b.WriteString(m.viewKanban())
	default:
		b.WriteString(m.viewList())
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.errorText.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(m.styles.statusText.Render(m.status) + "\n")
	}
	bindings := m.keys.boardHelp()
	if m.editing {
		bindings = m.keys.editorHelp()
	}
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

func (m *Model) viewList() string {
	tasks := m.board.Tasks()
	if len(tasks) == 0 {
		return m.styles.subtle.Render("No tasks. Press n to create one.")
	}
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		line := fmt.Sprintf("%-12s %s %s", t.Status, priorityStyle(string(t.Priority)).Render(fmt.Sprintf("%-6s", t.Priority)), t.Title)
		if t.DueDate != nil {
			line += m.styles.subtle.Render("  due " + t.DueDate.Format(domain.DueDateLayout))
		}
		if i == m.row {
			lines = append(lines, m.styles.selected.Render("> "+line))
		} else {
			lines = append(lines, m.styles.item.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewKanban() string {
	cols := m.board.Columns()
	rendered := make([]string, len(cols))
	for ci, col := range cols {
		lines := []string{m.styles.header.Render(fmt.Sprintf("%s (%d)", col.Status, len(col.Tasks)))}
		for ri, t := range col.Tasks {
			title := truncate(t.Title, columnWidth-4)
			switch {
			case m.carry != nil && m.carry.id == t.ID:
				lines = append(lines, m.styles.carried.Render("* "+title))
			case ci == m.column && ri == m.row:
				lines = append(lines, m.styles.selected.Render("> "+title))
			default:
				lines = append(lines, m.styles.item.Render("  "+title))
			}
		}
		style := m.styles.column
		if ci == m.column {
			style = m.styles.columnFocus
		}
		rendered[ci] = style.Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m *Model) viewForm() string {
	header := "New task"
	if m.board.Editor().Editing() {
		header = "Edit task"
	}
	lines := []string{m.styles.header.Render(header), ""}
	for i := range m.inputs {
		lines = append(lines, m.styles.label.Render(fieldLabels[i])+m.inputs[i].View())
	}
	if strings.TrimSpace(m.inputs[fieldTitle].Value()) == "" {
		lines = append(lines, "", m.styles.subtle.Render("a title is required"))
	}
	return m.styles.form.Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
