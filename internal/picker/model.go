// Package picker is the interactive hero search: a text input whose terms go
// through a search.Stream, a selectable result list, and the tail of the
// status log.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/messages"
	"github.com/runger/heroes/internal/search"
)

// defaultStatusLines is how many status log lines the footer shows.
const defaultStatusLines = 3

// pickerState represents the current state of the picker's state machine.
type pickerState int

const (
	stateIdle      pickerState = iota // No term searched yet, or a blank term
	stateLoaded                       // Results delivered (len > 0)
	stateEmpty                        // Results delivered but empty
	stateCancelled                    // User cancelled (Esc / Ctrl+C)
)

// initMsg is sent by Init() so an initial query is submitted through Update,
// where state mutations are visible to the Bubble Tea runtime.
type initMsg struct{}

// Model is the Bubble Tea model for the hero search TUI.
type Model struct {
	state     pickerState
	input     textinput.Model
	stream    search.Stream
	items     []hero.Hero
	term      string // Term the items answer
	shown     uint64 // Generation of the items
	selection int    // Index into items; -1 when empty

	status      *messages.Service
	statusLines int

	width  int // Terminal width
	height int // Terminal height

	// result holds the chosen hero after the user presses Enter.
	result hero.Hero
	chosen bool
}

// NewModel creates a picker over stream. status may be nil.
func NewModel(stream search.Stream, status *messages.Service) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "hero name"
	ti.CharLimit = 64
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	return Model{
		state:       stateIdle,
		input:       ti,
		stream:      stream,
		selection:   -1,
		status:      status,
		statusLines: defaultStatusLines,
	}
}

// WithQuery returns a copy of m whose input starts with query.
func (m Model) WithQuery(query string) Model {
	m.input.SetValue(query)
	m.input.CursorEnd()
	return m
}

// Result returns the chosen hero, or false if the user cancelled.
func (m Model) Result() (hero.Hero, bool) {
	return m.result, m.chosen
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return initMsg{} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 0)
		return m, nil

	case search.ResultsMsg:
		return m.handleResults(msg), nil

	case initMsg:
		if m.input.Value() == "" {
			return m, nil
		}
		return m.submit()
	}

	// Timer and query messages belong to the stream; cursor messages to
	// the input.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.stream, cmd = m.stream.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		return m, tea.Quit

	case tea.KeyEnter:
		if m.selection >= 0 && m.selection < len(m.items) {
			m.result = m.items[m.selection]
			m.chosen = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyUp:
		if m.selection > 0 {
			m.selection--
		}
		return m, nil

	case tea.KeyDown:
		if m.selection < len(m.items)-1 {
			m.selection++
		}
		return m, nil
	}

	before := m.input.Value()
	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, inputCmd
	}

	next, submitCmd := m.submit()
	return next, tea.Batch(inputCmd, submitCmd)
}

// submit hands the current input to the stream.
func (m Model) submit() (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.stream, cmd = m.stream.Submit(m.input.Value())
	return m, cmd
}

// handleResults shows a delivered result. Emissions run as separate
// commands and may arrive out of order; one older than the list on screen
// is dropped.
func (m Model) handleResults(msg search.ResultsMsg) Model {
	if msg.Generation < m.shown {
		return m
	}
	m.shown = msg.Generation
	m.items = msg.Heroes
	m.term = msg.Term

	switch {
	case strings.TrimSpace(msg.Term) == "":
		m.state = stateIdle
	case len(m.items) == 0:
		m.state = stateEmpty
	default:
		m.state = stateLoaded
	}
	m.clampSelection()
	return m
}

// clampSelection ensures the selection index is within bounds.
func (m *Model) clampSelection() {
	if len(m.items) == 0 {
		m.selection = -1
		return
	}
	if m.selection < 0 {
		m.selection = 0
	}
	if m.selection >= len(m.items) {
		m.selection = len(m.items) - 1
	}
}

// listHeight returns the number of visible list rows (terminal height minus
// header, query line, and status footer).
func (m Model) listHeight() int {
	chrome := 3 + m.statusLines
	h := m.height - chrome
	if h < 1 {
		h = 10 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" Hero Search "))
	if m.stream.Pending() {
		b.WriteString(dimStyle.Render(" searching..."))
	}
	b.WriteRune('\n')

	b.WriteString(m.input.View())
	b.WriteRune('\n')

	b.WriteString(m.viewContent())

	if footer := m.viewStatus(); footer != "" {
		b.WriteRune('\n')
		b.WriteString(footer)
	}
	return b.String()
}

// viewContent renders the hero list or a status message.
func (m Model) viewContent() string {
	switch m.state {
	case stateIdle:
		return dimStyle.Render("Type to search heroes")
	case stateEmpty:
		return dimStyle.Render(fmt.Sprintf("No heroes match %q", m.term))
	case stateCancelled:
		return dimStyle.Render("Cancelled")
	case stateLoaded:
		return m.viewList()
	default:
		return ""
	}
}

// viewList renders the hero list with selection marker.
func (m Model) viewList() string {
	var b strings.Builder
	maxItems := m.listHeight()
	for i, h := range m.items {
		if i >= maxItems {
			break
		}
		id := fmt.Sprintf("%4d ", h.ID)
		name := DisplayText(h.Name, m.width-len(id)-2)

		if i == m.selection {
			b.WriteString(selectedStyle.Render("> ") + idStyle.Render(id) + selectedStyle.Render(name))
		} else {
			b.WriteString("  " + idStyle.Render(id) + normalStyle.Render(name))
		}
		if i < len(m.items)-1 && i < maxItems-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// viewStatus renders the newest status log lines.
func (m Model) viewStatus() string {
	if m.status == nil || m.statusLines <= 0 {
		return ""
	}
	lines := m.status.Tail(m.statusLines)
	if len(lines) == 0 {
		return ""
	}
	for i, line := range lines {
		lines[i] = dimStyle.Render(DisplayText(line, m.width))
	}
	return strings.Join(lines, "\n")
}
