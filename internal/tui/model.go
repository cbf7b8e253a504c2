package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/orchestrator"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// clockInterval is how often relative timestamps are re-rendered.
const clockInterval = 30 * time.Second

// borderChrome is the number of columns consumed by left + right borders.
const borderChrome = 2

// Model is the Bubble Tea model for the lookup screen.
type Model struct {
	svc        Service
	hist       HistoryStore
	ctx        context.Context
	cancelFunc context.CancelFunc
	now        func() time.Time

	state   orchestrator.State
	history []profile.HistoryEntry
	cursor  int
	focus   Focus

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	width    int
	height   int
	quitting bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithContext sets the context passed to lookups.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) { m.ctx = ctx }
}

// WithCancelFunc sets a function called when the user quits, to abandon
// lookups still in flight.
func WithCancelFunc(fn context.CancelFunc) ModelOption {
	return func(m *Model) { m.cancelFunc = fn }
}

// WithClock sets the time source for relative timestamps.
func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) { m.now = now }
}

// NewModel creates a Model with the handle input focused.
func NewModel(svc Service, hist HistoryStore, opts ...ModelOption) Model {
	ti := textinput.New()
	ti.Placeholder = "Discord username"
	ti.Prompt = "› "
	ti.CharLimit = 64
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		svc:     svc,
		hist:    hist,
		ctx:     context.Background(),
		now:     time.Now,
		focus:   FocusInput,
		input:   ti,
		spinner: s,
		help:    help.New(),
		keys:    KeyMap(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.state = svc.State()
	return m
}

// Init starts the cursor blink, the spinner and the clock, and loads history.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadHistory(), tickClock())
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case StateMsg:
		m.state = msg.State
		return m, nil

	case actionDoneMsg:
		m.state = m.svc.State()
		return m, m.loadHistory()

	case HistoryMsg:
		m.history = msg.Entries
		if m.cursor >= len(m.history) {
			m.cursor = max(len(m.history)-1, 0)
		}
		return m, nil

	case clockMsg:
		return m, tickClock()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes key messages with global and focus-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.cancelFunc != nil {
			m.cancelFunc()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return m, m.do(m.svc.Refresh)

	case key.Matches(msg, m.keys.Retry):
		return m, m.do(m.svc.Retry)

	case key.Matches(msg, m.keys.ClearHistory):
		m.cursor = 0
		return m, m.clearHistory()

	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusInput {
			m.focus = FocusHistory
			m.input.Blur()
			return m, nil
		}
		m.focus = FocusInput
		cmd := m.input.Focus()
		return m, cmd
	}

	if m.focus == FocusHistory {
		return m.handleHistoryKey(msg)
	}

	if key.Matches(msg, m.keys.Lookup) {
		return m, m.lookup(strings.TrimSpace(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleHistoryKey moves the history selection and looks up the selected entry.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.history)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Lookup):
		if len(m.history) == 0 {
			return m, nil
		}
		handle := m.history[m.cursor].Handle
		m.input.SetValue(handle)
		m.focus = FocusInput
		focus := m.input.Focus()
		return m, tea.Batch(focus, m.lookup(handle))
	}
	return m, nil
}

func (m Model) lookup(handle string) tea.Cmd {
	return m.do(func(ctx context.Context) error {
		return m.svc.Lookup(ctx, handle)
	})
}

// do runs a service call off the event loop. Intermediate states arrive as
// StateMsg through the Bridge; the final state is re-read on completion.
func (m Model) do(action func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		_ = action(ctx)
		return actionDoneMsg{}
	}
}

func (m Model) loadHistory() tea.Cmd {
	hist := m.hist
	return func() tea.Msg {
		return HistoryMsg{Entries: hist.List()}
	}
}

func (m Model) clearHistory() tea.Cmd {
	hist := m.hist
	return func() tea.Msg {
		hist.Clear()
		return HistoryMsg{}
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockMsg(t) })
}

// View renders the input, the profile card and the history pane.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("soinfo") + "\n\n")
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.viewStatus() + "\n")

	mainWidth, sideWidth := PaneWidths(m.width)
	card := m.viewProfile()
	list := m.viewHistory()

	historyStyle := UnfocusedBorder()
	if m.focus == FocusHistory {
		historyStyle = FocusedBorder()
	}
	cardStyle := UnfocusedBorder()
	if mainWidth > borderChrome {
		cardStyle = cardStyle.Width(mainWidth - borderChrome)
		historyStyle = historyStyle.Width(sideWidth - borderChrome)
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top, cardStyle.Render(card), historyStyle.Render(list))
	b.WriteString(panes + "\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// viewStatus renders the loading indicator or the latest error.
func (m Model) viewStatus() string {
	s := m.state
	switch {
	case s.Loading:
		return fmt.Sprintf("%s Looking up %s...", m.spinner.View(), s.CurrentHandle)
	case s.Err != nil:
		line := errorStyle.Render(s.Err.Message())
		if s.LastFetchFailed {
			line += dimStyle.Render("  (ctrl+t to retry)")
		}
		return line
	default:
		return ""
	}
}

// viewProfile renders the profile card.
func (m Model) viewProfile() string {
	p := m.state.Profile
	if p == nil {
		return dimStyle.Render("Enter a username to look up a profile.")
	}

	lines := []string{
		nameStyle.Render(p.Name()) + dimStyle.Render("  @"+p.Handle),
		PresenceBadge(p.Presence),
	}
	if line := activityLine(p.Activity); line != "" {
		lines = append(lines, line)
	}
	if p.AvatarURL != "" {
		lines = append(lines, dimStyle.Render("Avatar: "+p.AvatarURL))
	}
	lines = append(lines, dimStyle.Render("Last updated: "+profile.FormatRelative(m.now(), p.FetchedAt)))
	return strings.Join(lines, "\n")
}

// viewHistory renders the recent lookups with the selection marker.
func (m Model) viewHistory() string {
	if len(m.history) == 0 {
		return "Recent\n" + dimStyle.Render("No recent searches")
	}

	lines := []string{"Recent"}
	for i, e := range m.history {
		label := e.DisplayName
		if label == "" {
			label = e.Handle
		}
		line := "  " + label
		if m.focus == FocusHistory && i == m.cursor {
			line = selectedStyle.Render("› " + label)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
