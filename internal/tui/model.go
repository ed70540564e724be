// Package tui is the terminal rendition of the board: status columns with a
// card cursor, and a detail pane driven by the same router as the HTML
// surface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"ficboard/internal/kanban"
	"ficboard/internal/source"
)

// ── Styles ──────────────────────────────────────────────────────────────────

const (
	pad         = 2 // horizontal padding on each side
	minColWidth = 22
)

var (
	frameStyle        = lipgloss.NewStyle().Padding(1, pad)
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("37"))
	activeHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Underline(true)
	selectedStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	typeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// ── Model ───────────────────────────────────────────────────────────────────

// Loader supplies the ticket records.
type Loader interface {
	Load(ctx context.Context) (*source.Result, error)
}

// Model is the BubbleTea model for the board.
//
// The detail pane is open exactly when the router is open; every open and
// close goes through the router.
type Model struct {
	policy kanban.Policy
	loader Loader

	board  *kanban.Board
	router *kanban.Router
	pane   *detailPane
	origin source.Origin

	col, row int

	keys KeyMap
	help help.Model

	warning string
	err     error
	width   int
	height  int
}

// NewModel returns a board model. style is the glamour style used for the
// detail pane.
func NewModel(policy kanban.Policy, loader Loader, style string) Model {
	pane := newDetailPane(style)
	return Model{
		policy: policy,
		loader: loader,
		board:  &kanban.Board{},
		pane:   pane,
		router: kanban.NewRouter(policy, kanban.NewStore(), pane),
		origin: source.OriginNone,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

// ── Messages ────────────────────────────────────────────────────────────────

type loadedMsg struct {
	res *source.Result
	err error
}

// ── Init / Commands ─────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd { return m.load }

func (m Model) load() tea.Msg {
	res, err := m.loader.Load(context.Background())
	return loadedMsg{res: res, err: err}
}

// ── Update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.cw()
		m.pane.resize(m.cw(), m.detailHeight())
	case loadedMsg:
		return m.applyLoad(msg), nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// applyLoad renders a new board and points the router at its store. Data
// that is simply unavailable yields an empty board with a warning.
func (m Model) applyLoad(msg loadedMsg) Model {
	if msg.err != nil && !errors.Is(msg.err, source.ErrNoData) {
		m.err = msg.err
		return m
	}
	m.err = nil
	m.warning = ""
	var res source.Result
	if msg.res != nil {
		res = *msg.res
	}
	if msg.err != nil {
		m.warning = "no ticket data available"
	}

	board, store := kanban.RenderBoard(m.policy.Pipeline(res.Tickets))
	m.board = board
	m.origin = res.Origin
	m.router.Rebind(store)
	m.clampCursor()
	return m
}

// ── Key Handling ────────────────────────────────────────────────────────────

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.router.State().Open {
		return m.handleKeyDetail(msg)
	}
	return m.handleKeyBoard(msg)
}

func (m Model) handleKeyBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, m.keys.Down):
		if col, ok := m.currentColumn(); ok && m.row < col.Count()-1 {
			m.row++
		}
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.board.Columns)-1 {
			m.col++
			m.clampCursor()
		}
	case key.Matches(msg, m.keys.Open):
		if card, ok := m.currentCard(); ok {
			m.router.Dispatch(kanban.Activate(kanban.CardTarget(card.Index)))
		}
	case key.Matches(msg, m.keys.Reload):
		return m, m.load
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleKeyDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Close) {
		m.router.Dispatch(kanban.KeyDown(msg.String()))
		return m, nil
	}
	var cmd tea.Cmd
	m.pane.viewport, cmd = m.pane.viewport.Update(msg)
	return m, cmd
}

func (m *Model) clampCursor() {
	if len(m.board.Columns) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = min(max(m.col, 0), len(m.board.Columns)-1)
	m.row = min(max(m.row, 0), max(m.board.Columns[m.col].Count()-1, 0))
}

func (m Model) currentColumn() (kanban.BoardColumn, bool) {
	if m.col < 0 || m.col >= len(m.board.Columns) {
		return kanban.BoardColumn{}, false
	}
	return m.board.Columns[m.col], true
}

func (m Model) currentCard() (kanban.Card, bool) {
	col, ok := m.currentColumn()
	if !ok || m.row < 0 || m.row >= col.Count() {
		return kanban.Card{}, false
	}
	return col.Cards[m.row], true
}

// ── Views ───────────────────────────────────────────────────────────────────

func (m Model) View() string {
	var content string
	switch {
	case m.err != nil:
		content = fmt.Sprintf("Error: %v\n\nPress r to retry or q to quit.", m.err)
	case m.router.State().Open:
		content = m.detailView()
	default:
		content = m.boardView()
	}
	return frameStyle.Render(content)
}

func (m Model) titleBar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("FICBOARD"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d tickets · %d columns · %s", m.board.Len(), len(m.board.Columns), m.origin)))
	if m.warning != "" {
		b.WriteString("  " + warnStyle.Render(m.warning))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", m.cw())))
	b.WriteString("\n")
	return b.String()
}

func (m Model) boardView() string {
	var b strings.Builder
	b.WriteString(m.titleBar())
	b.WriteString("\n")

	cols := m.board.Columns
	if len(cols) == 0 {
		b.WriteString(dimStyle.Render("No tickets to show."))
	} else {
		start, end, width := m.visibleColumns()
		rendered := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			rendered = append(rendered, m.columnView(i, width))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// visibleColumns returns the window of columns that fits the terminal,
// keeping the selected column in view, and the width of each.
func (m Model) visibleColumns() (start, end, width int) {
	n := len(m.board.Columns)
	fit := max(m.cw()/minColWidth, 1)
	if fit >= n {
		return 0, n, max(m.cw()/n, minColWidth)
	}
	start = min(max(m.col-fit/2, 0), n-fit)
	return start, start + fit, m.cw() / fit
}

func (m Model) columnView(i, width int) string {
	col := m.board.Columns[i]
	inner := max(width-2, 4)

	var b strings.Builder
	header := ansi.Truncate(fmt.Sprintf("%s (%d)", col.Status, col.Count()), inner, "…")
	if i == m.col {
		b.WriteString(activeHeaderStyle.Render(header))
	} else {
		b.WriteString(headerStyle.Render(header))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", inner)))
	b.WriteString("\n")

	first, last := cardWindow(col.Count(), m.rowFor(i), m.cardRows())
	if first > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↑ %d more", first)) + "\n")
	}
	for j := first; j < last; j++ {
		b.WriteString(m.cardLine(col.Cards[j], inner, i == m.col && j == m.row))
		b.WriteString("\n")
	}
	if rest := col.Count() - last; rest > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↓ %d more", rest)) + "\n")
	}
	return lipgloss.NewStyle().Width(width).PaddingRight(2).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) cardLine(card kanban.Card, width int, selected bool) string {
	text := card.Title
	if card.Type != "" {
		text = "[" + card.Type + "] " + text
	}
	text = ansi.Truncate(text, width-2, "…")
	if selected {
		return selectedStyle.Render("▸ " + text)
	}
	if card.Type != "" {
		typed := "[" + card.Type + "]"
		if rest, ok := strings.CutPrefix(text, typed); ok {
			return "  " + typeStyle.Render(typed) + rest
		}
	}
	return "  " + text
}

// rowFor is the cursor row used to scroll column i: the real cursor for the
// selected column, the top for the others.
func (m Model) rowFor(i int) int {
	if i == m.col {
		return m.row
	}
	return 0
}

func (m Model) detailView() string {
	var b strings.Builder
	b.WriteString(m.titleBar())
	b.WriteString(m.pane.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("esc close · ↑/↓ scroll  [%3.f%%]", m.pane.viewport.ScrollPercent()*100)))
	return b.String()
}

// ── Helpers ─────────────────────────────────────────────────────────────────

// cw returns content width (terminal width minus frame padding).
func (m Model) cw() int {
	w := m.width - pad*2
	if w < 40 {
		w = 76 // sensible default before first WindowSizeMsg
	}
	return w
}

// cardRows is how many cards fit in a column below the chrome.
func (m Model) cardRows() int {
	if m.height == 0 {
		return 20
	}
	// frame padding(2) + title(2) + blank(1) + column header(2) + more markers(2) + help(2).
	return max(m.height-11, 1)
}

func (m Model) detailHeight() int {
	// frame padding(2) + title(2) + footer(2).
	return max(m.height-6, 1)
}

// cardWindow returns the [first, last) range of n cards to draw so that
// cursor stays visible within avail rows.
func cardWindow(n, cursor, avail int) (int, int) {
	if n <= avail {
		return 0, n
	}
	first := min(max(cursor-avail/2, 0), n-avail)
	return first, first + avail
}
