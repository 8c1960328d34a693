// Package dashboard is the --monitor live view: a full-screen
// bubbletea program that tracks the match while it runs. It receives
// the same monitor callbacks as the console monitors and renders
// stacks, the current board, and a scrolling event feed.
package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/holdem-arena/internal/game"
	"github.com/lox/holdem-arena/internal/match"
	"github.com/lox/holdem-arena/internal/server"
)

// Dashboard owns the bubbletea program. The monitor callbacks arrive
// on the engine goroutine and are forwarded as messages; the program
// goroutine owns all model state.
type Dashboard struct {
	prog *tea.Program
}

// New builds the dashboard over an alt-screen program.
func New() *Dashboard {
	d := &Dashboard{}
	d.prog = tea.NewProgram(newModel(), tea.WithAltScreen())
	return d
}

// Run blocks until the operator quits or Stop is called. It must run
// on the goroutine that owns the terminal.
func (d *Dashboard) Run() error {
	_, err := d.prog.Run()
	return err
}

// Stop tears the screen down without waiting for a keypress.
func (d *Dashboard) Stop() {
	d.prog.Quit()
}

func (d *Dashboard) MatchStarted(info server.MatchInfo) {
	d.prog.Send(startedMsg{info: info})
}

func (d *Dashboard) ActionApplied(handIndex int, view game.StateView, ap *game.Applied) {
	d.prog.Send(actionMsg{handIndex: handIndex, view: view, ap: ap})
}

func (d *Dashboard) HandFinished(rec *game.Record) {
	d.prog.Send(handMsg{rec: rec})
}

func (d *Dashboard) MatchFinished(sum server.MatchSummary) {
	d.prog.Send(finishedMsg{sum: sum})
}

type (
	startedMsg struct{ info server.MatchInfo }
	actionMsg  struct {
		handIndex int
		view      game.StateView
		ap        *game.Applied
	}
	handMsg     struct{ rec *game.Record }
	finishedMsg struct{ sum server.MatchSummary }
)

type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	board  lipgloss.Style
	win    lipgloss.Style
	loss   lipgloss.Style
	warn   lipgloss.Style
	dim    lipgloss.Style
	footer lipgloss.Style
	pane   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true),
		board:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		win:    lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")),
		loss:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFEAA7")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		footer: lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		pane:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#626262")).Padding(0, 1),
	}
}

type model struct {
	styles styles
	spin   spinner.Model
	feed   viewport.Model
	lines  []string
	ready  bool
	width  int
	height int

	matchID  string
	bigBlind int
	maxHands int
	hands    int

	stacks []match.Standing
	starts map[int]int
	street string
	board  []string
	pot    int

	finished bool
	reason   string
}

func newModel() model {
	st := newStyles()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.label
	return model{
		styles: st,
		spin:   sp,
		street: game.Preflop.String(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		feedHeight := m.height - 12
		if feedHeight < 3 {
			feedHeight = 3
		}
		if !m.ready {
			m.feed = viewport.New(m.width-4, feedHeight)
			m.ready = true
		} else {
			m.feed.Width = m.width - 4
			m.feed.Height = feedHeight
		}
		m.refreshFeed()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case startedMsg:
		m.matchID = msg.info.MatchID
		m.bigBlind = msg.info.BigBlind
		m.maxHands = msg.info.MaxHands
		m.stacks = msg.info.Seats
		m.starts = make(map[int]int, len(m.stacks))
		for _, s := range m.stacks {
			m.starts[s.Seat] = s.Stack - s.Delta
		}
		m.push(m.styles.dim.Render(fmt.Sprintf("match %s started, big blind %d", m.matchID, m.bigBlind)))
		return m, nil

	case actionMsg:
		m.street = msg.view.Street.String()
		m.board = msg.view.Board
		m.pot = msg.view.Pot
		m.push(m.formatAction(msg.handIndex, msg.ap))
		return m, nil

	case handMsg:
		m.hands++
		m.street = game.Preflop.String()
		m.board = nil
		m.pot = 0
		for _, res := range msg.rec.Results {
			for i := range m.stacks {
				if m.stacks[i].Seat == res.Seat {
					m.stacks[i].Stack = res.Stack
					m.stacks[i].Delta = res.Stack - m.starts[res.Seat]
				}
			}
		}
		for _, line := range m.formatHand(msg.rec) {
			m.push(line)
		}
		return m, nil

	case finishedMsg:
		m.finished = true
		m.reason = msg.sum.Reason
		m.stacks = msg.sum.Standings
		m.hands = msg.sum.Hands
		m.push(m.styles.label.Render("match over: " + m.reason))
		return m, nil
	}
	return m, nil
}

func (m *model) push(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > 500 {
		m.lines = m.lines[len(m.lines)-500:]
	}
	m.refreshFeed()
}

func (m *model) refreshFeed() {
	if !m.ready {
		return
	}
	m.feed.SetContent(strings.Join(m.lines, "\n"))
	m.feed.GotoBottom()
}

func (m model) formatAction(handIndex int, ap *game.Applied) string {
	line := fmt.Sprintf("hand %d %s: seat %d %s", handIndex, m.street, ap.Seat, ap.Action)
	if ap.Amount > 0 {
		line += fmt.Sprintf(" %d (to %d)", ap.Amount, ap.ToTotal)
	}
	switch {
	case ap.Synthesized:
		return m.styles.warn.Render(line + " [synthesized: " + ap.Reason + "]")
	case ap.Coerced:
		return m.styles.warn.Render(line + " [coerced: " + ap.Reason + "]")
	default:
		return line
	}
}

func (m model) formatHand(rec *game.Record) []string {
	var out []string
	if rec.Fatal != "" {
		return []string{m.styles.loss.Render(fmt.Sprintf("hand %d aborted: %s", rec.HandIndex, rec.Fatal))}
	}
	if len(rec.Board) > 0 {
		out = append(out, m.styles.dim.Render(fmt.Sprintf("hand %d board: %s", rec.HandIndex, strings.Join(rec.Board, " "))))
	}
	for _, res := range rec.Results {
		if res.Delta == 0 {
			continue
		}
		style := m.styles.win
		if res.Delta < 0 {
			style = m.styles.loss
		}
		out = append(out, style.Render(fmt.Sprintf("hand %d: seat %d %+d (stack %d)", rec.HandIndex, res.Seat, res.Delta, res.Stack)))
	}
	return out
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}

	var header string
	if m.finished {
		header = m.styles.title.Render("holdem-arena") + "  " + m.styles.label.Render("finished: "+m.reason)
	} else {
		header = m.styles.title.Render("holdem-arena") + "  " + m.spin.View() +
			m.styles.dim.Render(fmt.Sprintf(" hand %d/%d  %s  pot %d", m.hands, m.maxHands, m.street, m.pot))
	}

	board := "board: " + m.styles.board.Render(strings.Join(m.board, " "))
	if len(m.board) == 0 {
		board = "board: " + m.styles.dim.Render("—")
	}

	help := "q quit"
	if !m.finished {
		help = "q quit (match plays on server side)"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		m.stacksTable(),
		board,
		"",
		m.styles.pane.Render(m.feed.View()),
		m.styles.footer.Render(help),
	)
}

func (m model) stacksTable() string {
	rows := append([]match.Standing(nil), m.stacks...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seat < rows[j].Seat })

	var b strings.Builder
	b.WriteString(m.styles.label.Render(fmt.Sprintf("%-5s %-14s %8s %8s", "seat", "player", "stack", "delta")))
	for _, s := range rows {
		b.WriteString("\n")
		line := fmt.Sprintf("%-5d %-14s %8d %+8d", s.Seat, s.Name, s.Stack, s.Delta)
		switch {
		case s.Delta > 0:
			b.WriteString(m.styles.win.Render(line))
		case s.Delta < 0:
			b.WriteString(m.styles.loss.Render(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
