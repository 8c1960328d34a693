package server

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/holdem-arena/internal/deck"
	"github.com/lox/holdem-arena/internal/game"
	"github.com/lox/holdem-arena/internal/statistics"
)

// PrettyMonitor prints a styled summary block per hand and a final
// table at match end. Styling degrades to plain text when the writer
// is not a capable terminal.
type PrettyMonitor struct {
	w  io.Writer
	mu sync.Mutex

	maxHands int

	header lipgloss.Style
	dim    lipgloss.Style
	win    lipgloss.Style
	loss   lipgloss.Style
	warn   lipgloss.Style

	spade, heart, diamond, club lipgloss.Style
}

// NewPrettyMonitor writes to w, defaulting to stdout.
func NewPrettyMonitor(w io.Writer) *PrettyMonitor {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.NewOutput(w).ColorProfile())

	return &PrettyMonitor{
		w:       w,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("8")),
		win:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		loss:    r.NewStyle().Foreground(lipgloss.Color("1")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		spade:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		heart:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		diamond: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		club:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	}
}

func (p *PrettyMonitor) MatchStarted(info MatchInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.maxHands = info.MaxHands
	names := make([]string, 0, len(info.Seats))
	for _, s := range info.Seats {
		names = append(names, fmt.Sprintf("%s (%d)", s.Name, s.Stack))
	}
	fmt.Fprintln(p.w, p.header.Render(fmt.Sprintf("match %s", info.MatchID)))
	fmt.Fprintf(p.w, "seats: %s · big blind %d\n", strings.Join(names, ", "), info.BigBlind)
}

func (p *PrettyMonitor) ActionApplied(int, game.StateView, *game.Applied) {}

func (p *PrettyMonitor) HandFinished(rec *game.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()

	title := fmt.Sprintf("hand %d", rec.HandIndex+1)
	if p.maxHands > 0 {
		title = fmt.Sprintf("hand %d/%d", rec.HandIndex+1, p.maxHands)
	}
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "%s  %s\n",
		p.header.Render(fmt.Sprintf("=== %s ===", title)),
		p.dim.Render(fmt.Sprintf("button %d · blinds %d/%d · %s",
			rec.Button, rec.SmallBlind.Amount, rec.BigBlind.Amount, rec.HandID)))

	if len(rec.Board) > 0 {
		fmt.Fprintf(p.w, "board %s\n", p.formatBoard(rec.Board))
	}

	reveals := make(map[int]game.ShowdownRecord, len(rec.Showdown))
	for _, sd := range rec.Showdown {
		reveals[sd.Seat] = sd
	}
	trouble := p.troubledSeats(rec)

	for _, res := range rec.Results {
		name := seatName(rec, res.Seat)

		cards := p.dim.Render("--")
		desc := ""
		if sd, ok := reveals[res.Seat]; ok {
			cards = p.formatCards(sd.Cards)
			desc = "  " + p.dim.Render(sd.Hand)
		}

		delta := p.dim.Render("0")
		switch {
		case res.Delta > 0:
			delta = p.win.Render(fmt.Sprintf("%+d", res.Delta))
		case res.Delta < 0:
			delta = p.loss.Render(fmt.Sprintf("%+d", res.Delta))
		}

		note := ""
		if reason, ok := trouble[res.Seat]; ok {
			note = "  " + p.warn.Render("("+reason+")")
		}

		fmt.Fprintf(p.w, "  %-10s %s  %s%s%s\n", name, cards, delta, desc, note)
	}

	pot := 0
	for _, pr := range rec.Pots {
		pot += pr.Amount
	}
	street := "preflop"
	if len(rec.Events) > 0 {
		street = rec.Events[len(rec.Events)-1].Street
	}
	fmt.Fprintf(p.w, "%s\n", p.dim.Render(fmt.Sprintf("pot %d · %s", pot, street)))
}

func (p *PrettyMonitor) MatchFinished(sum MatchSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.header.Render(fmt.Sprintf("=== match over: %s ===", sum.Reason)))
	fmt.Fprintf(p.w, "hands played: %d\n", sum.Hands)

	bySeat := make(map[int]*statistics.SeatStats, len(sum.Stats))
	for _, st := range sum.Stats {
		bySeat[st.Seat] = st
	}

	standings := make([]int, len(sum.Standings))
	for i := range sum.Standings {
		standings[i] = i
	}
	sort.Slice(standings, func(a, b int) bool {
		return sum.Standings[standings[a]].Delta > sum.Standings[standings[b]].Delta
	})

	for rank, idx := range standings {
		s := sum.Standings[idx]
		delta := p.dim.Render("0")
		switch {
		case s.Delta > 0:
			delta = p.win.Render(fmt.Sprintf("%+d", s.Delta))
		case s.Delta < 0:
			delta = p.loss.Render(fmt.Sprintf("%+d", s.Delta))
		}
		line := fmt.Sprintf(" %d. %-10s %5d  %s", rank+1, s.Name, s.Stack, delta)
		if st, ok := bySeat[s.Seat]; ok {
			line += "  " + p.dim.Render(fmt.Sprintf("wins %d · showdowns %d · timeouts %d",
				st.Wins, st.Showdowns, st.Timeouts))
		}
		fmt.Fprintln(p.w, line)
	}
}

// troubledSeats maps seats to the reason the dealer had to act for
// them during the hand.
func (p *PrettyMonitor) troubledSeats(rec *game.Record) map[int]string {
	out := make(map[int]string)
	for _, ev := range rec.Events {
		if ev.Synthesized {
			out[ev.Seat] = ev.Reason
		}
	}
	return out
}

func (p *PrettyMonitor) formatBoard(cards []string) string {
	styled := make([]string, len(cards))
	for i, c := range cards {
		styled[i] = p.formatCard(c)
	}

	out := "[" + strings.Join(styled[:min(3, len(styled))], " ")
	if len(styled) >= 4 {
		out += " | " + styled[3]
	}
	if len(styled) >= 5 {
		out += " | " + styled[4]
	}
	return out + "]"
}

func (p *PrettyMonitor) formatCards(cards []string) string {
	styled := make([]string, len(cards))
	for i, c := range cards {
		styled[i] = p.formatCard(c)
	}
	return strings.Join(styled, " ")
}

func (p *PrettyMonitor) formatCard(s string) string {
	c, err := deck.ParseCard(s)
	if err != nil {
		return s
	}
	text := c.Pretty()
	switch c.Suit {
	case deck.Spades:
		return p.spade.Render(text)
	case deck.Hearts:
		return p.heart.Render(text)
	case deck.Diamonds:
		return p.diamond.Render(text)
	default:
		return p.club.Render(text)
	}
}

func seatName(rec *game.Record, seat int) string {
	for _, s := range rec.Seats {
		if s.Seat == seat {
			return s.Name
		}
	}
	return fmt.Sprintf("seat-%d", seat)
}
