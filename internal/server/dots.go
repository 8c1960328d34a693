package server

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/holdem-arena/internal/game"
)

// DotsMonitor prints one glyph per hand: green for a showdown, gray
// for a win by folds, yellow when a seat had to be played for
// (timeout or disconnect).
type DotsMonitor struct {
	w  io.Writer
	mu sync.Mutex

	count int
	width int

	showdown lipgloss.Style
	foldWin  lipgloss.Style
	trouble  lipgloss.Style
}

// NewDotsMonitor writes to w, defaulting to stdout.
func NewDotsMonitor(w io.Writer) *DotsMonitor {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.NewOutput(w).ColorProfile())

	return &DotsMonitor{
		w:        w,
		width:    80,
		showdown: r.NewStyle().Foreground(lipgloss.Color("2")).SetString("●"),
		foldWin:  r.NewStyle().Foreground(lipgloss.Color("8")).SetString("●"),
		trouble:  r.NewStyle().Foreground(lipgloss.Color("3")).SetString("●"),
	}
}

func (d *DotsMonitor) MatchStarted(MatchInfo) {}

func (d *DotsMonitor) ActionApplied(int, game.StateView, *game.Applied) {}

func (d *DotsMonitor) HandFinished(rec *game.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprint(d.w, d.glyph(rec).String())
	d.count++
	if d.count >= d.width {
		fmt.Fprintln(d.w)
		d.count = 0
	}
}

func (d *DotsMonitor) glyph(rec *game.Record) lipgloss.Style {
	for _, ev := range rec.Events {
		if ev.Synthesized {
			return d.trouble
		}
	}
	if len(rec.Showdown) > 0 {
		return d.showdown
	}
	return d.foldWin
}

func (d *DotsMonitor) MatchFinished(sum MatchSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.count > 0 {
		fmt.Fprintln(d.w)
		d.count = 0
	}
	fmt.Fprintf(d.w, "Completed %d hands (%s)\n", sum.Hands, sum.Reason)

	parts := make([]string, 0, len(sum.Standings))
	for _, s := range sum.Standings {
		parts = append(parts, fmt.Sprintf("%s %+d", s.Name, s.Delta))
	}
	fmt.Fprintln(d.w, strings.Join(parts, "  "))
}
