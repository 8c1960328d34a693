package server

import (
	"fmt"
	"io"

	"github.com/lox/holdem-arena/internal/game"
	"github.com/lox/holdem-arena/internal/match"
	"github.com/lox/holdem-arena/internal/statistics"
)

// Monitor receives match progress for operator consoles. Callbacks
// arrive from the engine goroutine, never concurrently.
type Monitor interface {
	// MatchStarted is called once, before the first hand is dealt.
	MatchStarted(info MatchInfo)

	// ActionApplied is called after every applied action with the
	// post-action table snapshot.
	ActionApplied(handIndex int, view game.StateView, ap *game.Applied)

	// HandFinished is called with the complete hand record once the
	// hand settled.
	HandFinished(rec *game.Record)

	// MatchFinished is called once, after the last hand.
	MatchFinished(sum MatchSummary)
}

// MatchInfo describes the match as dealt: the starting roster and the
// envelope it runs under.
type MatchInfo struct {
	MatchID  string
	Seats    []match.Standing
	BigBlind int
	MaxHands int
}

// MatchSummary is the final table plus per-seat aggregates.
type MatchSummary struct {
	Reason    string
	Hands     int
	Standings []match.Standing
	Stats     []*statistics.SeatStats
}

// NullMonitor is a no-op implementation.
type NullMonitor struct{}

func (NullMonitor) MatchStarted(MatchInfo)                           {}
func (NullMonitor) ActionApplied(int, game.StateView, *game.Applied) {}
func (NullMonitor) HandFinished(*game.Record)                        {}
func (NullMonitor) MatchFinished(MatchSummary)                       {}

// MultiMonitor fans events out to several monitors.
type MultiMonitor struct {
	monitors []Monitor
}

// NewMultiMonitor builds a composite monitor, pruning nil entries and
// collapsing to a NullMonitor when nothing remains.
func NewMultiMonitor(monitors ...Monitor) Monitor {
	filtered := make([]Monitor, 0, len(monitors))
	for _, m := range monitors {
		if m != nil {
			filtered = append(filtered, m)
		}
	}

	switch len(filtered) {
	case 0:
		return NullMonitor{}
	case 1:
		return filtered[0]
	default:
		return MultiMonitor{monitors: filtered}
	}
}

func (m MultiMonitor) MatchStarted(info MatchInfo) {
	for _, mon := range m.monitors {
		mon.MatchStarted(info)
	}
}

func (m MultiMonitor) ActionApplied(handIndex int, view game.StateView, ap *game.Applied) {
	for _, mon := range m.monitors {
		mon.ActionApplied(handIndex, view, ap)
	}
}

func (m MultiMonitor) HandFinished(rec *game.Record) {
	for _, mon := range m.monitors {
		mon.HandFinished(rec)
	}
}

func (m MultiMonitor) MatchFinished(sum MatchSummary) {
	for _, mon := range m.monitors {
		mon.MatchFinished(sum)
	}
}

// NewConsoleMonitor builds the monitor selected by --monitor. The
// live dashboard is constructed by the caller because it owns the
// terminal; it is not available here.
func NewConsoleMonitor(kind string, out io.Writer) (Monitor, error) {
	switch kind {
	case "", "none":
		return NullMonitor{}, nil
	case "dots":
		return NewDotsMonitor(out), nil
	case "pretty":
		return NewPrettyMonitor(out), nil
	default:
		return nil, fmt.Errorf("unknown console monitor %q", kind)
	}
}
