package game

import (
	"fmt"
	"strings"
)

// Street identifies a betting street within a hand.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	switch s {
	case Preflop:
		return "Preflop"
	case Flop:
		return "Flop"
	case Turn:
		return "Turn"
	case River:
		return "River"
	case Showdown:
		return "Showdown"
	default:
		return fmt.Sprintf("Street(%d)", int(s))
	}
}

// BoardCards returns how many community cards are dealt entering the street.
func (s Street) BoardCards() int {
	switch s {
	case Flop:
		return 3
	case Turn:
		return 4
	case River, Showdown:
		return 5
	default:
		return 0
	}
}

// Action is one of the five moves a seat can make on its turn.
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
	AllIn
)

func (a Action) String() string {
	switch a {
	case Fold:
		return "Fold"
	case Check:
		return "Check"
	case Call:
		return "Call"
	case Raise:
		return "Raise"
	case AllIn:
		return "All In"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction converts an agent-supplied action name. Matching is
// case-insensitive and tolerates the common "all-in"/"allin" spellings.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise", "bet":
		return Raise, nil
	case "all in", "all-in", "allin":
		return AllIn, nil
	default:
		return Fold, fmt.Errorf("unknown action %q", s)
	}
}
