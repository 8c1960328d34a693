// Package bot holds the built-in strategies the server can seat in
// place of network agents. They are card-blind: every decision comes
// off the betting surface alone, which keeps them useful as sparring
// partners and useless as opponents worth studying.
package bot

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/game"
)

// Input is the betting surface a strategy decides from: the same
// facts a network agent assembles from REQUEST_PLAYER_ACTION and
// GAME_STATE.
type Input struct {
	Legal      []game.Action
	CallAmount int // chips owed to match the current bet
	MinRaiseTo int // lowest legal raise target total
	MaxRaiseTo int // stack-capped raise target total
	RaiseOpen  bool
	Pot        int
	BigBlind   int
	Stack      int
}

// Decision is the chosen action. Amount is the target total for a
// Raise and zero otherwise.
type Decision struct {
	Action game.Action
	Amount int
	Reason string
}

// Bot picks an action each time its seat is asked to act.
type Bot interface {
	Name() string
	Act(in Input) Decision
}

// Strategies lists the names New accepts.
func Strategies() []string {
	return []string{"caller", "folder", "random", "maniac"}
}

// New builds a bot by strategy name.
func New(strategy string, rng *rand.Rand, logger *log.Logger) (Bot, error) {
	switch strategy {
	case "caller":
		return NewCallBot(logger), nil
	case "folder":
		return NewFoldBot(logger), nil
	case "random":
		return NewRandBot(rng, logger), nil
	case "maniac":
		return NewManiacBot(rng, logger), nil
	}
	return nil, fmt.Errorf("unknown bot strategy %q", strategy)
}

func has(in Input, a game.Action) bool {
	return slices.Contains(in.Legal, a)
}
