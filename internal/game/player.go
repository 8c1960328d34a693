package game

import "github.com/lox/holdem-arena/internal/deck"

// Seat describes one participant entering a hand. The controller owns
// seat identity and stacks across hands; the hand works on a copy and
// reports results back through Result.
type Seat struct {
	ID    int // 1-based table seat, stable for the whole match
	Name  string
	Stack int
}

// Player is the per-hand state of one seat.
type Player struct {
	Seat       int
	Name       string
	StartStack int
	Stack      int
	Hole       []deck.Card

	Folded bool
	AllIn  bool

	// Committed is the total paid into the pot on completed streets.
	// The current street's live bet lives in Round.Bets until the
	// street closes.
	Committed int
}

// InHand reports whether the player still contests the pot.
func (p *Player) InHand() bool {
	return !p.Folded
}

// CanAct reports whether the player can still take voluntary actions:
// in the hand, not all-in, and holding chips.
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn && p.Stack > 0
}

// TotalIn is the player's full contribution to the hand so far,
// including the live bet on the current street.
func (p *Player) TotalIn(liveBet int) int {
	return p.Committed + liveBet
}

// pay moves up to amount chips from the stack, returning the amount
// actually moved. Taking the last chip marks the player all-in.
func (p *Player) pay(amount int) int {
	if amount > p.Stack {
		amount = p.Stack
	}
	p.Stack -= amount
	if p.Stack == 0 {
		p.AllIn = true
	}
	return amount
}
