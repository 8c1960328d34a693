package game

import "sort"

// Round tracks betting state for a single street. The engine drives it
// through the note* methods; Hand owns turn order and chip movement.
//
// The waiting set holds every player index still owed an action this
// street. A street is closed once the set (and any deferred blind
// turns) drains: at that point every non-all-in live seat has matched
// CurrentBet.
type Round struct {
	Street     Street
	CurrentBet int
	MinRaise   int

	// LastRaiser is the player index of the last full raise, -1 when
	// the street has seen no aggression.
	LastRaiser int

	// Bets is each player's live contribution this street, indexed by
	// player position. Blind posts are seeded here before any action.
	Bets []int

	// LastAction is each player's most recent action this street in
	// wire spelling, "" before the player has acted. Blind posts do
	// not count as actions.
	LastAction []string

	players  []*Player
	bigBlind int

	waiting map[int]struct{}

	// pendingBlinds defers the blind posters' first turns until the
	// rest of the table has acted. Drained into waiting when the set
	// empties, or immediately on any aggression.
	pendingBlinds []int

	// raiseCapped is set when a short all-in bumps CurrentBet by less
	// than a full raise. Seats still owed chips may call or fold but
	// may not raise until a full raise lifts the cap.
	raiseCapped bool
}

func newRound(street Street, players []*Player, bigBlind int) *Round {
	return &Round{
		Street:     street,
		MinRaise:   bigBlind,
		LastRaiser: -1,
		Bets:       make([]int, len(players)),
		LastAction: make([]string, len(players)),
		players:    players,
		bigBlind:   bigBlind,
		waiting:    make(map[int]struct{}),
	}
}

// openPostflop puts every seat that can still act into the waiting set.
// With fewer than two such seats no betting is possible and the round
// opens already closed.
func (r *Round) openPostflop() {
	if r.countCanAct() < 2 {
		return
	}
	for i, p := range r.players {
		if p.CanAct() {
			r.waiting[i] = struct{}{}
		}
	}
}

// openPreflop opens the street with blinds already seeded in Bets.
// The posters act last: they are parked in pendingBlinds and join the
// waiting set once everyone else has responded to the blind, which
// preserves the big blind's option to raise an unraised pot.
//
// When posting leaves only one seat able to act, that seat gets a turn
// only if it still owes chips; with every live bet matched there is
// nobody left to respond and the street opens closed.
func (r *Round) openPreflop(sbIdx, bbIdx int) {
	switch r.countCanAct() {
	case 0:
		return
	case 1:
		for i, p := range r.players {
			if p.CanAct() && r.Bets[i] < r.CurrentBet {
				r.waiting[i] = struct{}{}
			}
		}
		return
	}
	for i, p := range r.players {
		if !p.CanAct() {
			continue
		}
		if i == sbIdx || i == bbIdx {
			continue
		}
		r.waiting[i] = struct{}{}
	}
	if sbIdx >= 0 && r.players[sbIdx].CanAct() {
		r.pendingBlinds = append(r.pendingBlinds, sbIdx)
	}
	if bbIdx >= 0 && r.players[bbIdx].CanAct() {
		r.pendingBlinds = append(r.pendingBlinds, bbIdx)
	}
	r.maintain()
}

func (r *Round) countCanAct() int {
	n := 0
	for _, p := range r.players {
		if p.CanAct() {
			n++
		}
	}
	return n
}

// Closed reports whether the street's betting has finished.
func (r *Round) Closed() bool {
	return len(r.waiting) == 0 && len(r.pendingBlinds) == 0
}

// Waiting returns the seat ids still owed an action, ascending.
func (r *Round) Waiting() []int {
	ids := make([]int, 0, len(r.waiting))
	for i := range r.waiting {
		ids = append(ids, r.players[i].Seat)
	}
	sort.Ints(ids)
	return ids
}

func (r *Round) awaited(idx int) bool {
	_, ok := r.waiting[idx]
	return ok
}

// callAmount is what the player still owes to match CurrentBet.
func (r *Round) callAmount(idx int) int {
	owed := r.CurrentBet - r.Bets[idx]
	if owed < 0 {
		return 0
	}
	return owed
}

// raiseBounds returns the legal raise-to range for the player. The
// upper bound is the player's stack plus chips already bet this
// street. A false result means no raise is available, either because
// the stack cannot cover a minimum raise or because a short all-in
// capped the betting.
func (r *Round) raiseBounds(idx int) (minTo, maxTo int, ok bool) {
	p := r.players[idx]
	maxTo = r.Bets[idx] + p.Stack
	minTo = r.CurrentBet + r.MinRaise
	if r.raiseCapped || maxTo < minTo {
		return 0, maxTo, false
	}
	return minTo, maxTo, true
}

// legalFor lists the actions the player may take on its turn.
func (r *Round) legalFor(idx int) []Action {
	p := r.players[idx]
	if !p.CanAct() {
		return nil
	}
	acts := []Action{Fold}
	if r.callAmount(idx) == 0 {
		acts = append(acts, Check)
	} else {
		acts = append(acts, Call)
	}
	if _, _, ok := r.raiseBounds(idx); ok {
		acts = append(acts, Raise)
	}
	acts = append(acts, AllIn)
	return acts
}

// noteFold records a fold and drops the seat from any future turn.
func (r *Round) noteFold(idx int) {
	r.LastAction[idx] = Fold.String()
	delete(r.waiting, idx)
	r.dropPending(idx)
	r.maintain()
}

func (r *Round) noteCheck(idx int) {
	r.LastAction[idx] = Check.String()
	delete(r.waiting, idx)
	r.dropPending(idx)
	r.maintain()
}

// noteCall records a call, including a short all-in call. allIn drops
// the seat from waiting permanently either way.
func (r *Round) noteCall(idx int, allIn bool) {
	if allIn {
		r.LastAction[idx] = AllIn.String()
	} else {
		r.LastAction[idx] = Call.String()
	}
	delete(r.waiting, idx)
	r.dropPending(idx)
	r.maintain()
}

// noteRaise records aggression that moved CurrentBet up to total.
//
// A full raise (increment of at least MinRaise) resets MinRaise to the
// increment, reopens action for every other seat that can still act,
// and lifts any short all-in cap. A short all-in bumps CurrentBet but
// reopens only the seats that have not matched the new amount; seats
// already matched keep their closed action, and no seat may re-raise
// until a full raise arrives.
func (r *Round) noteRaise(idx, total int, allIn bool) {
	prev := r.CurrentBet
	increment := total - prev
	r.CurrentBet = total
	if allIn {
		r.LastAction[idx] = AllIn.String()
	} else {
		r.LastAction[idx] = Raise.String()
	}
	delete(r.waiting, idx)
	r.dropPending(idx)

	if increment >= r.MinRaise {
		r.MinRaise = increment
		r.LastRaiser = idx
		r.raiseCapped = false
		for i, p := range r.players {
			if i == idx || !p.CanAct() {
				continue
			}
			r.waiting[i] = struct{}{}
		}
		r.pendingBlinds = nil
		return
	}

	// Short all-in: only seats owed chips keep a turn.
	r.raiseCapped = true
	for i, p := range r.players {
		if i == idx || !p.CanAct() {
			continue
		}
		if r.Bets[i] < r.CurrentBet {
			r.waiting[i] = struct{}{}
		}
	}
	r.pendingBlinds = nil
}

func (r *Round) dropPending(idx int) {
	for i, v := range r.pendingBlinds {
		if v == idx {
			r.pendingBlinds = append(r.pendingBlinds[:i], r.pendingBlinds[i+1:]...)
			return
		}
	}
}

// maintain promotes deferred blind turns once the rest of the table
// has acted.
func (r *Round) maintain() {
	if len(r.waiting) > 0 || len(r.pendingBlinds) == 0 {
		return
	}
	for _, idx := range r.pendingBlinds {
		if r.players[idx].CanAct() {
			r.waiting[idx] = struct{}{}
		}
	}
	r.pendingBlinds = nil
}

// allMatched verifies the closure invariant: every live seat that is
// not all-in has matched CurrentBet.
func (r *Round) allMatched() bool {
	for i, p := range r.players {
		if p.InHand() && !p.AllIn && r.Bets[i] != r.CurrentBet {
			return false
		}
	}
	return true
}
