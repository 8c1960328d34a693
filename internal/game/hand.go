package game

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/lox/holdem-arena/internal/deck"
	"github.com/lox/holdem-arena/internal/evaluator"
)

// Hand runs a single hand of no-limit hold'em from deal to award. It
// is a synchronous state machine: the caller asks CurrentActor who is
// due, obtains that seat's decision however it likes, and feeds it
// back through Apply. The hand never blocks and holds no references to
// connections or seats beyond plain ids.
type Hand struct {
	players []*Player
	bySeat  map[int]int

	buttonIdx int
	sbIdx     int
	bbIdx     int
	sbAmount  int
	bbAmount  int

	deck  *deck.Deck
	board []deck.Card

	street   Street
	round    *Round
	actorIdx int

	complete  bool
	finalized bool
	result    *Result
	fatal     string

	// wonWithoutShowdownIdx is the last live player once everyone else
	// folds, -1 while contested.
	wonWithoutShowdownIdx int

	handIndex int
	handID    string
	events    []Event
}

// Applied reports how one action request was executed, including any
// coercion the engine substituted for an illegal request.
type Applied struct {
	Seat      int
	Requested Action
	Action    Action
	Amount    int
	ToTotal   int
	AllIn     bool

	Coerced     bool
	Synthesized bool
	Reason      string

	// StreetsClosed lists streets whose betting finished as a result
	// of this action, in order. Several close at once when remaining
	// players are all-in and the board runs out.
	StreetsClosed []Street

	HandComplete bool
}

// NewHand deals a fresh hand. seats must all carry chips; button is
// the dealer seat id. Blind posts happen immediately: the small blind
// is the first seat clockwise from the button that can afford it, the
// big blind the first after that affording the big blind amount
// (heads-up, the button posts the small blind). If no two seats can
// post their blinds the hand is void and ErrVoidHand is returned.
func NewHand(rng *rand.Rand, seats []Seat, button, smallBlind, bigBlind int, opts ...Option) (*Hand, error) {
	if len(seats) < 2 {
		return nil, fmt.Errorf("need at least 2 seats, got %d", len(seats))
	}
	if smallBlind <= 0 || bigBlind < smallBlind {
		return nil, fmt.Errorf("invalid blinds %d/%d", smallBlind, bigBlind)
	}

	h := &Hand{
		bySeat:                make(map[int]int, len(seats)),
		sbAmount:              smallBlind,
		bbAmount:              bigBlind,
		street:                Preflop,
		actorIdx:              -1,
		wonWithoutShowdownIdx: -1,
	}
	for i, s := range seats {
		if s.Stack <= 0 {
			return nil, fmt.Errorf("seat %d has no chips", s.ID)
		}
		if _, dup := h.bySeat[s.ID]; dup {
			return nil, fmt.Errorf("duplicate seat id %d", s.ID)
		}
		h.bySeat[s.ID] = i
		h.players = append(h.players, &Player{
			Seat:       s.ID,
			Name:       s.Name,
			StartStack: s.Stack,
			Stack:      s.Stack,
		})
	}
	btnIdx, ok := h.bySeat[button]
	if !ok {
		return nil, fmt.Errorf("button seat %d not in hand", button)
	}
	h.buttonIdx = btnIdx

	for _, opt := range opts {
		opt(h)
	}
	if h.deck == nil {
		h.deck = deck.New(rng)
	}

	if err := h.assignBlinds(); err != nil {
		return nil, err
	}
	if err := h.deal(); err != nil {
		return nil, err
	}
	h.postBlinds()

	h.round = newRound(Preflop, h.players, h.bbAmount)
	h.round.CurrentBet = h.bbAmount
	h.round.Bets[h.sbIdx] = h.sbPosted()
	h.round.Bets[h.bbIdx] = h.bbPosted()
	h.round.openPreflop(h.sbIdx, h.bbIdx)

	if h.round.Closed() {
		if err := h.progressStreets(nil); err != nil {
			return nil, err
		}
	} else {
		h.actorIdx = h.nextToAct(h.bbIdx + 1)
	}
	return h, nil
}

// assignBlinds scans clockwise from the button for seats that can
// afford their blinds. Heads-up the button is the small blind.
func (h *Hand) assignBlinds() error {
	n := len(h.players)
	if n == 2 {
		other := (h.buttonIdx + 1) % 2
		if h.players[h.buttonIdx].Stack < h.sbAmount || h.players[other].Stack < h.bbAmount {
			return ErrVoidHand
		}
		h.sbIdx, h.bbIdx = h.buttonIdx, other
		return nil
	}

	h.sbIdx = -1
	for k := 1; k <= n; k++ {
		idx := (h.buttonIdx + k) % n
		if h.players[idx].Stack >= h.sbAmount {
			h.sbIdx = idx
			break
		}
	}
	if h.sbIdx < 0 {
		return ErrVoidHand
	}
	h.bbIdx = -1
	for k := 1; k < n; k++ {
		idx := (h.sbIdx + k) % n
		if h.players[idx].Stack >= h.bbAmount {
			h.bbIdx = idx
			break
		}
	}
	if h.bbIdx < 0 {
		return ErrVoidHand
	}
	return nil
}

// deal gives two cards to each seat, first card order starting from
// the small blind as a live dealer would.
func (h *Hand) deal() error {
	n := len(h.players)
	for k := 0; k < n; k++ {
		idx := (h.sbIdx + k) % n
		cards, err := h.deck.Deal(2)
		if err != nil {
			return fatalf("dealing hole cards: %v", err)
		}
		h.players[idx].Hole = cards
	}
	return nil
}

func (h *Hand) postBlinds() {
	sb := h.players[h.sbIdx]
	bb := h.players[h.bbIdx]
	sb.pay(h.sbAmount)
	bb.pay(h.bbAmount)
	h.events = append(h.events,
		Event{Street: Preflop.String(), Type: EventPostBlind, Seat: sb.Seat, Amount: h.sbPosted(), ToTotal: h.sbPosted()},
		Event{Street: Preflop.String(), Type: EventPostBlind, Seat: bb.Seat, Amount: h.bbPosted(), ToTotal: h.bbPosted()},
	)
}

func (h *Hand) sbPosted() int { return h.sbAmount }
func (h *Hand) bbPosted() int { return h.bbAmount }

// Street returns the current street, Showdown once the board has run out.
func (h *Hand) Street() Street { return h.street }

// Board returns the community cards dealt so far.
func (h *Hand) Board() []deck.Card {
	out := make([]deck.Card, len(h.board))
	copy(out, h.board)
	return out
}

// IsComplete reports whether the hand has finished and can finalize.
func (h *Hand) IsComplete() bool { return h.complete }

// Button returns the dealer seat id.
func (h *Hand) Button() int { return h.players[h.buttonIdx].Seat }

// Blinds returns the small and big blind seat ids.
func (h *Hand) Blinds() (sbSeat, bbSeat int) {
	return h.players[h.sbIdx].Seat, h.players[h.bbIdx].Seat
}

// CurrentActor names the seat due to act. ok is false once the hand
// is complete.
func (h *Hand) CurrentActor() (seat int, ok bool) {
	if h.complete || h.actorIdx < 0 {
		return 0, false
	}
	return h.players[h.actorIdx].Seat, true
}

// Waiting returns the seat ids still owed an action this street.
func (h *Hand) Waiting() []int { return h.round.Waiting() }

// HoleCards returns the seat's dealt cards.
func (h *Hand) HoleCards(seat int) []deck.Card {
	idx, ok := h.bySeat[seat]
	if !ok {
		return nil
	}
	return h.players[idx].Hole
}

// CallAmount returns what the seat owes to match the current bet.
func (h *Hand) CallAmount(seat int) int {
	idx, ok := h.bySeat[seat]
	if !ok {
		return 0
	}
	return h.round.callAmount(idx)
}

// RaiseBounds returns the seat's legal raise-to range. ok is false
// when no raise is available to it.
func (h *Hand) RaiseBounds(seat int) (minTo, maxTo int, ok bool) {
	idx, found := h.bySeat[seat]
	if !found {
		return 0, 0, false
	}
	return h.round.raiseBounds(idx)
}

// LegalActions lists what the seat may do on its turn.
func (h *Hand) LegalActions(seat int) []Action {
	idx, ok := h.bySeat[seat]
	if !ok {
		return nil
	}
	return h.round.legalFor(idx)
}

// Apply executes one action for the seat currently due. Illegal
// requests are never rejected: they are coerced to the nearest legal
// interpretation and the decision is reported in the result. Apply
// returns an error only for out-of-turn calls, unknown seats, or
// internal invariant violations (wrapped in FatalError).
func (h *Hand) Apply(seat int, action Action, amount int) (*Applied, error) {
	idx, err := h.actingIndex(seat)
	if err != nil {
		return nil, err
	}
	res := h.resolve(idx, action, amount)
	res.requested = action
	return h.execute(idx, res)
}

// ApplyTimeout synthesizes the seat's action after a timeout or
// disconnect: a check when checking is legal, otherwise a fold.
func (h *Hand) ApplyTimeout(seat int, reason string) (*Applied, error) {
	idx, err := h.actingIndex(seat)
	if err != nil {
		return nil, err
	}
	res := resolved{action: Fold, synthesized: true, reason: reason}
	if h.round.callAmount(idx) == 0 {
		res.action = Check
	}
	res.requested = res.action
	return h.execute(idx, res)
}

func (h *Hand) actingIndex(seat int) (int, error) {
	if h.complete {
		return 0, ErrHandComplete
	}
	idx, ok := h.bySeat[seat]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSeat, seat)
	}
	if idx != h.actorIdx {
		return 0, fmt.Errorf("%w: seat %d (waiting on %d)", ErrNotYourTurn, seat, h.players[h.actorIdx].Seat)
	}
	return idx, nil
}

type resolved struct {
	requested   Action
	action      Action
	chips       int
	coerced     bool
	synthesized bool
	reason      string
}

// resolve maps an action request onto the legal action actually
// executed, applying the coercion ladder for illegal requests and the
// boundary rules for raise amounts.
func (h *Hand) resolve(idx int, action Action, amount int) resolved {
	p := h.players[idx]
	r := h.round
	toCall := r.callAmount(idx)

	switch action {
	case Fold:
		return resolved{action: Fold}

	case Check:
		if toCall == 0 {
			return resolved{action: Check}
		}
		return resolved{action: Fold, coerced: true, reason: "check while facing a bet"}

	case Call:
		if toCall == 0 {
			return resolved{action: Check, coerced: true, reason: "call with nothing owed"}
		}
		// A call beyond the stack goes all-in for less.
		return resolved{action: Call, chips: min(toCall, p.Stack)}

	case Raise:
		maxTo := r.Bets[idx] + p.Stack
		if amount <= 0 {
			if toCall == 0 {
				return resolved{action: Check, coerced: true, reason: "raise without an amount"}
			}
			return resolved{action: Fold, coerced: true, reason: "raise without an amount"}
		}
		if amount > maxTo {
			return resolved{action: AllIn, chips: p.Stack, coerced: true, reason: "raise beyond stack"}
		}
		if amount == maxTo {
			return resolved{action: AllIn, chips: p.Stack}
		}
		minTo, _, raiseOpen := r.raiseBounds(idx)
		if !raiseOpen || amount < minTo {
			reason := "raise below minimum"
			if !raiseOpen {
				reason = "betting capped by short all-in"
			}
			if toCall == 0 {
				return resolved{action: Check, coerced: true, reason: reason}
			}
			return resolved{action: Call, chips: min(toCall, p.Stack), coerced: true, reason: reason}
		}
		return resolved{action: Raise, chips: amount - r.Bets[idx]}

	case AllIn:
		return resolved{action: AllIn, chips: p.Stack}
	}
	return resolved{action: Fold, coerced: true, reason: fmt.Sprintf("unknown action %d", int(action))}
}

func (h *Hand) execute(idx int, res resolved) (*Applied, error) {
	p := h.players[idx]
	r := h.round
	prevStreet := h.street

	paid := p.pay(res.chips)
	if paid != res.chips {
		return nil, fatalf("seat %d paid %d of %d", p.Seat, paid, res.chips)
	}
	r.Bets[idx] += paid
	total := r.Bets[idx]

	switch res.action {
	case Fold:
		p.Folded = true
		r.noteFold(idx)
	case Check:
		r.noteCheck(idx)
	case Call:
		r.noteCall(idx, p.AllIn)
	case Raise:
		r.noteRaise(idx, total, false)
	case AllIn:
		if total > r.CurrentBet {
			r.noteRaise(idx, total, true)
		} else {
			r.noteCall(idx, true)
		}
	}

	ap := &Applied{
		Seat:        p.Seat,
		Requested:   res.requested,
		Action:      res.action,
		Amount:      paid,
		ToTotal:     total,
		AllIn:       p.AllIn,
		Coerced:     res.coerced,
		Synthesized: res.synthesized,
		Reason:      res.reason,
	}
	h.events = append(h.events, Event{
		Street:      prevStreet.String(),
		Type:        EventAction,
		Seat:        p.Seat,
		Action:      res.action.String(),
		Amount:      paid,
		ToTotal:     total,
		Coerced:     res.coerced,
		Synthesized: res.synthesized,
		Reason:      res.reason,
	})

	if h.inHandCount() == 1 {
		h.finishFoldWin()
		ap.HandComplete = true
		return ap, nil
	}
	if !r.Closed() {
		h.actorIdx = h.nextToAct(idx + 1)
		if h.actorIdx < 0 {
			return nil, fatalf("open round with no actor on %s", h.street)
		}
		return ap, nil
	}
	if err := h.progressStreets(ap); err != nil {
		return nil, err
	}
	ap.HandComplete = h.complete
	return ap, nil
}

// progressStreets collects the closed street and deals forward. When
// remaining players are all-in the inner rounds close as they open and
// the board runs out to showdown in one pass.
func (h *Hand) progressStreets(ap *Applied) error {
	for h.round.Closed() && !h.complete {
		if !h.round.allMatched() {
			return fatalf("street %s closed with unmatched bets", h.street)
		}
		if ap != nil {
			ap.StreetsClosed = append(ap.StreetsClosed, h.street)
		}
		h.collectRound()

		if h.street == River {
			h.complete = true
			h.street = Showdown
			h.actorIdx = -1
			return nil
		}

		next := h.street + 1
		want := next.BoardCards() - len(h.board)
		cards, err := h.deck.Deal(want)
		if err != nil {
			return fatalf("dealing %s: %v", next, err)
		}
		h.board = append(h.board, cards...)
		h.events = append(h.events, Event{
			Street: next.String(),
			Type:   EventBoard,
			Cards:  deck.Strings(cards),
		})

		h.street = next
		h.round = newRound(next, h.players, h.bbAmount)
		h.round.openPostflop()
		if !h.round.Closed() {
			h.actorIdx = h.nextToAct(h.buttonIdx + 1)
			if h.actorIdx < 0 {
				return fatalf("open round with no actor on %s", h.street)
			}
			return nil
		}
	}
	return nil
}

func (h *Hand) collectRound() {
	for i, p := range h.players {
		p.Committed += h.round.Bets[i]
	}
}

func (h *Hand) finishFoldWin() {
	h.collectRound()
	for i, p := range h.players {
		if p.InHand() {
			h.wonWithoutShowdownIdx = i
			break
		}
	}
	h.complete = true
	h.actorIdx = -1
}

func (h *Hand) inHandCount() int {
	n := 0
	for _, p := range h.players {
		if p.InHand() {
			n++
		}
	}
	return n
}

// nextToAct scans clockwise from the given index for the first seat in
// the waiting set, -1 when none.
func (h *Hand) nextToAct(from int) int {
	n := len(h.players)
	for k := 0; k < n; k++ {
		idx := (from + k) % n
		if h.round.awaited(idx) {
			return idx
		}
	}
	return -1
}

// Finalize settles the hand: builds pots, returns any uncalled bet,
// evaluates showdown hands, awards winnings, and verifies chip
// conservation. It is idempotent; repeated calls return the same
// Result.
func (h *Hand) Finalize() (*Result, error) {
	if h.finalized {
		return h.result, nil
	}
	if !h.complete {
		return nil, fmt.Errorf("hand still in progress on %s", h.street)
	}

	totals := make([]int, len(h.players))
	folded := make([]bool, len(h.players))
	committed := 0
	for i, p := range h.players {
		totals[i] = p.Committed
		folded[i] = p.Folded
		committed += p.Committed
	}
	pots, returns := buildPots(totals, folded)

	res := &Result{
		Returns:       make(map[int]int),
		Deltas:        make(map[int]int, len(h.players)),
		Stacks:        make(map[int]int, len(h.players)),
		StreetReached: h.street,
	}
	for _, r := range returns {
		p := h.players[r.Player]
		p.Stack += r.Amount
		res.Returns[p.Seat] = r.Amount
	}

	showdown := h.wonWithoutShowdownIdx < 0
	values := make([]evaluator.Value, len(h.players))
	if showdown {
		res.Showdown = make(map[int]ShowdownHand)
		for i, p := range h.players {
			if p.Folded {
				continue
			}
			v, err := evaluator.Evaluate(p.Hole, h.board)
			if err != nil {
				return nil, fatalf("evaluating seat %d: %v", p.Seat, err)
			}
			values[i] = v
			res.Showdown[p.Seat] = ShowdownHand{Cards: p.Hole, Value: v}
		}
	} else {
		res.WonWithoutShowdown = h.players[h.wonWithoutShowdownIdx].Seat
	}

	awarded := 0
	for _, pot := range pots {
		pr := PotResult{Amount: pot.Amount, Shares: make(map[int]int)}
		for _, idx := range pot.Eligible {
			pr.Eligible = append(pr.Eligible, h.players[idx].Seat)
		}
		winners := h.potWinners(pot, showdown, values)
		share := pot.Amount / len(winners)
		rem := pot.Amount % len(winners)
		oddIdx := h.closestClockwise(winners)
		for _, idx := range winners {
			amt := share
			if idx == oddIdx {
				amt += rem
			}
			h.players[idx].Stack += amt
			pr.Winners = append(pr.Winners, h.players[idx].Seat)
			pr.Shares[h.players[idx].Seat] = amt
			awarded += amt
		}
		sort.Ints(pr.Winners)
		res.Pots = append(res.Pots, pr)
	}

	returned := 0
	for _, r := range returns {
		returned += r.Amount
	}
	if awarded+returned != committed {
		return nil, fatalf("pot award %d + returns %d != committed %d", awarded, returned, committed)
	}

	deltaSum := 0
	for _, p := range h.players {
		if p.Stack < 0 {
			return nil, fatalf("seat %d ended with negative stack %d", p.Seat, p.Stack)
		}
		delta := p.Stack - p.StartStack
		res.Deltas[p.Seat] = delta
		res.Stacks[p.Seat] = p.Stack
		deltaSum += delta
	}
	if deltaSum != 0 {
		return nil, fatalf("hand deltas sum to %d, want 0", deltaSum)
	}

	h.result = res
	h.finalized = true
	return res, nil
}

// potWinners picks the best hand among a pot's eligible seats, all of
// them on an exact tie.
func (h *Hand) potWinners(pot Pot, showdown bool, values []evaluator.Value) []int {
	if !showdown {
		// Everyone else folded; the last live seat is eligible for
		// every pot by construction.
		return []int{h.wonWithoutShowdownIdx}
	}
	var winners []int
	for _, idx := range pot.Eligible {
		if len(winners) == 0 {
			winners = append(winners, idx)
			continue
		}
		switch values[idx].Compare(values[winners[0]]) {
		case 1:
			winners = winners[:0]
			winners = append(winners, idx)
		case 0:
			winners = append(winners, idx)
		}
	}
	return winners
}

// closestClockwise returns the member nearest clockwise from the
// button, which receives the odd chip on uneven splits.
func (h *Hand) closestClockwise(indices []int) int {
	n := len(h.players)
	best := -1
	bestDist := n + 1
	for _, idx := range indices {
		dist := ((idx-h.buttonIdx-1)%n + n) % n
		if dist < bestDist {
			bestDist = dist
			best = idx
		}
	}
	return best
}

// MarkFatal stamps the hand as aborted by an engine invariant
// violation so a diagnostic record can still be written. The hand
// accepts no further actions afterwards.
func (h *Hand) MarkFatal(msg string) {
	h.fatal = msg
	h.complete = true
	h.actorIdx = -1
}

// Record assembles the hand's structured log. Valid after Finalize,
// or after MarkFatal for an aborted hand; otherwise nil.
func (h *Hand) Record() *Record {
	if !h.finalized && h.fatal == "" {
		return nil
	}
	rec := &Record{
		HandIndex:  h.handIndex,
		HandID:     h.handID,
		Button:     h.players[h.buttonIdx].Seat,
		SmallBlind: BlindRecord{Seat: h.players[h.sbIdx].Seat, Amount: h.sbAmount},
		BigBlind:   BlindRecord{Seat: h.players[h.bbIdx].Seat, Amount: h.bbAmount},
		Board:      deck.Strings(h.board),
		Events:     h.events,
		Fatal:      h.fatal,
	}
	for _, p := range h.players {
		rec.Seats = append(rec.Seats, SeatRecord{Seat: p.Seat, Name: p.Name, Stack: p.StartStack})
		rec.HoleCards = append(rec.HoleCards, DealRecord{Seat: p.Seat, Cards: deck.Strings(p.Hole)})
	}
	if h.result == nil {
		return rec
	}
	for _, p := range h.players {
		rec.Results = append(rec.Results, SeatResult{Seat: p.Seat, Delta: h.result.Deltas[p.Seat], Stack: h.result.Stacks[p.Seat]})
	}
	for _, pr := range h.result.Pots {
		rec.Pots = append(rec.Pots, PotRecord{Amount: pr.Amount, Eligible: pr.Eligible, Winners: pr.Winners, Shares: pr.Shares})
	}
	for seat, amt := range h.result.Returns {
		rec.Returned = append(rec.Returned, ReturnRecord{Seat: seat, Amount: amt})
	}
	if h.result.Showdown != nil {
		seats := make([]int, 0, len(h.result.Showdown))
		for seat := range h.result.Showdown {
			seats = append(seats, seat)
		}
		sort.Ints(seats)
		for _, seat := range seats {
			sh := h.result.Showdown[seat]
			rec.Showdown = append(rec.Showdown, ShowdownRecord{
				Seat:  seat,
				Cards: deck.Strings(sh.Cards),
				Hand:  sh.Value.String(),
			})
		}
	}
	return rec
}
