package game

import "github.com/lox/holdem-arena/internal/deck"

// StateView is a broadcast-ready snapshot of the hand taken after an
// action: the table as every agent is allowed to see it, with no hole
// cards.
type StateView struct {
	Street     Street
	Board      []string
	Pot        int
	CurrentBet int
	MinRaise   int

	// MaxRaise is the raise ceiling for the seat due to act, zero
	// when the hand has no actor.
	MaxRaise int

	ToAct   int
	Waiting []int

	Seats []SeatView
	Pots  []PotView
}

type SeatView struct {
	Seat       int    `json:"seat"`
	Name       string `json:"name"`
	Stack      int    `json:"stack"`
	Bet        int    `json:"bet"`
	LastAction string `json:"last_action,omitempty"`
	Folded     bool   `json:"folded,omitempty"`
	AllIn      bool   `json:"all_in,omitempty"`
}

type PotView struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// View snapshots the hand for broadcast. Pots include live bets from
// the street in progress so the displayed total always matches the
// chips on the table.
func (h *Hand) View() StateView {
	v := StateView{
		Street:     h.street,
		Board:      deck.Strings(h.board),
		CurrentBet: h.round.CurrentBet,
		MinRaise:   h.round.MinRaise,
		Waiting:    h.round.Waiting(),
	}

	totals := make([]int, len(h.players))
	folded := make([]bool, len(h.players))
	for i, p := range h.players {
		live := h.round.Bets[i]
		totals[i] = p.Committed + live
		folded[i] = p.Folded
		v.Pot += totals[i]
		v.Seats = append(v.Seats, SeatView{
			Seat:       p.Seat,
			Name:       p.Name,
			Stack:      p.Stack,
			Bet:        live,
			LastAction: h.round.LastAction[i],
			Folded:     p.Folded,
			AllIn:      p.AllIn,
		})
	}

	pots, _ := buildPots(totals, folded)
	for _, pot := range pots {
		pv := PotView{Amount: pot.Amount}
		for _, idx := range pot.Eligible {
			pv.Eligible = append(pv.Eligible, h.players[idx].Seat)
		}
		v.Pots = append(v.Pots, pv)
	}

	if seat, ok := h.CurrentActor(); ok {
		v.ToAct = seat
		idx := h.bySeat[seat]
		v.MaxRaise = h.round.Bets[idx] + h.players[idx].Stack
	}
	return v
}
