package bot

import "github.com/lox/holdem-arena/internal/game"

// Ask assembles the betting surface for the seat from the live hand
// and returns the strategy's decision. Server bot seats and the
// self-play simulator both decide through here, so a strategy behaves
// identically with and without a socket in the loop.
func Ask(b Bot, h *game.Hand, seat, bigBlind int) Decision {
	view := h.View()
	stack := 0
	for _, sv := range view.Seats {
		if sv.Seat == seat {
			stack = sv.Stack
		}
	}
	minTo, maxTo, open := h.RaiseBounds(seat)
	return b.Act(Input{
		Legal:      h.LegalActions(seat),
		CallAmount: h.CallAmount(seat),
		MinRaiseTo: minTo,
		MaxRaiseTo: maxTo,
		RaiseOpen:  open,
		Pot:        view.Pot,
		BigBlind:   bigBlind,
		Stack:      stack,
	})
}
