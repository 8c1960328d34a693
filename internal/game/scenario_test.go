package game

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/lox/holdem-arena/internal/deck"
	"github.com/lox/holdem-arena/internal/evaluator"
	"github.com/lox/holdem-arena/internal/randutil"
)

func stacked(t *testing.T, cards string) *deck.Deck {
	t.Helper()
	d, err := deck.NewStacked(deck.MustParseCards(cards)...)
	if err != nil {
		t.Fatalf("stacking deck: %v", err)
	}
	return d
}

// Three players, everyone folds to a pre-flop raise: the raiser picks
// up the blinds and the uncalled portion of the raise comes back.
func TestScenarioFoldToPreflopRaise(t *testing.T) {
	t.Parallel()

	h := mustHand(t, []int{1000, 1000, 1000}, 1, 10, 20)
	mustApply(t, h, 1, Raise, 60)
	mustApply(t, h, 2, Fold, 0)
	ap := mustApply(t, h, 3, Fold, 0)
	if !ap.HandComplete {
		t.Fatal("hand should end on the second fold")
	}

	res, err := h.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	wantDeltas := map[int]int{1: 30, 2: -10, 3: -20}
	if !reflect.DeepEqual(res.Deltas, wantDeltas) {
		t.Errorf("deltas = %v, want %v", res.Deltas, wantDeltas)
	}
	if res.Returns[1] != 40 {
		t.Errorf("uncalled return = %d, want 40", res.Returns[1])
	}
	if len(res.Pots) != 1 || res.Pots[0].Amount != 50 {
		t.Errorf("pots = %+v, want single pot of 50", res.Pots)
	}
	if res.WonWithoutShowdown != 1 {
		t.Errorf("winner = %d, want 1", res.WonWithoutShowdown)
	}
}

// Heads-up showdown: an ace-high flush beats aces and kings.
func TestScenarioFlushBeatsTwoPair(t *testing.T) {
	t.Parallel()

	// Button (seat 1) is dealt first as small blind.
	d := stacked(t, "Qh 9d Ac Kc Ah Kh 7h 2c 3h")
	h, err := NewHand(randutil.New(1), testSeats(1000, 1000), 1, 5, 10, WithDeck(d))
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	mustApply(t, h, 1, Raise, 50)
	mustApply(t, h, 2, Call, 0)
	mustApply(t, h, 2, Check, 0)
	mustApply(t, h, 1, Raise, 50)
	mustApply(t, h, 2, Call, 0)
	mustApply(t, h, 2, Check, 0)
	mustApply(t, h, 1, Raise, 100)
	mustApply(t, h, 2, Call, 0)
	mustApply(t, h, 2, Check, 0)
	ap := mustApply(t, h, 1, Check, 0)
	if !ap.HandComplete {
		t.Fatalf("hand should reach showdown, street = %s", h.Street())
	}

	res, err := h.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	wantDeltas := map[int]int{1: 200, 2: -200}
	if !reflect.DeepEqual(res.Deltas, wantDeltas) {
		t.Errorf("deltas = %v, want %v", res.Deltas, wantDeltas)
	}
	if got := res.Showdown[1].Value.Category; got != evaluator.Flush {
		t.Errorf("seat 1 category = %s, want Flush", got)
	}
	if got := res.Showdown[2].Value.Category; got != evaluator.TwoPair {
		t.Errorf("seat 2 category = %s, want Two Pair", got)
	}
}

// Three stacks of 100/300/500 all-in pre-flop: main pot 300 for all
// three, side pot 400 for the two big stacks, 200 uncalled back to
// the cover.
func TestScenarioSidePots(t *testing.T) {
	t.Parallel()

	// Small blind (seat 2) is dealt first; seat 2 gets the winner.
	d := stacked(t, "Ah Ad 5h 5d Kh Kd 2c 7d 9h Js Qs")
	h, err := NewHand(randutil.New(1), testSeats(100, 300, 500), 1, 5, 10, WithDeck(d))
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	mustApply(t, h, 1, AllIn, 0)
	mustApply(t, h, 2, AllIn, 0)
	ap := mustApply(t, h, 3, AllIn, 0)
	if !ap.HandComplete {
		t.Fatalf("hand should run out, street = %s", h.Street())
	}
	if got := ap.StreetsClosed; len(got) != 4 {
		t.Errorf("streets closed = %v, want all four", got)
	}

	res, err := h.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(res.Pots) != 2 {
		t.Fatalf("pots = %+v, want main + one side", res.Pots)
	}
	main, side := res.Pots[0], res.Pots[1]
	if main.Amount != 300 || !reflect.DeepEqual(main.Eligible, []int{1, 2, 3}) {
		t.Errorf("main pot = %+v, want 300 eligible [1 2 3]", main)
	}
	if side.Amount != 400 || !reflect.DeepEqual(side.Eligible, []int{2, 3}) {
		t.Errorf("side pot = %+v, want 400 eligible [2 3]", side)
	}
	if !reflect.DeepEqual(main.Winners, []int{2}) || !reflect.DeepEqual(side.Winners, []int{2}) {
		t.Errorf("winners = %v / %v, want seat 2 for both", main.Winners, side.Winners)
	}
	if res.Returns[3] != 200 {
		t.Errorf("uncalled return = %d, want 200 to seat 3", res.Returns[3])
	}
	wantDeltas := map[int]int{1: -100, 2: 400, 3: -300}
	if !reflect.DeepEqual(res.Deltas, wantDeltas) {
		t.Errorf("deltas = %v, want %v", res.Deltas, wantDeltas)
	}
}

// A short all-in keeps the pot open only for seats owed chips and
// grants nobody a fresh raise.
func TestScenarioShortAllInKeepsBettingCapped(t *testing.T) {
	t.Parallel()

	// Button seat 3; seats 1 and 2 act first on the flop.
	d := stacked(t, "Qh Qd Jh Jd 9s 9c 2c 7d 3s 8h 4d")
	h, err := NewHand(randutil.New(1), testSeats(2000, 2000, 360), 3, 5, 10, WithDeck(d))
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	// Limped pre-flop, then flop: bet 100, raise to 300, shove 350.
	mustApply(t, h, 3, Call, 0)
	mustApply(t, h, 1, Call, 0)
	mustApply(t, h, 2, Check, 0)
	if h.Street() != Flop {
		t.Fatalf("street = %s, want Flop", h.Street())
	}

	mustApply(t, h, 1, Raise, 100)
	mustApply(t, h, 2, Raise, 300)
	v := h.View()
	if v.MinRaise != 200 {
		t.Fatalf("min raise after re-raise = %d, want 200", v.MinRaise)
	}

	ap := mustApply(t, h, 3, AllIn, 0)
	if ap.ToTotal != 350 || !ap.AllIn {
		t.Fatalf("shove = %+v, want all-in to 350", ap)
	}

	if got := h.Waiting(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("waiting = %v, want [1 2]", got)
	}
	v = h.View()
	if v.CurrentBet != 350 {
		t.Errorf("current bet = %d, want 350", v.CurrentBet)
	}
	if v.MinRaise != 200 {
		t.Errorf("min raise = %d, want unchanged 200", v.MinRaise)
	}
	if containsAction(h.LegalActions(1), Raise) {
		t.Error("seat 1 must not be offered a raise after the short all-in")
	}
	if _, _, ok := h.RaiseBounds(1); ok {
		t.Error("raise bounds must be closed for seat 1")
	}

	// Owed seats may only call or fold; calling closes the street.
	mustApply(t, h, 1, Call, 0)
	ap = mustApply(t, h, 2, Call, 0)
	if len(ap.StreetsClosed) == 0 || ap.StreetsClosed[0] != Flop {
		t.Fatalf("flop should close after the calls, got %v", ap.StreetsClosed)
	}

	// Check the turn and river down to showdown.
	for _, seat := range []int{1, 2, 1, 2} {
		mustApply(t, h, seat, Check, 0)
	}
	res, err := h.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	wantDeltas := map[int]int{1: 720, 2: -360, 3: -360}
	if !reflect.DeepEqual(res.Deltas, wantDeltas) {
		t.Errorf("deltas = %v, want %v", res.Deltas, wantDeltas)
	}
}

func TestHandRecordDeterministic(t *testing.T) {
	t.Parallel()

	run := func() []byte {
		h, err := NewHand(randutil.New(42), testSeats(1000, 1000, 1000), 1, 5, 10, WithHandIndex(3))
		if err != nil {
			t.Fatalf("NewHand: %v", err)
		}
		script := []struct {
			seat   int
			action Action
		}{
			{1, Call}, {2, Call}, {3, Check},
			{2, Check}, {3, Check}, {1, Check},
			{2, Check}, {3, Check}, {1, Check},
			{2, Check}, {3, Check}, {1, Check},
		}
		for _, s := range script {
			mustApply(t, h, s.seat, s.action, 0)
		}
		if _, err := h.Finalize(); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		out, err := json.Marshal(h.Record())
		if err != nil {
			t.Fatalf("marshal record: %v", err)
		}
		return out
	}

	first, second := run(), run()
	if !bytes.Equal(first, second) {
		t.Error("hand records differ across identical runs")
	}
}

// Random playouts: whatever the agents throw at the engine, chips are
// conserved, deltas sum to zero, and no stack goes negative.
func TestRandomPlayoutsConserveChips(t *testing.T) {
	t.Parallel()

	rng := randutil.New(7)
	for i := 0; i < 150; i++ {
		n := 2 + rng.IntN(4)
		stacks := make([]int, n)
		total := 0
		for j := range stacks {
			stacks[j] = 20 + rng.IntN(1980)
			total += stacks[j]
		}
		button := 1 + rng.IntN(n)

		h, err := NewHand(randutil.New(int64(i)), testSeats(stacks...), button, 5, 10)
		if err != nil {
			t.Fatalf("hand %d: NewHand: %v", i, err)
		}

		for steps := 0; !h.IsComplete(); steps++ {
			if steps > 500 {
				t.Fatalf("hand %d: no progress after 500 actions", i)
			}
			seat, ok := h.CurrentActor()
			if !ok {
				t.Fatalf("hand %d: incomplete hand with no actor", i)
			}
			var ap *Applied
			switch rng.IntN(10) {
			case 0:
				ap, err = h.Apply(seat, Fold, 0)
			case 1, 2, 3:
				ap, err = h.Apply(seat, Call, 0)
			case 4, 5:
				ap, err = h.Apply(seat, Check, 0)
			case 6, 7, 8:
				ap, err = h.Apply(seat, Raise, rng.IntN(400))
			default:
				ap, err = h.Apply(seat, AllIn, 0)
			}
			if err != nil {
				t.Fatalf("hand %d: apply for seat %d: %v", i, seat, err)
			}
			_ = ap
		}

		res, err := h.Finalize()
		if err != nil {
			t.Fatalf("hand %d: Finalize: %v", i, err)
		}
		sum, endTotal := 0, 0
		for _, d := range res.Deltas {
			sum += d
		}
		for seat, stack := range res.Stacks {
			if stack < 0 {
				t.Fatalf("hand %d: seat %d ended negative: %d", i, seat, stack)
			}
			endTotal += stack
		}
		if sum != 0 {
			t.Errorf("hand %d: deltas sum to %d", i, sum)
		}
		if endTotal != total {
			t.Errorf("hand %d: chips drifted: start %d end %d", i, total, endTotal)
		}
	}
}
