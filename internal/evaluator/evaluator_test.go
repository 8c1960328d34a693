package evaluator

import (
	"testing"

	"github.com/lox/holdem-arena/internal/deck"
)

func eval(t *testing.T, cards string) Value {
	t.Helper()
	parsed := deck.MustParseCards(cards)
	v, err := Evaluate(parsed[:2], parsed[2:])
	if err != nil {
		t.Fatalf("Evaluate(%s): %v", cards, err)
	}
	return v
}

func TestCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cards string // first two are hole cards, rest community
		want  Category
	}{
		{"high card", "As Kd 9h 7c 5s 3d 2c", HighCard},
		{"pair", "As Ad 9h 7c 5s 3d 2c", Pair},
		{"two pair", "As Ad 9h 9c 5s 3d 2c", TwoPair},
		{"trips", "As Ad Ah 7c 5s 3d 2c", ThreeOfAKind},
		{"straight", "9s 8d 7h 6c 5s Kd 2c", Straight},
		{"wheel straight", "As 2d 3h 4c 5s Kd 9c", Straight},
		{"flush", "As Ks 9s 7s 3s 8d 2c", Flush},
		{"full house", "As Ad Ah 7c 7s 3d 2c", FullHouse},
		{"quads", "As Ad Ah Ac 5s 3d 2c", FourOfAKind},
		{"straight flush", "9s 8s 7s 6s 5s Ad Kc", StraightFlush},
		{"royal", "As Ks Qs Js Ts 2d 3c", StraightFlush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := eval(t, tt.cards); got.Category != tt.want {
				t.Errorf("got %s, want %s (value %s)", got.Category, tt.want, got)
			}
		})
	}
}

func TestCategoryOrdering(t *testing.T) {
	t.Parallel()

	// Ascending strength; every later hand must beat every earlier one.
	ladder := []string{
		"As Kd 9h 7c 5s 3d 2c", // high card
		"As Ad 9h 7c 5s 3d 2c", // pair
		"As Ad 9h 9c 5s 3d 2c", // two pair
		"As Ad Ah 7c 5s 9d 2c", // trips
		"As 2d 3h 4c 5s Kd 9c", // wheel
		"9s 8d 7h 6c 5s Kd 2c", // nine-high straight
		"As Ks 9s 7s 3s 8d 2c", // flush
		"As Ad Ah 7c 7s 3d 2c", // full house
		"As Ad Ah Ac 5s 3d 2c", // quads
		"9s 8s 7s 6s 5s Ad Kc", // straight flush
	}

	values := make([]Value, len(ladder))
	for i, cards := range ladder {
		values[i] = eval(t, cards)
	}

	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			if values[j].Compare(values[i]) != 1 {
				t.Errorf("%q (%s) should beat %q (%s)", ladder[j], values[j], ladder[i], values[i])
			}
			if values[i].Compare(values[j]) != -1 {
				t.Errorf("%q (%s) should lose to %q (%s)", ladder[i], values[i], ladder[j], values[j])
			}
		}
	}
}

func TestWheelIsFiveHigh(t *testing.T) {
	t.Parallel()

	wheel := eval(t, "As 2d 3h 4c 5s Kd 9c")
	sixHigh := eval(t, "2s 3d 4h 5c 6s Kd 9c")

	if wheel.Category != Straight {
		t.Fatalf("wheel evaluated as %s", wheel)
	}
	if wheel.Tiebreaks[0] != int(deck.Five) {
		t.Errorf("wheel high card = %d, want %d", wheel.Tiebreaks[0], deck.Five)
	}
	if sixHigh.Compare(wheel) != 1 {
		t.Error("six-high straight should beat the wheel")
	}
}

func TestKickersDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		better string
		worse  string
	}{
		{
			"pair kicker",
			"As Ad Kh 7c 5s 3d 2c",
			"As Ad Qh 7c 5s 3d 2c",
		},
		{
			"two pair high pair first",
			"As Ad 3h 3c Ks 9d 2c",
			"Ks Kd Qh Qc As 9d 2c",
		},
		{
			"flush second card",
			"As Ks 9s 7s 3s 8d 2c",
			"As Qs 9s 7s 3s 8d 2c",
		},
		{
			"full house trips rank first",
			"As Ad Ah 2c 2s 9d 8c",
			"Ks Kd Kh Qc Qs 9d 8c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			better, worse := eval(t, tt.better), eval(t, tt.worse)
			if better.Compare(worse) != 1 {
				t.Errorf("%s should beat %s", better, worse)
			}
		})
	}
}

func TestExactTieSplits(t *testing.T) {
	t.Parallel()

	// Both seats play the board's broadway straight.
	board := deck.MustParseCards("Ts Jd Qh Kc Ad")
	a, err := Evaluate(deck.MustParseCards("2s 3d"), board)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Evaluate(deck.MustParseCards("4c 5h"), board)
	if err != nil {
		t.Fatal(err)
	}
	if a.Compare(b) != 0 {
		t.Errorf("identical best hands should tie: %s vs %s", a, b)
	}
}

func TestBestFiveOfSeven(t *testing.T) {
	t.Parallel()

	// Hole pair must be ignored in favour of the board flush.
	v := eval(t, "2c 2d Ah Kh Qh Jh 9h")
	if v.Category != Flush {
		t.Errorf("got %s, want board flush", v)
	}
	want := []int{int(deck.Ace), int(deck.King), int(deck.Queen), int(deck.Jack), int(deck.Nine)}
	for i, r := range want {
		if v.Tiebreaks[i] != r {
			t.Errorf("tiebreak[%d] = %d, want %d", i, v.Tiebreaks[i], r)
		}
	}
}

func TestShowdownFlushBeatsTwoPair(t *testing.T) {
	t.Parallel()

	board := deck.MustParseCards("Ah Kh 7h 2c 3h")

	flush, err := Evaluate(deck.MustParseCards("Qh 9d"), board)
	if err != nil {
		t.Fatal(err)
	}
	twoPair, err := Evaluate(deck.MustParseCards("Ac Kc"), board)
	if err != nil {
		t.Fatal(err)
	}

	if flush.Category != Flush {
		t.Errorf("Qh9d on %v evaluated as %s", board, flush)
	}
	if twoPair.Category != TwoPair {
		t.Errorf("AcKc on %v evaluated as %s", board, twoPair)
	}
	if flush.Compare(twoPair) != 1 {
		t.Error("flush should beat two pair")
	}
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	if _, err := Evaluate(deck.MustParseCards("AsKd"), deck.MustParseCards("2c3d")); err == nil {
		t.Error("four cards should be rejected")
	}
	if _, err := Evaluate(deck.MustParseCards("AsKd"), deck.MustParseCards("As 2c 3d")); err == nil {
		t.Error("duplicate card should be rejected")
	}
	if _, err := Evaluate(nil, deck.MustParseCards("As Kd Qh Jc Ts 9d 8c 7h")); err == nil {
		t.Error("eight cards should be rejected")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	t.Parallel()

	hole := deck.MustParseCards("Qh 9d")
	board := deck.MustParseCards("Ah Kh 7h 2c 3h")

	first := MustEvaluate(hole, board)
	for i := 0; i < 10; i++ {
		if got := MustEvaluate(hole, board); got.Compare(first) != 0 {
			t.Fatalf("run %d gave %s, first run gave %s", i, got, first)
		}
	}
}
