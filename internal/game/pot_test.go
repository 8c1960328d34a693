package game

import (
	"reflect"
	"testing"
)

func TestBuildPotsSingleLevel(t *testing.T) {
	t.Parallel()

	pots, returns := buildPots([]int{50, 50, 50}, []bool{false, false, false})
	if len(returns) != 0 {
		t.Fatalf("expected no returns, got %v", returns)
	}
	if len(pots) != 1 {
		t.Fatalf("expected 1 pot, got %d", len(pots))
	}
	if pots[0].Amount != 150 {
		t.Errorf("pot amount = %d, want 150", pots[0].Amount)
	}
	if !reflect.DeepEqual(pots[0].Eligible, []int{0, 1, 2}) {
		t.Errorf("eligible = %v, want [0 1 2]", pots[0].Eligible)
	}
}

func TestBuildPotsSideAndUncalled(t *testing.T) {
	t.Parallel()

	// Three all-ins for 100, 300 and 500: the 200 overage returns,
	// the rest splits into a main pot and one side pot.
	pots, returns := buildPots([]int{100, 300, 500}, []bool{false, false, false})

	if len(returns) != 1 || returns[0].Player != 2 || returns[0].Amount != 200 {
		t.Fatalf("returns = %v, want 200 to player 2", returns)
	}
	if len(pots) != 2 {
		t.Fatalf("expected 2 pots, got %d", len(pots))
	}
	if pots[0].Amount != 300 || !reflect.DeepEqual(pots[0].Eligible, []int{0, 1, 2}) {
		t.Errorf("main pot = %+v, want 300 eligible [0 1 2]", pots[0])
	}
	if pots[1].Amount != 400 || !reflect.DeepEqual(pots[1].Eligible, []int{1, 2}) {
		t.Errorf("side pot = %+v, want 400 eligible [1 2]", pots[1])
	}
}

func TestBuildPotsFoldedChipsStayIn(t *testing.T) {
	t.Parallel()

	// A folded seat's partial contribution joins the pots it reaches.
	pots, returns := buildPots([]int{40, 100, 100}, []bool{true, false, false})
	if len(returns) != 0 {
		t.Fatalf("expected no returns, got %v", returns)
	}
	if len(pots) != 1 {
		t.Fatalf("expected 1 pot, got %d", len(pots))
	}
	if pots[0].Amount != 240 {
		t.Errorf("pot = %d, want 240", pots[0].Amount)
	}
	if !reflect.DeepEqual(pots[0].Eligible, []int{1, 2}) {
		t.Errorf("eligible = %v, want [1 2]", pots[0].Eligible)
	}
}

func TestBuildPotsUncalledAfterFolds(t *testing.T) {
	t.Parallel()

	// A raise nobody called: the overage above the highest other
	// contribution returns, folded money stays in the pot.
	pots, returns := buildPots([]int{60, 10, 20}, []bool{false, true, true})

	if len(returns) != 1 || returns[0].Player != 0 || returns[0].Amount != 40 {
		t.Fatalf("returns = %v, want 40 to player 0", returns)
	}
	if len(pots) != 1 || pots[0].Amount != 50 {
		t.Fatalf("pots = %+v, want single pot of 50", pots)
	}
	if !reflect.DeepEqual(pots[0].Eligible, []int{0}) {
		t.Errorf("eligible = %v, want [0]", pots[0].Eligible)
	}
}

func TestBuildPotsShortAllInBelowFullCall(t *testing.T) {
	t.Parallel()

	// Seat 0 all-in short for 30 against two 100s: main pot caps at
	// 30 a head, the rest goes to a side pot without seat 0.
	pots, returns := buildPots([]int{30, 100, 100}, []bool{false, false, false})
	if len(returns) != 0 {
		t.Fatalf("expected no returns, got %v", returns)
	}
	if len(pots) != 2 {
		t.Fatalf("expected 2 pots, got %d", len(pots))
	}
	if pots[0].Amount != 90 || !reflect.DeepEqual(pots[0].Eligible, []int{0, 1, 2}) {
		t.Errorf("main pot = %+v, want 90 eligible [0 1 2]", pots[0])
	}
	if pots[1].Amount != 140 || !reflect.DeepEqual(pots[1].Eligible, []int{1, 2}) {
		t.Errorf("side pot = %+v, want 140 eligible [1 2]", pots[1])
	}
}

func TestBuildPotsConservation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		totals []int
		folded []bool
	}{
		{"even", []int{50, 50, 50}, []bool{false, false, false}},
		{"staircase", []int{10, 20, 30, 40}, []bool{false, false, false, false}},
		{"folds", []int{5, 10, 60, 60}, []bool{true, true, false, false}},
		{"uncalled", []int{100, 300, 500}, []bool{false, false, false}},
		{"zero seats", []int{0, 15, 15}, []bool{true, false, false}},
		{"folded above live", []int{60, 50, 20}, []bool{true, true, false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pots, returns := buildPots(tc.totals, tc.folded)
			total := 0
			for _, v := range tc.totals {
				total += v
			}
			got := potSum(pots)
			for _, r := range returns {
				got += r.Amount
			}
			if got != total {
				t.Errorf("pots %d + returns != committed %d", got, total)
			}
			for _, p := range pots {
				if len(p.Eligible) == 0 {
					t.Errorf("pot %+v has no eligible seats", p)
				}
			}
		})
	}
}
