package game

import "sort"

// Pot is one slab of the pot structure: the main pot or a side pot.
// Eligible holds player indices that can win it, ascending.
type Pot struct {
	Amount   int
	Eligible []int
}

// Return is a bet (or part of one) refunded because nobody could call
// it: the top contributor's overage above the next-highest total.
type Return struct {
	Player int
	Amount int
}

// buildPots derives the pot structure from per-player hand totals and
// fold flags. It is a pure function, so it can be recomputed after any
// street closes or mid-street for display without mutating hand state.
//
// The construction works in contribution levels: for each distinct
// total v committed by a live seat, the slab between the previous
// level and v collects min(total, v) from every seat, folded chips
// included. Seats whose total reaches v are eligible for that slab.
// Before slabbing, a strict top contribution with no matching caller
// is refunded to its owner.
func buildPots(totals []int, folded []bool) ([]Pot, []Return) {
	adjusted := make([]int, len(totals))
	copy(adjusted, totals)

	var returns []Return
	if top, second, ok := soleTop(adjusted); ok {
		returns = append(returns, Return{Player: top, Amount: adjusted[top] - second})
		adjusted[top] = second
	}

	levels := contributionLevels(adjusted, folded)
	pots := make([]Pot, 0, len(levels))
	prev := 0
	for _, v := range levels {
		pot := Pot{}
		for i, total := range adjusted {
			slab := min(total, v) - prev
			if slab > 0 {
				pot.Amount += slab
			}
			if !folded[i] && total >= v {
				pot.Eligible = append(pot.Eligible, i)
			}
		}
		pots = append(pots, pot)
		prev = v
	}

	// Chip conservation: anything the slabs missed (folded money above
	// the top live level) stays in play rather than vanishing.
	residue := 0
	for _, t := range totals {
		residue += t
	}
	for _, p := range pots {
		residue -= p.Amount
	}
	for _, r := range returns {
		residue -= r.Amount
	}
	if residue > 0 {
		if len(pots) > 0 {
			pots[len(pots)-1].Amount += residue
		} else {
			pot := Pot{Amount: residue}
			for i := range folded {
				if !folded[i] {
					pot.Eligible = append(pot.Eligible, i)
				}
			}
			pots = append(pots, pot)
		}
	}
	return pots, returns
}

// soleTop finds the unique highest contributor, returning its index,
// the second-highest total, and whether the top is strictly above the
// rest. A tied top means every chip is matched and nothing returns.
func soleTop(totals []int) (topIdx, second int, ok bool) {
	topIdx = -1
	top := -1
	for i, t := range totals {
		switch {
		case t > top:
			second = top
			top = t
			topIdx = i
			ok = true
		case t == top:
			ok = false
			second = t
		case t > second:
			second = t
		}
	}
	if !ok || top <= 0 || top == second {
		return -1, 0, false
	}
	if second < 0 {
		second = 0
	}
	return topIdx, second, true
}

func contributionLevels(totals []int, folded []bool) []int {
	seen := make(map[int]struct{})
	var levels []int
	for i, t := range totals {
		if folded[i] || t <= 0 {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		levels = append(levels, t)
	}
	sort.Ints(levels)
	return levels
}

func potSum(pots []Pot) int {
	n := 0
	for _, p := range pots {
		n += p.Amount
	}
	return n
}
