// Package evaluator ranks hold'em hands. It scores every five-card subset
// of the available cards and keeps the best, which is exact for the ≤7
// cards a dealer ever evaluates. Evaluation is deterministic and
// side-effect-free; the same inputs always produce the same Value.
package evaluator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lox/holdem-arena/internal/deck"
)

// Category enumerates hand categories ordered from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the display name of the category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Value is a totally ordered hand strength: category first, then the
// category's tiebreak ranks compared lexicographically. Two values with
// equal category and tiebreaks split a pot.
type Value struct {
	Category  Category
	Tiebreaks []int
}

// Compare returns 1 if v beats o, -1 if o beats v, 0 on an exact tie.
func (v Value) Compare(o Value) int {
	if v.Category != o.Category {
		if v.Category > o.Category {
			return 1
		}
		return -1
	}
	for i := 0; i < len(v.Tiebreaks) && i < len(o.Tiebreaks); i++ {
		if v.Tiebreaks[i] != o.Tiebreaks[i] {
			if v.Tiebreaks[i] > o.Tiebreaks[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// String renders the value for hand records, e.g. "Flush (A K 9 7 3)"
func (v Value) String() string {
	if len(v.Tiebreaks) == 0 {
		return v.Category.String()
	}
	parts := make([]string, len(v.Tiebreaks))
	for i, r := range v.Tiebreaks {
		parts[i] = deck.Rank(r).String()
	}
	return fmt.Sprintf("%s (%s)", v.Category, strings.Join(parts, " "))
}

// Evaluate returns the best five-card value available from the hole and
// community cards. At least five cards must be supplied in total.
func Evaluate(hole, board []deck.Card) (Value, error) {
	cards := make([]deck.Card, 0, len(hole)+len(board))
	cards = append(cards, hole...)
	cards = append(cards, board...)

	if len(cards) < 5 {
		return Value{}, fmt.Errorf("evaluate needs at least 5 cards, got %d", len(cards))
	}
	if len(cards) > 7 {
		return Value{}, fmt.Errorf("evaluate handles at most 7 cards, got %d", len(cards))
	}
	if err := checkDistinct(cards); err != nil {
		return Value{}, err
	}

	var best Value
	first := true
	var combo [5]deck.Card
	forEachFive(cards, &combo, func() {
		v := evaluate5(combo)
		if first || v.Compare(best) > 0 {
			best = v
			first = false
		}
	})
	return best, nil
}

// MustEvaluate is Evaluate for callers that have already validated their
// cards (tests, mostly).
func MustEvaluate(hole, board []deck.Card) Value {
	v, err := Evaluate(hole, board)
	if err != nil {
		panic(err)
	}
	return v
}

// forEachFive visits every five-card subset of cards, writing each into
// combo before invoking f. With at most C(7,5)=21 subsets there is no
// need for anything cleverer.
func forEachFive(cards []deck.Card, combo *[5]deck.Card, f func()) {
	n := len(cards)
	var pick func(start, depth int)
	pick = func(start, depth int) {
		if depth == 5 {
			f()
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			combo[depth] = cards[i]
			pick(i+1, depth+1)
		}
	}
	pick(0, 0)
}

// evaluate5 scores exactly five cards.
func evaluate5(cards [5]deck.Card) Value {
	var counts [15]int
	for _, c := range cards {
		counts[c.Rank]++
	}

	flush := true
	for i := 1; i < 5; i++ {
		if cards[i].Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	straightHigh := straightHighRank(counts)

	if flush && straightHigh > 0 {
		return Value{Category: StraightFlush, Tiebreaks: []int{straightHigh}}
	}

	// Rank groups by multiplicity, each group ordered high to low.
	var quads, trips, pairs, singles []int
	for r := int(deck.Ace); r >= int(deck.Two); r-- {
		switch counts[r] {
		case 4:
			quads = append(quads, r)
		case 3:
			trips = append(trips, r)
		case 2:
			pairs = append(pairs, r)
		case 1:
			singles = append(singles, r)
		}
	}

	switch {
	case len(quads) == 1:
		return Value{Category: FourOfAKind, Tiebreaks: []int{quads[0], singles[0]}}
	case len(trips) == 1 && len(pairs) == 1:
		return Value{Category: FullHouse, Tiebreaks: []int{trips[0], pairs[0]}}
	case flush:
		return Value{Category: Flush, Tiebreaks: singles}
	case straightHigh > 0:
		return Value{Category: Straight, Tiebreaks: []int{straightHigh}}
	case len(trips) == 1:
		return Value{Category: ThreeOfAKind, Tiebreaks: append([]int{trips[0]}, singles...)}
	case len(pairs) == 2:
		return Value{Category: TwoPair, Tiebreaks: []int{pairs[0], pairs[1], singles[0]}}
	case len(pairs) == 1:
		return Value{Category: Pair, Tiebreaks: append([]int{pairs[0]}, singles...)}
	default:
		return Value{Category: HighCard, Tiebreaks: singles}
	}
}

// straightHighRank returns the high card of a five-card straight, or 0.
// The wheel (A-2-3-4-5) counts as a five-high straight.
func straightHighRank(counts [15]int) int {
	run := 0
	for r := int(deck.Two); r <= int(deck.Ace); r++ {
		if counts[r] == 0 {
			run = 0
			continue
		}
		if counts[r] > 1 {
			return 0 // a paired rank leaves fewer than five distinct
		}
		run++
		if run == 5 {
			return r
		}
	}
	// Wheel: the ace plays low below the deuce.
	if counts[deck.Ace] == 1 && counts[deck.Two] == 1 && counts[deck.Three] == 1 &&
		counts[deck.Four] == 1 && counts[deck.Five] == 1 {
		return int(deck.Five)
	}
	return 0
}

func checkDistinct(cards []deck.Card) error {
	sorted := make([]deck.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return fmt.Errorf("duplicate card %s", sorted[i])
		}
	}
	return nil
}
