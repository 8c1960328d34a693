package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// Deck is an ordered sequence of unique cards. A fresh deck holds all 52;
// it only ever shrinks within a hand.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck shuffled with the provided RNG.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}

	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}

	d.Shuffle()
	return d
}

// NewOrdered creates a full unshuffled deck. Tests use it together with
// Remove to rig exact boards and hole cards.
func NewOrdered() *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	return d
}

// NewStacked builds a deck that deals exactly the given cards in
// order. Duplicates are rejected so a rigged deal can never violate
// deck integrity. The deck holds only the cards provided.
func NewStacked(cards ...Card) (*Deck, error) {
	seen := make(map[Card]struct{}, len(cards))
	for _, c := range cards {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("duplicate card %s in stacked deck", c)
		}
		seen[c] = struct{}{}
	}
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d, nil
}

// MustStacked is NewStacked for test fixtures, panicking on duplicates.
func MustStacked(cards ...Card) *Deck {
	d, err := NewStacked(cards...)
	if err != nil {
		panic(err)
	}
	return d
}

// Shuffle randomizes the deck in place using Fisher-Yates
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top n cards
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("cannot deal %d cards, %d remaining", n, len(d.cards))
	}

	cards := make([]Card, n)
	copy(cards, d.cards[:n])
	d.cards = d.cards[n:]
	return cards, nil
}

// DealOne removes and returns the top card
func (d *Deck) DealOne() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, fmt.Errorf("cannot deal from an empty deck")
	}

	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// Remove takes a specific card out of the deck, wherever it sits.
// Removing a card that is not present is an error.
func (d *Deck) Remove(card Card) error {
	for i, c := range d.cards {
		if c == card {
			d.cards = append(d.cards[:i], d.cards[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("card %s not in deck", card)
}

// Remaining returns the number of cards left
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Contains reports whether the card is still in the deck
func (d *Deck) Contains(card Card) bool {
	for _, c := range d.cards {
		if c == card {
			return true
		}
	}
	return false
}
