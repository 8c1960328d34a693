package game

import "github.com/lox/holdem-arena/internal/deck"

// Option customizes hand construction.
type Option func(*Hand)

// WithDeck substitutes a prepared deck, used by tests to rig exact
// boards and holdings. The deck is dealt as-is, without reshuffling.
func WithDeck(d *deck.Deck) Option {
	return func(h *Hand) {
		h.deck = d
	}
}

// WithHandIndex stamps the hand's position within the match, used in
// log file naming and the hand record.
func WithHandIndex(n int) Option {
	return func(h *Hand) {
		h.handIndex = n
	}
}

// WithHandID attaches an external identifier to the hand record.
func WithHandID(id string) Option {
	return func(h *Hand) {
		h.handID = id
	}
}
