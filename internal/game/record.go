package game

import (
	"github.com/lox/holdem-arena/internal/deck"
	"github.com/lox/holdem-arena/internal/evaluator"
)

// Record is the structured log of one hand: roster, blinds, every
// deal and action in order, the pot structure, showdown reveals, and
// final deltas. It marshals to the per-hand JSON log file.
type Record struct {
	HandIndex int          `json:"hand_index"`
	HandID    string       `json:"hand_id,omitempty"`
	Button    int          `json:"button"`
	Seats     []SeatRecord `json:"seats"`

	SmallBlind BlindRecord `json:"small_blind"`
	BigBlind   BlindRecord `json:"big_blind"`

	HoleCards []DealRecord `json:"hole_cards"`
	Events    []Event      `json:"events"`
	Board     []string     `json:"board"`

	Pots     []PotRecord      `json:"pots"`
	Returned []ReturnRecord   `json:"returned,omitempty"`
	Showdown []ShowdownRecord `json:"showdown,omitempty"`

	Results []SeatResult `json:"results"`

	// Fatal carries the invariant-violation diagnostic when the hand
	// aborted; absent in normal play.
	Fatal string `json:"fatal,omitempty"`
}

type SeatRecord struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Stack int    `json:"stack"`
}

type BlindRecord struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

type DealRecord struct {
	Seat  int      `json:"seat"`
	Cards []string `json:"cards"`
}

// Event is one chronological entry: a blind post, a player action, or
// community cards hitting the board.
type Event struct {
	Street string `json:"street"`
	Type   string `json:"type"`

	Seat    int    `json:"seat,omitempty"`
	Action  string `json:"action,omitempty"`
	Amount  int    `json:"amount,omitempty"`
	ToTotal int    `json:"to_total,omitempty"`

	Cards []string `json:"cards,omitempty"`

	Coerced     bool   `json:"coerced,omitempty"`
	Synthesized bool   `json:"synthesized,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

const (
	EventPostBlind = "post_blind"
	EventAction    = "action"
	EventBoard     = "board"
)

type PotRecord struct {
	Amount   int         `json:"amount"`
	Eligible []int       `json:"eligible"`
	Winners  []int       `json:"winners"`
	Shares   map[int]int `json:"shares"`
}

type ReturnRecord struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

type ShowdownRecord struct {
	Seat  int      `json:"seat"`
	Cards []string `json:"cards"`
	Hand  string   `json:"hand"`
}

type SeatResult struct {
	Seat  int `json:"seat"`
	Delta int `json:"delta"`
	Stack int `json:"stack"`
}

// Result is the runtime outcome handed back to the match controller
// once a hand finalizes. All maps are keyed by seat id.
type Result struct {
	Pots     []PotResult
	Returns  map[int]int
	Deltas   map[int]int
	Stacks   map[int]int
	Showdown map[int]ShowdownHand

	// WonWithoutShowdown is the seat that took the pot after everyone
	// else folded, 0 when the hand reached showdown.
	WonWithoutShowdown int

	StreetReached Street
}

// PotResult mirrors Pot with seat ids and the award split applied.
type PotResult struct {
	Amount   int
	Eligible []int
	Winners  []int
	Shares   map[int]int
}

// ShowdownHand is one seat's revealed holding.
type ShowdownHand struct {
	Cards []deck.Card
	Value evaluator.Value
}
