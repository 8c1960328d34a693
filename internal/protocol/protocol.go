// Package protocol defines the JSON wire format between the dealer
// and bot agents: an envelope carrying an integer message kind plus a
// kind-specific payload. Messages are newline-delimited on the wire;
// each line is one UTF-8 JSON object. Inbound messages may carry
// unknown fields, which are ignored.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind is the integer message type carried in the envelope. The codes
// are part of the wire contract and must not be renumbered.
type Kind int

const (
	KindConnect             Kind = 0
	KindGameStart           Kind = 2
	KindRoundStart          Kind = 3
	KindRequestPlayerAction Kind = 4
	KindPlayerAction        Kind = 5
	KindRoundEnd            Kind = 6
	KindGameEnd             Kind = 7
	KindGameState           Kind = 9
	KindMessage             Kind = 10
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "CONNECT"
	case KindGameStart:
		return "GAME_START"
	case KindRoundStart:
		return "ROUND_START"
	case KindRequestPlayerAction:
		return "REQUEST_PLAYER_ACTION"
	case KindPlayerAction:
		return "PLAYER_ACTION"
	case KindRoundEnd:
		return "ROUND_END"
	case KindGameEnd:
		return "GAME_END"
	case KindGameState:
		return "GAME_STATE"
	case KindMessage:
		return "MESSAGE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Envelope is the outer frame of every message.
type Envelope struct {
	Type    Kind            `json:"type"`
	Message json.RawMessage `json:"message"`
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(kind Kind, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{Type: kind, Message: body})
}

// Decode parses an envelope from one frame.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	return &env, nil
}

// Payload unmarshals the envelope body into the given message struct.
func (e *Envelope) Payload(v any) error {
	if err := json.Unmarshal(e.Message, v); err != nil {
		return fmt.Errorf("malformed %s payload: %w", e.Type, err)
	}
	return nil
}

// Connect is the first client message: the seat it wishes to claim.
// Seat 0 asks the server to assign the lowest free seat.
type Connect struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name,omitempty"`
}

// SeatInfo is one roster entry.
type SeatInfo struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Stack int    `json:"stack"`
}

// GameStart opens a hand for one seat: its private hole cards plus
// the table arrangement.
type GameStart struct {
	HandIndex      int        `json:"hand_index"`
	Cards          []string   `json:"cards"`
	BigBlind       int        `json:"big_blind"`
	SmallBlindSeat int        `json:"small_blind_seat"`
	BigBlindSeat   int        `json:"big_blind_seat"`
	Button         int        `json:"button"`
	Seats          []SeatInfo `json:"seats"`
}

// RoundStart announces a street opening.
type RoundStart struct {
	Round string `json:"round"`
}

// RoundEnd announces a street's betting has completed.
type RoundEnd struct {
	Round string `json:"round"`
}

// RequestPlayerAction asks one seat to act before the deadline.
type RequestPlayerAction struct {
	PlayerID        int   `json:"player_id"`
	TimeRemainingMS int64 `json:"time_remaining_ms"`
}

// PlayerAction is the agent's reply: one of Fold, Check, Call, Raise,
// All In. Amount is the raise-to total for Raise and 0 otherwise.
type PlayerAction struct {
	PlayerID int    `json:"player_id"`
	Action   string `json:"action"`
	Amount   int    `json:"amount"`
}

// RevealedHand is one seat's showdown holding.
type RevealedHand struct {
	Cards []string `json:"cards"`
	Hand  string   `json:"hand,omitempty"`
}

// GameEnd closes a hand for one seat: its own cumulative score, the
// whole table's scores, and any showdown reveals. Error carries the
// diagnostic when a fatal engine error ended the match.
type GameEnd struct {
	PlayerScore        int                  `json:"player_score"`
	AllScores          map[int]int          `json:"all_scores"`
	ActivePlayersHands map[int]RevealedHand `json:"active_players_hands,omitempty"`
	Error              string               `json:"error,omitempty"`
}

// SidePot is one pot slab in a GameState broadcast.
type SidePot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// GameState is the public table snapshot broadcast after every
// action. MaxRaise applies to the seat named in ToAct.
type GameState struct {
	Round          string         `json:"round"`
	CommunityCards []string       `json:"community_cards"`
	Pot            int            `json:"pot"`
	CurrentBet     int            `json:"current_bet"`
	MinRaise       int            `json:"min_raise"`
	MaxRaise       int            `json:"max_raise"`
	PlayerBets     map[int]int    `json:"player_bets"`
	PlayerActions  map[int]string `json:"player_actions"`
	PlayerStacks   map[int]int    `json:"player_stacks"`
	SidePots       []SidePot      `json:"side_pots"`
	ToAct          int            `json:"to_act,omitempty"`
}

// Message is free-text status, carrying no game semantics.
type Message struct {
	Text string `json:"text"`
}
