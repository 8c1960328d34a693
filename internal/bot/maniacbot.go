package bot

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/game"
)

// ManiacBot bets and shoves relentlessly: 85% aggression on a free
// option, 40% shove over a bet, and it always jams once its stack
// falls to twenty big blinds. It manufactures the all-in and side-pot
// situations the other strategies rarely reach.
type ManiacBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

func NewManiacBot(rng *rand.Rand, logger *log.Logger) *ManiacBot {
	return &ManiacBot{rng: rng, logger: logger}
}

func (m *ManiacBot) Name() string { return "maniac" }

func (m *ManiacBot) Act(in Input) Decision {
	shortStacked := in.BigBlind > 0 && in.Stack <= 20*in.BigBlind

	if has(in, game.Check) {
		if m.rng.Float64() < 0.85 {
			if shortStacked || m.rng.Float64() < 0.3 {
				return Decision{Action: game.AllIn, Reason: "maniac shove"}
			}
			if in.RaiseOpen {
				span := in.MaxRaiseTo - in.MinRaiseTo
				return Decision{Action: game.Raise, Amount: in.MinRaiseTo + span*3/4, Reason: "maniac raise"}
			}
		}
		return Decision{Action: game.Check, Reason: "maniac resting"}
	}

	roll := m.rng.Float64()
	switch {
	case roll < 0.4:
		return Decision{Action: game.AllIn, Reason: "maniac shove over bet"}
	case roll < 0.8 && has(in, game.Call):
		return Decision{Action: game.Call, Reason: "maniac call"}
	default:
		return Decision{Action: game.Fold, Reason: "maniac gives up"}
	}
}
