package bot

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/game"
)

// RandBot picks uniformly among the legal actions, with a uniform
// raise size. Good for soak testing: over enough hands it visits
// every engine path.
type RandBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

func NewRandBot(rng *rand.Rand, logger *log.Logger) *RandBot {
	return &RandBot{rng: rng, logger: logger}
}

func (r *RandBot) Name() string { return "random" }

func (r *RandBot) Act(in Input) Decision {
	if len(in.Legal) == 0 {
		return Decision{Action: game.Fold, Reason: "no legal actions"}
	}
	pick := in.Legal[r.rng.IntN(len(in.Legal))]
	d := Decision{Action: pick, Reason: "dice"}
	if pick == game.Raise {
		d.Amount = in.MinRaiseTo
		if span := in.MaxRaiseTo - in.MinRaiseTo; span > 0 {
			d.Amount += r.rng.IntN(span + 1)
		}
	}
	return d
}
