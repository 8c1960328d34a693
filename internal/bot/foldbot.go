package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/game"
)

// FoldBot folds to any bet and otherwise checks. It exists to lose
// its blinds slowly while exercising the fold paths.
type FoldBot struct {
	logger *log.Logger
}

func NewFoldBot(logger *log.Logger) *FoldBot {
	return &FoldBot{logger: logger}
}

func (f *FoldBot) Name() string { return "folder" }

func (f *FoldBot) Act(in Input) Decision {
	if has(in, game.Check) {
		return Decision{Action: game.Check, Reason: "free card"}
	}
	return Decision{Action: game.Fold, Reason: "facing a bet"}
}
