package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/game"
)

// CallBot checks when it can and calls when it cannot: the table's
// calling station. Useful as a baseline opponent because it never
// surrenders a pot preflop and never builds one either.
type CallBot struct {
	logger *log.Logger
}

func NewCallBot(logger *log.Logger) *CallBot {
	return &CallBot{logger: logger}
}

func (c *CallBot) Name() string { return "caller" }

func (c *CallBot) Act(in Input) Decision {
	if has(in, game.Check) {
		return Decision{Action: game.Check, Reason: "nothing to call"}
	}
	if has(in, game.Call) {
		return Decision{Action: game.Call, Reason: "calling station"}
	}
	return Decision{Action: game.Fold, Reason: "no passive line available"}
}
