package bot

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/game"
	"github.com/lox/holdem-arena/internal/randutil"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func facingBet(callAmount int) Input {
	return Input{
		Legal:      []game.Action{game.Fold, game.Call, game.Raise, game.AllIn},
		CallAmount: callAmount,
		MinRaiseTo: 40,
		MaxRaiseTo: 1000,
		RaiseOpen:  true,
		Pot:        30,
		BigBlind:   20,
		Stack:      1000,
	}
}

func freeOption() Input {
	return Input{
		Legal:      []game.Action{game.Fold, game.Check, game.Raise, game.AllIn},
		MinRaiseTo: 40,
		MaxRaiseTo: 1000,
		RaiseOpen:  true,
		Pot:        40,
		BigBlind:   20,
		Stack:      1000,
	}
}

func TestNewByStrategy(t *testing.T) {
	t.Parallel()

	for _, name := range Strategies() {
		b, err := New(name, randutil.New(1), quiet())
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("Name() = %q, want %q", b.Name(), name)
		}
	}

	if _, err := New("gto", randutil.New(1), quiet()); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestCallBot(t *testing.T) {
	t.Parallel()

	b := NewCallBot(quiet())
	if d := b.Act(freeOption()); d.Action != game.Check {
		t.Errorf("free option: %v, want Check", d.Action)
	}
	if d := b.Act(facingBet(20)); d.Action != game.Call {
		t.Errorf("facing bet: %v, want Call", d.Action)
	}
}

func TestFoldBot(t *testing.T) {
	t.Parallel()

	b := NewFoldBot(quiet())
	if d := b.Act(freeOption()); d.Action != game.Check {
		t.Errorf("free option: %v, want Check", d.Action)
	}
	if d := b.Act(facingBet(20)); d.Action != game.Fold {
		t.Errorf("facing bet: %v, want Fold", d.Action)
	}
}

func TestRandBotStaysLegal(t *testing.T) {
	t.Parallel()

	b := NewRandBot(randutil.New(7), quiet())
	for i := 0; i < 500; i++ {
		in := facingBet(20)
		d := b.Act(in)
		if !has(in, d.Action) {
			t.Fatalf("illegal action %v", d.Action)
		}
		if d.Action == game.Raise {
			if d.Amount < in.MinRaiseTo || d.Amount > in.MaxRaiseTo {
				t.Fatalf("raise to %d outside [%d, %d]", d.Amount, in.MinRaiseTo, in.MaxRaiseTo)
			}
		} else if d.Amount != 0 {
			t.Fatalf("%v carried amount %d", d.Action, d.Amount)
		}
	}
}

func TestManiacBotStaysLegal(t *testing.T) {
	t.Parallel()

	b := NewManiacBot(randutil.New(11), quiet())
	var shoves int
	for i := 0; i < 500; i++ {
		in := facingBet(20)
		d := b.Act(in)
		if !has(in, d.Action) {
			t.Fatalf("illegal action %v", d.Action)
		}
		if d.Action == game.AllIn {
			shoves++
		}
	}
	// 40% shove rate over a bet; anywhere near that is fine.
	if shoves < 100 || shoves > 300 {
		t.Errorf("shoves = %d of 500, outside sanity band", shoves)
	}
}

func TestManiacBotJamsShortStack(t *testing.T) {
	t.Parallel()

	b := NewManiacBot(randutil.New(3), quiet())
	in := freeOption()
	in.Stack = 300 // 15 BB
	var shoved bool
	for i := 0; i < 50 && !shoved; i++ {
		shoved = b.Act(in).Action == game.AllIn
	}
	if !shoved {
		t.Error("short-stacked maniac never shoved in 50 tries")
	}
}

func TestManiacBotRespectsClosedRaise(t *testing.T) {
	t.Parallel()

	in := freeOption()
	in.RaiseOpen = false
	in.Legal = []game.Action{game.Fold, game.Check, game.AllIn}

	b := NewManiacBot(randutil.New(5), quiet())
	for i := 0; i < 200; i++ {
		if d := b.Act(in); d.Action == game.Raise {
			t.Fatal("raised while raising was capped")
		}
	}
}
