// Command holdem-sim soaks the engine: it plays many self-contained
// matches between built-in strategies, in parallel, and prints
// per-strategy chip-delta statistics. No sockets are involved.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/simulator"
)

var cli struct {
	Matches    int    `default:"32" help:"Independent matches to play."`
	Hands      int    `default:"100" help:"Hand cap per match."`
	Players    int    `default:"6" help:"Seats per table (2-6)."`
	Stack      int    `default:"1000" help:"Starting stack per seat."`
	Blind      int    `default:"10" help:"Big blind amount."`
	Strategies string `default:"caller,random,maniac" help:"Comma-separated strategies assigned to seats round-robin."`
	Seed       int64  `default:"0" help:"Base seed (0 = random)."`
	Workers    int    `default:"0" help:"Parallel matches (0 = one per CPU)."`
	Debug      bool   `help:"Verbose logging."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("holdem-sim"),
		kong.Description("Self-play soak tool for the hold'em engine."))

	level := log.InfoLevel
	if cli.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	sim, err := simulator.New(simulator.Config{
		Matches:    cli.Matches,
		Hands:      cli.Hands,
		Players:    cli.Players,
		Stack:      cli.Stack,
		BigBlind:   cli.Blind,
		Strategies: splitStrategies(cli.Strategies),
		Seed:       cli.Seed,
		Workers:    cli.Workers,
	}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		kctx.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := sim.Run(ctx)
	if err != nil {
		logger.Error("Simulation failed", "err", err)
		kctx.Exit(1)
	}
	fmt.Print(report.String())
}

func splitStrategies(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
