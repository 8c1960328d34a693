// Package simulator plays self-contained matches between built-in
// strategies, sharing the hand engine and match controller with the
// network dealer. It soaks the engine across many shuffles and
// reports per-strategy chip deltas, with no sockets in the loop.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-arena/internal/bot"
	"github.com/lox/holdem-arena/internal/game"
	"github.com/lox/holdem-arena/internal/match"
	"github.com/lox/holdem-arena/internal/randutil"
	"github.com/lox/holdem-arena/internal/statistics"
)

// Config sets up a simulation run: Matches independent matches of up
// to Hands hands each, played by Players seats filled round-robin
// from Strategies.
type Config struct {
	Matches  int
	Hands    int
	Players  int
	Stack    int
	BigBlind int

	// Strategies are built-in bot names assigned to seats in order,
	// cycling when there are fewer names than seats.
	Strategies []string

	// Seed pins every shuffle; 0 draws one from entropy and logs it.
	Seed int64

	// Workers caps the parallel matches, 0 meaning one per CPU.
	Workers int
}

// Validate rejects configurations the simulator cannot run.
func (c *Config) Validate() error {
	if c.Matches < 1 {
		return fmt.Errorf("matches must be at least 1, got %d", c.Matches)
	}
	if c.Hands < 1 {
		return fmt.Errorf("hands must be at least 1, got %d", c.Hands)
	}
	if c.Players < 2 || c.Players > 6 {
		return fmt.Errorf("players must be between 2 and 6, got %d", c.Players)
	}
	if c.BigBlind < 2 {
		return fmt.Errorf("big blind must be at least 2, got %d", c.BigBlind)
	}
	if c.Stack < c.BigBlind {
		return fmt.Errorf("stack %d cannot cover the big blind %d", c.Stack, c.BigBlind)
	}
	if len(c.Strategies) == 0 {
		return errors.New("at least one strategy is required")
	}
	for _, s := range c.Strategies {
		if !slices.Contains(bot.Strategies(), s) {
			return fmt.Errorf("unknown bot strategy %q", s)
		}
	}
	return nil
}

// StrategyStats aggregates every seat played by one strategy across
// the whole run. Deltas samples are per-seat per-hand chip deltas.
type StrategyStats struct {
	Strategy string
	Seats    int
	PotsWon  int
	Deltas   statistics.Summary
}

// Report is the outcome of a simulation run.
type Report struct {
	Matches int
	Hands   int
	Seed    int64

	Strategies []*StrategyStats
}

// String renders the report as a console table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d matches, %d hands, seed %d\n", r.Matches, r.Hands, r.Seed)
	fmt.Fprintf(&b, "%-10s %6s %8s %10s %10s %8s %8s\n",
		"strategy", "seats", "pots", "mean", "stddev", "min", "max")
	for _, s := range r.Strategies {
		fmt.Fprintf(&b, "%-10s %6d %8d %10.2f %10.2f %8.0f %8.0f\n",
			s.Strategy, s.Seats, s.PotsWon,
			s.Deltas.Mean(), s.Deltas.StdDev(), s.Deltas.Min, s.Deltas.Max)
	}
	return b.String()
}

// Simulator runs the configured matches.
type Simulator struct {
	cfg    Config
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg, logger: logger.WithPrefix("sim")}, nil
}

// Run plays every match, in parallel up to the worker cap, and merges
// the per-strategy aggregates. Cancelling the context stops cleanly
// after the hands in flight.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	seed := s.cfg.Seed
	if seed == 0 {
		seed = randutil.EntropySeed()
	}
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > s.cfg.Matches {
		workers = s.cfg.Matches
	}
	s.logger.Info("Simulation starting",
		"matches", s.cfg.Matches,
		"hands", s.cfg.Hands,
		"players", s.cfg.Players,
		"strategies", strings.Join(s.cfg.Strategies, ","),
		"seed", seed,
		"workers", workers)

	report := &Report{Seed: seed}
	byName := make(map[string]*StrategyStats)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for m := 0; m < s.cfg.Matches; m++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := s.playMatch(gctx, seed+int64(m))
			if err != nil {
				return fmt.Errorf("match %d: %w", m, err)
			}
			mu.Lock()
			defer mu.Unlock()
			report.Matches++
			report.Hands += out.hands
			for name, st := range out.byName {
				agg, ok := byName[name]
				if !ok {
					agg = &StrategyStats{Strategy: name}
					byName[name] = agg
				}
				agg.Seats += st.Seats
				agg.PotsWon += st.PotsWon
				agg.Deltas.Merge(st.Deltas)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, st := range byName {
		report.Strategies = append(report.Strategies, st)
	}
	sort.Slice(report.Strategies, func(i, j int) bool {
		return report.Strategies[i].Strategy < report.Strategies[j].Strategy
	})
	s.logger.Info("Simulation finished", "matches", report.Matches, "hands", report.Hands)
	return report, nil
}

type matchOutcome struct {
	hands  int
	byName map[string]*StrategyStats
}

// playMatch drives one full match exactly as the network runner does,
// with bot.Ask standing in for the wire round-trip.
func (s *Simulator) playMatch(ctx context.Context, seed int64) (*matchOutcome, error) {
	rng := randutil.New(seed)

	bots := make(map[int]bot.Bot, s.cfg.Players)
	strategyBySeat := make(map[int]string, s.cfg.Players)
	seats := make([]match.Seat, 0, s.cfg.Players)
	for i := 0; i < s.cfg.Players; i++ {
		seatID := i + 1
		strategy := s.cfg.Strategies[i%len(s.cfg.Strategies)]
		b, err := bot.New(strategy, rng, s.logger)
		if err != nil {
			return nil, err
		}
		bots[seatID] = b
		strategyBySeat[seatID] = strategy
		seats = append(seats, match.Seat{
			ID:    seatID,
			Name:  fmt.Sprintf("%s-%d", strategy, seatID),
			Stack: s.cfg.Stack,
		})
	}

	ctrl, err := match.New(match.Config{
		BigBlind: s.cfg.BigBlind,
		MaxHands: s.cfg.Hands,
	}, seats)
	if err != nil {
		return nil, err
	}

	out := &matchOutcome{byName: make(map[string]*StrategyStats)}
	stats := func(seat int) *StrategyStats {
		name := strategyBySeat[seat]
		st, ok := out.byName[name]
		if !ok {
			st = &StrategyStats{Strategy: name}
			out.byName[name] = st
		}
		return st
	}
	for _, name := range strategyBySeat {
		st, ok := out.byName[name]
		if !ok {
			st = &StrategyStats{Strategy: name}
			out.byName[name] = st
		}
		st.Seats++
	}

	for {
		if ctx.Err() != nil {
			ctrl.Stop()
		}
		plan, err := ctrl.NextHand()
		if err != nil {
			if errors.Is(err, match.ErrMatchOver) {
				return out, nil
			}
			return nil, err
		}

		h, err := game.NewHand(rng, plan.Seats, plan.Button, plan.SmallBlind, plan.BigBlind,
			game.WithHandIndex(plan.Index))
		if err != nil {
			return nil, err
		}
		for !h.IsComplete() {
			seat, ok := h.CurrentActor()
			if !ok {
				break
			}
			dec := bot.Ask(bots[seat], h, seat, plan.BigBlind)
			if _, err := h.Apply(seat, dec.Action, dec.Amount); err != nil {
				return nil, err
			}
		}
		res, err := h.Finalize()
		if err != nil {
			return nil, err
		}
		if err := ctrl.FinishHand(plan.Index, res); err != nil {
			return nil, err
		}

		out.hands++
		for seat, delta := range res.Deltas {
			stats(seat).Deltas.Add(float64(delta))
		}
		for _, pot := range res.Pots {
			for _, w := range pot.Winners {
				stats(w).PotsWon++
			}
		}
	}
}
