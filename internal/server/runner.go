package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/deck"
	"github.com/lox/holdem-arena/internal/game"
	"github.com/lox/holdem-arena/internal/gameid"
	"github.com/lox/holdem-arena/internal/handlog"
	"github.com/lox/holdem-arena/internal/match"
	"github.com/lox/holdem-arena/internal/protocol"
	"github.com/lox/holdem-arena/internal/statistics"
)

// RunnerParams wires a Runner. Agents must cover every controller
// seat. IDSource, when set, derives hand ids deterministically so
// seeded runs produce identical records.
type RunnerParams struct {
	Controller *match.Controller
	Agents     []Agent
	RNG        *rand.Rand
	IDSource   gameid.Source
	Records    *handlog.Writer
	Status     *StatusWriter
	Monitor    Monitor
	Stats      *statistics.Tracker
	Logger     *log.Logger
	MatchID    string
	MaxHands   int
}

// Runner plays out one match: it drives the hand engine with the seat
// agents' decisions and fans outcomes to records, statistics, and
// monitors. All game state is owned by the goroutine inside Run; only
// AwaitAction suspends it.
type Runner struct {
	ctrl     *match.Controller
	agents   []Agent
	bySeat   map[int]Agent
	rng      *rand.Rand
	idSrc    gameid.Source
	records  *handlog.Writer
	status   *StatusWriter
	monitor  Monitor
	stats    *statistics.Tracker
	logger   *log.Logger
	matchID  string
	maxHands int
}

func NewRunner(p RunnerParams) *Runner {
	r := &Runner{
		ctrl:     p.Controller,
		agents:   append([]Agent(nil), p.Agents...),
		bySeat:   make(map[int]Agent, len(p.Agents)),
		rng:      p.RNG,
		idSrc:    p.IDSource,
		records:  p.Records,
		status:   p.Status,
		monitor:  p.Monitor,
		stats:    p.Stats,
		logger:   p.Logger.WithPrefix("runner").With("match_id", p.MatchID),
		matchID:  p.MatchID,
		maxHands: p.MaxHands,
	}
	if r.monitor == nil {
		r.monitor = NullMonitor{}
	}
	sort.Slice(r.agents, func(i, j int) bool { return r.agents[i].Seat() < r.agents[j].Seat() })
	for _, a := range r.agents {
		r.bySeat[a.Seat()] = a
	}
	return r
}

// Run plays hands until the controller ends the match or an engine
// invariant breaks. The returned error is nil for every normal end
// including operator stop; a non-nil error means the match died to a
// fatal engine or I/O failure.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.status.Running(); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	defer func() {
		if err := r.status.Done(); err != nil {
			r.logger.Error("Failed to finalize status file", "path", r.status.Path(), "err", err)
		}
	}()

	_, bb := r.ctrl.Blinds()
	r.monitor.MatchStarted(MatchInfo{
		MatchID:  r.matchID,
		Seats:    r.ctrl.Standings(),
		BigBlind: bb,
		MaxHands: r.maxHands,
	})
	r.logger.Info("Match starting", "seats", len(r.agents), "big_blind", bb, "max_hands", r.maxHands)

	for {
		if ctx.Err() != nil {
			r.ctrl.Stop()
		}
		plan, err := r.ctrl.NextHand()
		if err != nil {
			if errors.Is(err, match.ErrMatchOver) {
				break
			}
			return err
		}
		if err := r.playHand(ctx, plan); err != nil {
			r.monitor.MatchFinished(MatchSummary{
				Reason:    "fatal: " + err.Error(),
				Hands:     r.ctrl.HandsPlayed(),
				Standings: r.ctrl.Standings(),
				Stats:     r.stats.All(),
			})
			return err
		}
	}

	reason := r.ctrl.EndReason()
	r.logger.Info("Match over", "reason", reason, "hands", r.ctrl.HandsPlayed())
	r.sendAll(protocol.KindMessage, protocol.Message{Text: "match over: " + reason})
	r.monitor.MatchFinished(MatchSummary{
		Reason:    reason,
		Hands:     r.ctrl.HandsPlayed(),
		Standings: r.ctrl.Standings(),
		Stats:     r.stats.All(),
	})
	return nil
}

func (r *Runner) playHand(ctx context.Context, plan *match.HandPlan) error {
	handID := r.newHandID(plan.Index)
	logger := r.logger.With("hand", plan.Index)
	logger.Info("Hand starting",
		"hand_id", handID,
		"button", plan.Button,
		"blinds", fmt.Sprintf("%d/%d", plan.SmallBlind, plan.BigBlind),
		"seats", len(plan.Seats))

	h, err := game.NewHand(r.rng, plan.Seats, plan.Button, plan.SmallBlind, plan.BigBlind,
		game.WithHandIndex(plan.Index), game.WithHandID(handID))
	if err != nil {
		return fmt.Errorf("dealing hand %d: %w", plan.Index, err)
	}

	r.broadcastHandStart(h, plan)
	r.sendAll(protocol.KindRoundStart, protocol.RoundStart{Round: game.Preflop.String()})
	r.broadcastState(h.View())

	// Blinds can put the short stacks all-in and run the board out
	// before anyone acts.
	if h.IsComplete() {
		r.narrateStreets(h.View(), []game.Street{game.Preflop, game.Flop, game.Turn, game.River})
	}

	for !h.IsComplete() {
		seat, ok := h.CurrentActor()
		if !ok {
			break
		}

		ap, err := r.nextAction(ctx, h, seat)
		if err != nil {
			return r.abortHand(h, logger, err)
		}

		logger.Debug("Applied action",
			"seat", ap.Seat,
			"action", ap.Action.String(),
			"amount", ap.Amount,
			"to_total", ap.ToTotal,
			"street", h.Street().String(),
			"coerced", ap.Coerced,
			"synthesized", ap.Synthesized)

		if ap.Synthesized {
			r.stats.Seat(seat, r.seatName(seat)).Timeouts++
		}
		if ap.Coerced {
			r.stats.Seat(seat, r.seatName(seat)).Coerced++
		}

		view := h.View()
		r.narrateStreets(view, ap.StreetsClosed)
		r.broadcastState(view)
		r.monitor.ActionApplied(plan.Index, view, ap)
	}

	return r.settleHand(h, plan, logger)
}

// nextAction obtains and applies one decision for the acting seat,
// synthesizing when the seat cannot or does not answer.
func (r *Runner) nextAction(ctx context.Context, h *game.Hand, seat int) (*game.Applied, error) {
	agent := r.bySeat[seat]
	if agent == nil {
		return nil, fmt.Errorf("no agent for seat %d", seat)
	}
	if !agent.Connected() {
		return h.ApplyTimeout(seat, "disconnected")
	}

	dec, answered := agent.AwaitAction(ctx, h)
	switch {
	case answered:
		return h.Apply(seat, dec.Action, dec.Amount)
	case !agent.Connected():
		return h.ApplyTimeout(seat, "disconnected")
	case ctx.Err() != nil:
		return h.ApplyTimeout(seat, "shutdown")
	default:
		return h.ApplyTimeout(seat, "timeout")
	}
}

func (r *Runner) settleHand(h *game.Hand, plan *match.HandPlan, logger *log.Logger) error {
	res, err := h.Finalize()
	if err != nil {
		return r.abortHand(h, logger, err)
	}
	if err := r.ctrl.FinishHand(plan.Index, res); err != nil {
		return r.abortHand(h, logger, err)
	}

	for _, s := range plan.Seats {
		st := r.stats.Seat(s.ID, s.Name)
		st.Hands++
		st.NetChips += res.Deltas[s.ID]
		if _, ok := res.Showdown[s.ID]; ok {
			st.Showdowns++
		}
	}
	for _, pot := range res.Pots {
		for _, w := range pot.Winners {
			r.stats.Seat(w, r.seatName(w)).Wins++
		}
	}

	rec := h.Record()
	if err := r.records.Write(rec); err != nil {
		// The match plays on without the artifact rather than dying to
		// a disk hiccup.
		logger.Error("Failed to write hand record", "err", err)
	}
	r.monitor.HandFinished(rec)

	scores := r.ctrl.Scores()
	reveals := make(map[int]protocol.RevealedHand, len(res.Showdown))
	for seat, sd := range res.Showdown {
		reveals[seat] = protocol.RevealedHand{
			Cards: deck.Strings(sd.Cards),
			Hand:  sd.Value.String(),
		}
	}
	for _, a := range r.agents {
		a.Send(protocol.KindGameEnd, protocol.GameEnd{
			PlayerScore:        scores[a.Seat()],
			AllScores:          scores,
			ActivePlayersHands: reveals,
		})
	}

	logger.Info("Hand settled",
		"street", res.StreetReached.String(),
		"pots", len(res.Pots),
		"showdown", len(res.Showdown) > 0)
	return nil
}

// abortHand handles a fatal engine failure: the record is written with
// the diagnostic and every agent is told the match died.
func (r *Runner) abortHand(h *game.Hand, logger *log.Logger, err error) error {
	logger.Error("Fatal engine error, terminating match", "err", err)
	h.MarkFatal(err.Error())

	rec := h.Record()
	if werr := r.records.Write(rec); werr != nil {
		logger.Error("Failed to write fatal hand record", "err", werr)
	}
	r.monitor.HandFinished(rec)

	scores := r.ctrl.Scores()
	for _, a := range r.agents {
		a.Send(protocol.KindGameEnd, protocol.GameEnd{
			PlayerScore: scores[a.Seat()],
			AllScores:   scores,
			Error:       err.Error(),
		})
	}
	return err
}

func (r *Runner) broadcastHandStart(h *game.Hand, plan *match.HandPlan) {
	sbSeat, bbSeat := h.Blinds()
	seats := make([]protocol.SeatInfo, 0, len(plan.Seats))
	for _, s := range plan.Seats {
		seats = append(seats, protocol.SeatInfo{Seat: s.ID, Name: s.Name, Stack: s.Stack})
	}
	for _, a := range r.agents {
		a.Send(protocol.KindGameStart, protocol.GameStart{
			HandIndex:      plan.Index,
			Cards:          deck.Strings(h.HoleCards(a.Seat())),
			BigBlind:       plan.BigBlind,
			SmallBlindSeat: sbSeat,
			BigBlindSeat:   bbSeat,
			Button:         plan.Button,
			Seats:          seats,
		})
	}
}

// narrateStreets emits the round transitions an action caused: each
// closed street's end and, when the board rolls on, the next street's
// start. An all-in runout closes several at once.
func (r *Runner) narrateStreets(view game.StateView, closed []game.Street) {
	for _, s := range closed {
		r.sendAll(protocol.KindRoundEnd, protocol.RoundEnd{Round: s.String()})
		if s != game.River {
			r.sendAll(protocol.KindRoundStart, protocol.RoundStart{Round: (s + 1).String()})
		}
	}
}

func (r *Runner) broadcastState(view game.StateView) {
	msg := protocol.GameState{
		Round:          view.Street.String(),
		CommunityCards: view.Board,
		Pot:            view.Pot,
		CurrentBet:     view.CurrentBet,
		MinRaise:       view.MinRaise,
		MaxRaise:       view.MaxRaise,
		PlayerBets:     make(map[int]int, len(view.Seats)),
		PlayerActions:  make(map[int]string, len(view.Seats)),
		PlayerStacks:   make(map[int]int, len(view.Seats)),
		ToAct:          view.ToAct,
	}
	for _, sv := range view.Seats {
		msg.PlayerBets[sv.Seat] = sv.Bet
		msg.PlayerStacks[sv.Seat] = sv.Stack
		if sv.LastAction != "" {
			msg.PlayerActions[sv.Seat] = sv.LastAction
		}
	}
	for _, pv := range view.Pots {
		msg.SidePots = append(msg.SidePots, protocol.SidePot{Amount: pv.Amount, Eligible: pv.Eligible})
	}
	r.sendAll(protocol.KindGameState, msg)
}

func (r *Runner) sendAll(kind protocol.Kind, payload any) {
	for _, a := range r.agents {
		a.Send(kind, payload)
	}
}

func (r *Runner) seatName(seat int) string {
	if a, ok := r.bySeat[seat]; ok {
		return a.Name()
	}
	return fmt.Sprintf("seat-%d", seat)
}

func (r *Runner) newHandID(index int) string {
	if r.idSrc != nil {
		return gameid.GenerateAt(int64(index), r.idSrc)
	}
	return gameid.Generate()
}
