// Package server implements the tournament dealer: it seats agents
// over TCP (newline-delimited JSON envelopes) or websocket, arbitrates
// every hand with per-turn deadlines, and persists hand records, seat
// statistics, and the match status file.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-arena/internal/bot"
	"github.com/lox/holdem-arena/internal/gameid"
	"github.com/lox/holdem-arena/internal/handlog"
	"github.com/lox/holdem-arena/internal/match"
	"github.com/lox/holdem-arena/internal/protocol"
	"github.com/lox/holdem-arena/internal/randutil"
	"github.com/lox/holdem-arena/internal/statistics"
)

const handshakeTimeout = 30 * time.Second

var ErrSeatTaken = errors.New("seat taken")

// Server owns the listeners and the seat lobby. Once every network
// seat is claimed the roster is locked and the match runs to
// completion; late connections are refused.
type Server struct {
	cfg     Config
	logger  *log.Logger
	clock   quartz.Clock
	monitor Monitor

	mu       sync.Mutex
	claimed  map[int]*NetworkAgent
	started  bool
	filled   chan struct{}
	fillOnce sync.Once

	boundAddr string
	bound     chan struct{}
}

// Option adjusts a Server at construction.
type Option func(*Server)

// WithClock substitutes the timer source, used by tests to drive
// deadlines deterministically.
func WithClock(c quartz.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithMonitor attaches a match monitor.
func WithMonitor(m Monitor) Option {
	return func(s *Server) { s.monitor = m }
}

func New(cfg Config, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger.WithPrefix("server"),
		clock:   quartz.NewReal(),
		monitor: NullMonitor{},
		claimed: make(map[int]*NetworkAgent),
		filled:  make(chan struct{}),
		bound:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// networkSeats is how many seats remote agents must claim; the rest
// are filled by built-in bots.
func (s *Server) networkSeats() int { return s.cfg.Players - s.cfg.Bots }

// Run binds the listeners, waits for the table to fill, then plays
// the match. It returns nil on every normal end, including operator
// shutdown, and an error on bind failures and fatal engine errors.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.cfg.Addr(), err)
	}
	s.mu.Lock()
	s.boundAddr = ln.Addr().String()
	s.mu.Unlock()
	close(s.bound)
	s.logger.Info("Listening for agents",
		"addr", ln.Addr().String(),
		"seats", s.networkSeats(),
		"bots", s.cfg.Bots)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.acceptLoop(ln)
		return nil
	})

	var wsSrv *http.Server
	if s.cfg.WSPort != 0 {
		wsLn, err := net.Listen("tcp", s.cfg.WSAddr())
		if err != nil {
			ln.Close()
			return fmt.Errorf("binding websocket %s: %w", s.cfg.WSAddr(), err)
		}
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", s.handleWS)
		wsSrv = &http.Server{Handler: mux}
		s.logger.Info("Listening for websocket agents", "addr", wsLn.Addr().String())
		g.Go(func() error {
			if err := wsSrv.Serve(wsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if s.networkSeats() == 0 {
		s.lockRoster()
	}

	select {
	case <-s.filled:
	case <-gctx.Done():
		ln.Close()
		if wsSrv != nil {
			wsSrv.Close()
		}
		_ = g.Wait()
		s.closeAgents()
		s.logger.Info("Shutting down before the table filled")
		return nil
	}

	// The roster is locked; stop accepting.
	ln.Close()
	if wsSrv != nil {
		wsSrv.Close()
	}
	if err := g.Wait(); err != nil {
		s.closeAgents()
		return err
	}

	err = s.runMatch(ctx)
	s.closeAgents()
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("Accept failed", "err", err)
			}
			return
		}
		go s.handshake(newConn(newTCPFramer(conn), s.logger))
	}
}

// handshake performs the CONNECT exchange: the first frame must claim
// a seat in [1, network seats], 0 meaning the lowest free one. The
// reply is a MESSAGE ack naming the seat.
func (s *Server) handshake(c *Conn) {
	timedOut := make(chan struct{})
	timer := s.clock.AfterFunc(handshakeTimeout, func() { close(timedOut) })
	defer timer.Stop()

	select {
	case env := <-c.Inbound():
		if env.Type != protocol.KindConnect {
			s.logger.Warn("First frame was not CONNECT, closing",
				"addr", c.RemoteAddr(), "kind", env.Type.String())
			c.Close()
			return
		}
		var req protocol.Connect
		if err := env.Payload(&req); err != nil {
			s.logger.Warn("Malformed CONNECT, closing", "addr", c.RemoteAddr(), "err", err)
			c.Close()
			return
		}
		s.claimSeat(c, req)
	case <-timedOut:
		s.logger.Warn("Handshake timed out", "addr", c.RemoteAddr())
		c.Close()
	case <-c.Done():
	}
}

func (s *Server) claimSeat(c *Conn, req protocol.Connect) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		c.Send(protocol.KindMessage, protocol.Message{Text: "match already started"})
		c.Close()
		return
	}

	seat := req.PlayerID
	if seat == 0 {
		seat = s.lowestFreeLocked()
	}
	if seat < 1 || seat > s.networkSeats() || s.claimed[seat] != nil {
		s.mu.Unlock()
		s.logger.Warn("Rejecting seat claim", "addr", c.RemoteAddr(), "requested", req.PlayerID, "err", ErrSeatTaken)
		c.Send(protocol.KindMessage, protocol.Message{Text: fmt.Sprintf("seat %d unavailable", req.PlayerID)})
		c.Close()
		return
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("player-%d", seat)
	}
	agent := NewNetworkAgent(seat, name, c, s.cfg.ActionTimeout, s.clock, s.logger)
	s.claimed[seat] = agent
	count := len(s.claimed)
	full := count == s.networkSeats()
	if full {
		s.started = true
	}
	s.mu.Unlock()

	s.logger.Info("Seat claimed",
		"seat", seat,
		"player", name,
		"addr", c.RemoteAddr(),
		"claimed", count,
		"needed", s.networkSeats())
	c.Send(protocol.KindMessage, protocol.Message{Text: fmt.Sprintf("connected as seat %d", seat)})

	go s.watchPreStart(agent)

	if full {
		s.lockRoster()
	}
}

func (s *Server) lowestFreeLocked() int {
	for seat := 1; seat <= s.networkSeats(); seat++ {
		if s.claimed[seat] == nil {
			return seat
		}
	}
	return 0
}

func (s *Server) lockRoster() {
	s.fillOnce.Do(func() {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		close(s.filled)
	})
}

// watchPreStart reopens a seat whose connection drops before the
// roster locks. After lock the seat stays in the match and plays on
// through synthesized actions.
func (s *Server) watchPreStart(a *NetworkAgent) {
	<-a.conn.Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started && s.claimed[a.seat] == a {
		delete(s.claimed, a.seat)
		s.logger.Warn("Seat dropped before match start, reopening", "seat", a.seat, "player", a.name)
	}
}

func (s *Server) runMatch(ctx context.Context) error {
	s.mu.Lock()
	agents := make([]Agent, 0, s.cfg.Players)
	for _, a := range s.claimed {
		agents = append(agents, a)
	}
	s.mu.Unlock()

	seed := s.cfg.Seed
	if seed == 0 {
		seed = randutil.EntropySeed()
	}
	s.logger.Info("Seeding match", "seed", seed, "pinned", s.cfg.Seed != 0)
	master := randutil.New(seed)
	deckRNG := randutil.New(master.Int64())
	botRNG := randutil.New(master.Int64())
	var idSrc gameid.Source
	if s.cfg.Seed != 0 {
		idSrc = randutil.New(master.Int64())
	}

	for i := 0; i < s.cfg.Bots; i++ {
		seat := s.networkSeats() + 1 + i
		b, err := bot.New(s.cfg.BotStrategy, botRNG, s.logger)
		if err != nil {
			return fmt.Errorf("seating bot: %w", err)
		}
		agents = append(agents, NewBotAgent(seat, fmt.Sprintf("%s-%d", s.cfg.BotStrategy, seat), b, s.logger))
	}

	seats := make([]match.Seat, 0, len(agents))
	for _, a := range agents {
		seats = append(seats, match.Seat{ID: a.Seat(), Name: a.Name(), Stack: s.cfg.Stack})
	}
	ctrl, err := match.New(match.Config{
		BigBlind:         s.cfg.BigBlind,
		Multiplier:       s.cfg.BlindMultiplier,
		IncreaseInterval: s.cfg.BlindIncreaseInterval,
		MaxHands:         s.cfg.MaxHands(),
	}, seats)
	if err != nil {
		return fmt.Errorf("building match: %w", err)
	}

	records, err := handlog.NewWriter(s.cfg.OutputDir, s.logger)
	if err != nil {
		return fmt.Errorf("opening output dir: %w", err)
	}

	runner := NewRunner(RunnerParams{
		Controller: ctrl,
		Agents:     agents,
		RNG:        deckRNG,
		IDSource:   idSrc,
		Records:    records,
		Status:     NewStatusWriter(s.cfg.OutputDir, s.cfg.StatusFilename()),
		Monitor:    s.monitor,
		Stats:      statistics.NewTracker(),
		Logger:     s.logger,
		MatchID:    gameid.Generate(),
		MaxHands:   s.cfg.MaxHands(),
	})
	return runner.Run(ctx)
}

// BoundAddr blocks until Run has bound the TCP listener and returns
// its address. Tests bind port 0 and dial whatever the OS picked.
func (s *Server) BoundAddr() string {
	<-s.bound
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundAddr
}

func (s *Server) closeAgents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.claimed {
		a.Close()
	}
}
