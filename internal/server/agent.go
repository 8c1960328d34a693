package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem-arena/internal/bot"
	"github.com/lox/holdem-arena/internal/game"
	"github.com/lox/holdem-arena/internal/protocol"
)

// Decision is one action reply attributed to a seat.
type Decision struct {
	Action game.Action
	Amount int
}

// Agent is the runner's view of one seat: somewhere to send
// messages, something to ask for decisions. Network seats proxy a
// connection; bot seats answer in-process.
type Agent interface {
	Seat() int
	Name() string

	// Send delivers one message. Errors are absorbed: an unreachable
	// seat plays on through synthesized actions.
	Send(kind protocol.Kind, payload any)

	// AwaitAction requests a decision from the seat due to act and
	// blocks until it answers, the deadline passes, or the link drops.
	// ok is false when no decision arrived and the caller must
	// synthesize one.
	AwaitAction(ctx context.Context, h *game.Hand) (dec Decision, ok bool)

	// Connected reports whether the seat can still answer.
	Connected() bool

	Close()
}

// NetworkAgent drives one remote seat. A read loop validates inbound
// frames and hands well-formed decisions to a waiting AwaitAction;
// everything arriving outside an action window is logged and dropped.
type NetworkAgent struct {
	seat    int
	name    string
	conn    *Conn
	clock   quartz.Clock
	timeout time.Duration
	logger  *log.Logger

	mu        sync.Mutex
	awaiting  bool
	decisions chan Decision
}

func NewNetworkAgent(seat int, name string, conn *Conn, timeout time.Duration, clock quartz.Clock, logger *log.Logger) *NetworkAgent {
	a := &NetworkAgent{
		seat:      seat,
		name:      name,
		conn:      conn,
		clock:     clock,
		timeout:   timeout,
		logger:    logger.WithPrefix("agent").With("seat", seat, "player", name),
		decisions: make(chan Decision, 1),
	}
	go a.readLoop()
	return a
}

func (a *NetworkAgent) Seat() int    { return a.seat }
func (a *NetworkAgent) Name() string { return a.name }

func (a *NetworkAgent) Send(kind protocol.Kind, payload any) {
	if err := a.conn.Send(kind, payload); err != nil {
		a.logger.Debug("Send failed", "kind", kind.String(), "err", err)
	}
}

func (a *NetworkAgent) Connected() bool { return !a.conn.closed() }

func (a *NetworkAgent) Close() { a.conn.Close() }

func (a *NetworkAgent) readLoop() {
	for {
		select {
		case env := <-a.conn.Inbound():
			a.handle(env)
		case <-a.conn.Done():
			return
		}
	}
}

func (a *NetworkAgent) handle(env *protocol.Envelope) {
	switch env.Type {
	case protocol.KindPlayerAction:
		a.handleAction(env)
	case protocol.KindMessage:
		var msg protocol.Message
		if err := env.Payload(&msg); err == nil {
			a.logger.Debug("Agent message", "text", msg.Text)
		}
	default:
		a.logger.Warn("Dropping unexpected message", "kind", env.Type.String())
	}
}

func (a *NetworkAgent) handleAction(env *protocol.Envelope) {
	var pa protocol.PlayerAction
	if err := env.Payload(&pa); err != nil {
		a.logger.Warn("Dropping malformed action", "err", err)
		return
	}
	if pa.PlayerID != 0 && pa.PlayerID != a.seat {
		a.logger.Warn("Dropping action claiming another seat", "claimed", pa.PlayerID)
		return
	}
	action, err := game.ParseAction(pa.Action)
	if err != nil {
		a.logger.Warn("Dropping unknown action", "action", pa.Action)
		return
	}
	if pa.Amount < 0 {
		a.logger.Warn("Dropping negative raise amount", "action", pa.Action, "amount", pa.Amount)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.awaiting {
		a.logger.Warn("Dropping action outside the seat's turn", "action", pa.Action)
		return
	}
	select {
	case a.decisions <- Decision{Action: action, Amount: pa.Amount}:
		// First well-formed reply wins; anything after is unsolicited.
		a.awaiting = false
	default:
	}
}

func (a *NetworkAgent) AwaitAction(ctx context.Context, _ *game.Hand) (Decision, bool) {
	a.mu.Lock()
	// Drop any reply left over from a window that timed out after the
	// seat answered.
	select {
	case <-a.decisions:
	default:
	}
	a.awaiting = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.awaiting = false
		a.mu.Unlock()
	}()

	a.Send(protocol.KindRequestPlayerAction, protocol.RequestPlayerAction{
		PlayerID:        a.seat,
		TimeRemainingMS: a.timeout.Milliseconds(),
	})

	timedOut := make(chan struct{})
	timer := a.clock.AfterFunc(a.timeout, func() { close(timedOut) })
	defer timer.Stop()

	select {
	case dec := <-a.decisions:
		return dec, true
	case <-timedOut:
		a.logger.Warn("Seat timed out", "timeout", a.timeout)
		return Decision{}, false
	case <-a.conn.Done():
		a.logger.Warn("Seat disconnected during its action window")
		return Decision{}, false
	case <-ctx.Done():
		return Decision{}, false
	}
}

// BotAgent seats a built-in strategy through the same arbiter path as
// a network seat, minus the socket.
type BotAgent struct {
	seat   int
	name   string
	bot    bot.Bot
	logger *log.Logger

	bigBlind int
}

func NewBotAgent(seat int, name string, b bot.Bot, logger *log.Logger) *BotAgent {
	return &BotAgent{
		seat:   seat,
		name:   name,
		bot:    b,
		logger: logger.WithPrefix("bot").With("seat", seat, "strategy", b.Name()),
	}
}

func (a *BotAgent) Seat() int    { return a.seat }
func (a *BotAgent) Name() string { return a.name }

// Send keeps only the big blind from the hand open; bots read the
// rest of the table through the engine at decision time.
func (a *BotAgent) Send(kind protocol.Kind, payload any) {
	if kind == protocol.KindGameStart {
		if gs, ok := payload.(protocol.GameStart); ok {
			a.bigBlind = gs.BigBlind
		}
	}
}

func (a *BotAgent) AwaitAction(_ context.Context, h *game.Hand) (Decision, bool) {
	d := bot.Ask(a.bot, h, a.seat, a.bigBlind)
	a.logger.Debug("Bot acted", "action", d.Action.String(), "amount", d.Amount, "reason", d.Reason)
	return Decision{Action: d.Action, Amount: d.Amount}, true
}

func (a *BotAgent) Connected() bool { return true }

func (a *BotAgent) Close() {}
