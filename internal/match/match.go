// Package match drives a sequence of hands over a persistent seat
// roster: button rotation, the blind schedule, stack carry-over, and
// match termination.
package match

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lox/holdem-arena/internal/game"
)

// ErrMatchOver is returned by NextHand once no further hand can be
// dealt; errors.Is it to distinguish clean endings from failures.
var ErrMatchOver = errors.New("match over")

// Config sets the match envelope. MaxHands of 1 plays a single hand;
// larger values cap a multi-hand match. Multiplier and
// IncreaseInterval implement the blind schedule: every interval hands
// the big blind scales by the multiplier. Interval 0 keeps blinds
// constant.
type Config struct {
	BigBlind         int
	Multiplier       float64
	IncreaseInterval int
	MaxHands         int
}

// Seat is a persistent roster entry owned by the controller.
type Seat struct {
	ID    int
	Name  string
	Start int
	Stack int
}

// Delta is the seat's cumulative winnings since match start.
func (s *Seat) Delta() int { return s.Stack - s.Start }

// HandPlan describes the next hand to deal: the funded roster, the
// button, and the blinds in force.
type HandPlan struct {
	Index      int
	Button     int
	Seats      []game.Seat
	SmallBlind int
	BigBlind   int
}

// Controller owns the seat roster across hands. It is safe for
// concurrent use; in practice the engine task drives it and a signal
// handler may call Stop.
type Controller struct {
	mu sync.Mutex

	cfg   Config
	seats []*Seat

	button       int
	handsPlayed  int
	lastFinished int
	stopped      bool
	endReason    string
}

// New builds a controller over the given roster. Seat ids must be
// unique and positive; every seat needs a starting stack.
func New(cfg Config, seats []Seat) (*Controller, error) {
	if cfg.BigBlind <= 0 {
		return nil, fmt.Errorf("big blind must be positive, got %d", cfg.BigBlind)
	}
	if cfg.MaxHands <= 0 {
		return nil, fmt.Errorf("hand cap must be positive, got %d", cfg.MaxHands)
	}
	if len(seats) < 2 {
		return nil, fmt.Errorf("need at least 2 seats, got %d", len(seats))
	}
	c := &Controller{cfg: cfg, lastFinished: -1}
	byID := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		if s.ID <= 0 {
			return nil, fmt.Errorf("seat id must be positive, got %d", s.ID)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate seat id %d", s.ID)
		}
		if s.Stack <= 0 {
			return nil, fmt.Errorf("seat %d has no starting stack", s.ID)
		}
		byID[s.ID] = struct{}{}
		c.seats = append(c.seats, &Seat{ID: s.ID, Name: s.Name, Start: s.Stack, Stack: s.Stack})
	}
	sort.Slice(c.seats, func(i, j int) bool { return c.seats[i].ID < c.seats[j].ID })
	return c, nil
}

// Blinds returns the blinds in force for the next hand. The small
// blind is half the big blind, floored, never below one chip.
func (c *Controller) Blinds() (sb, bb int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blinds()
}

func (c *Controller) blinds() (sb, bb int) {
	bb = c.cfg.BigBlind
	if c.cfg.IncreaseInterval > 0 && c.cfg.Multiplier > 0 {
		periods := c.handsPlayed / c.cfg.IncreaseInterval
		bb = int(math.Round(float64(c.cfg.BigBlind) * math.Pow(c.cfg.Multiplier, float64(periods))))
	}
	if bb < 1 {
		bb = 1
	}
	sb = bb / 2
	if sb < 1 {
		sb = 1
	}
	return sb, bb
}

// NextHand plans the next hand: advances the button to the next seat
// clockwise that can afford the coming big blind and collects every
// funded seat into the roster. It returns ErrMatchOver (with the
// reason attached) when the cap is reached, fewer than two seats can
// post the big blind, or the match was stopped.
func (c *Controller) NextHand() (*HandPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil, c.over("stopped by operator")
	}
	if c.handsPlayed >= c.cfg.MaxHands {
		return nil, c.over("hand cap reached")
	}
	sb, bb := c.blinds()
	if c.countAffording(bb) < 2 {
		return nil, c.over("fewer than two seats can afford the big blind")
	}

	button, err := c.nextButton(bb)
	if err != nil {
		return nil, err
	}
	c.button = button

	plan := &HandPlan{
		Index:      c.handsPlayed,
		Button:     button,
		SmallBlind: sb,
		BigBlind:   bb,
	}
	for _, s := range c.seats {
		if s.Stack > 0 {
			plan.Seats = append(plan.Seats, game.Seat{ID: s.ID, Name: s.Name, Stack: s.Stack})
		}
	}
	return plan, nil
}

func (c *Controller) over(reason string) error {
	if c.endReason == "" {
		c.endReason = reason
	}
	return fmt.Errorf("%w: %s", ErrMatchOver, reason)
}

func (c *Controller) countAffording(bb int) int {
	n := 0
	for _, s := range c.seats {
		if s.Stack >= bb {
			n++
		}
	}
	return n
}

// nextButton picks the first seat clockwise after the current button
// that can afford bb. The first hand starts the scan from the lowest
// seat id itself.
func (c *Controller) nextButton(bb int) (int, error) {
	n := len(c.seats)
	start := 0
	if c.button != 0 {
		pos := c.seatPos(c.button)
		if pos < 0 {
			return 0, fmt.Errorf("button seat %d missing from roster", c.button)
		}
		start = pos + 1
	}
	for k := 0; k < n; k++ {
		s := c.seats[(start+k)%n]
		if s.Stack >= bb {
			return s.ID, nil
		}
	}
	return 0, c.over("no seat can hold the button")
}

func (c *Controller) seatPos(id int) int {
	for i, s := range c.seats {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FinishHand folds a hand's results back into the roster. It is
// idempotent per hand index: replaying an already-finished hand is a
// no-op, so a duplicated end-of-hand call can never double-settle.
func (c *Controller) FinishHand(index int, result *game.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index <= c.lastFinished {
		return nil
	}
	if index != c.lastFinished+1 {
		return fmt.Errorf("finishing hand %d out of order, expected %d", index, c.lastFinished+1)
	}

	before := c.chipTotal()
	after := before
	for _, s := range c.seats {
		if stack, ok := result.Stacks[s.ID]; ok {
			after += stack - s.Stack
		}
	}
	if after != before {
		return fmt.Errorf("chip conservation broken settling hand %d: %d -> %d", index, before, after)
	}
	for _, s := range c.seats {
		if stack, ok := result.Stacks[s.ID]; ok {
			s.Stack = stack
		}
	}

	c.lastFinished = index
	c.handsPlayed++
	return nil
}

func (c *Controller) chipTotal() int {
	total := 0
	for _, s := range c.seats {
		total += s.Stack
	}
	return total
}

// Stop requests match termination after the current hand.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

// HandsPlayed reports how many hands have settled.
func (c *Controller) HandsPlayed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handsPlayed
}

// EndReason describes why the match ended, empty while it runs.
func (c *Controller) EndReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endReason
}

// Standing is one row of the final table.
type Standing struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Stack int    `json:"stack"`
	Delta int    `json:"delta"`
}

// Standings returns every seat's bankroll and cumulative delta,
// ordered by seat id. Deltas always sum to zero.
func (c *Controller) Standings() []Standing {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Standing, 0, len(c.seats))
	for _, s := range c.seats {
		out = append(out, Standing{Seat: s.ID, Name: s.Name, Stack: s.Stack, Delta: s.Delta()})
	}
	return out
}

// Scores returns cumulative deltas keyed by seat id, the shape the
// GAME_END message carries.
func (c *Controller) Scores() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	scores := make(map[int]int, len(c.seats))
	for _, s := range c.seats {
		scores[s.ID] = s.Delta()
	}
	return scores
}
