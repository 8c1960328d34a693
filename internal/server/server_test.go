package server

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-arena/internal/handlog"
	"github.com/lox/holdem-arena/internal/protocol"
)

func testServerConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ActionTimeout = 5 * time.Second
	cfg.Stack = 200
	cfg.Seed = 42
	cfg.OutputDir = t.TempDir()
	return cfg
}

// testClient speaks the wire protocol over a real TCP connection.
type testClient struct {
	t    *testing.T
	conn net.Conn
	sc   *bufio.Scanner
}

func dialClient(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, sc: bufio.NewScanner(conn)}
}

func (c *testClient) send(kind protocol.Kind, payload any) {
	c.t.Helper()
	frame, err := protocol.Encode(kind, payload)
	require.NoError(c.t, err)
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err = c.conn.Write(append(frame, '\n'))
	require.NoError(c.t, err)
}

// next returns the next envelope, nil at EOF.
func (c *testClient) next() *protocol.Envelope {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	if !c.sc.Scan() {
		return nil
	}
	env, err := protocol.Decode(c.sc.Bytes())
	require.NoError(c.t, err)
	return env
}

func readStatus(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

// TestMatchOverTCP runs a three-hand heads-up match between one
// folding network agent and one built-in caller bot, end to end over
// loopback TCP.
func TestMatchOverTCP(t *testing.T) {
	t.Parallel()

	cfg := testServerConfig(t)
	cfg.Players = 2
	cfg.Bots = 1
	cfg.BotStrategy = "caller"
	cfg.Sim = true
	cfg.SimRounds = 3

	srv := New(cfg, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errs := make(chan error, 1)
	go func() { errs <- srv.Run(ctx) }()

	client := dialClient(t, srv.BoundAddr())
	client.send(protocol.KindConnect, protocol.Connect{PlayerID: 1, Name: "folder-e2e"})

	var gameStarts, gameEnds int
	var lastEnd protocol.GameEnd
	for {
		env := client.next()
		if env == nil {
			break
		}
		switch env.Type {
		case protocol.KindGameStart:
			var gs protocol.GameStart
			require.NoError(t, env.Payload(&gs))
			require.Len(t, gs.Cards, 2, "hole cards for this seat")
			require.Equal(t, cfg.BigBlind, gs.BigBlind)
			gameStarts++
		case protocol.KindRequestPlayerAction:
			var req protocol.RequestPlayerAction
			require.NoError(t, env.Payload(&req))
			if req.PlayerID == 1 {
				client.send(protocol.KindPlayerAction, protocol.PlayerAction{PlayerID: 1, Action: "Fold"})
			}
		case protocol.KindGameEnd:
			require.NoError(t, env.Payload(&lastEnd))
			gameEnds++
		}
	}

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not finish")
	}

	require.Equal(t, 3, gameStarts)
	require.Equal(t, 3, gameEnds)

	// Cumulative scores are zero-sum and the folding seat cannot be up.
	sum := 0
	for _, delta := range lastEnd.AllScores {
		sum += delta
	}
	require.Zero(t, sum)
	require.Negative(t, lastEnd.PlayerScore, "folding every hand bleeds blinds")

	require.Equal(t, StatusDone, readStatus(t, cfg.OutputDir, "sim_result.log"))
	for i := 0; i < 3; i++ {
		rec, err := handlog.Read(filepath.Join(cfg.OutputDir, handlog.Filename(i)))
		require.NoError(t, err)
		require.Equal(t, i, rec.HandIndex)
		deltaSum := 0
		for _, res := range rec.Results {
			deltaSum += res.Delta
		}
		require.Zero(t, deltaSum, "hand %d record deltas", i)
	}
}

// TestTimeoutSynthesizesFold covers the unresponsive-agent path: the
// seat never answers, the mock clock passes the deadline, and the
// engine folds for it.
func TestTimeoutSynthesizesFold(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	cfg := testServerConfig(t)
	cfg.Players = 2
	cfg.Bots = 1
	cfg.ActionTimeout = 30 * time.Second

	srv := New(cfg, testLogger(), WithClock(clock))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errs := make(chan error, 1)
	go func() { errs <- srv.Run(ctx) }()

	client := dialClient(t, srv.BoundAddr())
	client.send(protocol.KindConnect, protocol.Connect{PlayerID: 0, Name: "mute"})

	ends := make(chan protocol.GameEnd, 1)
	requested := make(chan struct{}, 1)
	go func() {
		for {
			env := client.next()
			if env == nil {
				return
			}
			switch env.Type {
			case protocol.KindRequestPlayerAction:
				select {
				case requested <- struct{}{}:
				default:
				}
			case protocol.KindGameEnd:
				var ge protocol.GameEnd
				if err := env.Payload(&ge); err == nil {
					ends <- ge
				}
			}
		}
	}()

	select {
	case <-requested:
	case <-time.After(10 * time.Second):
		t.Fatal("seat was never asked to act")
	}

	// The deadline timer arms right after the request is queued;
	// advance until the synthesized fold settles the hand.
	advanceCtx, advanceCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer advanceCancel()
	var end protocol.GameEnd
	got := false
	for i := 0; i < 20 && !got; i++ {
		clock.Advance(cfg.ActionTimeout).MustWait(advanceCtx)
		select {
		case end = <-ends:
			got = true
		case <-time.After(200 * time.Millisecond):
		}
	}
	require.True(t, got, "hand never ended after deadline expiry")
	require.Negative(t, end.PlayerScore, "the folded seat forfeits its blind")

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not finish")
	}

	rec, err := handlog.Read(filepath.Join(cfg.OutputDir, handlog.Filename(0)))
	require.NoError(t, err)
	synthesized := false
	for _, ev := range rec.Events {
		if ev.Synthesized && ev.Action == "Fold" {
			synthesized = true
		}
	}
	require.True(t, synthesized, "record must mark the fold as synthesized")
}

// TestAllBotMatch fills every seat with built-in bots: no sockets in
// play beyond the unused listener, and the match runs to the hand cap
// on its own.
func TestAllBotMatch(t *testing.T) {
	t.Parallel()

	cfg := testServerConfig(t)
	cfg.Players = 2
	cfg.Bots = 2
	cfg.BotStrategy = "caller"
	cfg.Sim = true
	cfg.SimRounds = 5

	srv := New(cfg, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, srv.Run(ctx))

	require.Equal(t, StatusDone, readStatus(t, cfg.OutputDir, "sim_result.log"))
	rec, err := handlog.Read(filepath.Join(cfg.OutputDir, handlog.Filename(0)))
	require.NoError(t, err)
	require.Len(t, rec.Seats, 2)
}

// TestSeatClaiming exercises the CONNECT handshake edge cases.
func TestSeatClaiming(t *testing.T) {
	t.Parallel()

	cfg := testServerConfig(t)
	cfg.Players = 2
	cfg.Bots = 0

	srv := New(cfg, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errs := make(chan error, 1)
	go func() { errs <- srv.Run(ctx) }()
	addr := srv.BoundAddr()

	first := dialClient(t, addr)
	first.send(protocol.KindConnect, protocol.Connect{PlayerID: 2, Name: "picky"})
	env := first.next()
	require.NotNil(t, env)
	require.Equal(t, protocol.KindMessage, env.Type)

	// Duplicate claim for seat 2 is refused and the connection closed.
	dupe := dialClient(t, addr)
	dupe.send(protocol.KindConnect, protocol.Connect{PlayerID: 2, Name: "late"})
	env = dupe.next()
	require.NotNil(t, env)
	require.Equal(t, protocol.KindMessage, env.Type)
	require.Nil(t, dupe.next(), "refused connection should close")

	// Seat 0 asks for the lowest free seat, which is 1; the table is
	// then full and the match begins.
	second := dialClient(t, addr)
	second.send(protocol.KindConnect, protocol.Connect{PlayerID: 0, Name: "flexible"})

	// Both clients fold whenever asked so the single hand completes.
	for _, c := range []*testClient{first, second} {
		go func(c *testClient) {
			for {
				env := c.next()
				if env == nil {
					return
				}
				if env.Type == protocol.KindRequestPlayerAction {
					c.send(protocol.KindPlayerAction, protocol.PlayerAction{Action: "Fold"})
				}
			}
		}(c)
	}

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("match never completed")
	}
}
