// Command holdem-arena is the tournament dealer: it seats bot agents
// over TCP (and optionally websocket), runs the match, and writes hand
// records and a status file for external monitors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/dashboard"
	"github.com/lox/holdem-arena/internal/server"
)

var cli struct {
	Host    string `default:"0.0.0.0" help:"Bind address."`
	Port    int    `default:"5000" help:"Bind port."`
	Players int    `default:"2" help:"Seats required before the match begins."`
	Timeout int    `default:"30" help:"Per-turn decision deadline in seconds."`

	Blind                 int     `default:"10" help:"Big blind amount; the small blind is half."`
	BlindMultiplier       float64 `default:"1.0" help:"Blind schedule multiplier."`
	BlindIncreaseInterval int     `default:"0" help:"Hands between blind increases (0 = never)."`

	Sim       bool `help:"Run a multi-hand match instead of a single hand."`
	SimRounds int  `default:"6" help:"Hand cap when --sim is set."`

	Stack int   `default:"1000" help:"Starting stack per seat."`
	Seed  int64 `default:"0" help:"Deck seed (0 = random)."`

	Bots        int    `default:"0" help:"Fill this many trailing seats with built-in bots."`
	BotStrategy string `default:"caller" enum:"caller,folder,random,maniac" help:"Strategy for built-in bots."`

	WSPort  int    `name:"ws-port" default:"0" help:"Additionally accept websocket agents on this port (0 = off)."`
	Monitor string `default:"none" enum:"none,dots,pretty,live" help:"Console monitor."`

	Config    string `short:"c" type:"path" help:"Optional HCL configuration file."`
	OutputDir string `default:"." help:"Directory for hand records and the status file."`

	Debug   bool   `help:"Verbose logging."`
	LogFile string `type:"path" help:"Log destination (default stdout)."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("holdem-arena"),
		kong.Description("No-limit hold'em dealer for networked bot agents."))

	cfg := server.Config{
		Host:                  cli.Host,
		Port:                  cli.Port,
		Players:               cli.Players,
		ActionTimeout:         time.Duration(cli.Timeout) * time.Second,
		BigBlind:              cli.Blind,
		BlindMultiplier:       cli.BlindMultiplier,
		BlindIncreaseInterval: cli.BlindIncreaseInterval,
		Sim:                   cli.Sim,
		SimRounds:             cli.SimRounds,
		Stack:                 cli.Stack,
		Seed:                  cli.Seed,
		Bots:                  cli.Bots,
		BotStrategy:           cli.BotStrategy,
		WSPort:                cli.WSPort,
		Monitor:               cli.Monitor,
		OutputDir:             cli.OutputDir,
		Debug:                 cli.Debug,
		LogFile:               cli.LogFile,
	}
	if cli.Config != "" {
		if err := cfg.MergeFile(cli.Config); err != nil {
			fmt.Fprintln(os.Stderr, err)
			kctx.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		kctx.Exit(1)
	}

	logger, closeLog, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		kctx.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Monitor == "live" {
		err = runLive(ctx, stop, cfg, logger)
	} else {
		monitor, merr := server.NewConsoleMonitor(cfg.Monitor, os.Stdout)
		if merr != nil {
			fmt.Fprintln(os.Stderr, merr)
			kctx.Exit(1)
		}
		srv := server.New(cfg, logger, server.WithMonitor(monitor))
		err = srv.Run(ctx)
	}
	if err != nil {
		logger.Error("Dealer failed", "err", err)
		kctx.Exit(1)
	}
}

// runLive runs the server behind the full-screen dashboard. The
// dashboard owns the terminal, so the match plays on a background
// goroutine and quitting the view does not kill a running match until
// the context is cancelled on return.
func runLive(ctx context.Context, stop context.CancelFunc, cfg server.Config, logger *log.Logger) error {
	dash := dashboard.New()
	srv := server.New(cfg, logger, server.WithMonitor(dash))

	done := make(chan error, 1)
	go func() {
		err := srv.Run(ctx)
		done <- err
		if err != nil {
			// Tear the screen down so the failure is visible.
			dash.Stop()
		}
	}()

	if err := dash.Run(); err != nil {
		logger.Error("Dashboard failed", "err", err)
	}
	stop()
	return <-done
}

// buildLogger assembles the root logger. With the live monitor and no
// --log-file, logs are discarded rather than fighting the dashboard
// for the terminal.
func buildLogger(cfg server.Config) (*log.Logger, func(), error) {
	var w io.Writer = os.Stdout
	closeLog := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	case cfg.Monitor == "live":
		w = io.Discard
	}

	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return logger, closeLog, nil
}
