package server

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/holdem-arena/internal/bot"
)

// Config is the resolved dealer configuration: CLI flags merged over
// an optional HCL file merged over defaults.
type Config struct {
	Host    string
	Port    int
	Players int

	// ActionTimeout is the per-turn decision deadline.
	ActionTimeout time.Duration

	BigBlind              int
	BlindMultiplier       float64
	BlindIncreaseInterval int
	Stack                 int

	// Sim plays a multi-hand match capped at SimRounds hands instead
	// of a single hand.
	Sim       bool
	SimRounds int

	// Seed fixes the deck shuffles and hand ids; 0 draws from entropy.
	Seed int64

	// Bots fills the trailing seats with built-in strategies so the
	// match can start with fewer network agents.
	Bots        int
	BotStrategy string

	// WSPort opens a second listener speaking the same protocol over
	// websocket text frames; 0 leaves it off.
	WSPort int

	Monitor   string
	OutputDir string

	Debug   bool
	LogFile string
}

// DefaultConfig returns the built-in defaults, which double as the
// kong flag defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            5000,
		Players:         2,
		ActionTimeout:   30 * time.Second,
		BigBlind:        10,
		BlindMultiplier: 1.0,
		SimRounds:       6,
		Stack:           1000,
		BotStrategy:     "caller",
		Monitor:         "none",
		OutputDir:       ".",
	}
}

type fileConfig struct {
	Server *serverBlock `hcl:"server,block"`
	Table  *tableBlock  `hcl:"table,block"`
	Output *outputBlock `hcl:"output,block"`
}

type serverBlock struct {
	Host    string `hcl:"host,optional"`
	Port    int    `hcl:"port,optional"`
	Players int    `hcl:"players,optional"`
	Timeout int    `hcl:"timeout,optional"`
	WSPort  int    `hcl:"ws_port,optional"`
	Debug   bool   `hcl:"debug,optional"`
	LogFile string `hcl:"log_file,optional"`
}

type tableBlock struct {
	BigBlind              int     `hcl:"big_blind,optional"`
	BlindMultiplier       float64 `hcl:"blind_multiplier,optional"`
	BlindIncreaseInterval int     `hcl:"blind_increase_interval,optional"`
	Stack                 int     `hcl:"stack,optional"`
	Sim                   bool    `hcl:"sim,optional"`
	SimRounds             int     `hcl:"sim_rounds,optional"`
	Seed                  int64   `hcl:"seed,optional"`
	Bots                  int     `hcl:"bots,optional"`
	BotStrategy           string  `hcl:"bot_strategy,optional"`
}

type outputBlock struct {
	Dir     string `hcl:"dir,optional"`
	Monitor string `hcl:"monitor,optional"`
}

// MergeFile overlays values from an HCL config file. Precedence: a
// flag the operator changed from its default wins over the file; the
// file wins over defaults. A flag set explicitly to its default value
// is indistinguishable from an unset one and yields to the file.
func (c *Config) MergeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing %s: %s", path, diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return fmt.Errorf("decoding %s: %s", path, diags.Error())
	}

	def := DefaultConfig()
	if s := fc.Server; s != nil {
		if s.Host != "" && c.Host == def.Host {
			c.Host = s.Host
		}
		if s.Port != 0 && c.Port == def.Port {
			c.Port = s.Port
		}
		if s.Players != 0 && c.Players == def.Players {
			c.Players = s.Players
		}
		if s.Timeout != 0 && c.ActionTimeout == def.ActionTimeout {
			c.ActionTimeout = time.Duration(s.Timeout) * time.Second
		}
		if s.WSPort != 0 && c.WSPort == def.WSPort {
			c.WSPort = s.WSPort
		}
		if s.Debug && !c.Debug {
			c.Debug = true
		}
		if s.LogFile != "" && c.LogFile == def.LogFile {
			c.LogFile = s.LogFile
		}
	}
	if t := fc.Table; t != nil {
		if t.BigBlind != 0 && c.BigBlind == def.BigBlind {
			c.BigBlind = t.BigBlind
		}
		if t.BlindMultiplier != 0 && c.BlindMultiplier == def.BlindMultiplier {
			c.BlindMultiplier = t.BlindMultiplier
		}
		if t.BlindIncreaseInterval != 0 && c.BlindIncreaseInterval == def.BlindIncreaseInterval {
			c.BlindIncreaseInterval = t.BlindIncreaseInterval
		}
		if t.Stack != 0 && c.Stack == def.Stack {
			c.Stack = t.Stack
		}
		if t.Sim && !c.Sim {
			c.Sim = true
		}
		if t.SimRounds != 0 && c.SimRounds == def.SimRounds {
			c.SimRounds = t.SimRounds
		}
		if t.Seed != 0 && c.Seed == def.Seed {
			c.Seed = t.Seed
		}
		if t.Bots != 0 && c.Bots == def.Bots {
			c.Bots = t.Bots
		}
		if t.BotStrategy != "" && c.BotStrategy == def.BotStrategy {
			c.BotStrategy = t.BotStrategy
		}
	}
	if o := fc.Output; o != nil {
		if o.Dir != "" && c.OutputDir == def.OutputDir {
			c.OutputDir = o.Dir
		}
		if o.Monitor != "" && c.Monitor == def.Monitor {
			c.Monitor = o.Monitor
		}
	}
	return nil
}

// Monitors lists the console monitor kinds the server accepts.
func Monitors() []string {
	return []string{"none", "dots", "pretty", "live"}
}

// Validate rejects configurations the dealer cannot run.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.WSPort != 0 {
		if c.WSPort < 1 || c.WSPort > 65535 {
			return fmt.Errorf("invalid websocket port %d", c.WSPort)
		}
		if c.WSPort == c.Port {
			return fmt.Errorf("websocket port %d collides with the TCP port", c.WSPort)
		}
	}
	if c.Players < 2 || c.Players > 6 {
		return fmt.Errorf("players must be between 2 and 6, got %d", c.Players)
	}
	if c.Bots < 0 || c.Bots > c.Players {
		return fmt.Errorf("bots must be between 0 and %d, got %d", c.Players, c.Bots)
	}
	if c.ActionTimeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.ActionTimeout)
	}
	if c.BigBlind < 2 {
		return fmt.Errorf("big blind must be at least 2, got %d", c.BigBlind)
	}
	if c.Stack < c.BigBlind {
		return fmt.Errorf("stack %d cannot cover the big blind %d", c.Stack, c.BigBlind)
	}
	if c.BlindIncreaseInterval < 0 {
		return fmt.Errorf("blind increase interval must not be negative, got %d", c.BlindIncreaseInterval)
	}
	if c.BlindIncreaseInterval > 0 && c.BlindMultiplier < 1 {
		return fmt.Errorf("blind multiplier must be at least 1, got %g", c.BlindMultiplier)
	}
	if c.Sim && c.SimRounds < 1 {
		return fmt.Errorf("sim rounds must be at least 1, got %d", c.SimRounds)
	}
	if !slices.Contains(bot.Strategies(), c.BotStrategy) {
		return fmt.Errorf("unknown bot strategy %q", c.BotStrategy)
	}
	if !slices.Contains(Monitors(), c.Monitor) {
		return fmt.Errorf("unknown monitor %q", c.Monitor)
	}
	return nil
}

// Addr is the TCP bind address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WSAddr is the websocket bind address, empty when disabled.
func (c *Config) WSAddr() string {
	if c.WSPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.WSPort)
}

// MaxHands is the hand cap the match controller enforces.
func (c *Config) MaxHands() int {
	if c.Sim {
		return c.SimRounds
	}
	return 1
}

// StatusFilename names the status file external monitors poll.
func (c *Config) StatusFilename() string {
	if c.Sim {
		return "sim_result.log"
	}
	return "game_result.log"
}
