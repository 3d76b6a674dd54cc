package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/riichibook/cmd/riichibook/shared"
	"github.com/lox/riichibook/internal/config"
	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/seat"
	"github.com/lox/riichibook/internal/store"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config        string    `help:"Config file" default:"riichibook.hcl"`
	LogLevel      string    `help:"Log level (debug, info, warn, error); overrides the config file"`
	RedisPassword string    `help:"Password for the redis store" env:"RIICHIBOOK_REDIS_PASSWORD"`
	Stdout        io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.Stdout != nil {
		return g.Stdout
	}
	return os.Stdout
}

// setup loads the config file and builds the logger.
func (g *Globals) setup() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if g.LogLevel != "" {
		level = g.LogLevel
	}
	logger, err := shared.SetupLogger(level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore opens the snapshot store named by the server block.
func (g *Globals) openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Server.Store {
	case "file":
		st, err := store.NewFileStore(cfg.Server.DataDir, logger)
		return st, noop, err
	case "redis":
		cli, err := store.DialRedis(ctx, cfg.Server.RedisAddr, g.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(cli, logger), cli.Close, nil
	case "memory":
		return store.NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Server.Store)
	}
}

// newGame seats names on winds, by starting wind order when winds is empty.
func newGame(cfg *config.Config, rulesetName string, names, winds []string, logger *log.Logger) (*game.Game, error) {
	rs, err := cfg.Ruleset(rulesetName)
	if err != nil {
		return nil, err
	}
	starting := seat.First(len(names))
	if len(winds) > 0 {
		starting = make([]seat.Wind, len(winds))
		for i, w := range winds {
			if starting[i], err = seat.Parse(w); err != nil {
				return nil, err
			}
		}
	}
	return game.NewGame(rs, names, starting, game.WithLogger(logger))
}

// parseDay reads a YYYY-MM-DD date, defaulting to today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q, want YYYY-MM-DD", s)
	}
	return day, nil
}
