// Package config loads riichibook.hcl: log level, house rulesets, the
// session host and the upload endpoint.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/riichibook/internal/ruleset"
	"github.com/lox/riichibook/internal/seat"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "riichibook.hcl"

// Config represents the complete configuration file
type Config struct {
	LogLevel string          `hcl:"log_level,optional"`
	Rulesets []RulesetConfig `hcl:"ruleset,block"`
	Server   *ServerSettings `hcl:"server,block"`
	Upload   *UploadSettings `hcl:"upload,block"`
}

// RulesetConfig is a house ruleset: a preset with some values overridden.
// Unset attributes keep the base preset's value.
type RulesetConfig struct {
	Name                       string  `hcl:"name,label"`
	Base                       string  `hcl:"base,optional"`
	NumPlayers                 *int    `hcl:"num_players,optional"`
	StartingPoints             *int    `hcl:"starting_points,optional"`
	HonbaPoints                *int    `hcl:"honba_points,optional"`
	RiichiCost                 *int    `hcl:"riichi_cost,optional"`
	RoundUpMangan              *bool   `hcl:"round_up_mangan,optional"`
	HeadBump                   *bool   `hcl:"head_bump,optional"`
	DrawTenpaiPoints           *int    `hcl:"draw_tenpai_points,optional"`
	LastRoundWind              *string `hcl:"last_round_wind,optional"`
	DealerTenpaiRenchan        *bool   `hcl:"dealer_tenpai_renchan,optional"`
	AllLastDealerWinRenchan    *bool   `hcl:"all_last_dealer_win_renchan,optional"`
	AllLastDealerTenpaiRenchan *bool   `hcl:"all_last_dealer_tenpai_renchan,optional"`
	LeftoverRiichiSticks       *string `hcl:"left_over_riichi_sticks,optional"`
}

// ServerSettings configures the websocket session host
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	Store       string `hcl:"store,optional"`
	DataDir     string `hcl:"data_dir,optional"`
	RedisAddr   string `hcl:"redis_addr,optional"`
	IdleTimeout string `hcl:"idle_timeout,optional"`
}

// UploadSettings points at the remote game recorder
type UploadSettings struct {
	URL   string `hcl:"url"`
	Token string `hcl:"token,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads an HCL configuration file. A missing file yields Default().
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Store == "" {
		c.Server.Store = "file"
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "games"
	}
	if c.Server.RedisAddr == "" {
		c.Server.RedisAddr = "localhost:6379"
	}
	if c.Server.IdleTimeout == "" {
		c.Server.IdleTimeout = "2h"
	}
	for i := range c.Rulesets {
		if c.Rulesets[i].Base == "" {
			c.Rulesets[i].Base = ruleset.MLeague.Name
		}
	}
}

// Validate checks the server block and that every house ruleset resolves.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.Store {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unknown store %q", c.Server.Store)
	}
	if _, err := c.Server.IdleTimeoutDuration(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, rc := range c.Rulesets {
		if seen[rc.Name] {
			return fmt.Errorf("ruleset %s defined twice", rc.Name)
		}
		seen[rc.Name] = true
		if _, err := rc.Build(); err != nil {
			return err
		}
	}
	if c.Upload != nil && c.Upload.URL == "" {
		return fmt.Errorf("upload: url must not be empty")
	}
	return nil
}

// Build resolves the house ruleset against its base preset.
func (rc RulesetConfig) Build() (ruleset.Ruleset, error) {
	rs, ok := ruleset.Preset(rc.Base)
	if !ok {
		return ruleset.Ruleset{}, fmt.Errorf("ruleset %s: unknown base %q", rc.Name, rc.Base)
	}
	rs.Name = rc.Name
	setInt(&rs.NumPlayers, rc.NumPlayers)
	setInt(&rs.StartingPoints, rc.StartingPoints)
	setInt(&rs.HonbaPoints, rc.HonbaPoints)
	setInt(&rs.RiichiCost, rc.RiichiCost)
	setInt(&rs.DrawTenpaiPoints, rc.DrawTenpaiPoints)
	setBool(&rs.RoundUpMangan, rc.RoundUpMangan)
	setBool(&rs.HeadBump, rc.HeadBump)
	setBool(&rs.DealerTenpaiRenchan, rc.DealerTenpaiRenchan)
	setBool(&rs.AllLastDealerWinRenchan, rc.AllLastDealerWinRenchan)
	setBool(&rs.AllLastDealerTenpaiRenchan, rc.AllLastDealerTenpaiRenchan)
	if rc.LastRoundWind != nil {
		w, err := seat.Parse(*rc.LastRoundWind)
		if err != nil {
			return ruleset.Ruleset{}, fmt.Errorf("ruleset %s: %w", rc.Name, err)
		}
		rs.LastRoundWind = w
	}
	if rc.LeftoverRiichiSticks != nil {
		p, err := ruleset.ParseLeftoverPolicy(*rc.LeftoverRiichiSticks)
		if err != nil {
			return ruleset.Ruleset{}, fmt.Errorf("ruleset %s: %w", rc.Name, err)
		}
		rs.LeftoverRiichiSticks = p
	}
	if err := rs.Validate(); err != nil {
		return ruleset.Ruleset{}, fmt.Errorf("ruleset %s: %w", rc.Name, err)
	}
	return rs, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Ruleset finds a house ruleset by name, falling back to the presets.
func (c *Config) Ruleset(name string) (ruleset.Ruleset, error) {
	for _, rc := range c.Rulesets {
		if rc.Name == name {
			return rc.Build()
		}
	}
	if rs, ok := ruleset.Preset(name); ok {
		return rs, nil
	}
	return ruleset.Ruleset{}, fmt.Errorf("unknown ruleset %q (known: %v)", name, c.RulesetNames())
}

// RulesetNames lists the presets followed by the house rulesets, sorted.
func (c *Config) RulesetNames() []string {
	names := ruleset.PresetNames()
	var house []string
	for _, rc := range c.Rulesets {
		house = append(house, rc.Name)
	}
	sort.Strings(house)
	return append(names, house...)
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IdleTimeoutDuration parses idle_timeout, e.g. "90m".
func (s *ServerSettings) IdleTimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid idle_timeout %q: %w", s.IdleTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("idle_timeout must be positive, got %s", d)
	}
	return d, nil
}
