// Package config loads the ficboard TOML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"ficboard/internal/kanban"
)

const Version = "0.1.0"

// DefaultDataURL is where the board data lives relative to the site root.
const DefaultDataURL = "data/fic.json"

type Config struct {
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	Source SourceConfig `toml:"source"`
	Server ServerConfig `toml:"server"`
	TUI    TUIConfig    `toml:"tui"`
	Board  BoardConfig  `toml:"board"`

	// Resolved at runtime (not in TOML).
	BaseDir string `toml:"-"`
}

type SourceConfig struct {
	// DataURL is either an http(s) URL or a path relative to SiteRoot.
	DataURL      string `toml:"data_url"`
	SiteRoot     string `toml:"site_root"`
	FallbackPath string `toml:"fallback_path"`
	HostDocument string `toml:"host_document"`
	Timeout      string `toml:"timeout"`
	Attempts     int    `toml:"attempts"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
	// ReloadInterval re-reads the data periodically; empty or "0" disables it.
	ReloadInterval string `toml:"reload_interval"`
}

type TUIConfig struct {
	Style string `toml:"style"`
}

// BoardConfig overrides the board policy. Unset keys keep the defaults;
// an explicitly empty list clears the default.
type BoardConfig struct {
	ColumnOrder     []string `toml:"column_order"`
	HiddenStatuses  []string `toml:"hidden_statuses"`
	ExcludedFields  []string `toml:"excluded_fields"`
	SummaryFields   []string `toml:"summary_fields"`
	PreferredFields []string `toml:"preferred_fields"`
	ExcludedOwner   *string  `toml:"excluded_owner"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.BaseDir = filepath.Dir(path)
	return finish(cfg)
}

// Default returns the configuration used when no config file exists, with
// paths resolved against the working directory.
func Default() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return finish(&Config{BaseDir: wd})
}

// LoadOrDefault loads path. When path is empty the global config file is
// used if it exists, otherwise Default.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	global, err := GlobalConfigPath()
	if err == nil {
		if _, statErr := os.Stat(global); statErr == nil {
			return Load(global)
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", global, statErr)
		}
	}
	return Default()
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	resolvePaths(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Source.DataURL == "" {
		cfg.Source.DataURL = DefaultDataURL
	}
	if cfg.Source.SiteRoot == "" {
		cfg.Source.SiteRoot = "."
	}
	if cfg.Source.Timeout == "" {
		cfg.Source.Timeout = "10s"
	}
	if cfg.Source.Attempts == 0 {
		cfg.Source.Attempts = 1
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8080"
	}
	if cfg.TUI.Style == "" {
		cfg.TUI.Style = "dark"
	}
}

// applyEnv lets the environment win over the config file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("FICBOARD_DATA_URL")); v != "" {
		cfg.Source.DataURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FICBOARD_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
}

func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level: %q", cfg.LogLevel)
	}
	if d, err := time.ParseDuration(cfg.Source.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid source.timeout %q: must be a positive duration", cfg.Source.Timeout)
	}
	if cfg.Source.Attempts < 1 {
		return fmt.Errorf("invalid source.attempts %d: must be at least 1", cfg.Source.Attempts)
	}
	if cfg.Server.ReloadInterval != "" {
		if d, err := time.ParseDuration(cfg.Server.ReloadInterval); err != nil || d < 0 {
			return fmt.Errorf("invalid server.reload_interval %q", cfg.Server.ReloadInterval)
		}
	}
	if _, _, err := net.SplitHostPort(cfg.Server.Listen); err != nil {
		return fmt.Errorf("invalid server.listen %q: %w", cfg.Server.Listen, err)
	}
	switch cfg.TUI.Style {
	case "dark", "light", "notty", "ascii", "auto":
	default:
		return fmt.Errorf("unsupported tui.style: %q (must be dark, light, notty, ascii or auto)", cfg.TUI.Style)
	}
	if cfg.Board.ColumnOrder != nil {
		if err := checkEntries("board.column_order", cfg.Board.ColumnOrder); err != nil {
			return err
		}
	}
	if cfg.Board.PreferredFields != nil {
		if err := checkEntries("board.preferred_fields", cfg.Board.PreferredFields); err != nil {
			return err
		}
	}
	return nil
}

// checkEntries rejects blank and duplicate entries in an ordered list.
func checkEntries(key string, entries []string) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("%s: entry at index %d is empty", key, i)
		}
		if _, ok := seen[e]; ok {
			return fmt.Errorf("%s: duplicate entry %q", key, e)
		}
		seen[e] = struct{}{}
	}
	return nil
}

func resolvePaths(cfg *Config) {
	cfg.Source.SiteRoot = absPath(cfg.BaseDir, cfg.Source.SiteRoot)
	if cfg.Source.FallbackPath != "" {
		cfg.Source.FallbackPath = absPath(cfg.BaseDir, cfg.Source.FallbackPath)
	}
	if cfg.Source.HostDocument != "" {
		cfg.Source.HostDocument = absPath(cfg.BaseDir, cfg.Source.HostDocument)
	}
	if cfg.LogFile != "" {
		cfg.LogFile = absPath(cfg.BaseDir, cfg.LogFile)
	}
}

func absPath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Timeout is the per-fetch timeout for the primary data source.
func (cfg *Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(cfg.Source.Timeout)
	return d
}

// ReloadInterval returns 0 when periodic reload is disabled.
func (cfg *Config) ReloadInterval() time.Duration {
	if cfg.Server.ReloadInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(cfg.Server.ReloadInterval)
	return d
}

// BoardPolicy returns the default board policy with the [board] overrides
// applied.
func (cfg *Config) BoardPolicy() kanban.Policy {
	p := kanban.DefaultPolicy()
	if cfg.Board.ColumnOrder != nil {
		p.ColumnOrder = slices.Clone(cfg.Board.ColumnOrder)
	}
	if cfg.Board.HiddenStatuses != nil {
		p.HiddenStatuses = slices.Clone(cfg.Board.HiddenStatuses)
	}
	if cfg.Board.ExcludedFields != nil {
		p.ExcludedFields = slices.Clone(cfg.Board.ExcludedFields)
	}
	if cfg.Board.SummaryFields != nil {
		p.SummaryFields = slices.Clone(cfg.Board.SummaryFields)
	}
	if cfg.Board.PreferredFields != nil {
		p.PreferredFields = slices.Clone(cfg.Board.PreferredFields)
	}
	if cfg.Board.ExcludedOwner != nil {
		p.ExcludedOwner = *cfg.Board.ExcludedOwner
	}
	return p
}

func (cfg *Config) SlogLevel() slog.Level {
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
