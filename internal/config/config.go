// Package config loads daemon configuration from YAML with sane defaults
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Blakthorne/whispersermons-sub001/pkg/state"
)

// Config is the full daemon configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Journal  JournalConfig  `yaml:"journal"`
	History  HistoryConfig  `yaml:"history"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the listening ports.
type ServerConfig struct {
	Port              int `yaml:"port"`               // JSON API port
	ObservabilityPort int `yaml:"observability_port"` // metrics, pprof, health port
}

// SnapshotConfig controls document persistence at the process boundary.
type SnapshotConfig struct {
	Path            string `yaml:"path"`              // snapshot file loaded at boot
	SaveOnExit      bool   `yaml:"save_on_exit"`      // write the snapshot back on shutdown
	IncludeEventLog bool   `yaml:"include_event_log"` // persist the log and history stacks
	MaxEvents       int    `yaml:"max_events"`        // newest log entries kept; 0 = all
}

// JournalConfig controls the write-ahead event journal. An empty path
// disables journaling; edits then live only in memory between snapshots.
type JournalConfig struct {
	Path              string `yaml:"path"`               // base path for journal files
	CheckpointMinutes int    `yaml:"checkpoint_minutes"` // snapshot flush cadence; 0 = default
}

// HistoryConfig bounds the in-memory event history.
type HistoryConfig struct {
	MaxUndoDepth  int `yaml:"max_undo_depth"`
	MaxLogEntries int `yaml:"max_log_entries"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Pretty bool   `yaml:"pretty"` // console output for development
}

// Default returns the stock configuration.
func Default() *Config {
	lim := state.DefaultLimits()
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			ObservabilityPort: 9090,
		},
		Snapshot: SnapshotConfig{
			SaveOnExit:      true,
			IncludeEventLog: true,
		},
		Journal: JournalConfig{
			CheckpointMinutes: 10,
		},
		History: HistoryConfig{
			MaxUndoDepth:  lim.MaxUndoDepth,
			MaxLogEntries: lim.MaxLogEvents,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	if c.Server.ObservabilityPort < 1 || c.Server.ObservabilityPort > 65535 {
		return fmt.Errorf("config: observability port %d out of range", c.Server.ObservabilityPort)
	}
	if c.Server.Port == c.Server.ObservabilityPort {
		return fmt.Errorf("config: server and observability ports collide on %d", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.History.MaxUndoDepth < 1 {
		return fmt.Errorf("config: max_undo_depth must be positive, got %d", c.History.MaxUndoDepth)
	}
	if c.History.MaxLogEntries < c.History.MaxUndoDepth {
		return fmt.Errorf("config: max_log_entries %d below max_undo_depth %d",
			c.History.MaxLogEntries, c.History.MaxUndoDepth)
	}
	if c.Snapshot.MaxEvents < 0 {
		return fmt.Errorf("config: max_events must not be negative, got %d", c.Snapshot.MaxEvents)
	}
	if c.Journal.CheckpointMinutes < 0 {
		return fmt.Errorf("config: checkpoint_minutes must not be negative, got %d", c.Journal.CheckpointMinutes)
	}
	if c.Journal.Path != "" && c.Snapshot.Path == "" {
		return fmt.Errorf("config: journal requires a snapshot path to checkpoint against")
	}
	return nil
}

// Limits maps the history section onto reducer limits.
func (c *Config) Limits() state.Limits {
	return state.Limits{
		MaxUndoDepth: c.History.MaxUndoDepth,
		MaxLogEvents: c.History.MaxLogEntries,
	}
}
