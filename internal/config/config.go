// Package config provides configuration structures and defaults for mini-db.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
)

// Durability controls when log appends are forced to disk.
type Durability string

const (
	// DurabilityAlways forces every append to disk before it is acknowledged
	DurabilityAlways Durability = "always"
	// DurabilityOnCompact forces the log to disk only during compaction
	DurabilityOnCompact Durability = "on-compact"
	// DurabilityNever relies entirely on OS buffering
	DurabilityNever Durability = "never"
)

const (
	defaultDurability          = DurabilityAlways
	defaultCompactBytes  int64 = 1024 * 1024
	defaultCompactEntries      = 10000
	defaultSnapshotCodec       = "none"
	defaultLogLevel            = "info"
)

// Config holds all tunable parameters for mini-db's durability and
// compaction behavior. It is read at startup and not mutated at
// runtime.
type Config struct {
	// Durability selects the log sync policy: always, on-compact or never.
	Durability Durability `yaml:"durability"`
	// CompactBytes triggers compaction once the log grows past this
	// many bytes. Negative disables the byte trigger.
	CompactBytes int64 `yaml:"compact_bytes"`
	// CompactEntries triggers compaction once this many entries have
	// been appended since the last compaction. Negative disables the
	// entry trigger.
	CompactEntries int `yaml:"compact_entries"`
	// SnapshotCodec selects the snapshot encoding: none or s2.
	SnapshotCodec string `yaml:"snapshot_codec"`
	// Log configures the CLI's slog handler.
	Log LogConfig `yaml:"log"`
	// Logger receives engine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// LogConfig holds the CLI logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		Durability:     defaultDurability,
		CompactBytes:   defaultCompactBytes,
		CompactEntries: defaultCompactEntries,
		SnapshotCodec:  defaultSnapshotCodec,
		Log:            LogConfig{Level: defaultLogLevel},
		Logger:         slog.Default(),
	}
}

// FillDefaults sets any zero-value fields to their default values.
func (c *Config) FillDefaults() {
	def := DefaultConfig()
	if c.Durability == "" {
		c.Durability = def.Durability
	}
	if c.CompactBytes == 0 {
		c.CompactBytes = def.CompactBytes
	}
	if c.CompactEntries == 0 {
		c.CompactEntries = def.CompactEntries
	}
	if c.SnapshotCodec == "" {
		c.SnapshotCodec = def.SnapshotCodec
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
}

// Validate reports configuration values that have no meaning.
func (c *Config) Validate() error {
	switch c.Durability {
	case DurabilityAlways, DurabilityOnCompact, DurabilityNever:
	default:
		return fmt.Errorf("unknown durability mode %q", c.Durability)
	}
	switch c.SnapshotCodec {
	case "none", "s2":
	default:
		return fmt.Errorf("unknown snapshot codec %q", c.SnapshotCodec)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// LoadFile reads a YAML config file, fills defaults and validates.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.FillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
