// Package config loads reverie configuration in three layers: struct
// defaults, an optional YAML file, then REVERIE_-prefixed environment
// variables, highest priority last.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "REVERIE_CONFIG"

// defaultConfigPaths are searched in order; the first existing file wins.
var defaultConfigPaths = []string{
	"reverie.yaml",
	"reverie.yml",
	"/etc/reverie/reverie.yaml",
}

// Config holds all reverie configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	KV       KVConfig       `koanf:"kv"`
	Log      LogConfig      `koanf:"log"`
	Recap    RecapConfig    `koanf:"recap"`
}

type ServerConfig struct {
	Bind string `koanf:"bind"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type KVConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Pretty bool   `koanf:"pretty"` // console output instead of JSON
}

type RecapConfig struct {
	NarrowWindowDays   int     `koanf:"narrow_window_days"`
	WideWindowDays     int     `koanf:"wide_window_days"`
	SkipChance         float64 `koanf:"skip_chance"`
	DailyIntervalHours int     `koanf:"daily_interval_hours"`
	WeeklyIntervalDays int     `koanf:"weekly_interval_days"`
	ScriptTTLHours     int     `koanf:"script_ttl_hours"`
	BookkeepingTTLDays int     `koanf:"bookkeeping_ttl_days"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38800,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		KV: KVConfig{
			Path: "", // resolved at runtime next to the database
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
		Recap: RecapConfig{
			NarrowWindowDays:   30,
			WideWindowDays:     90,
			SkipChance:         0.15,
			DailyIntervalHours: 20,
			WeeklyIntervalDays: 6,
			ScriptTTLHours:     72,
			BookkeepingTTLDays: 14,
		},
	}
}

// Load builds the layered configuration. A missing config file is fine;
// a present but unparsable one is an error.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// REVERIE_SERVER_PORT -> server.port; the first underscore separates
	// the section, the rest of the key keeps its underscores
	// (REVERIE_RECAP_SKIP_CHANCE -> recap.skip_chance).
	envProvider := env.Provider("REVERIE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "REVERIE_"))
		if section, key, ok := strings.Cut(s, "_"); ok {
			return section + "." + key
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the build pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Recap.NarrowWindowDays <= 0 || c.Recap.WideWindowDays < c.Recap.NarrowWindowDays {
		return fmt.Errorf("invalid recency windows: narrow=%d wide=%d",
			c.Recap.NarrowWindowDays, c.Recap.WideWindowDays)
	}
	if c.Recap.SkipChance < 0 || c.Recap.SkipChance >= 1 {
		return fmt.Errorf("skip_chance %v outside [0,1)", c.Recap.SkipChance)
	}
	if c.Recap.ScriptTTLHours <= 0 || c.Recap.BookkeepingTTLDays <= 0 {
		return fmt.Errorf("expiries must be positive")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
