package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:38800" {
		t.Errorf("ListenAddr = %q", got)
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Recap.NarrowWindowDays != 30 || cfg.Recap.WideWindowDays != 90 {
		t.Errorf("default windows = %d/%d", cfg.Recap.NarrowWindowDays, cfg.Recap.WideWindowDays)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reverie.yaml")
	body := []byte("server:\n  port: 40000\nrecap:\n  skip_chance: 0.25\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 40000 {
		t.Errorf("Port = %d, want 40000", cfg.Server.Port)
	}
	if cfg.Recap.SkipChance != 0.25 {
		t.Errorf("SkipChance = %v, want 0.25", cfg.Recap.SkipChance)
	}
	// Untouched keys keep their defaults.
	if cfg.Recap.WideWindowDays != 90 {
		t.Errorf("WideWindowDays = %d, want default 90", cfg.Recap.WideWindowDays)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("REVERIE_SERVER_PORT", "41000")
	t.Setenv("REVERIE_RECAP_NARROW_WINDOW_DAYS", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 41000 {
		t.Errorf("Port = %d, want env override 41000", cfg.Server.Port)
	}
	if cfg.Recap.NarrowWindowDays != 14 {
		t.Errorf("NarrowWindowDays = %d, want 14", cfg.Recap.NarrowWindowDays)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Server.Port = 0 },
		func(c *Config) { c.Recap.NarrowWindowDays = 0 },
		func(c *Config) { c.Recap.WideWindowDays = 10; c.Recap.NarrowWindowDays = 30 },
		func(c *Config) { c.Recap.SkipChance = 1.0 },
		func(c *Config) { c.Recap.ScriptTTLHours = 0 },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: invalid config accepted", i)
		}
	}
}
