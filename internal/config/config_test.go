package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaultsFillsUnsetFields(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Predictor.LearningRate != 0.1 {
		t.Errorf("Predictor.LearningRate = %g, want 0.1", cfg.Predictor.LearningRate)
	}
	if cfg.Predictor.NumEstimators != 100 {
		t.Errorf("Predictor.NumEstimators = %d, want 100", cfg.Predictor.NumEstimators)
	}
	if cfg.Monitoring.MinScore != 0.6 {
		t.Errorf("Monitoring.MinScore = %g, want 0.6", cfg.Monitoring.MinScore)
	}
	if cfg.Redis.KeyPrefix != "grantscope:" {
		t.Errorf("Redis.KeyPrefix = %q", cfg.Redis.KeyPrefix)
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Predictor.NumEstimators = 50
	ApplyDefaults(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("explicit Server.Port was overwritten: %d", cfg.Server.Port)
	}
	if cfg.Predictor.NumEstimators != 50 {
		t.Errorf("explicit NumEstimators was overwritten: %d", cfg.Predictor.NumEstimators)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = -1 }},
		{"bad mode", func(c *Config) { c.Server.Mode = "production" }},
		{"bad learning rate", func(c *Config) { c.Predictor.LearningRate = 2 }},
		{"bad test size", func(c *Config) { c.Predictor.TestSize = 1.5 }},
		{"bad min score", func(c *Config) { c.Monitoring.MinScore = 1.5 }},
		{"source missing url", func(c *Config) {
			c.Monitoring.Sources = []SourceConfig{{Name: "x"}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "g", SSLMode: "disable",
	}
	want := "postgres://u:p@db:5432/g?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	cfg.URL = "postgres://other/db"
	if got := cfg.DSN(); got != "postgres://other/db" {
		t.Errorf("URL override ignored: %q", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grantscope.yaml")
	yaml := `
server:
  port: 9090
  mode: debug
monitoring:
  min_score: 0.5
  sources:
    - name: state-arts
      url: https://example.org/grants
      poll_interval: 30m
      enabled: true
log:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Monitoring.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(cfg.Monitoring.Sources))
	}
	if cfg.Monitoring.Sources[0].PollInterval != 30*time.Minute {
		t.Errorf("poll interval = %v", cfg.Monitoring.Sources[0].PollInterval)
	}
	// Defaults still fill the rest.
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port default missing: %d", cfg.Database.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/grantscope.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
