package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Sim.JobLatency != 2*time.Second {
		t.Errorf("job latency = %s, want 2s", cfg.Sim.JobLatency)
	}
	if cfg.Sim.RowLimit != 1000 {
		t.Errorf("row limit = %d, want 1000", cfg.Sim.RowLimit)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapsim.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9090
log:
  level: debug
  format: json
sim:
  job_latency: 100ms
  row_limit: 50
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log config = %+v", cfg.Log)
	}
	if cfg.Sim.JobLatency != 100*time.Millisecond || cfg.Sim.RowLimit != 50 {
		t.Errorf("sim config = %+v", cfg.Sim)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VOQ_SERVER_PORT", "18080")
	t.Setenv("VOQ_SIM_ROW_LIMIT", "25")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 18080 {
		t.Errorf("port = %d, want 18080", cfg.Server.Port)
	}
	if cfg.Sim.RowLimit != 25 {
		t.Errorf("row limit = %d, want 25", cfg.Sim.RowLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative latency", func(c *Config) { c.Sim.JobLatency = -time.Second }},
		{"zero row limit", func(c *Config) { c.Sim.RowLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
