package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultArchive != "euclid" {
		t.Errorf("DefaultArchive = %q, want euclid", cfg.DefaultArchive)
	}
	if cfg.DownloadDir != "downloads" {
		t.Errorf("DownloadDir = %q, want downloads", cfg.DownloadDir)
	}
	if cfg.MaxParallel != 4 {
		t.Errorf("MaxParallel = %d, want 4", cfg.MaxParallel)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &Config{
		DefaultArchive: "mast",
		DownloadDir:    "/tmp/products",
		MaxParallel:    8,
		Servers: map[string]string{
			"euclid": "http://localhost:8080/tap",
		},
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultArchive != "mast" || loaded.MaxParallel != 8 {
		t.Errorf("loaded = %+v", loaded)
	}
	if got := loaded.ServerFor("euclid"); got != "http://localhost:8080/tap" {
		t.Errorf("ServerFor(euclid) = %q", got)
	}
	if got := loaded.ServerFor("simbad"); got != "" {
		t.Errorf("ServerFor(simbad) = %q, want empty", got)
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".voquery")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	// partial config: only the archive is set
	content := `{"default_archive": "simbad"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultArchive != "simbad" {
		t.Errorf("DefaultArchive = %q, want simbad", cfg.DefaultArchive)
	}
	if cfg.DownloadDir != "downloads" || cfg.MaxParallel != 4 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".voquery")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
