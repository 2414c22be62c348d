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
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.RunTag != "BM25" {
		t.Errorf("RunTag = %q, want BM25", cfg.Search.RunTag)
	}
	if cfg.Search.MaxResults != 1000 {
		t.Errorf("MaxResults = %d, want 1000", cfg.Search.MaxResults)
	}
	if cfg.Indexer.Stem {
		t.Error("stemming should be off by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
indexer:
  dataDir: /tmp/latimes_index
  stem: true
search:
  runTag: bm25-stem
  maxResults: 500
redis:
  enabled: true
  cacheTTL: 10m
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BM_SEARCH_MAX_RESULTS", "250")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Indexer.DataDir != "/tmp/latimes_index" || !cfg.Indexer.Stem {
		t.Errorf("indexer = %+v", cfg.Indexer)
	}
	if cfg.Search.RunTag != "bm25-stem" {
		t.Errorf("RunTag = %q", cfg.Search.RunTag)
	}
	if cfg.Search.MaxResults != 250 {
		t.Errorf("env override ignored: MaxResults = %d", cfg.Search.MaxResults)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 10*time.Minute {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unset field lost its default: %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }},
		{"run tag with space", func(c *Config) { c.Search.RunTag = "bm 25" }},
		{"empty run tag", func(c *Config) { c.Search.RunTag = "" }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
