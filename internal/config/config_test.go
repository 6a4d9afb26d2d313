package config

import "testing"

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"SERVER_PORT":  "9001",
		"METRICS_HOST": "127.0.0.1",
		"METRICS_PORT": "9100",
	})
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumShards != DefaultNumShards {
		t.Fatalf("NumShards = %d, want %d", cfg.NumShards, DefaultNumShards)
	}
	if cfg.EnableCompression != true {
		t.Fatalf("EnableCompression = %v, want true by default", cfg.EnableCompression)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setEnv(t, map[string]string{})
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SERVER_PORT/METRICS_HOST/METRICS_PORT are unset")
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"SERVER_PORT":        "9001",
		"METRICS_HOST":       "127.0.0.1",
		"METRICS_PORT":       "9100",
		"NUM_SHARDS":         "4",
		"ENABLE_COMPRESSION": "false",
	})
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumShards != 4 {
		t.Fatalf("NumShards = %d, want 4", cfg.NumShards)
	}
	if cfg.EnableCompression {
		t.Fatalf("EnableCompression = true, want false")
	}
}

func TestLoadInvalidNumShards(t *testing.T) {
	setEnv(t, map[string]string{
		"SERVER_PORT":  "9001",
		"METRICS_HOST": "127.0.0.1",
		"METRICS_PORT": "9100",
		"NUM_SHARDS":   "not-a-number",
	})
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid NUM_SHARDS")
	}
}
