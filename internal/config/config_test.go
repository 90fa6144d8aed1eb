package config

import (
	"testing"
	"time"
)

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SAFELINK_FETCH_TIMEOUT_SEC", "3")
	t.Setenv("SAFELINK_MAX_BODY_BYTES", "2048")
	t.Setenv("SAFELINK_CACHE_PATH", "/tmp/scans.json")

	cfg := FromEnv()
	if cfg.FetchTimeout != 3*time.Second {
		t.Fatalf("timeout override: %v", cfg.FetchTimeout)
	}
	if cfg.MaxBodyBytes != 2048 {
		t.Fatalf("body cap override: %v", cfg.MaxBodyBytes)
	}
	if cfg.CachePath != "/tmp/scans.json" {
		t.Fatalf("cache path override: %v", cfg.CachePath)
	}
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SAFELINK_FETCH_TIMEOUT_SEC", "soon")
	t.Setenv("SAFELINK_MAX_BODY_BYTES", "-1")

	cfg := FromEnv()
	def := Default()
	if cfg.FetchTimeout != def.FetchTimeout || cfg.MaxBodyBytes != def.MaxBodyBytes {
		t.Fatalf("malformed overrides must keep defaults: %+v", cfg)
	}
}
