package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the tunable constants of the scanner. Every field has a
// fixed default and can be overridden through the environment.
type Config struct {
	ListenAddr   string
	UserAgent    string
	FetchTimeout time.Duration
	MaxBodyBytes int64
	MaxRedirects int
	CacheTTL     time.Duration
	CachePath    string

	SuspiciousTLDs     []string
	SuspiciousKeywords []string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		UserAgent:    "safelink-scanner/1.0 (+https://example.com)",
		FetchTimeout: 10 * time.Second,
		MaxBodyBytes: 1_000_000,
		MaxRedirects: 10,
		CacheTTL:     12 * time.Hour,
		CachePath:    "cache/scans.json",
		SuspiciousTLDs: []string{
			".xyz", ".top", ".click", ".ml", ".cf", ".ga", ".bid", ".pw",
		},
		SuspiciousKeywords: []string{
			"login", "verify", "account", "bank", "secure", "update", "signin", "password",
			"confirm", "ssn", "social", "credential", "change-password", "otp", "one-time",
		},
	}
}

// FromEnv returns the default configuration with environment overrides
// applied. Unset or malformed variables keep the default.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("SAFELINK_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SAFELINK_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("SAFELINK_FETCH_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SAFELINK_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("SAFELINK_CACHE_TTL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTL = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SAFELINK_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	return cfg
}
