package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"safelink-scanner/internal/models"
)

func sampleResult(url string) *models.ScanResult {
	return &models.ScanResult{
		URL: url,
		Risk: models.RiskReport{
			Score:   33,
			Verdict: models.VerdictSuspicious,
		},
	}
}

func TestFingerprintIsRawInputHash(t *testing.T) {
	a := Fingerprint("example.com")
	b := Fingerprint("https://example.com")
	if a == b {
		t.Fatal("raw and normalized spellings must produce distinct keys")
	}
	if a != Fingerprint("example.com") {
		t.Fatal("fingerprint must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("want hex sha256, got %q", a)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s := NewFileStore(path, 12*time.Hour)

	if _, ok := s.Get("https://example.com"); ok {
		t.Fatal("empty store must miss")
	}
	want := sampleResult("https://example.com")
	if err := s.Set("https://example.com", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := s.Get("https://example.com")
	if !ok {
		t.Fatal("want hit after set")
	}
	if got.URL != want.URL || got.Risk.Score != want.Risk.Score {
		t.Fatalf("payload mismatch: %+v", got)
	}

	// survives a fresh store on the same file
	reopened := NewFileStore(path, 12*time.Hour)
	if _, ok := reopened.Get("https://example.com"); !ok {
		t.Fatal("entry must persist across store instances")
	}
}

func TestFileStoreExpiresLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s := NewFileStore(path, 12*time.Hour)

	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	if err := s.Set("https://example.com", sampleResult("https://example.com")); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(12*time.Hour - time.Minute)
	if _, ok := s.Get("https://example.com"); !ok {
		t.Fatal("entry inside TTL must hit")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := s.Get("https://example.com"); ok {
		t.Fatal("entry past TTL must miss")
	}

	// the expired entry was evicted from the persisted file, not merely hidden
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	if string(data) != "{}" {
		t.Fatalf("expected persisted eviction, file: %s", data)
	}
}

func TestFileStoreEvictExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s := NewFileStore(path, time.Hour)

	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	_ = s.Set("a.com", sampleResult("a.com"))
	_ = s.Set("b.com", sampleResult("b.com"))
	now = now.Add(2 * time.Hour)
	_ = s.Set("c.com", sampleResult("c.com"))

	if removed := s.EvictExpired(); removed != 2 {
		t.Fatalf("want 2 evictions, got %d", removed)
	}
	if _, ok := s.Get("c.com"); !ok {
		t.Fatal("fresh entry must survive the sweep")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	_ = s.Set("example.com", sampleResult("https://example.com"))
	if _, ok := s.Get("example.com"); !ok {
		t.Fatal("want hit")
	}
	now = now.Add(2 * time.Hour)
	if _, ok := s.Get("example.com"); ok {
		t.Fatal("want miss after TTL")
	}
}
