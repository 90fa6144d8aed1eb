// Package cache stores complete scan results keyed by a fingerprint of
// the requested URL, with lazy time-based expiry. The fingerprint hashes
// the raw input string, not the normalized form, so "example.com" and
// "https://example.com" occupy separate entries.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"safelink-scanner/internal/models"
)

// Store is the cache contract the pipeline depends on. Implementations
// must treat entries older than their TTL as absent.
type Store interface {
	Get(rawURL string) (*models.ScanResult, bool)
	Set(rawURL string, result *models.ScanResult) error
	EvictExpired() int
}

type entry struct {
	CreatedAt int64             `json:"ts"`
	Result    models.ScanResult `json:"result"`
}

// Fingerprint returns the hex-encoded SHA-256 of the raw URL string.
func Fingerprint(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// FileStore persists the cache as a single JSON object, loaded fully on
// each operation and rewritten fully on each mutation. Writes go
// through a temp file and rename so readers never see a partial file.
// One FileStore must be the only writer of its path.
type FileStore struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	now  func() time.Time
}

func NewFileStore(path string, ttl time.Duration) *FileStore {
	return &FileStore{path: path, ttl: ttl, now: time.Now}
}

// Get returns the stored result for rawURL, evicting it first when the
// TTL has elapsed. Expiry is only ever checked here: there is no
// background sweep.
func (s *FileStore) Get(rawURL string) (*models.ScanResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	key := Fingerprint(rawURL)
	e, ok := entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Unix()-e.CreatedAt > int64(s.ttl.Seconds()) {
		delete(entries, key)
		_ = s.save(entries)
		return nil, false
	}
	return &e.Result, true
}

// Set stores the result under the fingerprint of rawURL and persists
// immediately.
func (s *FileStore) Set(rawURL string, result *models.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries[Fingerprint(rawURL)] = entry{CreatedAt: s.now().Unix(), Result: *result}
	return s.save(entries)
}

// EvictExpired removes every stale entry and reports how many were
// dropped.
func (s *FileStore) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	cutoff := s.now().Unix() - int64(s.ttl.Seconds())
	removed := 0
	for key, e := range entries {
		if e.CreatedAt < cutoff {
			delete(entries, key)
			removed++
		}
	}
	if removed > 0 {
		_ = s.save(entries)
	}
	return removed
}

func (s *FileStore) load() map[string]entry {
	entries := map[string]entry{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt cache file is recoverable: every entry can be
		// recomputed, so start over rather than fail the scan.
		return map[string]entry{}
	}
	return entries
}

func (s *FileStore) save(entries map[string]entry) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "scans-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// MemoryStore keeps entries in-process. Used by tests and deployments
// that do not want a cache file.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: map[string]entry{}}
}

func (s *MemoryStore) Get(rawURL string) (*models.ScanResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Fingerprint(rawURL)
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Unix()-e.CreatedAt > int64(s.ttl.Seconds()) {
		delete(s.entries, key)
		return nil, false
	}
	result := e.Result
	return &result, true
}

func (s *MemoryStore) Set(rawURL string, result *models.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Fingerprint(rawURL)] = entry{CreatedAt: s.now().Unix(), Result: *result}
	return nil
}

func (s *MemoryStore) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Unix() - int64(s.ttl.Seconds())
	removed := 0
	for key, e := range s.entries {
		if e.CreatedAt < cutoff {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
