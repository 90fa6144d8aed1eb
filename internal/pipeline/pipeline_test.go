package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"safelink-scanner/internal/cache"
	"safelink-scanner/internal/config"
	"safelink-scanner/internal/models"
	"safelink-scanner/internal/risk"
	"safelink-scanner/internal/urlnorm"
	"safelink-scanner/pkg/logger"
)

const loginPage = `<html><head><title>Account Login</title></head><body>
<form method="post" action="/do-login">
<input type="text" name="user"><input type="password" name="pass">
</form>
<p>Please login to verify your account.</p>
</body></html>`

func newTestPipeline(store cache.Store) *Pipeline {
	return New(config.Default(), store, logger.New())
}

func TestScanEndToEnd(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			hits++
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(loginPage))
	}))
	defer ts.Close()

	store := cache.NewMemoryStore(time.Hour)
	p := newTestPipeline(store)

	result, cached, err := p.Scan(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if cached {
		t.Fatal("first scan cannot be a cache hit")
	}
	if result.Extracted.Title != "Account Login" {
		t.Fatalf("title: %q", result.Extracted.Title)
	}
	if len(result.Extracted.Forms) != 1 || !result.Extracted.Forms[0].HasPassword {
		t.Fatalf("forms: %+v", result.Extracted.Forms)
	}
	if result.Risk.Score <= 0 {
		t.Fatalf("a credential form plus keywords must score above zero: %+v", result.Risk)
	}
	if result.Risk.Verdict == "" {
		t.Fatal("verdict must always be set")
	}

	again, cached, err := p.Scan(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if !cached {
		t.Fatal("second scan must be served from cache")
	}
	if again.Risk.Score != result.Risk.Score {
		t.Fatalf("cached payload differs: %v vs %v", again.Risk.Score, result.Risk.Score)
	}
	if hits != 1 {
		t.Fatalf("cache hit must not refetch, got %d GETs", hits)
	}
}

func TestScanRejectsInvalidURL(t *testing.T) {
	p := newTestPipeline(cache.NewMemoryStore(time.Hour))
	_, _, err := p.Scan(context.Background(), "not a url")
	if !errors.Is(err, urlnorm.ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
}

func TestScanDegradesOnFetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := ts.URL
	ts.Close()

	p := newTestPipeline(cache.NewMemoryStore(time.Hour))
	result, _, err := p.Scan(context.Background(), target)
	if err != nil {
		t.Fatalf("a fetch failure is not a scan error: %v", err)
	}
	if result.Fetch.Get.Error == "" {
		t.Fatal("transport failure must be recorded on the fetch result")
	}
	if len(result.Extracted.Links) != 0 || result.Extracted.Title != "" {
		t.Fatalf("features must default to empty: %+v", result.Extracted)
	}
	// Fetch failure itself is score-neutral; the degraded inputs carry
	// no signals here beyond the scheme.
	if result.Risk.Verdict != models.VerdictSafe {
		t.Fatalf("want SAFE over empty inputs, got %+v", result.Risk)
	}
}

type staticReputation struct {
	signal risk.ReputationSignal
}

func (s *staticReputation) Lookup(ctx context.Context, url string) (*risk.ReputationSignal, error) {
	return &s.signal, nil
}

func TestScanFoldsReputationSignal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer ts.Close()

	p := newTestPipeline(cache.NewMemoryStore(time.Hour))
	p.Reputation = &staticReputation{signal: risk.ReputationSignal{ThreatMatch: true}}

	result, _, err := p.Scan(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Risk.Components["reputation"] != 60 {
		t.Fatalf("threat match must add 60: %+v", result.Risk.Components)
	}
	// 60 from the threat match plus the loopback IP-host and plain-HTTP
	// penalties pushes the page into the dangerous band.
	if result.Risk.Verdict != models.VerdictDangerous {
		t.Fatalf("want DANGEROUS, got %s", result.Risk.Verdict)
	}
}

func TestSummarizeKeepsTopThreeExplanations(t *testing.T) {
	r := models.ScanResult{
		URL: "https://example.com",
		Risk: models.RiskReport{
			Explanations: []string{"a", "b", "c", "d", "e"},
		},
	}
	s := r.Summarize()
	if len(s.Explanations) != 3 {
		t.Fatalf("want 3 explanations, got %v", s.Explanations)
	}
	if !strings.HasPrefix(s.Status, "ok") {
		t.Fatalf("status: %q", s.Status)
	}
}
