// Package risk combines fetch metadata, extracted features and optional
// external-reputation signals into a 0-100 score, a three-tier verdict
// and human-readable explanations. Scoring is deterministic and
// side-effect-free: an ordered sequence of independent weighted checks.
package risk

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"safelink-scanner/internal/config"
	"safelink-scanner/internal/models"
)

// Verdict thresholds on the capped score.
const (
	dangerousThreshold  = 65
	suspiciousThreshold = 30
)

// ReputationSignal is the normalized output of a third-party reputation
// service. The engine folds it into the score but never fetches it.
type ReputationSignal struct {
	MaliciousCount  int  `json:"malicious_count"`
	SuspiciousCount int  `json:"suspicious_count"`
	ThreatMatch     bool `json:"threat_match"`
}

// ReputationProvider supplies an optional external signal for a URL.
// A nil provider, a lookup error or a nil signal all mean "no signal".
type ReputationProvider interface {
	Lookup(ctx context.Context, url string) (*ReputationSignal, error)
}

// Engine evaluates the heuristic rule set. The TLD set and keyword list
// are injected so deployments can tune them.
type Engine struct {
	suspiciousTLDs []string
	keywords       []string
}

func NewEngine(cfg config.Config) *Engine {
	return &Engine{
		suspiciousTLDs: cfg.SuspiciousTLDs,
		keywords:       cfg.SuspiciousKeywords,
	}
}

var ipHostRe = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// Score runs every rule in fixed order and sums the triggered penalties,
// capped at 100. Each triggered rule appends one explanation; the
// components map records the penalty each named rule contributed.
func (e *Engine) Score(fetch models.FetchResult, features models.ExtractedFeatures, normalizedURL string, rep *ReputationSignal) models.RiskReport {
	var (
		score        float64
		explanations []string
	)
	components := map[string]float64{}
	add := func(name string, penalty float64, explanation string) {
		components[name] = penalty
		if penalty > 0 {
			score += penalty
			if explanation != "" {
				explanations = append(explanations, explanation)
			}
		}
	}

	var hostname, scheme string
	if parsed, err := url.Parse(normalizedURL); err == nil {
		hostname = parsed.Hostname()
		scheme = parsed.Scheme
	}
	domain := hostname

	// 1) External reputation signals, additive before the global cap.
	apiPenalty := reputationPenalty(rep)
	var apiExplanation string
	if apiPenalty > 0 {
		apiExplanation = fmt.Sprintf("External threat services flagged: penalty %.0f", apiPenalty)
	}
	add("reputation", apiPenalty, apiExplanation)

	// 2) Redirect chain length, the longer of the HEAD and GET chains.
	redirectCount := len(fetch.Head.Redirects)
	if n := len(fetch.Get.Redirects); n > redirectCount {
		redirectCount = n
	}
	switch {
	case redirectCount >= 3:
		add("redirects", 12, fmt.Sprintf("Redirect chain length %d (suspicious)", redirectCount))
	case redirectCount == 2:
		add("redirects", 6, fmt.Sprintf("Redirect chain length %d", redirectCount))
	default:
		add("redirects", 0, "")
	}

	// 3) Host shape.
	if IsIPHost(hostname) {
		add("ip_host", 15, "URL uses numeric IP address (suspicious)")
	} else {
		add("ip_host", 0, "")
	}
	if e.tldIsSuspicious(hostname) {
		labels := strings.Split(hostname, ".")
		add("suspicious_tld", 8, fmt.Sprintf("Suspicious TLD (%s)", labels[len(labels)-1]))
	} else {
		add("suspicious_tld", 0, "")
	}

	// 4) Forms / credential harvesting risk.
	formCount := len(features.Forms)
	if formCount > 0 {
		add("forms", math.Min(20, float64(formCount)*6),
			fmt.Sprintf("Found %d form(s) (could request credentials)", formCount))
	} else {
		add("forms", 0, "")
	}

	// 5) External scripts and iframes.
	scriptRatio := ExternalScriptRatio(features.Scripts, domain)
	if scriptRatio > 0.6 {
		add("external_scripts", 10, fmt.Sprintf("High external script ratio: %.2f", scriptRatio))
	} else {
		add("external_scripts", 0, "")
	}
	iframeCount := len(features.Iframes)
	if iframeCount > 0 {
		add("iframes", math.Min(12, float64(iframeCount)*6),
			fmt.Sprintf("Found %d iframe(s)", iframeCount))
	} else {
		add("iframes", 0, "")
	}

	// 6) External links ratio.
	linkRatio := ExternalLinksRatio(features.Links, domain)
	if linkRatio > 0.6 {
		add("external_links", 8, fmt.Sprintf("High external links ratio: %.2f", linkRatio))
	} else {
		add("external_links", 0, "")
	}

	// 7) Suspicious keywords in the page text.
	matches := e.keywordMatches(features.CleanText)
	if matches > 0 {
		add("keywords", math.Min(15, float64(matches)*3),
			fmt.Sprintf("Suspicious keywords found: %d", matches))
	} else {
		add("keywords", 0, "")
	}

	// 8) Plain HTTP.
	if scheme == "http" {
		add("http_scheme", 4, "Using HTTP (not HTTPS)")
	} else {
		add("http_scheme", 0, "")
	}

	// 9) Very small pages that still carry forms.
	if fetch.Get.Filesize < 200 && formCount > 0 {
		add("small_page", 8, "Very small page with forms (phishing-like)")
	} else {
		add("small_page", 0, "")
	}

	capped := math.Min(100, score)
	return models.RiskReport{
		Score:        math.Round(capped*10) / 10,
		Verdict:      verdictFor(capped),
		Components:   components,
		Explanations: explanations,
	}
}

// reputationPenalty normalizes external signals into a 0-100 penalty:
// each engine that flagged malicious weighs 20 (cap 50), suspicious 5
// (cap 20), and a boolean threat match adds 60.
func reputationPenalty(rep *ReputationSignal) float64 {
	if rep == nil {
		return 0
	}
	penalty := math.Min(50, float64(rep.MaliciousCount)*20)
	penalty += math.Min(20, float64(rep.SuspiciousCount)*5)
	if rep.ThreatMatch {
		penalty += 60
	}
	return math.Min(100, penalty)
}

func verdictFor(score float64) string {
	switch {
	case score >= dangerousThreshold:
		return models.VerdictDangerous
	case score >= suspiciousThreshold:
		return models.VerdictSuspicious
	default:
		return models.VerdictSafe
	}
}

// IsIPHost reports whether the hostname is a bare dotted-quad address.
func IsIPHost(hostname string) bool {
	return hostname != "" && ipHostRe.MatchString(hostname)
}

func (e *Engine) tldIsSuspicious(hostname string) bool {
	if hostname == "" || !strings.Contains(hostname, ".") {
		return false
	}
	lower := strings.ToLower(hostname)
	for _, tld := range e.suspiciousTLDs {
		if strings.HasSuffix(lower, tld) {
			return true
		}
	}
	return false
}

// ExternalScriptRatio is the share of script sources that are neither
// root-relative nor same-domain. Zero when there are no scripts.
func ExternalScriptRatio(scripts []string, domain string) float64 {
	if len(scripts) == 0 {
		return 0.0
	}
	external := 0
	for _, s := range scripts {
		if s != "" && !strings.HasPrefix(s, "/") && !strings.Contains(s, domain) {
			external++
		}
	}
	return float64(external) / float64(len(scripts))
}

// ExternalLinksRatio is the share of links whose host does not contain
// the page domain. Zero when there are no links; unparseable links do
// not count as external.
func ExternalLinksRatio(links []string, domain string) float64 {
	if len(links) == 0 {
		return 0.0
	}
	external := 0
	for _, l := range links {
		parsed, err := url.Parse(l)
		if err != nil {
			continue
		}
		host := parsed.Hostname()
		if host != "" && !strings.Contains(host, domain) {
			external++
		}
	}
	return float64(external) / float64(len(links))
}

// keywordMatches counts how many keywords occur in the text, each
// counted at most once, case-insensitive.
func (e *Engine) keywordMatches(text string) int {
	if text == "" {
		return 0
	}
	low := strings.ToLower(text)
	count := 0
	for _, kw := range e.keywords {
		if strings.Contains(low, kw) {
			count++
		}
	}
	return count
}
