// Package urlnorm canonicalizes and validates user-supplied URLs before
// they enter the scan pipeline.
package urlnorm

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Validation failures. Callers match these with errors.Is and turn them
// into structured invalid responses; they are never fatal.
var (
	ErrInvalidFormat    = errors.New("invalid URL format")
	ErrUnsafeScheme     = errors.New("URL uses unsafe scheme")
	ErrDomainExtraction = errors.New("could not extract domain")
)

// hostPattern requires domain labels followed by a TLD-like suffix of at
// least two letters, an optional port and an optional path.
var hostPattern = regexp.MustCompile(`^(https?://)?[A-Za-z0-9.-]+\.[A-Za-z]{2,}(:\d+)?(/.*)?$`)

// ipv4Pattern admits dotted-quad hosts, which the TLD pattern cannot
// match but the scoring engine must still be able to see.
var ipv4Pattern = regexp.MustCompile(`^(https?://)?\d{1,3}(\.\d{1,3}){3}(:\d+)?(/.*)?$`)

// Normalize trims the input, prepends https:// when no scheme is
// present, and validates the result. It is idempotent: feeding its
// output back returns the same URL.
func Normalize(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}

	if !hostPattern.MatchString(u) && !ipv4Pattern.MatchString(u) {
		return "", ErrInvalidFormat
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return "", ErrInvalidFormat
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrUnsafeScheme
	}
	if RegistrableDomain(parsed.Hostname()) == "" {
		return "", ErrDomainExtraction
	}
	return u, nil
}

// RegistrableDomain returns the eTLD+1 for a hostname, or the hostname
// itself for dotted-quad addresses. Empty string when no registrable
// domain can be derived.
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return ""
	}
	if ipv4Pattern.MatchString(host) {
		return host
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return etld1
}
