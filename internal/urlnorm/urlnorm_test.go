package urlnorm

import (
	"errors"
	"testing"
)

func TestNormalizePrependsScheme(t *testing.T) {
	got, err := Normalize("example.com")
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if got != "https://example.com" {
		t.Fatalf("want https://example.com, got %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"example.com", "  http://sub.example.co.uk/path?q=1 ", "https://example.org:8443/a"}
	for _, in := range inputs {
		first, err := Normalize(in)
		if err != nil {
			t.Fatalf("normalize %q: %v", in, err)
		}
		second, err := Normalize(first)
		if err != nil {
			t.Fatalf("re-normalize %q: %v", first, err)
		}
		if first != second {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, first, second)
		}
	}
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"not a url", ErrInvalidFormat},
		{"javascript:alert(1)", ErrInvalidFormat},
		{"ftp://example.com/file", ErrInvalidFormat},
		{"", ErrInvalidFormat},
		{"example", ErrInvalidFormat},
	}
	for _, c := range cases {
		_, err := Normalize(c.raw)
		if !errors.Is(err, c.want) {
			t.Errorf("Normalize(%q): want %v, got %v", c.raw, c.want, err)
		}
	}
}

func TestNormalizeAcceptsIPv4(t *testing.T) {
	got, err := Normalize("http://203.0.113.5/login")
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if got != "http://203.0.113.5/login" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestRegistrableDomain(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"www.example.com", "example.com"},
		{"a.b.example.co.uk", "example.co.uk"},
		{"203.0.113.5", "203.0.113.5"},
		{"", ""},
	}
	for _, c := range cases {
		if got := RegistrableDomain(c.host); got != c.want {
			t.Errorf("RegistrableDomain(%q): want %q, got %q", c.host, c.want, got)
		}
	}
}
