package urlutil_test

import (
	"testing"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/urlutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		// Scheme and host normalization
		{"lowercase scheme", "HTTP://Example.com/Path", "http://example.com/Path", false},
		{"lowercase host", "https://EXAMPLE.COM/path", "https://example.com/path", false},
		{"scheme preserved", "http://example.com/path", "http://example.com/path", false},

		// Port handling
		{"remove default https port", "https://example.com:443/path", "https://example.com/path", false},
		{"remove default http port", "http://example.com:80/path", "http://example.com/path", false},
		{"keep non-default port", "https://example.com:8080/path", "https://example.com:8080/path", false},

		// Path normalization
		{"remove trailing slash", "https://example.com/path/", "https://example.com/path", false},
		{"keep root slash", "https://example.com/", "https://example.com/", false},
		{"resolve dot segments", "https://example.com/a/b/../c", "https://example.com/a/c", false},
		{"resolve current dir segments", "https://example.com/a/./b", "https://example.com/a/b", false},

		// Fragment removal
		{"remove fragment", "https://example.com/path#section", "https://example.com/path", false},

		// Query parameter handling
		{"sort query params", "https://example.com/path?z=1&a=2", "https://example.com/path?a=2&z=1", false},
		{"strip utm params", "https://example.com/path?utm_source=twitter&id=1", "https://example.com/path?id=1", false},
		{"strip fbclid", "https://example.com/path?fbclid=abc123&id=1", "https://example.com/path?id=1", false},
		{"empty query after stripping", "https://example.com/path?utm_source=x", "https://example.com/path", false},

		// Error cases
		{"empty string", "", "", true},
		{"invalid url", "://not-a-url", "", true},
		{"missing scheme", "example.com/path", "", true},
		{"mailto rejected", "mailto:someone@example.com", "", true},
		{"javascript rejected", "javascript:void(0)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := urlutil.Normalize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/a/b/../c?z=1&a=2#frag",
		"HTTP://Example.com:80/Path/",
		"https://example.com/path?utm_source=x&id=7",
	}

	for _, input := range inputs {
		once, err := urlutil.Normalize(input)
		if err != nil {
			t.Fatalf("first pass failed for %q: %v", input, err)
		}
		twice, err := urlutil.Normalize(once)
		if err != nil {
			t.Fatalf("second pass failed for %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("normalization not idempotent: %q != %q", once, twice)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		href    string
		want    string
		wantErr bool
	}{
		{"relative path", "https://example.com/listing", "/items/42", "https://example.com/items/42", false},
		{"relative to dir", "https://example.com/a/b", "c", "https://example.com/a/c", false},
		{"absolute href wins", "https://example.com/x", "https://other.com/y", "https://other.com/y", false},
		{"strips fragment", "https://example.com/x", "/y#top", "https://example.com/y", false},
		{"empty href", "https://example.com/x", "", "", true},
		{"mailto href", "https://example.com/x", "mailto:a@b.c", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := urlutil.Resolve(tt.base, tt.href)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestSameHost(t *testing.T) {
	if !urlutil.SameHost("https://Example.com/a", "http://example.com:8080/b") {
		t.Error("expected same host ignoring case and port")
	}
	if urlutil.SameHost("https://example.com/a", "https://other.com/a") {
		t.Error("expected different hosts")
	}
}
