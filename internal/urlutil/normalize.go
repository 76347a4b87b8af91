// Package urlutil provides URL normalization and reference resolution.
// URLs are normalized before insertion into the visited set so that the
// same URL expressed differently produces the same string for
// deduplication.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// trackingParams lists query parameters stripped during normalization.
// These are advertising and analytics trackers that do not affect page
// content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
}

// defaultPorts maps schemes to their default port strings.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	errEmptyInput          = errors.New("normalize url: empty input")
	errUnsupportedScheme   = errors.New("normalize url: unsupported scheme")
	errMissingSchemeOrHost = errors.New("normalize url: missing scheme or host")
)

// Normalize applies deterministic transformations to an absolute URL so
// that equivalent URLs produce identical strings: lowercased scheme and
// host, default-port removal, dot-segment resolution, trailing-slash
// removal, fragment removal, sorted query parameters, and tracking
// parameter stripping. The scheme is preserved; normalized URLs are
// fetched, not only hashed.
func Normalize(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errEmptyInput
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errMissingSchemeOrHost
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: %s", errUnsupportedScheme, parsed.Scheme)
	}

	parsed.Host = normalizeHost(parsed)
	parsed.Fragment = ""
	parsed.RawQuery = buildCleanQuery(parsed.Query())
	parsed.Path = normalizePath(parsed.Path)

	return parsed.String(), nil
}

// Resolve resolves href against base and normalizes the result. It is
// used to turn relative links discovered on a page into followable
// absolute URLs.
func Resolve(baseURL, href string) (string, error) {
	if href == "" {
		return "", errEmptyInput
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("resolve url: parse base: %w", err)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("resolve url: parse href: %w", err)
	}

	return Normalize(base.ResolveReference(ref).String())
}

// SameHost reports whether two URLs share a hostname, ignoring case and
// ports. Malformed input counts as a different host.
func SameHost(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(ua.Hostname(), ub.Hostname())
}

// normalizeHost lowercases the hostname and removes the default port for
// the URL's scheme.
func normalizeHost(u *url.URL) string {
	hostname := strings.ToLower(u.Hostname())
	port := u.Port()

	if port == "" {
		return hostname
	}
	if defaultPort, ok := defaultPorts[u.Scheme]; ok && port == defaultPort {
		return hostname
	}
	return hostname + ":" + port
}

// buildCleanQuery strips tracking parameters, sorts the remaining keys
// alphabetically, and returns the encoded query string. Returns an empty
// string when no parameters remain after filtering.
func buildCleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))

	for key := range values {
		if _, isTracking := trackingParams[key]; !isTracking {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return ""
	}

	sort.Strings(keys)

	var b strings.Builder

	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}

		vals := values[key]
		for j, val := range vals {
			if j > 0 {
				b.WriteByte('&')
			}

			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}

	return b.String()
}

// normalizePath resolves dot-segments (/../, /./) and removes trailing
// slashes while preserving the root "/".
func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	cleaned := path.Clean(p)

	return strings.TrimRight(cleaned, "/")
}
