// Package fetch defines the fetch port used by the crawl engine and its
// adapters. An adapter retrieves one page's content; it performs no
// traversal decisions of its own.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
)

// DefaultTimeout bounds a single page fetch when the config does not
// override it.
const DefaultTimeout = 30 * time.Second

// Config holds per-fetch options. The zero value is usable.
type Config struct {
	// Headless selects headless rendering for browser-backed adapters.
	Headless bool
	// CSSSelector scopes raw content extraction to matching elements.
	CSSSelector string
	// SessionID selects a reusable session (cookies, browser tab state)
	// across fetches within one traversal. An adapter must not be shared
	// by two traversals using the same session ID concurrently.
	SessionID string
	// Timeout bounds the fetch. Zero means DefaultTimeout.
	Timeout time.Duration
}

// EffectiveTimeout returns the configured timeout or the default.
func (c Config) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Fetcher retrieves the content of a single URL. Implementations return
// a Page with StatusOK=false for pages that respond but should be
// treated as failed, and an *Error for network or render failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string, cfg Config) (*content.Page, error)
}

// Error reports a network or render failure for one URL. Callers recover
// it at the scope of that URL and continue the traversal.
type Error struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
