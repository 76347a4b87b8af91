package crawl

import (
	"fmt"
	"strings"
	"time"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/extract"
)

// Default bounds applied when options leave them zero.
const (
	DefaultMaxPages        = 10
	DefaultMaxLinksPerPage = 3
	DefaultMaxDepth        = 1
)

// pageToken is the placeholder replaced by the page index in a
// pagination URL template.
const pageToken = "{page}"

// ConfigurationError reports invalid crawl options. It is the only error
// surfaced to the caller as a hard failure, and only before any fetch
// occurs.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "crawl configuration: " + e.Reason
}

// Options controls one crawl invocation.
type Options struct {
	// UseLLM enables model-backed structured extraction. When false, each
	// fetched page yields one summary record instead.
	UseLLM bool
	// ContentType selects the built-in extraction strategy.
	ContentType content.Type
	// CustomSchema, when non-nil, overrides the built-in schema.
	CustomSchema *extract.Schema
	// Instructions, when non-empty, overrides the built-in instructions.
	Instructions string
	// CSSSelector scopes raw content extraction on every fetched page.
	CSSSelector string

	// Pagination enables the pagination controller.
	Pagination bool
	// MaxPages bounds the number of pagination fetches. Zero means
	// DefaultMaxPages.
	MaxPages int
	// PageTemplate is an optional URL template containing "{page}",
	// used to construct the next page when no next link is found.
	PageTemplate string

	// FollowLinks enables deep-link traversal over extracted records.
	FollowLinks bool
	// MaxLinksPerPage bounds link fetches per input page. Zero means
	// DefaultMaxLinksPerPage.
	MaxLinksPerPage int
	// MaxDepth bounds link-following hops from the seed page. Pagination
	// does not count against it. Zero means DefaultMaxDepth.
	MaxDepth int

	// SessionID reuses a fetch session across this traversal. Empty
	// generates a fresh ID per invocation.
	SessionID string
	// Delay overrides the engine's minimum delay between fetches.
	Delay time.Duration
}

// withDefaults returns a copy with zero bounds replaced by defaults and
// the content type normalized.
func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.MaxLinksPerPage <= 0 {
		o.MaxLinksPerPage = DefaultMaxLinksPerPage
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if !o.ContentType.Valid() {
		o.ContentType = content.TypeUnknown
	}
	return o
}

// validate checks options that cannot be repaired by defaults. It runs
// before any fetch.
func (o Options) validate() error {
	if o.CustomSchema != nil {
		if err := o.CustomSchema.Validate(); err != nil {
			return err
		}
	}
	if o.PageTemplate != "" && !strings.Contains(o.PageTemplate, pageToken) {
		return &ConfigurationError{
			Reason: fmt.Sprintf("page template must contain %q: %s", pageToken, o.PageTemplate),
		}
	}
	return nil
}
