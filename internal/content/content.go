// Package content defines the data model shared by the fetch, extraction,
// and crawl packages: fetched pages, typed extraction records, and the
// aggregated result of one crawl.
package content

import (
	"time"
)

// Type identifies the kind of content expected on a page. It selects the
// extraction schema and instructions used to prompt the language model.
type Type string

const (
	// TypeArticle represents article or blog-post content.
	TypeArticle Type = "article"
	// TypeProduct represents product detail content.
	TypeProduct Type = "product"
	// TypeListing represents listing or search-result content.
	TypeListing Type = "listing"
	// TypeProfile represents contact or profile content.
	TypeProfile Type = "profile"
	// TypeUnknown represents content with no known structure. It maps to a
	// generic free-form schema.
	TypeUnknown Type = "unknown"
)

// ParseType converts a string to a content Type. Unrecognized or empty
// values map to TypeUnknown.
func ParseType(s string) Type {
	switch Type(s) {
	case TypeArticle, TypeProduct, TypeListing, TypeProfile:
		return Type(s)
	default:
		return TypeUnknown
	}
}

// Valid reports whether t is one of the closed enumeration values.
func (t Type) Valid() bool {
	switch t {
	case TypeArticle, TypeProduct, TypeListing, TypeProfile, TypeUnknown:
		return true
	default:
		return false
	}
}

// Page is the result of fetching one URL. It is produced by a fetch
// adapter and treated as immutable afterwards. Pages are discarded after
// extraction; only derived records and URLs survive in the crawl result.
type Page struct {
	// URL is the normalized absolute URL the content was fetched from.
	URL string
	// Title is the page title, empty if none was found.
	Title string
	// RawContent is markdown or cleaned text suitable for model input.
	RawContent string
	// HTML is the raw page HTML. Optional; may be empty for adapters that
	// only produce cleaned text.
	HTML string
	// Links holds discovered URLs in document order. May be empty.
	Links []Link
	// FetchedAt records when the fetch completed.
	FetchedAt time.Time
	// StatusOK is false when the target responded but the fetch should be
	// treated as failed (non-2xx status, render error page).
	StatusOK bool
}

// Link is one hyperlink discovered on a page. Rel and Text carry the
// attributes pagination heuristics inspect.
type Link struct {
	URL  string
	Text string
	Rel  string
}

// Record is one structured item extracted from a page: a mapping from
// field name to value. Values are strings, numbers, booleans, nested
// mappings, or slices of the same.
type Record struct {
	// Fields holds the extracted values keyed by schema field name.
	Fields map[string]any `json:"fields"`
	// SourceURL identifies the page this record was extracted from. It is
	// provenance only; the page itself is not retained.
	SourceURL string `json:"sourceUrl"`
	// LinkField names the field whose value, if any, is a followable URL.
	// Empty when the record carries no link.
	LinkField string `json:"linkField,omitempty"`
}

// Links returns the followable URLs carried by the record's link field,
// in order. A string-valued field yields one URL; a list-valued field
// yields its string entries. Returns nil when the record has no usable
// link value.
func (r Record) Links() []string {
	if r.LinkField == "" {
		return nil
	}
	v, ok := r.Fields[r.LinkField]
	if !ok {
		return nil
	}
	switch link := v.(type) {
	case string:
		if link == "" {
			return nil
		}
		return []string{link}
	case []any:
		var out []string
		for _, item := range link {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return link
	}
	return nil
}

// CrawlResult is the queryable output of one crawl invocation. It is
// fully materialized before being returned to the caller.
type CrawlResult struct {
	// Records holds all extracted records in discovery order: seed page
	// first, then pagination pages in page order, then link-followed pages
	// in link-discovery order.
	Records []Record `json:"records"`
	// VisitedURLs lists each normalized URL fetched during the crawl, at
	// most once, in visit order.
	VisitedURLs []string `json:"visitedUrls"`
	// Truncated is true iff a configured bound (max pages, max links, max
	// depth) or cancellation stopped the crawl before natural termination.
	Truncated bool `json:"truncated"`
}
