package crawl

import (
	"context"
	"strconv"
	"strings"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/extract"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/urlutil"
)

// nextPageLexicon matches anchor text that announces a next page.
var nextPageLexicon = map[string]struct{}{
	"next":        {},
	"next page":   {},
	"next »":      {},
	"older":       {},
	"older posts": {},
	"more":        {},
	">":           {},
	"»":           {},
	"›":           {},
}

// paginate drives a sequence of same-site page fetches from the seed URL
// until a termination condition: the page bound, no next-page candidate,
// a failed fetch, a no-results page, or a cycle. It returns all records
// accumulated so far; a reached bound or detected failure is never fatal
// to already-collected pages.
func (r *runState) paginate(ctx context.Context, seed string) ([]content.Record, bool) {
	var all []content.Record
	current := seed
	pageIndex := 1

	for fetched := 0; ; {
		if ctx.Err() != nil {
			return all, true
		}

		page, records, err := r.visitAndExtract(ctx, current)
		if err != nil {
			// A failed fetch ends pagination; prior pages survive.
			return all, true
		}
		fetched++

		if extract.NoResults(page.RawContent) {
			r.logger.Debug("no-results page, ending pagination", "url", current, "page", pageIndex)
			return all, false
		}

		all = append(all, records...)

		next := r.nextPageURL(page, pageIndex)
		if next == "" {
			return all, false
		}
		if r.visited.Has(next) {
			r.logger.Debug("pagination cycle detected", "url", next)
			return all, false
		}
		if fetched >= r.opts.MaxPages {
			r.logger.Debug("page bound reached with next page available",
				"max_pages", r.opts.MaxPages, "next", next)
			return all, true
		}

		current = next
		pageIndex++
	}
}

// nextPageURL decides the next page: first an explicit next link on the
// page (rel="next", then a next-page lexicon match on anchor text), then
// the caller-supplied URL template with the incremented page index.
// Returns empty when no candidate exists.
func (r *runState) nextPageURL(page *content.Page, pageIndex int) string {
	for _, link := range page.Links {
		if relContains(link.Rel, "next") {
			return link.URL
		}
	}
	for _, link := range page.Links {
		if _, ok := nextPageLexicon[strings.ToLower(strings.TrimSpace(link.Text))]; ok {
			return link.URL
		}
	}

	if r.opts.PageTemplate != "" {
		raw := strings.ReplaceAll(r.opts.PageTemplate, pageToken, strconv.Itoa(pageIndex+1))
		next, err := urlutil.Normalize(raw)
		if err != nil {
			r.logger.Warn("page template produced invalid URL", "url", raw, "error", err)
			return ""
		}
		return next
	}

	return ""
}

// relContains matches a space-separated rel attribute value.
func relContains(rel, want string) bool {
	for _, part := range strings.Fields(strings.ToLower(rel)) {
		if part == want {
			return true
		}
	}
	return false
}
