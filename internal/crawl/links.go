package crawl

import (
	"context"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/urlutil"
)

// followLinks fetches pages referenced by the input records' link
// fields, up to MaxLinksPerPage per record, recursing until MaxDepth
// link-hops from the seed. Candidates are taken in record order,
// depth-first: a linked page's own records are expanded before the next
// sibling link. Already-visited and unnormalizable URLs are skipped.
// A single linked-page failure is logged and skipped; it does not abort
// sibling link processing.
//
// The second return value reports whether a bound (depth or fan-out)
// cut the expansion short.
func (r *runState) followLinks(ctx context.Context, records []content.Record, depth int) ([]content.Record, bool) {
	if len(records) == 0 {
		return nil, false
	}
	if depth > r.opts.MaxDepth {
		// Terminal: truncation is only reported when there was something
		// left to follow.
		for _, rec := range records {
			if len(rec.Links()) > 0 {
				return nil, true
			}
		}
		return nil, false
	}

	var out []content.Record
	truncated := false
	// Candidate dedup within this expansion; the visited set handles
	// cross-phase dedup once a fetch is attempted.
	selected := make(map[string]struct{})

	for _, rec := range records {
		followed := 0
		for _, raw := range rec.Links() {
			if ctx.Err() != nil {
				return out, true
			}

			link, err := urlutil.Resolve(rec.SourceURL, raw)
			if err != nil {
				r.logger.Debug("skipping unnormalizable link", "link", raw, "source", rec.SourceURL)
				continue
			}
			if r.visited.Has(link) {
				continue
			}
			if _, dup := selected[link]; dup {
				continue
			}
			if followed >= r.opts.MaxLinksPerPage {
				truncated = true
				break
			}
			selected[link] = struct{}{}
			followed++

			_, linkedRecords, err := r.visitAndExtract(ctx, link)
			if err != nil {
				// Logged in visitAndExtract; siblings continue.
				continue
			}
			out = append(out, linkedRecords...)

			children, childTruncated := r.followLinks(ctx, linkedRecords, depth+1)
			out = append(out, children...)
			truncated = truncated || childTruncated
		}
	}

	return out, truncated
}
