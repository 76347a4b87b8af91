// Package crawl implements the crawl orchestration engine: the
// pagination controller, the deep-link traversal engine, and the
// orchestrator that composes them into one bounded traversal per
// invocation.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/extract"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/fetch"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/metrics"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/urlutil"
)

// DefaultDelay is the minimum delay between consecutive fetches when
// neither the engine config nor the options override it.
const DefaultDelay = 1 * time.Second

// contentPreviewLength bounds the content preview in summary records
// produced without model extraction.
const contentPreviewLength = 500

// errPageNotOK marks a fetch that responded but must be treated as
// failed. It never escapes the engine.
var errPageNotOK = errors.New("page fetch returned not-ok status")

// Extractor turns one fetched page into structured records. Satisfied by
// *extract.Pipeline.
type Extractor interface {
	Extract(
		ctx context.Context,
		page *content.Page,
		ct content.Type,
		custom *extract.Schema,
		customInstructions string,
	) ([]content.Record, error)
}

// Config holds engine-level settings shared by all invocations.
type Config struct {
	// Headless is passed through to browser-backed fetch adapters.
	Headless bool
	// FetchTimeout bounds each page fetch.
	FetchTimeout time.Duration
	// Delay is the minimum delay between consecutive fetches within one
	// traversal. Zero means DefaultDelay.
	Delay time.Duration
}

// Engine composes the pagination controller and the deep-link traversal
// engine. The engine itself performs no fetching; it is composition and
// aggregation over the fetch and inference ports. Invocations are
// independent: all traversal state lives in a per-run value, so multiple
// Run calls may execute in parallel.
type Engine struct {
	fetcher   fetch.Fetcher
	extractor Extractor
	logger    logger.Interface
	metrics   *metrics.Metrics
	cfg       Config
}

// New creates a crawl engine. metrics may be nil.
func New(
	fetcher fetch.Fetcher,
	extractor Extractor,
	log logger.Interface,
	m *metrics.Metrics,
	cfg Config,
) *Engine {
	return &Engine{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    log.WithComponent("crawl"),
		metrics:   m,
		cfg:       cfg,
	}
}

// runState carries the traversal state for one invocation: the visited
// set, the rate limiter, and the resolved options. It is never shared
// across invocations.
type runState struct {
	engine  *Engine
	opts    Options
	visited *Visited
	limiter *rate.Limiter
	logger  logger.Interface
}

// Run performs one bounded crawl from the seed URL and returns the fully
// materialized result. The only hard failure is a ConfigurationError
// raised before any fetch; all fetch and inference failures are
// recovered inside the traversal. Cancelling ctx stops the traversal and
// returns the partial result with Truncated=true.
func (e *Engine) Run(ctx context.Context, seedURL string, opts Options) (*content.CrawlResult, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.UseLLM && e.extractor == nil {
		return nil, &ConfigurationError{Reason: "model extraction requested but no inferencer is configured"}
	}

	seed, err := urlutil.Normalize(seedURL)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid seed URL %q: %v", seedURL, err)}
	}

	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	delay := opts.Delay
	if delay <= 0 {
		delay = e.cfg.Delay
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	run := &runState{
		engine:  e,
		opts:    opts,
		visited: NewVisited(),
		// Burst 1 leaves the first fetch undelayed.
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		logger:  e.logger.With("session_id", opts.SessionID),
	}

	e.metrics.CrawlStarted()
	start := time.Now()
	defer func() {
		e.metrics.CrawlFinished(time.Since(start).Seconds())
	}()

	run.logger.Info("crawl started",
		"seed", seed,
		"llm", opts.UseLLM,
		"content_type", string(opts.ContentType),
		"pagination", opts.Pagination,
		"follow_links", opts.FollowLinks,
	)

	var records []content.Record
	truncated := false

	if opts.Pagination {
		records, truncated = run.paginate(ctx, seed)
	} else {
		_, records, err = run.visitAndExtract(ctx, seed)
		if err != nil && !errors.Is(err, errPageNotOK) && ctx.Err() == nil {
			run.logger.Warn("seed fetch failed", "url", seed, "error", err)
		}
	}

	if opts.FollowLinks && len(records) > 0 && ctx.Err() == nil {
		linked, linkTruncated := run.followLinks(ctx, records, 1)
		records = append(records, linked...)
		truncated = truncated || linkTruncated
	}

	if ctx.Err() != nil {
		truncated = true
	}

	run.logger.Info("crawl finished",
		"records", len(records),
		"visited", len(run.visited.URLs()),
		"truncated", truncated,
	)

	return &content.CrawlResult{
		Records:     records,
		VisitedURLs: run.visited.URLs(),
		Truncated:   truncated,
	}, nil
}

// visitAndExtract applies the rate limit, marks the URL visited, fetches
// it, and extracts records. Fetch and extraction failures are recovered
// here: the returned error reports them for the caller's termination
// decisions, but the traversal continues.
func (r *runState) visitAndExtract(ctx context.Context, url string) (*content.Page, []content.Record, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	r.visited.Add(url)

	page, err := r.engine.fetcher.Fetch(ctx, url, fetch.Config{
		Headless:    r.engine.cfg.Headless,
		CSSSelector: r.opts.CSSSelector,
		SessionID:   r.opts.SessionID,
		Timeout:     r.engine.cfg.FetchTimeout,
	})
	if err != nil {
		r.engine.metrics.FetchError()
		r.logger.Warn("fetch failed", "url", url, "error", err)
		return nil, nil, err
	}
	if !page.StatusOK {
		r.engine.metrics.FetchError()
		r.logger.Warn("fetch returned not-ok page", "url", url)
		return page, nil, errPageNotOK
	}
	r.engine.metrics.PageFetched()

	records := r.extractRecords(ctx, page)
	return page, records, nil
}

// extractRecords produces records for one fetched page. Without model
// extraction each page yields a single summary record. A model failure
// yields zero records and never propagates.
func (r *runState) extractRecords(ctx context.Context, page *content.Page) []content.Record {
	if !r.opts.UseLLM {
		return []content.Record{summaryRecord(page)}
	}

	records, err := r.engine.extractor.Extract(
		ctx, page, r.opts.ContentType, r.opts.CustomSchema, r.opts.Instructions,
	)
	if err != nil {
		r.engine.metrics.InferenceError()
		r.logger.Warn("extraction failed, continuing", "url", page.URL, "error", err)
		return nil
	}

	r.engine.metrics.RecordsExtracted(len(records))
	return records
}

// summaryRecord is the non-LLM fallback: one record describing the page.
func summaryRecord(page *content.Page) content.Record {
	preview := page.RawContent
	if len(preview) > contentPreviewLength {
		preview = preview[:contentPreviewLength] + "..."
	}
	return content.Record{
		Fields: map[string]any{
			"title":           page.Title,
			"url":             page.URL,
			"content_length":  len(page.RawContent),
			"content_preview": preview,
		},
		SourceURL: page.URL,
	}
}
