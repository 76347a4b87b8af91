// Package common wires the shared dependencies used by every command:
// configuration, logging, metrics, the fetch adapter, the extraction
// pipeline, and the crawl engine.
package common

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/config"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/crawl"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/extract"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/fetch"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/inference"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/metrics"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/storage"
)

// Deps bundles the dependencies constructed once per process.
type Deps struct {
	Config  *config.Config
	Logger  logger.Interface
	Metrics *metrics.Metrics
	Engine  *crawl.Engine
	// Indexer is nil unless Elasticsearch is configured.
	Indexer *storage.Indexer
	// closeFetcher releases browser resources when the headless adapter
	// is in use.
	closeFetcher func()
}

// NewDeps loads configuration and builds the crawl engine. The Anthropic
// inferencer is constructed only when an API key is present; crawls that
// request model extraction without one fail with a configuration error
// before any fetch.
func NewDeps(cfgFile string, debug bool) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	log := logger.New(logger.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
	})

	m := metrics.New(prometheus.DefaultRegisterer)

	d := &Deps{Config: cfg, Logger: log, Metrics: m}

	var fetcher fetch.Fetcher
	if cfg.Crawl.Headless {
		browser, berr := fetch.NewBrowserFetcher(true, log)
		if berr != nil {
			return nil, fmt.Errorf("start headless browser: %w", berr)
		}
		fetcher = browser
		d.closeFetcher = browser.Close
	} else {
		fetcher = fetch.NewHTTPFetcher(fetch.HTTPFetcherConfig{
			UserAgent:     cfg.Crawl.UserAgent,
			RespectRobots: cfg.Crawl.RespectRobots,
		}, log)
	}

	var extractor crawl.Extractor
	if cfg.Anthropic.APIKey != "" {
		inferencer, ierr := inference.NewAnthropicInferencer(inference.AnthropicConfig{
			APIKey: cfg.Anthropic.APIKey,
			Model:  cfg.Anthropic.Model,
		}, log)
		if ierr != nil {
			return nil, fmt.Errorf("configure inferencer: %w", ierr)
		}
		extractor = extract.NewPipeline(inferencer, log, extract.PipelineOptions{
			InferTimeout: cfg.Anthropic.Timeout,
		})
	}

	d.Engine = crawl.New(fetcher, extractor, log, m, crawl.Config{
		Headless:     cfg.Crawl.Headless,
		FetchTimeout: cfg.Crawl.FetchTimeout,
		Delay:        cfg.Crawl.Delay,
	})

	if cfg.Elasticsearch.Enabled() {
		indexer, serr := storage.NewIndexer(cfg.Elasticsearch, log)
		if serr != nil {
			return nil, fmt.Errorf("configure elasticsearch indexer: %w", serr)
		}
		d.Indexer = indexer
	}

	return d, nil
}

// Close releases process-wide resources.
func (d *Deps) Close() {
	if d.closeFetcher != nil {
		d.closeFetcher()
	}
}
