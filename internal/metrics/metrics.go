// Package metrics provides Prometheus instrumentation for crawl runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the crawl counters. A nil *Metrics is valid and records
// nothing, so instrumentation stays optional in tests.
type Metrics struct {
	crawlsStarted    prometheus.Counter
	pagesFetched     prometheus.Counter
	fetchErrors      prometheus.Counter
	inferenceErrors  prometheus.Counter
	recordsExtracted prometheus.Counter
	crawlDuration    prometheus.Histogram
}

// New registers and returns crawl metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		crawlsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scraper",
			Name:      "crawls_started_total",
			Help:      "Number of crawl invocations started.",
		}),
		pagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scraper",
			Name:      "pages_fetched_total",
			Help:      "Number of pages fetched successfully.",
		}),
		fetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scraper",
			Name:      "fetch_errors_total",
			Help:      "Number of page fetches that failed.",
		}),
		inferenceErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scraper",
			Name:      "inference_errors_total",
			Help:      "Number of pages whose model extraction failed.",
		}),
		recordsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scraper",
			Name:      "records_extracted_total",
			Help:      "Number of structured records extracted.",
		}),
		crawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scraper",
			Name:      "crawl_duration_seconds",
			Help:      "Wall-clock duration of crawl invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}
}

// CrawlStarted records the start of a crawl invocation.
func (m *Metrics) CrawlStarted() {
	if m == nil {
		return
	}
	m.crawlsStarted.Inc()
}

// PageFetched records a successful page fetch.
func (m *Metrics) PageFetched() {
	if m == nil {
		return
	}
	m.pagesFetched.Inc()
}

// FetchError records a failed page fetch.
func (m *Metrics) FetchError() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

// InferenceError records a page whose extraction failed.
func (m *Metrics) InferenceError() {
	if m == nil {
		return
	}
	m.inferenceErrors.Inc()
}

// RecordsExtracted records n extracted records.
func (m *Metrics) RecordsExtracted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsExtracted.Add(float64(n))
}

// CrawlFinished records the duration of a completed crawl in seconds.
func (m *Metrics) CrawlFinished(seconds float64) {
	if m == nil {
		return
	}
	m.crawlDuration.Observe(seconds)
}
