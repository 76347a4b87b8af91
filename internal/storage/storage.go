// Package storage indexes extraction records into Elasticsearch. It is
// optional plumbing behind the crawl result; a crawl never depends on
// indexing succeeding.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/config"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
)

// defaultIndexTimeout bounds one index request.
const defaultIndexTimeout = 30 * time.Second

// Indexer writes extraction records to an Elasticsearch index.
type Indexer struct {
	client *es.Client
	index  string
	logger logger.Interface
}

// indexedRecord is the document shape stored per record.
type indexedRecord struct {
	CrawlID   string         `json:"crawlId"`
	SourceURL string         `json:"sourceUrl"`
	Fields    map[string]any `json:"fields"`
	IndexedAt time.Time      `json:"indexedAt"`
}

// NewIndexer creates an indexer and verifies connectivity with a ping.
func NewIndexer(cfg config.ElasticsearchConfig, log logger.Interface) (*Indexer, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping: %s", res.String())
	}

	return &Indexer{
		client: client,
		index:  cfg.Index,
		logger: log.WithComponent("storage"),
	}, nil
}

// IndexRecords indexes every record of a crawl under a shared crawl ID.
// It stops at the first failing request.
func (ix *Indexer) IndexRecords(ctx context.Context, crawlID string, records []content.Record) error {
	for i := range records {
		if err := ix.indexOne(ctx, crawlID, &records[i]); err != nil {
			return fmt.Errorf("index record %d of %d: %w", i+1, len(records), err)
		}
	}
	ix.logger.Info("records indexed", "index", ix.index, "crawl_id", crawlID, "count", len(records))
	return nil
}

func (ix *Indexer) indexOne(ctx context.Context, crawlID string, rec *content.Record) error {
	ctx, cancel := context.WithTimeout(ctx, defaultIndexTimeout)
	defer cancel()

	body, err := json.Marshal(indexedRecord{
		CrawlID:   crawlID,
		SourceURL: rec.SourceURL,
		Fields:    rec.Fields,
		IndexedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: uuid.NewString(),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}
