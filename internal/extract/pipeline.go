package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/inference"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
)

const (
	// defaultMaxPromptChars truncates page content to a provider-safe
	// length before prompting.
	defaultMaxPromptChars = 32768
	// defaultRetryBackoff is the fixed delay before the single retry of a
	// failed model call.
	defaultRetryBackoff = 2 * time.Second
)

// noResultsIndicators is the lexicon used to detect pages that announce
// an empty result set.
var noResultsIndicators = []string{
	"no results found",
	"no results",
	"nothing found",
	"0 results",
	"no matches",
	"no items found",
	"empty results",
	"no data available",
}

// PipelineOptions tunes the extraction pipeline. Zero values select
// defaults.
type PipelineOptions struct {
	MaxPromptChars int
	RetryBackoff   time.Duration
	InferTimeout   time.Duration
}

// Pipeline invokes the inference port and validates and repairs its
// output against the selected schema.
type Pipeline struct {
	inferencer     inference.Inferencer
	logger         logger.Interface
	maxPromptChars int
	retryBackoff   time.Duration
	inferTimeout   time.Duration
}

// NewPipeline creates an extraction pipeline.
func NewPipeline(inf inference.Inferencer, log logger.Interface, opts PipelineOptions) *Pipeline {
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = defaultMaxPromptChars
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	return &Pipeline{
		inferencer:     inf,
		logger:         log.WithComponent("extract"),
		maxPromptChars: opts.MaxPromptChars,
		retryBackoff:   opts.RetryBackoff,
		inferTimeout:   opts.InferTimeout,
	}
}

// Extract produces structured records for one page. On model failure it
// retries once after a fixed backoff and then reports a recoverable
// *Failure with no records; it never aborts the surrounding traversal.
func (p *Pipeline) Extract(
	ctx context.Context,
	page *content.Page,
	ct content.Type,
	custom *Schema,
	customInstructions string,
) ([]content.Record, error) {
	strategy, err := SelectStrategy(ct, custom, customInstructions)
	if err != nil {
		return nil, err
	}

	schemaJSON, err := strategy.Schema.JSONSchema()
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	prompt := page.RawContent
	if len(prompt) > p.maxPromptChars {
		prompt = prompt[:p.maxPromptChars]
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, nil
	}

	req := inference.Request{
		Prompt:       prompt,
		Schema:       schemaJSON,
		Instructions: strategy.Instructions,
		Timeout:      p.inferTimeout,
	}

	payload, err := p.inferWithRetry(ctx, page.URL, req)
	if err != nil {
		return nil, &Failure{URL: page.URL, Err: err}
	}

	candidates, err := parsePayload(payload)
	if err != nil {
		return nil, &Failure{URL: page.URL, Err: err}
	}

	records := make([]content.Record, 0, len(candidates))
	for _, candidate := range candidates {
		fields, ok := p.repairFields(candidate, strategy.Schema, page.URL)
		if !ok {
			continue
		}
		if custom == nil && !validForType(ct, fields) {
			continue
		}
		records = append(records, content.Record{
			Fields:    fields,
			SourceURL: page.URL,
			LinkField: strategy.Schema.LinkField,
		})
	}

	p.logger.Debug("extraction complete", "url", page.URL, "candidates", len(candidates), "records", len(records))
	return records, nil
}

// inferWithRetry calls the model, retrying exactly once after a fixed
// backoff. Cancellation is not retried.
func (p *Pipeline) inferWithRetry(ctx context.Context, url string, req inference.Request) (string, error) {
	payload, err := p.inferencer.Infer(ctx, req)
	if err == nil {
		return payload, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	p.logger.Warn("model call failed, retrying once", "url", url, "error", err)
	select {
	case <-time.After(p.retryBackoff):
	case <-ctx.Done():
		return "", err
	}

	payload, retryErr := p.inferencer.Infer(ctx, req)
	if retryErr != nil {
		return "", retryErr
	}
	return payload, nil
}

// parsePayload decodes the model output into candidate records. It
// tolerates code fences and a single top-level object.
func parsePayload(payload string) ([]map[string]any, error) {
	payload = stripCodeFences(payload)

	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err == nil {
		return items, nil
	}

	var single map[string]any
	if err := json.Unmarshal([]byte(payload), &single); err == nil {
		return []map[string]any{single}, nil
	}

	return nil, errors.New("payload is neither a JSON array nor a JSON object")
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// repairFields coerces candidate values to their schema types, dropping
// fields with irrecoverable mismatches rather than discarding the whole
// record. The record is dropped only when a required field is missing or
// uncoercible. Fields outside the schema pass through untouched.
func (p *Pipeline) repairFields(candidate map[string]any, schema Schema, url string) (map[string]any, bool) {
	fields := make(map[string]any, len(candidate))

	for name, value := range candidate {
		// Some providers echo an "error": false marker per item.
		if name == "error" {
			if b, ok := value.(bool); ok && !b {
				continue
			}
		}

		def, known := schema.Field(name)
		if !known {
			fields[name] = value
			continue
		}

		coerced, ok := coerceValue(def.Type, value)
		if !ok {
			p.logger.Debug("dropping mismatched field", "url", url, "field", name, "type", def.Type)
			continue
		}
		fields[name] = coerced
	}

	for _, def := range schema.Fields {
		if def.Required {
			if _, ok := fields[def.Name]; !ok {
				return nil, false
			}
		}
	}
	return fields, true
}

// coerceValue converts a decoded JSON value to the target field type.
// Returns false when no safe conversion exists.
func coerceValue(t FieldType, v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	switch t {
	case FieldString:
		switch val := v.(type) {
		case string:
			return val, true
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(val), true
		}
	case FieldNumber:
		switch val := v.(type) {
		case float64:
			return val, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return f, true
			}
		}
	case FieldBoolean:
		switch val := v.(type) {
		case bool:
			return val, true
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
				return b, true
			}
		}
	case FieldList:
		switch val := v.(type) {
		case []any:
			return val, true
		case string, float64, bool:
			return []any{val}, true
		}
	case FieldObject:
		if val, ok := v.(map[string]any); ok {
			return val, true
		}
	}
	return nil, false
}

// validForType applies per-content-type minimum content rules to a
// repaired record. Custom schemas rely on required fields instead.
func validForType(ct content.Type, fields map[string]any) bool {
	nonEmpty := func(name string) bool {
		v, ok := fields[name]
		if !ok {
			return false
		}
		s, isString := v.(string)
		return !isString || strings.TrimSpace(s) != ""
	}

	switch ct {
	case content.TypeArticle:
		return nonEmpty("title") && nonEmpty("content")
	case content.TypeProduct:
		return nonEmpty("name")
	case content.TypeProfile:
		return nonEmpty("name") || nonEmpty("email") || nonEmpty("phone")
	default:
		for _, name := range []string{"title", "description", "content", "name"} {
			if nonEmpty(name) {
				return true
			}
		}
		return false
	}
}

// NoResults reports whether page content announces an empty result set,
// ending pagination without counting as a failure.
func NoResults(pageContent string) bool {
	lowered := strings.ToLower(pageContent)
	for _, indicator := range noResultsIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}
