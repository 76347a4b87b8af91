// Package output persists crawl results. The canonical format is a JSON
// document shaped {records, visitedUrls, truncated}; NDJSON and CSV are
// available for record-stream consumers.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
)

// WriteFile writes the result to path, choosing the format from the
// extension: .ndjson/.jsonl one record per line, .csv flattened scalar
// fields, anything else the canonical JSON document.
func WriteFile(path string, result *content.CrawlResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		err = WriteNDJSON(f, result)
	case ".csv":
		err = WriteCSV(f, result)
	default:
		err = WriteJSON(f, result)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes the canonical indented JSON document.
func WriteJSON(w io.Writer, result *content.CrawlResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// WriteNDJSON writes one JSON object per record line. The visited set
// and truncation flag are not representable in this format.
func WriteNDJSON(w io.Writer, result *content.CrawlResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range result.Records {
		if err := enc.Encode(result.Records[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes records as CSV. Columns are the sorted union of the
// records' scalar field names plus sourceUrl; non-scalar values are
// JSON-encoded in place.
func WriteCSV(w io.Writer, result *content.CrawlResult) error {
	columns := collectColumns(result.Records)
	header := append([]string{"sourceUrl"}, columns...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, rec := range result.Records {
		row[0] = rec.SourceURL
		for i, col := range columns {
			row[i+1] = cellValue(rec.Fields[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// collectColumns returns the sorted union of field names.
func collectColumns(records []content.Record) []string {
	set := make(map[string]struct{})
	for _, rec := range records {
		for name := range rec.Fields {
			set[name] = struct{}{}
		}
	}
	columns := make([]string, 0, len(set))
	for name := range set {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

// cellValue renders one field value for a CSV cell.
func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}
