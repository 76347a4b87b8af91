// Package scrape implements the one-shot crawl command.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/farithjhg/agentic-ai-scraper-crawler/cmd/common"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/crawl"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/extract"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/output"
)

// flags holds the scrape command flags.
type flags struct {
	llm          bool
	contentType  string
	schemaFile   string
	instructions string
	cssSelector  string

	pagination   bool
	maxPages     int
	pageTemplate string

	followLinks bool
	maxLinks    int
	maxDepth    int

	outputPath string
	index      bool
}

// Command returns the scrape command.
func Command(newDeps func() (*common.Deps, error)) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Crawl a URL and extract structured records",
		Long: `Crawl a URL, optionally following pagination and outbound links to a
bounded depth, and extract structured records from each fetched page
using a language model. Without --llm each page yields a summary record.

A crawl that hits its page, link, or depth bounds still succeeds; the
result carries a truncated flag. Only invalid configuration fails the
command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newDeps()
			if err != nil {
				return err
			}
			defer deps.Close()
			return run(cmd.Context(), deps, args[0], &f)
		},
	}

	cmd.Flags().BoolVar(&f.llm, "llm", false, "extract structured records with the language model")
	cmd.Flags().StringVar(&f.contentType, "content-type", "",
		"content type hint: article, product, listing, profile")
	cmd.Flags().StringVar(&f.schemaFile, "schema", "", "custom extraction schema file (YAML or JSON)")
	cmd.Flags().StringVar(&f.instructions, "instructions", "", "custom extraction instructions")
	cmd.Flags().StringVar(&f.cssSelector, "css-selector", "", "CSS selector scoping content extraction")
	cmd.Flags().BoolVar(&f.pagination, "pagination", false, "follow next-page links")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", crawl.DefaultMaxPages, "maximum pages to fetch during pagination")
	cmd.Flags().StringVar(&f.pageTemplate, "page-template", "",
		"URL template with {page} used when no next link is found")
	cmd.Flags().BoolVar(&f.followLinks, "follow-links", false, "fetch pages referenced by extracted records")
	cmd.Flags().IntVar(&f.maxLinks, "max-links", crawl.DefaultMaxLinksPerPage, "maximum links followed per page")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", crawl.DefaultMaxDepth, "maximum link-following depth")
	cmd.Flags().StringVarP(&f.outputPath, "output", "o", "",
		"write the result to a file (.json, .ndjson, .csv)")
	cmd.Flags().BoolVar(&f.index, "index", false, "index extracted records into Elasticsearch")

	return cmd
}

func run(ctx context.Context, deps *common.Deps, url string, f *flags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := crawl.Options{
		UseLLM:          f.llm,
		ContentType:     content.ParseType(f.contentType),
		Instructions:    f.instructions,
		CSSSelector:     f.cssSelector,
		Pagination:      f.pagination,
		MaxPages:        f.maxPages,
		PageTemplate:    f.pageTemplate,
		FollowLinks:     f.followLinks,
		MaxLinksPerPage: f.maxLinks,
		MaxDepth:        f.maxDepth,
	}

	if f.schemaFile != "" {
		schema, err := extract.LoadSchemaFile(f.schemaFile)
		if err != nil {
			return fmt.Errorf("load schema file: %w", err)
		}
		opts.CustomSchema = &schema
	}

	result, err := deps.Engine.Run(ctx, url, opts)
	if err != nil {
		return err
	}

	if f.index {
		if deps.Indexer == nil {
			return fmt.Errorf("--index requires elasticsearch addresses in the configuration")
		}
		if err := deps.Indexer.IndexRecords(ctx, url, result.Records); err != nil {
			deps.Logger.Warn("indexing failed", "error", err)
		}
	}

	if f.outputPath != "" {
		if err := output.WriteFile(f.outputPath, result); err != nil {
			return err
		}
		printSummary(os.Stdout, result, f.outputPath)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// printSummary renders a short table when results went to a file.
func printSummary(w *os.File, result *content.CrawlResult, path string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Records", "Pages visited", "Truncated", "Output"})
	t.AppendRow(table.Row{len(result.Records), len(result.VisitedURLs), result.Truncated, path})
	t.Render()
}
