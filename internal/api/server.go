// Package api exposes the crawl orchestrator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/crawl"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/extract"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
)

// Runner performs one bounded crawl. Satisfied by *crawl.Engine.
type Runner interface {
	Run(ctx context.Context, seedURL string, opts crawl.Options) (*content.CrawlResult, error)
}

// Server is the HTTP API over the crawl engine.
type Server struct {
	runner Runner
	logger logger.Interface
	http   *http.Server
}

// NewServer builds the server and its routes. addr is the listen
// address.
func NewServer(addr string, runner Runner, log logger.Interface) *Server {
	s := &Server{
		runner: runner,
		logger: log.WithComponent("api"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/v1/scrape", s.handleScrape)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// scrapeRequest is the POST /v1/scrape body.
type scrapeRequest struct {
	URL          string         `json:"url" binding:"required"`
	UseLLM       bool           `json:"llm"`
	ContentType  string         `json:"contentType"`
	Schema       map[string]any `json:"schema"`
	Instructions string         `json:"instructions"`
	CSSSelector  string         `json:"cssSelector"`

	Pagination   bool   `json:"pagination"`
	MaxPages     int    `json:"maxPages"`
	PageTemplate string `json:"pageTemplate"`

	FollowLinks     bool `json:"followLinks"`
	MaxLinksPerPage int  `json:"maxLinksPerPage"`
	MaxDepth        int  `json:"maxDepth"`
}

// handleScrape handles POST /v1/scrape. A configuration problem is a 400;
// a completed crawl is a 200 regardless of how many pages failed inside
// it.
func (s *Server) handleScrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	opts, err := req.options()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.runner.Run(c.Request.Context(), req.URL, opts)
	if err != nil {
		var cfgErr *crawl.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Error()})
			return
		}
		var schemaErr *extract.ConfigurationError
		if errors.As(err, &schemaErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": schemaErr.Error()})
			return
		}
		s.logger.Error("crawl failed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "crawl failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// options converts the request into crawl options, decoding the custom
// schema when present.
func (r *scrapeRequest) options() (crawl.Options, error) {
	opts := crawl.Options{
		UseLLM:          r.UseLLM,
		ContentType:     content.ParseType(r.ContentType),
		Instructions:    r.Instructions,
		CSSSelector:     r.CSSSelector,
		Pagination:      r.Pagination,
		MaxPages:        r.MaxPages,
		PageTemplate:    r.PageTemplate,
		FollowLinks:     r.FollowLinks,
		MaxLinksPerPage: r.MaxLinksPerPage,
		MaxDepth:        r.MaxDepth,
	}
	if len(r.Schema) > 0 {
		schema, err := extract.DecodeSchema(r.Schema)
		if err != nil {
			return crawl.Options{}, err
		}
		opts.CustomSchema = &schema
	}
	return opts, nil
}
