package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/urlutil"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// blockTags lists elements removed before text extraction.
var blockTags = []string{"script", "style", "noscript", "iframe", "svg"}

// HTTPFetcherConfig configures the plain HTTP fetch adapter.
type HTTPFetcherConfig struct {
	UserAgent     string
	RespectRobots bool
}

// HTTPFetcher fetches pages over plain HTTP and extracts title, links,
// and cleaned text with goquery. It is the default adapter for pages
// that do not require JavaScript rendering.
type HTTPFetcher struct {
	cfg    HTTPFetcherConfig
	logger logger.Interface

	mu       sync.Mutex
	sessions map[string]*http.Client
	robots   map[string]*robotstxt.RobotsData
}

// NewHTTPFetcher creates an HTTP fetch adapter.
func NewHTTPFetcher(cfg HTTPFetcherConfig, log logger.Interface) *HTTPFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "agentic-scraper/1.0"
	}
	return &HTTPFetcher{
		cfg:      cfg,
		logger:   log.WithComponent("fetch.http"),
		sessions: make(map[string]*http.Client),
		robots:   make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch retrieves one page. Non-2xx responses yield a Page with
// StatusOK=false rather than an error; transport failures yield *Error.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string, cfg Config) (*content.Page, error) {
	if f.cfg.RespectRobots {
		allowed, err := f.robotsAllowed(ctx, pageURL)
		if err != nil {
			f.logger.Debug("robots.txt check failed, allowing fetch", "url", pageURL, "error", err)
		} else if !allowed {
			return nil, &Error{URL: pageURL, Err: fmt.Errorf("disallowed by robots.txt")}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.EffectiveTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, &Error{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client(cfg.SessionID).Do(req)
	if err != nil {
		return nil, &Error{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Debug("non-OK response", "url", pageURL, "status", resp.StatusCode)
		return &content.Page{
			URL:       pageURL,
			FetchedAt: time.Now(),
			StatusOK:  false,
		}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &Error{URL: pageURL, Err: fmt.Errorf("read body: %w", err)}
	}

	page, err := parsePage(pageURL, string(body), cfg.CSSSelector)
	if err != nil {
		return nil, &Error{URL: pageURL, Err: err}
	}
	return page, nil
}

// client returns the HTTP client for a session ID, creating it with a
// fresh cookie jar on first use. The empty session shares one client.
func (f *HTTPFetcher) client(sessionID string) *http.Client {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.sessions[sessionID]; ok {
		return c
	}
	jar, _ := cookiejar.New(nil)
	c := &http.Client{Jar: jar}
	f.sessions[sessionID] = c
	return c
}

// robotsAllowed fetches and caches robots.txt per host.
func (f *HTTPFetcher) robotsAllowed(ctx context.Context, pageURL string) (bool, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}

	f.mu.Lock()
	data, ok := f.robots[parsed.Host]
	f.mu.Unlock()

	if !ok {
		robotsURL := parsed.Scheme + "://" + parsed.Host + "/robots.txt"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
		if err != nil {
			return false, err
		}
		req.Header.Set("User-Agent", f.cfg.UserAgent)

		resp, err := f.client("").Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		data, err = robotstxt.FromResponse(resp)
		if err != nil {
			return false, fmt.Errorf("parse robots.txt: %w", err)
		}

		f.mu.Lock()
		f.robots[parsed.Host] = data
		f.mu.Unlock()
	}

	return data.TestAgent(parsed.Path, f.cfg.UserAgent), nil
}

// parsePage extracts title, links, and cleaned text from an HTML body.
// When selector is non-empty, raw content is scoped to matching elements.
func parsePage(pageURL, html, selector string) (*content.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	for _, tag := range blockTags {
		doc.Find(tag).Remove()
	}

	page := &content.Page{
		URL:       pageURL,
		Title:     extractTitle(doc),
		HTML:      html,
		Links:     extractLinks(doc, pageURL),
		FetchedAt: time.Now(),
		StatusOK:  true,
	}

	scope := doc.Selection
	if selector != "" {
		if matched := doc.Find(selector); matched.Length() > 0 {
			scope = matched
		}
	}
	page.RawContent = cleanText(scope.Text())

	return page, nil
}

// extractTitle prefers <title>, falling back to og:title.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
		return strings.TrimSpace(ogTitle)
	}
	return ""
}

// extractLinks collects anchors in document order, resolving relative
// hrefs against the page URL. Unresolvable hrefs are skipped.
func extractLinks(doc *goquery.Document, pageURL string) []content.Link {
	var links []content.Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, err := urlutil.Resolve(pageURL, href)
		if err != nil {
			return
		}
		rel, _ := sel.Attr("rel")
		links = append(links, content.Link{
			URL:  resolved,
			Text: strings.TrimSpace(sel.Text()),
			Rel:  rel,
		})
	})
	return links
}

// cleanText collapses runs of whitespace so model input stays compact.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
