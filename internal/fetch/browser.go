package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/urlutil"
)

// browserLink mirrors the JSON shape produced by the link-collection
// script evaluated in the page.
type browserLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
	Rel  string `json:"rel"`
}

// linksJS collects anchors in document order, skipping non-navigational
// schemes the same way the HTTP adapter's normalization would.
const linksJS = `
(() => {
	const links = Array.from(document.querySelectorAll('a[href]'));
	return links
		.filter(a => a.href &&
			!a.href.startsWith('javascript:') &&
			!a.href.startsWith('mailto:') &&
			!a.href.startsWith('tel:'))
		.map(a => ({
			url: a.href,
			text: (a.textContent || '').trim(),
			rel: a.getAttribute('rel') || ''
		}));
})()
`

// BrowserFetcher renders pages in headless Chrome via chromedp. The
// browser is acquired at construction and must be released with Close
// on every exit path, including cancellation.
type BrowserFetcher struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	logger        logger.Interface

	mu   sync.Mutex
	tabs map[string]tabSession
}

type tabSession struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowserFetcher starts a browser shared by all fetches issued
// through this adapter.
func NewBrowserFetcher(headless bool, log logger.Interface) (*BrowserFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a missing Chrome binary fails here
	// instead of on the first fetch.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &BrowserFetcher{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		logger:        log.WithComponent("fetch.browser"),
		tabs:          make(map[string]tabSession),
	}, nil
}

// Close releases the browser and all session tabs.
func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	for id, tab := range f.tabs {
		tab.cancel()
		delete(f.tabs, id)
	}
	f.mu.Unlock()

	f.browserCancel()
	f.allocCancel()
}

// Fetch navigates a tab to the URL and extracts title, links, and the
// rendered text. A non-empty SessionID reuses one tab across fetches so
// cookies and page state carry over within a traversal.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string, cfg Config) (*content.Page, error) {
	tabCtx, done := f.tab(cfg.SessionID)
	defer done()

	runCtx, cancel := context.WithTimeout(tabCtx, cfg.EffectiveTimeout())
	defer cancel()

	// Propagate caller cancellation into the chromedp context.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pageTitle, pageHTML string
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Title(&pageTitle),
		chromedp.OuterHTML("html", &pageHTML),
	); err != nil {
		f.dropSession(cfg.SessionID)
		return nil, &Error{URL: pageURL, Err: fmt.Errorf("navigate: %w", err)}
	}

	var rawText string
	textJS := "document.body ? document.body.innerText : ''"
	if cfg.CSSSelector != "" {
		textJS = fmt.Sprintf(
			`Array.from(document.querySelectorAll(%q)).map(el => el.innerText).join('\n')`,
			cfg.CSSSelector,
		)
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(textJS, &rawText)); err != nil {
		f.logger.Debug("text extraction failed", "url", pageURL, "error", err)
	}

	var rawLinks []browserLink
	if err := chromedp.Run(runCtx, chromedp.Evaluate(linksJS, &rawLinks)); err != nil {
		f.logger.Debug("link extraction failed", "url", pageURL, "error", err)
	}

	links := make([]content.Link, 0, len(rawLinks))
	for _, l := range rawLinks {
		resolved, err := urlutil.Resolve(pageURL, l.URL)
		if err != nil {
			continue
		}
		links = append(links, content.Link{URL: resolved, Text: l.Text, Rel: l.Rel})
	}

	return &content.Page{
		URL:        pageURL,
		Title:      strings.TrimSpace(pageTitle),
		RawContent: cleanText(rawText),
		HTML:       pageHTML,
		Links:      links,
		FetchedAt:  time.Now(),
		StatusOK:   true,
	}, nil
}

// tab returns the chromedp context for a session. The empty session gets
// a throwaway tab cleaned up when the fetch finishes; named sessions
// keep their tab until Close or a navigation failure.
func (f *BrowserFetcher) tab(sessionID string) (context.Context, func()) {
	if sessionID == "" {
		tabCtx, cancel := chromedp.NewContext(f.browserCtx)
		return tabCtx, cancel
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if tab, ok := f.tabs[sessionID]; ok {
		return tab.ctx, func() {}
	}
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	f.tabs[sessionID] = tabSession{ctx: tabCtx, cancel: cancel}
	return tabCtx, func() {}
}

// dropSession discards a session tab after a failure so the next fetch
// starts from a fresh tab.
func (f *BrowserFetcher) dropSession(sessionID string) {
	if sessionID == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if tab, ok := f.tabs[sessionID]; ok {
		tab.cancel()
		delete(f.tabs, sessionID)
	}
}
