package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
)

const listingHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Widget Shop</title>
  <script>var tracking = true;</script>
  <style>body { color: red; }</style>
</head>
<body>
  <main class="items">
    <h1>Widgets</h1>
    <p>Our   best   widgets.</p>
    <a href="/item/1">Widget One</a>
    <a href="https://other.example/promo">Promo</a>
  </main>
  <nav>
    <a href="/list?page=2" rel="next">Next</a>
  </nav>
</body>
</html>`

func newFetchServer(t *testing.T, robots string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(robots))
	})
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingHTML))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcherFetch(t *testing.T) {
	srv := newFetchServer(t, "User-agent: *\nAllow: /\n")
	f := NewHTTPFetcher(HTTPFetcherConfig{}, logger.NewNoOp())

	page, err := f.Fetch(context.Background(), srv.URL+"/list", Config{})
	require.NoError(t, err)

	assert.True(t, page.StatusOK)
	assert.Equal(t, "Widget Shop", page.Title)
	assert.Contains(t, page.RawContent, "Our best widgets.")
	assert.NotContains(t, page.RawContent, "tracking", "script content must be stripped")
	assert.NotContains(t, page.RawContent, "color: red", "style content must be stripped")

	require.Len(t, page.Links, 3)
	assert.Equal(t, srv.URL+"/item/1", page.Links[0].URL)
	assert.Equal(t, "Widget One", page.Links[0].Text)
	assert.Equal(t, "https://other.example/promo", page.Links[1].URL)
	assert.Equal(t, "next", page.Links[2].Rel)
}

func TestHTTPFetcherCSSSelector(t *testing.T) {
	srv := newFetchServer(t, "User-agent: *\nAllow: /\n")
	f := NewHTTPFetcher(HTTPFetcherConfig{}, logger.NewNoOp())

	page, err := f.Fetch(context.Background(), srv.URL+"/list", Config{CSSSelector: "main.items"})
	require.NoError(t, err)
	assert.Contains(t, page.RawContent, "Widgets")
	assert.NotContains(t, page.RawContent, "Next", "content outside the selector must be excluded")

	// Links are still collected document-wide.
	assert.Len(t, page.Links, 3)
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	srv := newFetchServer(t, "User-agent: *\nAllow: /\n")
	f := NewHTTPFetcher(HTTPFetcherConfig{}, logger.NewNoOp())

	page, err := f.Fetch(context.Background(), srv.URL+"/missing", Config{})
	require.NoError(t, err, "a non-2xx response is not a transport error")
	assert.False(t, page.StatusOK)
}

func TestHTTPFetcherTransportFailure(t *testing.T) {
	f := NewHTTPFetcher(HTTPFetcherConfig{}, logger.NewNoOp())

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/list", Config{})
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "http://127.0.0.1:1/list", fetchErr.URL)
}

func TestHTTPFetcherRespectsRobots(t *testing.T) {
	srv := newFetchServer(t, "User-agent: *\nDisallow: /list\n")
	f := NewHTTPFetcher(HTTPFetcherConfig{RespectRobots: true}, logger.NewNoOp())

	_, err := f.Fetch(context.Background(), srv.URL+"/list", Config{})
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Error(), "robots.txt")
}

func TestHTTPFetcherRobotsAllowed(t *testing.T) {
	srv := newFetchServer(t, "User-agent: *\nDisallow: /private\n")
	f := NewHTTPFetcher(HTTPFetcherConfig{RespectRobots: true}, logger.NewNoOp())

	page, err := f.Fetch(context.Background(), srv.URL+"/list", Config{})
	require.NoError(t, err)
	assert.True(t, page.StatusOK)
}

func TestHTTPFetcherSessionCookies(t *testing.T) {
	var gotCookie string
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc"})
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	})
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil {
			gotCookie = c.Value
		}
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{}, logger.NewNoOp())
	cfg := Config{SessionID: "session-1"}

	_, err := f.Fetch(context.Background(), srv.URL+"/set", cfg)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), srv.URL+"/check", cfg)
	require.NoError(t, err)

	assert.Equal(t, "abc", gotCookie, "cookies must persist within a session")
}

func TestCleanText(t *testing.T) {
	in := "  Hello   world \n\n\n  second\tline  \n"
	assert.Equal(t, "Hello world\nsecond line", cleanText(in))
}
