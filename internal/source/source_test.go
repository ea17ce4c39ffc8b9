package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestPageContentPrefersHTML(t *testing.T) {
	p := Page{HTML: "<html>post</html>", Markdown: "# post"}
	assert.Equal(t, "<html>post</html>", p.Content())

	p = Page{Markdown: "# post"}
	assert.Equal(t, "# post", p.Content())

	p = Page{}
	assert.Empty(t, p.Content())
}

func TestDumpRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.json")

	pages := []Page{
		{URL: "https://shop.example.com/post", HTML: "<html>post</html>"},
		{URL: "https://shop.example.com/bench", Markdown: "# bench"},
	}

	require.NoError(t, WriteDump(path, pages))

	got, err := ReadDump(path)
	require.NoError(t, err)
	assert.Equal(t, pages, got)
}

func TestReadDumpBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.json")
	require.NoError(t, writeFile(path, `[{"url":"https://shop.example.com/post","html":"<html></html>"}]`))

	pages, err := ReadDump(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "https://shop.example.com/post", pages[0].URL)
}

func TestReadDumpMissingFile(t *testing.T) {
	_, err := ReadDump(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFrontierDeduplicatesAndOrders(t *testing.T) {
	f := newFrontier()

	f.Push("https://shop.example.com/", 0)
	f.Push("https://shop.example.com/a", 1)
	f.Push("https://shop.example.com/", 0)
	f.Push("https://shop.example.com/a", 2)

	assert.Equal(t, 2, f.Len())

	first, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://shop.example.com/", first.URL)
	assert.Equal(t, 0, first.Depth)

	second, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://shop.example.com/a", second.URL)

	_, ok = f.Pop()
	assert.False(t, ok)
}

func TestCrawlerFollowsSameHostLinks(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprintf(w, `<html><body>
				<a href="/products/post">Post</a>
				<a href="/products/bench">Bench</a>
				<a href="https://other.example.com/away">External</a>
				<a href="mailto:sales@example.com">Mail</a>
			</body></html>`)
		case "/products/post":
			fmt.Fprint(w, `<html><body><a href="/products/post-2ft">2ft</a></body></html>`)
		default:
			fmt.Fprint(w, `<html><body>leaf</body></html>`)
		}
	})

	c := NewCrawler(CrawlerConfig{
		MaxDepth:  2,
		MaxPages:  10,
		UserAgent: "test-crawler",
	}, testLogger())

	pages, err := c.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)

	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, p.URL)
	}

	assert.Contains(t, urls, server.URL+"/")
	assert.Contains(t, urls, server.URL+"/products/post")
	assert.Contains(t, urls, server.URL+"/products/bench")
	assert.Contains(t, urls, server.URL+"/products/post-2ft")
	assert.Len(t, pages, 4, "external and mailto links must not be fetched")
}

func TestCrawlerRespectsMaxPages(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><a href="%snext/">next</a></body></html>`, r.URL.Path)
	})

	c := NewCrawler(CrawlerConfig{MaxDepth: 50, MaxPages: 3}, testLogger())

	pages, err := c.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, pages, 3)
}

func TestCrawlerSkipsFailedFetches(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/broken">broken</a><a href="/fine">fine</a></body></html>`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/fine", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>fine</body></html>`)
	})

	c := NewCrawler(CrawlerConfig{MaxDepth: 1, MaxPages: 10}, testLogger())

	pages, err := c.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestCrawlerRejectsBadStartURL(t *testing.T) {
	c := NewCrawler(CrawlerConfig{}, testLogger())

	_, err := c.Crawl(context.Background(), "not-a-url")
	assert.Error(t, err)
}
