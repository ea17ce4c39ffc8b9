package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cartloom/catalog-scraper/internal/ratelimit"
)

// Crawler fetches a site breadth-first, staying on the start host, and
// returns the pages it collected. Fetching is sequential and rate limited;
// individual fetch failures are logged and skipped.
type Crawler struct {
	httpClient *http.Client
	limiter    *ratelimit.AdaptiveRateLimiter
	userAgent  string
	maxDepth   int
	maxPages   int
	logger     *slog.Logger
}

type CrawlerConfig struct {
	RateLimitMin time.Duration
	RateLimitMax time.Duration
	MaxDepth     int
	MaxPages     int
	UserAgent    string
	FetchTimeout time.Duration
}

func NewCrawler(cfg CrawlerConfig, logger *slog.Logger) *Crawler {
	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxPages := cfg.MaxPages
	if maxPages == 0 {
		maxPages = 100
	}

	return &Crawler{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    ratelimit.NewAdaptiveRateLimiter(cfg.RateLimitMin, cfg.RateLimitMax),
		userAgent:  cfg.UserAgent,
		maxDepth:   cfg.MaxDepth,
		maxPages:   maxPages,
		logger:     logger.With("component", "crawler"),
	}
}

// Crawl walks the site starting at startURL and returns the collected pages
// in fetch order.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]Page, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if start.Host == "" {
		return nil, fmt.Errorf("start URL has no host: %s", startURL)
	}

	f := newFrontier()
	f.Push(start.String(), 0)

	var pages []Page

	for len(pages) < c.maxPages {
		t, ok := f.Pop()
		if !ok {
			break
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return pages, err
		}

		html, err := c.fetch(ctx, t.URL)
		if err != nil {
			c.limiter.RecordError()
			c.logger.Warn("fetch failed, skipping page", "url", t.URL, "error", err)
			continue
		}
		c.limiter.RecordSuccess()

		pages = append(pages, Page{URL: t.URL, HTML: html})
		c.logger.Debug("fetched page", "url", t.URL, "depth", t.Depth, "collected", len(pages))

		if t.Depth >= c.maxDepth {
			continue
		}

		for _, link := range extractLinks(html, start) {
			f.Push(link, t.Depth+1)
		}
	}

	c.logger.Info("crawl complete", "start_url", startURL, "pages", len(pages))
	return pages, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return "", fmt.Errorf("not an HTML page: %s", contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	return string(body), nil
}

// extractLinks pulls same-host anchor targets out of the page, resolved
// against the crawl root and stripped of fragments.
func extractLinks(html string, base *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Host != base.Host {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		resolved.Fragment = ""
		links = append(links, resolved.String())
	})

	return links
}
