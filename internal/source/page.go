// Package source supplies crawled pages to the catalog pipeline, either from
// a saved crawl dump or by crawling a site directly.
package source

// Page is one crawled page. A page may carry HTML, markdown, or both.
type Page struct {
	URL      string `json:"url"`
	HTML     string `json:"html,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// Content returns the page body, preferring HTML over markdown. HTML keeps
// variant selectors and JSON-LD blocks that markdown conversion strips.
func (p *Page) Content() string {
	if p.HTML != "" {
		return p.HTML
	}
	return p.Markdown
}
