// Package classifier decides whether a crawled page is a single-product
// detail page. Cheap keyword heuristics settle most pages; only the
// borderline band is sent to the language model.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cartloom/catalog-scraper/internal/llm"
)

// classifyExcerptLen caps the content sent to the model for borderline
// pages, to keep token usage down.
const classifyExcerptLen = 2000

// productIndicators are phrases whose presence in page content suggests a
// product detail page.
var productIndicators = []string{
	"add to cart", "buy now", "add to bag", "purchase",
	"in stock", "out of stock", "price", "$", "£", "€",
	"quantity", "size", "color", "variant",
}

// nonProductIndicators are URL substrings that mark listing, search, and
// editorial pages. Any hit is a hard negative.
var nonProductIndicators = []string{
	"/category/", "/collection/", "/search", "/blog/",
	"all products", "shop all", "view all",
}

const classifySystemPrompt = "You are a product page detector. Respond with only 'YES' " +
	"if the page is a product detail page (single product for sale), or 'NO' if it's a " +
	"category/collection/listing page or non-product page."

type Classifier struct {
	completer llm.Completer
	logger    *slog.Logger
}

func New(completer llm.Completer, logger *slog.Logger) *Classifier {
	return &Classifier{
		completer: completer,
		logger:    logger.With("component", "classifier"),
	}
}

// Classify reports whether the page at url with the given content is a
// product detail page. Exactly two indicator hits is the borderline band
// that goes to the model; a model failure fails open and keeps the page.
func (c *Classifier) Classify(ctx context.Context, content, url string) bool {
	contentLower := strings.ToLower(content)
	urlLower := strings.ToLower(url)

	for _, indicator := range nonProductIndicators {
		if strings.Contains(urlLower, indicator) {
			return false
		}
	}

	count := 0
	for _, indicator := range productIndicators {
		if strings.Contains(contentLower, indicator) {
			count++
		}
	}

	if count >= 3 {
		return true
	}
	if count < 2 {
		return false
	}

	excerpt := content
	if len(excerpt) > classifyExcerptLen {
		excerpt = excerpt[:classifyExcerptLen]
	}

	answer, err := c.completer.Complete(ctx, llm.CompletionRequest{
		System:      classifySystemPrompt,
		User:        fmt.Sprintf("URL: %s\n\nContent:\n%s\n\nIs this a product detail page?", url, excerpt),
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		c.logger.Error("borderline classification failed, keeping page", "url", url, "error", err)
		// Fail open: this branch only runs at count == 2.
		return count >= 2
	}

	return strings.ToUpper(strings.TrimSpace(answer)) == "YES"
}
