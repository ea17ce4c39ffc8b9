// Package extractor turns a product page's raw content into a structured
// catalog record via a single LLM round trip plus local validation.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cartloom/catalog-scraper/internal/llm"
	"github.com/cartloom/catalog-scraper/internal/models"
)

// extractExcerptLen caps the content sent to the model. Product data sits in
// the top of the page; the tail is navigation and footer boilerplate.
const extractExcerptLen = 8000

// deniedTitles are cart and navigation strings the model occasionally
// mistakes for a product name. A match means the page was not a product
// page after all.
var deniedTitles = map[string]bool{
	"item added to your cart": true,
	"added to cart":           true,
	"cart":                    true,
	"checkout":                true,
	"shopping cart":           true,
	"your cart":               true,
	"view cart":               true,
	"continue shopping":       true,
	"home":                    true,
	"shop":                    true,
	"products":                true,
	"categories":              true,
}

const extractSystemPrompt = "You are a product data extraction expert. " +
	"Extract structured product information and return valid JSON only."

type Extractor struct {
	completer llm.Completer
	logger    *slog.Logger
}

func New(completer llm.Completer, logger *slog.Logger) *Extractor {
	return &Extractor{
		completer: completer,
		logger:    logger.With("component", "extractor"),
	}
}

// Extract sends the page to the model and validates the structured record it
// returns. A nil product with a non-nil error means the page is skipped; the
// caller logs and moves on, nothing aborts the run.
func (e *Extractor) Extract(ctx context.Context, content, url string) (*models.Product, error) {
	excerpt := content
	if len(excerpt) > extractExcerptLen {
		excerpt = excerpt[:extractExcerptLen]
	}

	response, err := e.completer.Complete(ctx, llm.CompletionRequest{
		System:      extractSystemPrompt,
		User:        buildPrompt(url, excerpt),
		Temperature: 0,
		MaxTokens:   4096,
		JSONObject:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &product); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	product.Images = models.FilterImages(product.Images)

	product.Title = strings.TrimSpace(product.Title)
	if product.Title == "" {
		return nil, fmt.Errorf("no title extracted")
	}
	if deniedTitles[strings.ToLower(product.Title)] {
		return nil, fmt.Errorf("cart/navigation element extracted as title: %q", product.Title)
	}

	if len(product.Variants) == 0 {
		e.logger.Warn("no variants extracted, inserting default variant", "url", url)
		product.Variants = []models.Variant{models.DefaultVariant()}
	}

	product.SourceURL = url

	e.logger.Info("extracted product",
		"title", product.Title,
		"variants", len(product.Variants),
		"url", url)

	return &product, nil
}

// buildPrompt asks the model to replicate, not invent: exact titles, every
// variant with its real price, verbatim option labels and values.
func buildPrompt(url, content string) string {
	var b strings.Builder

	b.WriteString("Your task: EXACTLY REPLICATE the product data from this e-commerce page. ")
	b.WriteString("DO NOT create, infer, or modify anything.\n\n")
	fmt.Fprintf(&b, "URL: %s\n\nContent:\n%s\n\n", url, content)

	b.WriteString(`Return a JSON object with this structure:
{
  "title": "EXACT product name from the page (copy verbatim)",
  "body_html": "<p>FULL detailed product description with ALL content from the page, tables as <table> markup</p>",
  "vendor": "Brand/manufacturer name from page",
  "product_type": "Category from page",
  "tags": ["tag1", "tag2"],
  "variants": [
    {
      "title": "Variant option text (e.g., '1ft', 'Red', 'Small')",
      "price": "29.99",
      "compare_at_price": "39.99",
      "sku": "SKU-123",
      "option1": "1ft",
      "option2": null,
      "option3": null
    }
  ],
  "images": [
    {"src": "https://example.com/image1.jpg", "position": 1}
  ],
  "options": [
    {"name": "Length", "values": ["1ft", "2ft", "3ft"]}
  ]
}

RULES:
1. Extract the COMPLETE description. Convert specification and size tables to
   HTML <table> markup; keep <p>, <ul>/<li> structure. Do not summarize.
2. Replicate EVERY variant exactly as it appears. Check JSON-LD structured
   data in <script type="application/ld+json"> first (offers carry per-SKU
   prices), then <select>/<option> and radio selectors, data attributes, and
   JavaScript variant arrays. Do not skip, combine, or invent variants.
3. Use the option name the page uses ("Length", "Size", "Colour") - never a
   generic placeholder like "Option 1".
4. Copy option values character-for-character, including units and casing.
5. Every variant MUST have a price > 0. Prefer JSON-LD offer prices matched
   by SKU, then JavaScript product data (cent values converted to decimal),
   then visible prices. Strip currency symbols, keep the number.
6. Extract ONLY images that appear in the page content, in order, with
   complete https:// URLs.
7. Do not add tags, descriptions, or vendor names not present on the page.
8. If NO selectors exist, use option1="Default" and
   options=[{"name": "Title", "values": ["Default Title"]}].
9. Return ONLY valid JSON, no additional text.

EXTRACT THE PRODUCT DATA EXACTLY AS IT APPEARS:`)

	return b.String()
}
