// Package pipeline wires the catalog stages together: classify each crawled
// page, extract structured product data from the accepted ones, and merge
// variant pages into single products. Every stage failure is local; a bad
// page is skipped and the run always completes.
package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/cartloom/catalog-scraper/internal/classifier"
	"github.com/cartloom/catalog-scraper/internal/extractor"
	"github.com/cartloom/catalog-scraper/internal/imagegen"
	"github.com/cartloom/catalog-scraper/internal/merger"
	"github.com/cartloom/catalog-scraper/internal/models"
	"github.com/cartloom/catalog-scraper/internal/source"
)

// Classifier filters pages down to product detail pages.
type Classifier interface {
	Classify(ctx context.Context, content, url string) bool
}

// Extractor turns one product page into a structured record.
type Extractor interface {
	Extract(ctx context.Context, content, url string) (*models.Product, error)
}

// Merger reconciles variant pages into single products.
type Merger interface {
	Merge(products []*models.Product) []*models.Product
}

// ImageGenerator produces one marketing image for a product.
type ImageGenerator interface {
	GenerateProductImage(ctx context.Context, title string, referenceURLs []string, variation imagegen.Variation) (string, error)
}

type Pipeline struct {
	classifier Classifier
	extractor  Extractor
	merger     Merger
	imageGen   ImageGenerator
	logger     *slog.Logger
}

func New(c Classifier, e Extractor, m Merger, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		classifier: c,
		extractor:  e,
		merger:     m,
		logger:     logger.With("component", "pipeline"),
	}
}

// WithImageGenerator enables the optional marketing-image step.
func (p *Pipeline) WithImageGenerator(g ImageGenerator) *Pipeline {
	p.imageGen = g
	return p
}

// Build runs the full flow over the supplied pages and returns the merged
// catalog. Pages are classified and extracted in the order supplied, then
// sorted by URL depth so parent pages establish product identity before
// their variant pages are folded in.
func (p *Pipeline) Build(ctx context.Context, pages []source.Page) []*models.Product {
	var extracted []*models.Product

	for i, page := range pages {
		content := page.Content()
		if content == "" {
			p.logger.Warn("skipping page with no content",
				"url", page.URL,
				"page", i+1,
				"total", len(pages))
			continue
		}

		if !p.classifier.Classify(ctx, content, page.URL) {
			p.logger.Debug("not a product page, skipping", "url", page.URL)
			continue
		}

		product, err := p.extractor.Extract(ctx, content, page.URL)
		if err != nil {
			p.logger.Warn("extraction failed, skipping page", "url", page.URL, "error", err)
			continue
		}

		extracted = append(extracted, product)
	}

	// Parents first: shallower URLs are processed before their variant pages.
	sort.SliceStable(extracted, func(i, j int) bool {
		return extracted[i].Depth() < extracted[j].Depth()
	})

	catalog := p.merger.Merge(extracted)

	p.logger.Info("catalog build complete",
		"pages_in", len(pages),
		"products_extracted", len(extracted),
		"products_out", len(catalog))

	return catalog
}

// Illustrate generates marketing imagery for each product that has at least
// one scraped reference image. A generation failure leaves the product
// untouched and moves on.
func (p *Pipeline) Illustrate(ctx context.Context, products []*models.Product) {
	if p.imageGen == nil {
		return
	}

	variations := []imagegen.Variation{imagegen.VariationStudio, imagegen.VariationInUse}

	for _, product := range products {
		refs := product.ImageSrcs()
		if len(refs) == 0 {
			p.logger.Debug("no reference images, skipping image generation", "title", product.Title)
			continue
		}

		for _, variation := range variations {
			img, err := p.imageGen.GenerateProductImage(ctx, product.Title, refs, variation)
			if err != nil {
				p.logger.Warn("image generation failed, skipping",
					"title", product.Title,
					"variation", variation,
					"error", err)
				continue
			}
			product.GeneratedImages = append(product.GeneratedImages, img)
		}
	}
}
