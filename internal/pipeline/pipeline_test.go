package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartloom/catalog-scraper/internal/imagegen"
	"github.com/cartloom/catalog-scraper/internal/merger"
	"github.com/cartloom/catalog-scraper/internal/models"
	"github.com/cartloom/catalog-scraper/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeClassifier accepts URLs containing "/products/".
type fakeClassifier struct{}

func (fakeClassifier) Classify(_ context.Context, _, url string) bool {
	return strings.Contains(url, "/products/")
}

// fakeExtractor returns a canned product per URL, or an error.
type fakeExtractor struct {
	products map[string]*models.Product
}

func (f *fakeExtractor) Extract(_ context.Context, _, url string) (*models.Product, error) {
	p, ok := f.products[url]
	if !ok {
		return nil, errors.New("extraction failed")
	}
	return p, nil
}

type fakeImageGen struct {
	err   error
	calls int
}

func (f *fakeImageGen) GenerateProductImage(_ context.Context, title string, _ []string, variation imagegen.Variation) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("data:image/png;base64,%s-%s", title, variation), nil
}

func product(title, url string) *models.Product {
	return &models.Product{
		Title:     title,
		Variants:  []models.Variant{models.DefaultVariant()},
		SourceURL: url,
	}
}

func TestBuildFiltersExtractsAndMerges(t *testing.T) {
	parentURL := "https://shop.example.com/products/post"
	childURL := "https://shop.example.com/products/sizes/post-2ft"

	ext := &fakeExtractor{products: map[string]*models.Product{
		parentURL: product("Post", parentURL),
		childURL:  product("Post (2ft)", childURL),
	}}

	p := New(fakeClassifier{}, ext, merger.New(testLogger()), testLogger())

	pages := []source.Page{
		// Child listed first; depth sorting must still make the parent win.
		{URL: childURL, HTML: "<html>child</html>"},
		{URL: parentURL, HTML: "<html>parent</html>"},
		{URL: "https://shop.example.com/about", HTML: "<html>about us</html>"},
		{URL: "https://shop.example.com/products/empty"},
	}

	catalog := p.Build(context.Background(), pages)

	require.Len(t, catalog, 1)
	assert.Equal(t, "Post", catalog[0].Title)
	assert.Len(t, catalog[0].Variants, 2)
}

func TestBuildSkipsFailedExtractions(t *testing.T) {
	goodURL := "https://shop.example.com/products/bench"

	ext := &fakeExtractor{products: map[string]*models.Product{
		goodURL: product("Wooden Bench", goodURL),
	}}

	p := New(fakeClassifier{}, ext, merger.New(testLogger()), testLogger())

	catalog := p.Build(context.Background(), []source.Page{
		{URL: "https://shop.example.com/products/broken", HTML: "<html>broken</html>"},
		{URL: goodURL, HTML: "<html>bench</html>"},
	})

	require.Len(t, catalog, 1)
	assert.Equal(t, "Wooden Bench", catalog[0].Title)
}

func TestBuildEmptyInput(t *testing.T) {
	p := New(fakeClassifier{}, &fakeExtractor{}, merger.New(testLogger()), testLogger())

	assert.Empty(t, p.Build(context.Background(), nil))
}

func TestIllustrateAddsGeneratedImages(t *testing.T) {
	gen := &fakeImageGen{}
	p := New(fakeClassifier{}, &fakeExtractor{}, merger.New(testLogger()), testLogger()).
		WithImageGenerator(gen)

	withImages := product("Post", "https://shop.example.com/products/post")
	withImages.Images = []models.Image{{Src: "https://cdn.example.com/post.jpg", Position: 1}}
	withoutImages := product("Bench", "https://shop.example.com/products/bench")

	p.Illustrate(context.Background(), []*models.Product{withImages, withoutImages})

	// Two variations for the product with references, none for the other.
	assert.Len(t, withImages.GeneratedImages, 2)
	assert.Empty(t, withoutImages.GeneratedImages)
	assert.Equal(t, 2, gen.calls)
}

func TestIllustrateToleratesGenerationFailure(t *testing.T) {
	gen := &fakeImageGen{err: errors.New("generation timed out")}
	p := New(fakeClassifier{}, &fakeExtractor{}, merger.New(testLogger()), testLogger()).
		WithImageGenerator(gen)

	prod := product("Post", "https://shop.example.com/products/post")
	prod.Images = []models.Image{{Src: "https://cdn.example.com/post.jpg", Position: 1}}

	p.Illustrate(context.Background(), []*models.Product{prod})

	assert.Empty(t, prod.GeneratedImages)
	assert.Len(t, prod.Variants, 1, "product record is unaffected by image failures")
}

func TestIllustrateWithoutGeneratorIsNoop(t *testing.T) {
	p := New(fakeClassifier{}, &fakeExtractor{}, merger.New(testLogger()), testLogger())

	prod := product("Post", "https://shop.example.com/products/post")
	prod.Images = []models.Image{{Src: "https://cdn.example.com/post.jpg", Position: 1}}

	p.Illustrate(context.Background(), []*models.Product{prod})

	assert.Empty(t, prod.GeneratedImages)
}
