package extractor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartloom/catalog-scraper/internal/llm"
)

type fakeCompleter struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExtractSuccess(t *testing.T) {
	fake := &fakeCompleter{response: `{
		"title": "Steel Post (2ft)",
		"body_html": "<p>Galvanised steel post.</p>",
		"vendor": "Acme",
		"variants": [
			{"title": "2ft", "price": "114.00", "sku": "TRP608-2", "option1": "2ft"}
		],
		"images": [
			{"src": "https://cdn.example.com/post.jpg", "position": 1},
			{"src": "https://cdn.example.com/logo.svg", "position": 2}
		],
		"options": [{"name": "Length", "values": ["2ft"]}]
	}`}
	e := New(fake, testLogger())

	product, err := e.Extract(context.Background(), "<html>post</html>", "https://shop.example.com/products/post-2ft")

	require.NoError(t, err)
	assert.Equal(t, "Steel Post (2ft)", product.Title)
	assert.Equal(t, "https://shop.example.com/products/post-2ft", product.SourceURL)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "114.00", product.Variants[0].Price)

	// SVG image is filtered before the product leaves the extractor.
	require.Len(t, product.Images, 1)
	assert.Equal(t, "https://cdn.example.com/post.jpg", product.Images[0].Src)

	// Deterministic sampling, JSON response mode.
	assert.Equal(t, 0.0, fake.lastReq.Temperature)
	assert.True(t, fake.lastReq.JSONObject)
}

func TestExtractTruncatesContent(t *testing.T) {
	fake := &fakeCompleter{response: `{"title":"Post","variants":[{"title":"Default","price":"10.00"}]}`}
	e := New(fake, testLogger())

	long := make([]byte, 20000)
	for i := range long {
		long[i] = 'x'
	}

	_, err := e.Extract(context.Background(), string(long), "https://shop.example.com/p")

	require.NoError(t, err)
	assert.LessOrEqual(t, len(fake.lastReq.User), 12000,
		"page content must be truncated to its first 8000 chars before prompting")
}

func TestExtractMalformedJSON(t *testing.T) {
	fake := &fakeCompleter{response: "Sorry, I cannot do that."}
	e := New(fake, testLogger())

	product, err := e.Extract(context.Background(), "content", "https://shop.example.com/p")

	assert.Nil(t, product)
	assert.Error(t, err)
}

func TestExtractCompletionFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("model unreachable")}
	e := New(fake, testLogger())

	product, err := e.Extract(context.Background(), "content", "https://shop.example.com/p")

	assert.Nil(t, product)
	assert.Error(t, err)
}

func TestExtractRejectsEmptyTitle(t *testing.T) {
	fake := &fakeCompleter{response: `{"title":"   ","variants":[{"title":"Default","price":"10.00"}]}`}
	e := New(fake, testLogger())

	product, err := e.Extract(context.Background(), "content", "https://shop.example.com/p")

	assert.Nil(t, product)
	assert.Error(t, err)
}

func TestExtractRejectsDeniedTitles(t *testing.T) {
	tests := []string{
		"Item Added To Your Cart",
		"checkout",
		"HOME",
		"Shopping Cart",
	}

	for _, title := range tests {
		t.Run(title, func(t *testing.T) {
			fake := &fakeCompleter{
				response: `{"title":"` + title + `","variants":[{"title":"Default","price":"10.00"}]}`,
			}
			e := New(fake, testLogger())

			product, err := e.Extract(context.Background(), "content", "https://shop.example.com/p")

			assert.Nil(t, product)
			assert.Error(t, err)
		})
	}
}

func TestExtractSynthesizesDefaultVariant(t *testing.T) {
	fake := &fakeCompleter{response: `{"title":"Steel Post","variants":[]}`}
	e := New(fake, testLogger())

	product, err := e.Extract(context.Background(), "content", "https://shop.example.com/p")

	require.NoError(t, err)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "Default", product.Variants[0].Title)
	assert.Equal(t, "0.00", product.Variants[0].Price)
	assert.Equal(t, "Default", product.Variants[0].Option1)
}
