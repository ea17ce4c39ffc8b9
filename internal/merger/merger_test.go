package merger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartloom/catalog-scraper/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func product(title, url string, variants ...models.Variant) *models.Product {
	if len(variants) == 0 {
		variants = []models.Variant{models.DefaultVariant()}
	}
	return &models.Product{
		Title:     title,
		Variants:  variants,
		SourceURL: url,
	}
}

func TestStripParens(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "strips single parenthesized suffix",
			title:    "Steel Post (2ft)",
			expected: "Steel Post",
		},
		{
			name:     "strips parenthesized substring in the middle",
			title:    "Steel Post (2ft) Galvanised",
			expected: "Steel Post  Galvanised",
		},
		{
			name:     "no parentheses returns title unchanged",
			title:    "Steel Post",
			expected: "Steel Post",
		},
		{
			name:     "trims surrounding whitespace",
			title:    "  Steel Post  ",
			expected: "Steel Post",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripParens(tt.title))
		})
	}
}

func TestJaccardBounds(t *testing.T) {
	a := map[string]bool{"steel": true, "post": true}
	b := map[string]bool{"wooden": true, "bench": true}

	assert.Equal(t, 1.0, Jaccard(a, a))
	assert.Equal(t, 0.0, Jaccard(a, b))

	c := map[string]bool{"steel": true, "bench": true}
	score := Jaccard(a, c)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
}

func TestSimilar(t *testing.T) {
	tests := []struct {
		name    string
		title1  string
		title2  string
		similar bool
	}{
		{
			name:    "identical titles",
			title1:  "Steel Post",
			title2:  "Steel Post",
			similar: true,
		},
		{
			name:    "size variant in parentheses",
			title1:  "Steel Post (2ft)",
			title2:  "Steel Post (3ft)",
			similar: true,
		},
		{
			name:    "parent and child page",
			title1:  "Steel Post",
			title2:  "Steel Post (2ft)",
			similar: true,
		},
		{
			name:    "unrelated products",
			title1:  "Steel Bollard",
			title2:  "Wooden Bench",
			similar: false,
		},
		{
			name:    "stop words do not inflate similarity",
			title1:  "The Post for the Garden",
			title2:  "A Bench with a Garden",
			similar: false,
		},
		{
			name:    "empty title is never similar",
			title1:  "",
			title2:  "Steel Post",
			similar: false,
		},
		{
			name:    "stop-word-only title is never similar",
			title1:  "the and of",
			title2:  "the and of",
			similar: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.similar, Similar(tt.title1, tt.title2))
		})
	}
}

func TestMergeVariantPages(t *testing.T) {
	m := New(testLogger())

	a := product("Post", "https://shop.example.com/post",
		models.Variant{Title: "Default", Price: "90.00", Option1: "Default"})
	b := product("Post (2ft)", "https://shop.example.com/products/post-2ft",
		models.Variant{Title: "2ft", Price: "114.00", SKU: "TRP608-2", Option1: "2ft"})
	c := product("Post (3ft)", "https://shop.example.com/products/post-3ft",
		models.Variant{Title: "3ft", Price: "138.00", SKU: "TRP608-3", Option1: "3ft"})

	// Supplied out of depth order on purpose; merge re-sorts.
	merged := m.Merge([]*models.Product{b, a, c})

	require.Len(t, merged, 1)
	got := merged[0]

	assert.Equal(t, "Post", got.Title)
	require.Len(t, got.Variants, 3)

	// Parent's own variant is untouched, folded variants are rewritten.
	assert.Equal(t, "Default", got.Variants[0].Option1)
	assert.Equal(t, "2ft", got.Variants[1].Option1)
	assert.Equal(t, "Post (2ft)", got.Variants[1].Title)
	assert.Equal(t, "114.00", got.Variants[1].Price)
	assert.Equal(t, "3ft", got.Variants[2].Option1)

	require.Len(t, got.Options, 1)
	assert.Equal(t, "Size", got.Options[0].Name)
	assert.Equal(t, []string{"Default", "2ft", "3ft"}, got.Options[0].Values)
}

func TestMergeKeepsUnrelatedProductsSeparate(t *testing.T) {
	m := New(testLogger())

	merged := m.Merge([]*models.Product{
		product("Steel Bollard", "https://shop.example.com/products/steel-bollard"),
		product("Wooden Bench", "https://shop.example.com/products/wooden-bench"),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "Steel Bollard", merged[0].Title)
	assert.Equal(t, "Wooden Bench", merged[1].Title)
}

func TestMergeDropsEmptyTitles(t *testing.T) {
	m := New(testLogger())

	merged := m.Merge([]*models.Product{
		product("", "https://shop.example.com/products/mystery"),
		product("   ", "https://shop.example.com/products/blank"),
		product("Steel Post", "https://shop.example.com/products/steel-post"),
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "Steel Post", merged[0].Title)
}

func TestMergeDeduplicatesImagesBySrc(t *testing.T) {
	m := New(testLogger())

	a := product("Post", "https://shop.example.com/post")
	a.Images = []models.Image{
		{Src: "https://cdn.example.com/post.jpg", Position: 1},
	}
	b := product("Post (2ft)", "https://shop.example.com/products/post-2ft")
	b.Images = []models.Image{
		{Src: "https://cdn.example.com/post.jpg", Position: 1},
		{Src: "https://cdn.example.com/post-2ft.jpg", Position: 2},
	}

	merged := m.Merge([]*models.Product{a, b})

	require.Len(t, merged, 1)
	require.Len(t, merged[0].Images, 2)
	assert.Equal(t, "https://cdn.example.com/post.jpg", merged[0].Images[0].Src)
	assert.Equal(t, "https://cdn.example.com/post-2ft.jpg", merged[0].Images[1].Src)
}

func TestMergeEqualDepthKeepsLongerTitle(t *testing.T) {
	m := New(testLogger())

	a := product("Steel Post (2ft)", "https://shop.example.com/products/post-2ft")
	b := product("Steel Post Galvanised (3ft)", "https://shop.example.com/products/post-3ft")

	merged := m.Merge([]*models.Product{a, b})

	require.Len(t, merged, 1)
	assert.Equal(t, "Steel Post Galvanised", merged[0].Title)
}

func TestMergeFirstMatchWins(t *testing.T) {
	m := New(testLogger())

	// Both earlier entries clear the threshold against c (3/4 = 0.75) while
	// staying below it against each other; the fold must land on the first
	// entry in creation order.
	a := product("Garden Steel Post", "https://shop.example.com/products/a")
	b := product("Garden Steel Bollard", "https://shop.example.com/products/b")
	c := product("Garden Steel Post Bollard", "https://shop.example.com/products/c")

	merged := m.Merge([]*models.Product{a, b, c})

	require.Len(t, merged, 2)
	assert.Len(t, merged[0].Variants, 2)
	assert.Len(t, merged[1].Variants, 1)
}

func TestMergeEmptyInput(t *testing.T) {
	m := New(testLogger())

	assert.Nil(t, m.Merge(nil))
	assert.Nil(t, m.Merge([]*models.Product{}))
}

func TestMergeDoesNotDeduplicateVariants(t *testing.T) {
	m := New(testLogger())

	v := models.Variant{Title: "2ft", Price: "114.00", SKU: "TRP608-2", Option1: "2ft"}
	a := product("Post", "https://shop.example.com/post", v)
	b := product("Post (2ft)", "https://shop.example.com/products/post-2ft", v)

	merged := m.Merge([]*models.Product{a, b})

	require.Len(t, merged, 1)
	// Duplicate SKUs are accepted; the merge never drops variants.
	assert.Len(t, merged[0].Variants, 2)
}
