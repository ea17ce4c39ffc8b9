// Package merger reconciles products extracted from multiple crawled pages
// into single multi-variant catalog entries. Sites frequently publish one
// page per size or colour of the same physical product with the variant
// dimension encoded in the page title ("Steel Post (2ft)"); token similarity
// over the titles groups those pages without any semantic understanding.
package merger

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/cartloom/catalog-scraper/internal/models"
)

// similarityThreshold is the Jaccard score at or above which two titles are
// considered variants of the same product. High enough that unrelated
// products sharing common nouns stay apart, low enough to tolerate
// variant-specific suffixes.
const similarityThreshold = 0.70

// parenRegex matches a parenthesized substring, including surrounding
// whitespace, e.g. " (2ft)" in "Steel Post (2ft)".
var parenRegex = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// innerParenRegex captures the inner text of the first parenthesized
// substring in a title.
var innerParenRegex = regexp.MustCompile(`\(([^)]+)\)`)

// stopWords are ignored when comparing titles.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"for": true, "with": true, "of": true, "in": true, "on": true,
	"at": true,
}

type Merger struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Merger {
	return &Merger{
		logger: logger.With("component", "merger"),
	}
}

// Merge groups products that represent the same underlying item into single
// multi-variant entries. Inputs are processed in URL-depth order (parents
// first) so the page highest in the site hierarchy establishes the canonical
// identity. Each product is folded into the first already-merged entry whose
// title is similar, or appended as a new entry. Products with empty titles
// are dropped; nothing else is ever discarded and no error is returned.
func (m *Merger) Merge(products []*models.Product) []*models.Product {
	if len(products) == 0 {
		return nil
	}

	// Defensive re-sort; callers are expected to supply depth order already.
	// Stable so same-depth inputs keep their extraction order.
	sorted := make([]*models.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Depth() < sorted[j].Depth()
	})

	var merged []*models.Product

	for _, p := range sorted {
		if strings.TrimSpace(p.Title) == "" {
			m.logger.Warn("dropping product with empty title", "source_url", p.SourceURL)
			continue
		}

		matched := false
		for _, existing := range merged {
			if Similar(p.Title, existing.Title) {
				m.fold(p, existing)
				matched = true
				break
			}
		}

		if !matched {
			merged = append(merged, p)
		}
	}

	if len(merged) < len(products) {
		m.logger.Info("merged variant pages",
			"products_in", len(products),
			"products_out", len(merged))
	}

	return merged
}

// Similar reports whether two product titles are close enough to be size or
// colour variants of one product. Titles are lowercased, stripped of
// parenthesized substrings, tokenized on whitespace, and filtered of stop
// words; the Jaccard index over the resulting word sets decides.
func Similar(title1, title2 string) bool {
	words1 := titleWords(title1)
	words2 := titleWords(title2)

	if len(words1) == 0 || len(words2) == 0 {
		return false
	}

	return Jaccard(words1, words2) >= similarityThreshold
}

// Jaccard returns |intersection| / |union| of two word sets.
func Jaccard(words1, words2 map[string]bool) float64 {
	intersection := 0
	for w := range words1 {
		if words2[w] {
			intersection++
		}
	}

	union := len(words1) + len(words2) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// StripParens removes every parenthesized substring from a title and trims
// the result. A title without parentheses comes back unchanged modulo trim.
func StripParens(title string) string {
	return strings.TrimSpace(parenRegex.ReplaceAllString(title, " "))
}

func titleWords(title string) map[string]bool {
	clean := StripParens(strings.ToLower(title))

	words := make(map[string]bool)
	for _, w := range strings.Fields(clean) {
		if stopWords[w] {
			continue
		}
		words[w] = true
	}
	return words
}

// fold merges p into existing. The parent page (smaller URL depth, longer
// stripped title on ties) supplies the product title; every variant of p is
// appended with its title and option1 rewritten from p's page title; images
// are deduplicated by src; options are recomputed as a single "Size" axis
// over the distinct option1 values in first-seen order.
func (m *Merger) fold(p, existing *models.Product) {
	m.logger.Info("merging variant page",
		"title", p.Title,
		"depth", p.Depth(),
		"into", existing.Title,
		"into_depth", existing.Depth())

	existing.Title = parentTitle(p, existing)

	for _, v := range p.Variants {
		v.Title = p.Title
		if inner := innerParenRegex.FindStringSubmatch(p.Title); inner != nil {
			v.Option1 = inner[1]
		} else {
			v.Option1 = p.Title
		}
		existing.Variants = append(existing.Variants, v)
	}

	seen := make(map[string]bool, len(existing.Images))
	for _, img := range existing.Images {
		seen[img.Src] = true
	}
	for _, img := range p.Images {
		if !seen[img.Src] {
			existing.Images = append(existing.Images, img)
			seen[img.Src] = true
		}
	}

	existing.Options = []models.Option{sizeOption(existing.Variants)}
}

// parentTitle picks the canonical title when folding p into existing.
// Depth wins first (shallower page is the parent); on equal depth the longer
// stripped title is kept as the more descriptive one, with the incumbent
// winning exact length ties.
func parentTitle(p, existing *models.Product) string {
	switch {
	case p.Depth() < existing.Depth():
		return StripParens(p.Title)
	case existing.Depth() < p.Depth():
		return StripParens(existing.Title)
	default:
		cleanExisting := StripParens(existing.Title)
		cleanNew := StripParens(p.Title)
		if len(cleanExisting) >= len(cleanNew) {
			return cleanExisting
		}
		return cleanNew
	}
}

// sizeOption rebuilds the single merged option axis from variant option1
// values, keeping first-seen order. The axis is always named "Size" even
// when the underlying dimension was a length or a colour.
func sizeOption(variants []models.Variant) models.Option {
	var values []string
	seen := make(map[string]bool)

	for _, v := range variants {
		val := v.Option1
		if val == "" {
			val = "Default"
		}
		if !seen[val] {
			values = append(values, val)
			seen[val] = true
		}
	}

	return models.Option{Name: "Size", Values: values}
}
