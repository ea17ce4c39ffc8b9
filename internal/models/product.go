package models

import (
	"strings"
)

// Product is a catalog entry in Shopify import shape. It is produced once
// per accepted page by the extractor and folded together by the merger.
type Product struct {
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
	Options     []Option  `json:"options"`
	SourceURL   string    `json:"source_url,omitempty"`

	// GeneratedImages holds marketing imagery produced for this product as
	// data URLs, kept apart from the scraped Images list.
	GeneratedImages []string `json:"generated_images,omitempty"`
}

type Variant struct {
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	CompareAtPrice string  `json:"compare_at_price,omitempty"`
	SKU            string  `json:"sku"`
	Option1        string  `json:"option1,omitempty"`
	Option2        *string `json:"option2"`
	Option3        *string `json:"option3"`
}

type Image struct {
	Src      string `json:"src"`
	Position int    `json:"position"`
}

type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// DefaultVariant is inserted when extraction yields no variants at all.
func DefaultVariant() Variant {
	return Variant{
		Title:   "Default",
		Price:   "0.00",
		SKU:     "",
		Option1: "Default",
	}
}

// URLDepth counts path separators in a URL. Shorter URLs sit higher in the
// site hierarchy and are treated as parent pages during merging.
func URLDepth(url string) int {
	return strings.Count(url, "/")
}

// Depth returns the URL depth of the page this product was extracted from.
func (p *Product) Depth() int {
	return URLDepth(p.SourceURL)
}

// blockedImageExts lists formats the downstream image pipeline cannot use.
var blockedImageExts = []string{".svg", ".webp", ".ico", ".gif"}

// AllowedImage reports whether src points at a usable image format.
func AllowedImage(src string) bool {
	lower := strings.ToLower(src)
	for _, ext := range blockedImageExts {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}

// FilterImages drops images with blocked extensions, preserving order.
func FilterImages(images []Image) []Image {
	filtered := make([]Image, 0, len(images))
	for _, img := range images {
		if AllowedImage(img.Src) {
			filtered = append(filtered, img)
		}
	}
	return filtered
}

// ImageSrcs returns the image URLs in order, for handing to the image
// generation client as references.
func (p *Product) ImageSrcs() []string {
	srcs := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		srcs = append(srcs, img.Src)
	}
	return srcs
}
