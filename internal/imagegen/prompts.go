package imagegen

import (
	"fmt"
	"strings"
)

// Variation selects which marketing shot to generate for a product.
type Variation string

const (
	// VariationStudio is the seamless white-background product shot.
	VariationStudio Variation = "studio"
	// VariationInUse shows the product in a realistic usage scene.
	VariationInUse Variation = "in_use"
)

// furnitureKeywords and lifestyleKeywords steer the in-use scene: products
// matching either get a lifestyle setting, everything else gets an
// industrial/workplace setting.
var furnitureKeywords = []string{
	"bench", "chair", "seat", "seating", "table", "sofa", "couch", "stool", "furniture",
	"lounger", "hammock", "swing", "gazebo", "pergola", "planter", "pot", "bed",
	"cabinet", "shelf", "shelving", "desk", "ottoman", "recliner", "rocker",
	"loveseat", "sectional", "futon", "daybed", "chaise",
}

var lifestyleKeywords = []string{
	"garden", "outdoor", "patio", "deck", "decking", "bbq", "grill", "fire pit",
	"umbrella", "parasol", "fountain", "statue", "ornament", "decorative",
	"home", "living", "bedroom", "dining", "kitchen", "bathroom",
	"pool", "spa", "hot tub", "sauna", "playground", "play", "toy",
	"pet", "dog", "cat", "bird", "aquarium", "fish tank",
	"lighting", "lamp", "chandelier", "sconce", "lantern",
	"rug", "carpet", "mat", "cushion", "pillow", "throw",
	"curtain", "blind", "shade", "drape",
	"vase", "bowl", "basket", "container", "storage box",
	"mirror", "picture frame", "art", "wall decor",
	"candle", "incense", "diffuser", "aromatherapy",
}

// isLifestyleProduct classifies the product for scene selection.
func isLifestyleProduct(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range furnitureKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range lifestyleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// buildPrompt produces the generation prompt for the requested variation.
func buildPrompt(title string, variation Variation, refCount int) string {
	var b strings.Builder

	sizeContext := ""
	if refCount > 1 {
		sizeContext = fmt.Sprintf(`SIZE & SCALE CONTEXT:
- %d reference images of this product are provided; analyze ALL of them to
  understand its real-world size, proportions, and complete setup.
- Show the product at its correct real-world scale, loaded/assembled the way
  the references show it, never as an empty base or frame.
`, refCount)
	}

	if variation == VariationStudio {
		fmt.Fprintf(&b, `Professional studio product photography with SEAMLESS pure white background.

PRODUCT TO RECREATE:
%sProduct Name: %s

BACKGROUND:
- Completely uniform pure white (#FFFFFF) from edge to edge.
- No halos, vignettes, gradients, shadows, floor, or horizon line; the
  product appears to float, as in high-end e-commerce listings.

PRODUCT RECREATION:
- Recreate the product from the references with exact colors, materials,
  shape, proportions, and features.
- Remove all text, logos, branding, and labels from the product.
- No people, props, or environment.

COMPOSITION:
- Product centered, filling 70-80%% of the frame, slight 3/4 angle.
- Bright even lighting; soft shadows on the product itself only, zero
  shadows on the background.`, sizeContext, title)
		return b.String()
	}

	scenario := "INDUSTRIAL"
	setting := `- Job site, workshop, garage, or workplace with authentic surfaces.
- Show a worker actively installing or operating the product, dressed
  appropriately, with focus on hands and product interaction.`
	if isLifestyleProduct(title) {
		scenario = "LIFESTYLE"
		setting = `- Outdoor garden, patio, deck, or inviting home setting with natural light.
- Show a person naturally using or enjoying the product in a relaxed,
  authentic moment.`
	}

	fmt.Fprintf(&b, `You are a professional lifestyle product photographer. Transform this
product image into a realistic photograph showing the product in use.

PRODUCT: %s
%s
SCENARIO TYPE: %s

PRODUCT INTEGRITY (must not change):
- Keep the exact physical design, colors, materials, dimensions, and
  features shown in the references; only remove text, logos, and branding
  from the product itself.

SCENE:
%s
- Shallow depth of field: product and person in focus, background blurred.
- Photorealistic, natural lighting and color grading; must look like a real
  photograph, not CGI.
- Generic environmental signage (CAUTION, EXIT) may stay; company names and
  brand logos must not appear anywhere.`, title, sizeContext, scenario, setting)

	return b.String()
}
