package llm

import (
	"strings"

	"github.com/arbovm/levenshtein"

	"github.com/kade-connect/pricescout/constants"
)

// maxBrandDistance is the edit-distance tolerance for matching an OCR-mangled
// brand name against the curated list.
const maxBrandDistance = 2

// CanonicalBrand maps an extracted brand onto its canonical spelling when it
// is within edit distance of a known brand. Unrecognized brands pass through
// unchanged; canonicalization is advisory.
func CanonicalBrand(brand string) string {
	b := strings.TrimSpace(brand)
	if b == "" {
		return brand
	}
	lower := strings.ToLower(b)

	best := ""
	bestDist := maxBrandDistance + 1
	for _, known := range constants.KnownBrands {
		d := levenshtein.Distance(lower, strings.ToLower(known))
		if d < bestDist {
			best = known
			bestDist = d
		}
	}
	if bestDist <= maxBrandDistance {
		return best
	}
	return b
}
