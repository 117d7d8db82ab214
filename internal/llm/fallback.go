package llm

import (
	"regexp"
	"strconv"
	"strings"
)

// Fallback confidences are fixed by contract: 0.7 for any regex parse that
// finds a product name (regardless of how many other fields matched), 0.1
// when not even a name could be recovered.
const (
	FallbackConfidence = 0.7
	MinimalConfidence  = 0.1

	UnknownProductName = "Unknown Product"
)

var (
	reProductName = regexp.MustCompile(`(?i)product[_ ]name[:\s]+([^\n]+)`)
	reBrand       = regexp.MustCompile(`(?i)brand[:\s]+([^\n]+)`)
	rePrice       = regexp.MustCompile(`(?i)price[:\s]+(\d+\.?\d*)`)
	reUnit        = regexp.MustCompile(`(?i)unit[:\s]+([^\n]+)`)
	reShopName    = regexp.MustCompile(`(?i)shop[_ ]name[:\s]+([^\n]+)`)
)

// ParseFallback extracts fields from a non-JSON model response by matching
// "label: value" lines case-insensitively. Unmatched fields stay unset.
func ParseFallback(text string) ProductFields {
	var f ProductFields

	if m := reProductName.FindStringSubmatch(text); m != nil {
		f.ProductName = strings.TrimSpace(m[1])
	}
	if f.ProductName == "" {
		return ProductFields{ProductName: UnknownProductName, Confidence: MinimalConfidence}
	}

	if m := reBrand.FindStringSubmatch(text); m != nil {
		f.Brand = strings.TrimSpace(m[1])
	}
	if m := rePrice.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.Price = &v
		}
	}
	if m := reUnit.FindStringSubmatch(text); m != nil {
		f.Unit = strings.TrimSpace(m[1])
	}
	if m := reShopName.FindStringSubmatch(text); m != nil {
		f.ShopName = strings.TrimSpace(m[1])
	}

	f.Confidence = FallbackConfidence
	return f
}
