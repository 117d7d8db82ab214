package pipeline

import "strings"

// Acceptance thresholds for the post-hoc quality gate. Price bounds reflect
// the plausible LKR range for a single grocery item.
const (
	MinAcceptableConfidence = 0.3
	MinPlausiblePrice       = 1.0
	MaxPlausiblePrice       = 100000.0
)

// IsAcceptable is the caller-invoked quality gate, separate from the main
// pipeline: it rejects records with an empty name, confidence below the
// review threshold, or an implausible price. No mutation.
func IsAcceptable(product *ExtractedProduct) bool {
	if product == nil {
		return false
	}
	if strings.TrimSpace(product.ProductName) == "" {
		return false
	}
	if product.Confidence < MinAcceptableConfidence {
		return false
	}
	if product.Price != nil {
		if *product.Price < MinPlausiblePrice || *product.Price > MaxPlausiblePrice {
			return false
		}
	}
	return true
}
