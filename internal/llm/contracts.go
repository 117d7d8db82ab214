package llm

import "context"

// ProductFields is the structured shape we want from the model. The JSON
// keys are a compatibility contract with downstream consumers; do not rename.
type ProductFields struct {
	ProductName string   `json:"product_name"`
	Brand       string   `json:"brand,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	ShopName    string   `json:"shop_name,omitempty"`
	Category    string   `json:"category,omitempty"`
	Confidence  float64  `json:"confidence_score,omitempty"`
}

// TextCompleter is the narrow capability the extractor depends on: one
// rendered prompt in, one free-text completion out. Implementations should
// use deterministic (zero-temperature) sampling.
type TextCompleter interface {
	CompleteText(ctx context.Context, prompt string) (string, error)
}
