package llm

// BuildProductJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. Used locally to validate model output before unmarshaling.
func BuildProductJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"product_name":     map[string]any{"type": "string", "minLength": 1},
			"brand":            map[string]any{"type": "string"},
			"price":            map[string]any{"type": "number", "minimum": 0.0},
			"unit":             map[string]any{"type": "string"},
			"shop_name":        map[string]any{"type": "string"},
			"category":         map[string]any{"type": "string"},
			"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"product_name"},
	}
}
