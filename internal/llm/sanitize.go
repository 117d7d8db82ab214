package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// NormalizeAndSanitizeJSON tidies a model response before schema validation:
//   - coerces numeric strings to numbers for price and confidence_score
//   - drops null / empty optionals
//   - removes unknown keys (strict additionalProperties friendliness)
//   - trims string values
//
// Returns the cleaned document and the list of adjustments made.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)

	coerceNumber := func(k string) {
		v, ok := m[k]
		if !ok {
			return
		}
		switch t := v.(type) {
		case float64:
			// already a number
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
				return
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				m[k] = f
				dropped = append(dropped, k+"(coerced)")
			} else {
				delete(m, k)
				dropped = append(dropped, k+"(unparsable)")
			}
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}
	coerceNumber("price")
	coerceNumber("confidence_score")

	allowed := map[string]struct{}{
		"product_name": {}, "brand": {}, "price": {}, "unit": {},
		"shop_name": {}, "category": {}, "confidence_score": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	for _, k := range []string{"product_name", "brand", "unit", "shop_name", "category"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			delete(m, k)
			dropped = append(dropped, k+"(type)")
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			dropped = append(dropped, k+"(empty)")
		} else {
			m[k] = s
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitized", "adjustments", dropped)
	}
	return out, dropped, nil
}
