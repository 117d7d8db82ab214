package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kade-connect/pricescout/constants"
)

const (
	// NoTextProductName marks a short-circuited run: nothing was recognized,
	// so no completion call is made.
	NoTextProductName = "No text detected"
	// ParseFailedProductName marks a completion-service failure. The record
	// still carries the raw OCR text at minimal confidence.
	ParseFailedProductName = "Parsing failed"
)

// Extractor is Stage 4: raw OCR text -> structured product fields. All
// failures degrade to low-confidence fields; Extract never returns an error.
type Extractor struct {
	completer TextCompleter
	logger    *slog.Logger
}

func NewExtractor(completer TextCompleter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{completer: completer, logger: logger}
}

// Extract prompts the model with the OCR text and parses the response.
// Empty input short-circuits without calling the completion service.
func (e *Extractor) Extract(ctx context.Context, ocrText string) (fields ProductFields) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("llm.extract.panic", "panic", r)
			fields = ProductFields{ProductName: ParseFailedProductName, Confidence: MinimalConfidence}
		}
	}()

	if strings.TrimSpace(ocrText) == "" {
		e.logger.Info("llm.extract.no_text")
		return ProductFields{ProductName: NoTextProductName, Confidence: 0.0}
	}

	start := time.Now()
	prompt := BuildPrompt(ocrText)

	raw, err := e.completer.CompleteText(ctx, prompt)
	if err != nil {
		e.logger.Error("llm.extract.completion_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return ProductFields{ProductName: ParseFailedProductName, Confidence: MinimalConfidence}
	}

	fields = e.parseCompletion(raw)
	if fields.Brand != "" {
		fields.Brand = CanonicalBrand(fields.Brand)
	}
	if c, ok := constants.Canonicalize(fields.Category); ok {
		fields.Category = string(c)
	}

	e.logger.Info("llm.extract.ok",
		"product", fields.ProductName,
		"brand", fields.Brand,
		"confidence", fields.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields
}

// parseCompletion attempts strict JSON decoding first, then the regex
// fallback for malformed or non-JSON responses.
func (e *Extractor) parseCompletion(raw string) ProductFields {
	s := stripCodeFences(strings.TrimSpace(raw))

	if strings.HasPrefix(s, "{") {
		fields, err := parseStrictJSON(s, e.logger)
		if err == nil {
			return fields
		}
		e.logger.Warn("llm.extract.json_parse_failed", "error", err)
	}
	return ParseFallback(s)
}

func parseStrictJSON(s string, logger *slog.Logger) (ProductFields, error) {
	cleaned, _, err := NormalizeAndSanitizeJSON([]byte(s), logger)
	if err != nil {
		return ProductFields{}, err
	}
	if err := ValidateJSONAgainstSchema(BuildProductJSONSchema(), cleaned); err != nil {
		return ProductFields{}, err
	}
	var f ProductFields
	if err := json.Unmarshal(cleaned, &f); err != nil {
		return ProductFields{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	return f, nil
}

// stripCodeFences unwraps ```json ... ``` blocks some models emit despite
// instructions.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
