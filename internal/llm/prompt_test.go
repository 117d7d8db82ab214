package llm

import (
	"strings"
	"testing"

	"github.com/kade-connect/pricescout/constants"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("ANCHOR MILK POWDER 400g Rs.850")

	if !strings.Contains(prompt, "ANCHOR MILK POWDER 400g Rs.850") {
		t.Error("prompt missing OCR text")
	}
	for _, key := range []string{"product_name", "brand", "price", "unit", "shop_name", "category", "confidence_score"} {
		if !strings.Contains(prompt, `"`+key+`"`) {
			t.Errorf("prompt missing JSON key %q", key)
		}
	}
	for _, brand := range constants.KnownBrands {
		if !strings.Contains(prompt, brand) {
			t.Errorf("prompt missing brand %q", brand)
		}
	}
	for _, term := range constants.Glossary {
		if !strings.Contains(prompt, term.English) {
			t.Errorf("prompt missing glossary term %q", term.English)
		}
	}
	if !strings.Contains(prompt, "Return ONLY the JSON object") {
		t.Error("prompt missing JSON-only instruction")
	}
}

func TestBuildPromptListsCategories(t *testing.T) {
	prompt := BuildPrompt("anything")
	for _, c := range constants.AsStringSlice() {
		if !strings.Contains(prompt, c) {
			t.Errorf("prompt missing category %q", c)
		}
	}
}
