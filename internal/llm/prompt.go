package llm

import (
	"strings"

	"github.com/kade-connect/pricescout/constants"
)

// BuildPrompt renders the extraction prompt: OCR text, the JSON shape the
// model must return, a curated brand list, and a small Sinhala/Tamil
// glossary for common grocery terms.
func BuildPrompt(ocrText string) string {
	var b strings.Builder

	b.WriteString("You are an expert at extracting product information from Sri Lankan shop price tags and product labels.\n\n")

	b.WriteString("OCR text from image:\n")
	b.WriteString(ocrText)
	b.WriteString("\n\n")

	b.WriteString("Extract the following information and return as JSON:\n")
	b.WriteString(`{
  "product_name": "Product name in English (translate if in Sinhala/Tamil)",
  "brand": "Brand name if visible",
  "price": "Price in LKR (numbers only, no currency symbols)",
  "unit": "Unit of measurement (kg, g, ml, l, pieces, etc)",
  "shop_name": "Shop or store name if mentioned",
  "category": "Product category (` + strings.Join(constants.AsStringSlice(), ", ") + `)",
  "confidence_score": "Your confidence in the extraction (0.0 to 1.0)"
}`)
	b.WriteString("\n\n")

	b.WriteString("Common Sri Lankan brands: ")
	b.WriteString(strings.Join(constants.KnownBrands, ", "))
	b.WriteString(".\n")

	b.WriteString("Common Sinhala/Tamil words:\n")
	for _, term := range constants.Glossary {
		b.WriteString("- ")
		b.WriteString(term.Sinhala)
		b.WriteString("/")
		b.WriteString(term.Tamil)
		b.WriteString(" = ")
		b.WriteString(term.English)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("If price is not clearly visible, omit it. ")
	b.WriteString("If product name is unclear, make your best guess based on context. ")
	b.WriteString("Return ONLY the JSON object, no prose.")

	return b.String()
}
