package constants

// LanguageHints are passed to the text recognizer: English, Sinhala, Tamil.
var LanguageHints = []string{"en", "si", "ta"}

// KnownBrands is the curated list of local brand names embedded in the
// extraction prompt and used for brand canonicalization.
var KnownBrands = []string{
	"Anchor",
	"Maliban",
	"Munchee",
	"Kotmale",
	"Pelwatte",
	"CBL",
	"Elephant House",
	"Raigam",
	"Harischandra",
	"MD",
}

// GlossaryTerm maps a Sinhala/Tamil grocery term to its English name.
type GlossaryTerm struct {
	Sinhala string
	Tamil   string
	English string
}

// Glossary holds common grocery terms included in the extraction prompt so
// the model can translate local-language price tags.
var Glossary = []GlossaryTerm{
	{Sinhala: "කිරි", Tamil: "பால்", English: "Milk"},
	{Sinhala: "පාන්", Tamil: "ரொட்டி", English: "Bread"},
	{Sinhala: "බත්", Tamil: "அரிசி", English: "Rice"},
	{Sinhala: "සීනි", Tamil: "சீனி", English: "Sugar"},
	{Sinhala: "තේ", Tamil: "தேநீர்", English: "Tea"},
}
