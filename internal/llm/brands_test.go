package llm

import "testing"

func TestCanonicalBrand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Anchor", "Anchor"},
		{"anchor", "Anchor"},
		{"Ancor", "Anchor"},    // OCR dropped a letter
		{"Malibon", "Maliban"}, // one substitution
		{"  Munchee ", "Munchee"},
		{"Nestle", "Nestle"}, // not in the curated list, passes through
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalBrand(tt.in); got != tt.want {
			t.Errorf("CanonicalBrand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
