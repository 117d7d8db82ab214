package constants

import "strings"

// Category is the canonical product category label stored with a record.
type Category string

const (
	Groceries    Category = "Groceries"
	Dairy        Category = "Dairy"
	Beverages    Category = "Beverages"
	Bakery       Category = "Bakery"
	Snacks       Category = "Snacks"
	Household    Category = "Household"
	PersonalCare Category = "Personal Care"
	Produce      Category = "Produce"
	Other        Category = "Other"
)

var categories = []Category{
	Groceries, Dairy, Beverages, Bakery, Snacks, Household, PersonalCare, Produce, Other,
}

// AsStringSlice returns the category taxonomy as plain strings, in stable order.
func AsStringSlice() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// Canonicalize maps a free-form label onto the taxonomy, case-insensitively.
// Returns false when the label is empty or unknown.
func Canonicalize(label string) (Category, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return "", false
	}
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}
