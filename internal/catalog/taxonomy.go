package catalog

import (
	"strings"
)

// CategoryAll is the wildcard sentinel meaning "no category filter".
const CategoryAll = "all"

// Categories is the fixed taxonomy. Entries are stored with the
// canonical form below.
var Categories = []string{
	"Nature",
	"Space",
	"City",
	"Superhero",
	"Supervillain",
	"Robotic",
	"Anime",
	"Cars",
	"Wildlife",
	"Funny",
	"Seasonal Greetings",
	"Dark Aesthetic",
	"Luxury",
	"Gaming",
	"Ancient World",
}

// CanonicalCategory normalizes a raw category string to its taxonomy
// form: case-insensitive, hyphens and spaces equivalent, each word
// capitalized ("dark-aesthetic" -> "Dark Aesthetic"). The wildcard
// sentinel is lowered to CategoryAll.
func CanonicalCategory(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, CategoryAll) {
		return CategoryAll
	}
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	for i, w := range words {
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}

// ValidCategory reports whether raw names a taxonomy member once
// canonicalized. The wildcard sentinel is not a valid entry category.
func ValidCategory(raw string) bool {
	c := CanonicalCategory(raw)
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
