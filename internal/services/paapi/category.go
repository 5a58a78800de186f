package paapi

import (
	"strings"

	"rotativa/internal/textnorm"
)

// categoryMap maps common Spanish category names onto the backend's canonical
// search-index values.
var categoryMap = map[string]string{
	"tecnologia":  "Electronics",
	"electronica": "Electronics",
	"informatica": "Computers",
	"videojuegos": "VideoGames",
	"hogar":       "HomeAndKitchen",
	"cocina":      "Kitchen",
	"moda":        "Fashion",
	"deportes":    "SportsAndOutdoors",
	"libros":      "Books",
	"cine":        "MoviesAndTV",
	"peliculas":   "MoviesAndTV",
	"series":      "TV",
	"juguetes":    "ToysAndGames",
}

// validIndices lists the canonical search-index values accepted verbatim.
var validIndices = map[string]struct{}{
	"Electronics":       {},
	"Computers":         {},
	"VideoGames":        {},
	"HomeAndKitchen":    {},
	"Kitchen":           {},
	"Fashion":           {},
	"SportsAndOutdoors": {},
	"Books":             {},
	"MoviesAndTV":       {},
	"TV":                {},
	"ToysAndGames":      {},
}

// ResolveSearchIndex maps a natural-language category onto the canonical
// search index. The literal "All" and the empty string mean "no filter" and
// return the empty string, as does any unrecognized term.
func ResolveSearchIndex(category string) string {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, "all") {
		return ""
	}
	folded := strings.ToLower(textnorm.Fold(category))
	if index, ok := categoryMap[folded]; ok {
		return index
	}
	if _, ok := validIndices[category]; ok {
		return category
	}
	return ""
}
