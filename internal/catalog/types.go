// internal/catalog/types.go
//
// Core type definitions for the item catalog.
// Defines:
//   - CategoryID: the closed set of bins (blue, yellow, brown, green).
//   - Item: one sortable item with its asset path and owning category.
//   - Entry/Document: the raw {category: [{item, path}]} shape sources return.

package catalog

// CategoryID names one recycling bin. The set is closed; see Categories.
type CategoryID string

const (
	Blue   CategoryID = "blue"
	Yellow CategoryID = "yellow"
	Brown  CategoryID = "brown"
	Green  CategoryID = "green"
)

// Categories lists every bin in display order.
var Categories = []CategoryID{Blue, Yellow, Brown, Green}

// ParseCategory maps a string to a CategoryID, ignoring case.
// Returns *UnknownCategoryError for anything outside Categories.
func ParseCategory(s string) (CategoryID, error) {
	key := foldKey(s)
	for _, c := range Categories {
		if string(c) == key {
			return c, nil
		}
	}
	return "", &UnknownCategoryError{Category: s}
}

// Valid reports whether c is exactly one of Categories.
func (c CategoryID) Valid() bool {
	for _, id := range Categories {
		if id == c {
			return true
		}
	}
	return false
}

func (c CategoryID) String() string { return string(c) }

// PlaceholderPath is the asset shown for names the catalog does not know.
const PlaceholderPath = "assets/poub-template-closed.png"

// Item is an immutable catalog entry.
type Item struct {
	Name      string     `json:"name"`
	AssetPath string     `json:"path"`
	Category  CategoryID `json:"category"`
}

// Entry is one record of the raw catalog document.
type Entry struct {
	Item string `json:"item"`
	Path string `json:"path"`
}

// Document is the raw catalog shape: category name → entries.
type Document map[string][]Entry
