// internal/catalog/catalog.go
//
// Catalog of sortable items, partitioned into one Bin per category.
// Responsibilities:
//   - Load a Document from a Source and validate it (known categories,
//     non-empty unique names, at least one item).
//   - Answer lookups across all bins: owning bin, asset path.
//   - Suggest the closest known name for typos (Levenshtein distance).
//
// The catalog is immutable after Load; bins are shared read-only.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Catalog holds the bins built from one loaded Document.
type Catalog struct {
	bins  []*Bin
	byID  map[CategoryID]*Bin
	owner map[string]*Bin // folded name → owning bin
}

// Load fetches a Document from src and builds the catalog.
// Every failure, including a malformed document, is a *LoadError.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	doc, err := src.Fetch(ctx)
	if err != nil {
		return nil, &LoadError{Source: src.String(), Err: err}
	}
	c, err := FromDocument(doc)
	if err != nil {
		return nil, &LoadError{Source: src.String(), Err: err}
	}
	return c, nil
}

// FromDocument validates doc and builds a catalog from it.
func FromDocument(doc Document) (*Catalog, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !CategoryID(k).Valid() {
			return nil, &UnknownCategoryError{Category: k}
		}
	}

	c := &Catalog{
		byID:  make(map[CategoryID]*Bin, len(Categories)),
		owner: make(map[string]*Bin),
	}
	total := 0
	for _, id := range Categories {
		b := newBin(id)
		for i, e := range doc[string(id)] {
			if strings.TrimSpace(e.Item) == "" {
				return nil, fmt.Errorf("%s[%d]: empty item name", id, i)
			}
			key := foldKey(e.Item)
			if prev, dup := c.owner[key]; dup {
				return nil, fmt.Errorf("%s[%d]: duplicate item %q (already in %s)", id, i, e.Item, prev.id)
			}
			b.add(Item{Name: e.Item, AssetPath: e.Path, Category: id})
			c.owner[key] = b
			total++
		}
		c.bins = append(c.bins, b)
		c.byID[id] = b
	}
	if total == 0 {
		return nil, errors.New("catalog is empty")
	}
	return c, nil
}

// Bins returns every bin in Categories order.
func (c *Catalog) Bins() []*Bin {
	return append([]*Bin(nil), c.bins...)
}

// Bin returns the bin for id, ignoring case.
func (c *Catalog) Bin(id CategoryID) (*Bin, error) {
	cat, err := ParseCategory(string(id))
	if err != nil {
		return nil, err
	}
	return c.byID[cat], nil
}

// Len returns the number of items across all bins.
func (c *Catalog) Len() int { return len(c.owner) }

// Lookup finds name in any bin, ignoring case.
func (c *Catalog) Lookup(name string) (Item, error) {
	if b, ok := c.owner[foldKey(name)]; ok {
		it, _ := b.Item(name)
		return it, nil
	}
	return Item{}, &UnknownItemError{Name: name, Suggestion: c.Suggest(name)}
}

// Owner returns the category of the bin that holds name.
func (c *Catalog) Owner(name string) (CategoryID, error) {
	it, err := c.Lookup(name)
	if err != nil {
		return "", err
	}
	return it.Category, nil
}

// PathOf returns the asset path for name regardless of which bin owns it.
// Unknown names get PlaceholderPath together with the error.
func (c *Catalog) PathOf(name string) (string, error) {
	it, err := c.Lookup(name)
	if err != nil {
		return PlaceholderPath, err
	}
	return it.AssetPath, nil
}

// Suggest returns the catalog name closest to name, or "" when nothing
// is within the edit-distance limit for its length.
func (c *Catalog) Suggest(name string) string {
	q := foldKey(strings.TrimSpace(name))
	if utf8.RuneCountInString(q) < 3 {
		return ""
	}
	best, bestDist := "", -1
	for _, b := range c.bins {
		for _, it := range b.items {
			cand := foldKey(it.Name)
			dist := levenshtein.ComputeDistance(q, cand)
			if dist > distanceLimit(utf8.RuneCountInString(cand)) {
				continue
			}
			if bestDist < 0 || dist < bestDist || (dist == bestDist && it.Name < best) {
				best, bestDist = it.Name, dist
			}
		}
	}
	return best
}

// distanceLimit is the largest edit distance accepted for a name of n runes.
func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
