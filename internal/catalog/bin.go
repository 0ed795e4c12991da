// internal/catalog/bin.go
//
// Bin: the items of one category.
// Built once by Load; read-only afterwards. Membership is case-insensitive
// via Unicode case folding.

package catalog

import "golang.org/x/text/cases"

// Bin owns the items of one category. It is built once by Load and is
// read-only afterwards, so it is safe for concurrent readers.
type Bin struct {
	id    CategoryID
	items []Item
	index map[string]int // folded name → position in items
}

func newBin(id CategoryID) *Bin {
	return &Bin{id: id, index: make(map[string]int)}
}

// add appends an item; only Load calls it.
func (b *Bin) add(it Item) {
	b.index[foldKey(it.Name)] = len(b.items)
	b.items = append(b.items, it)
}

// CategoryID returns the bin's category.
func (b *Bin) CategoryID() CategoryID { return b.id }

// Len returns the number of items in the bin.
func (b *Bin) Len() int { return len(b.items) }

// Contains reports whether name belongs to this bin, ignoring case.
func (b *Bin) Contains(name string) bool {
	_, ok := b.index[foldKey(name)]
	return ok
}

// Item returns the catalog item for name.
func (b *Bin) Item(name string) (Item, bool) {
	i, ok := b.index[foldKey(name)]
	if !ok {
		return Item{}, false
	}
	return b.items[i], true
}

// PathOf returns the asset path of a contained item.
func (b *Bin) PathOf(name string) (string, error) {
	it, ok := b.Item(name)
	if !ok {
		return "", &UnknownItemError{Name: name}
	}
	return it.AssetPath, nil
}

// ItemNames returns the item names in insertion order.
func (b *Bin) ItemNames() []string {
	out := make([]string, len(b.items))
	for i, it := range b.items {
		out[i] = it.Name
	}
	return out
}

// Items returns a copy of the bin's items in insertion order.
func (b *Bin) Items() []Item {
	return append([]Item(nil), b.items...)
}

// foldKey normalizes a name for case-insensitive lookup.
// A Caser carries state, so each call gets its own.
func foldKey(name string) string {
	return cases.Fold().String(name)
}

// FoldKey exposes the lookup normalization to other packages
// that need to compare item names the way bins do.
func FoldKey(name string) string { return foldKey(name) }
