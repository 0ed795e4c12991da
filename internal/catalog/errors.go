// internal/catalog/errors.go
//
// Typed catalog errors. Callers match them with errors.As:
//   - LoadError: the catalog could not be fetched or is malformed.
//   - UnknownItemError: a name outside every bin (with a suggestion).
//   - UnknownCategoryError: a bin id outside Categories.

package catalog

import "fmt"

// LoadError reports a catalog that could not be fetched or is malformed.
// A round cannot start without a catalog, so callers treat it as fatal.
type LoadError struct {
	Source string // human-readable source description (file path, URL, ...)
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// UnknownItemError reports a name that is not in any bin.
type UnknownItemError struct {
	Name       string
	Suggestion string // closest catalog name, if any
}

func (e *UnknownItemError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("catalog: unknown item %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("catalog: unknown item %q", e.Name)
}

// UnknownCategoryError reports a bin id outside Categories.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("catalog: unknown category %q", e.Category)
}
