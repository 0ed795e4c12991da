// assets/embed.go
//
// Embedded data shipped with the server binary:
//   - items.json:  default catalog (36 items, 9 per bin)
//   - sql/*.sql:   schema migrations for the SQLite catalog

package assets

import (
	"embed"
	"io/fs"
)

//go:embed items.json sql/*.sql
var FS embed.FS

// DefaultCatalog returns the raw bytes of the embedded items.json.
func DefaultCatalog() ([]byte, error) {
	return FS.ReadFile("items.json")
}

// Migrations returns the embedded sql directory.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
