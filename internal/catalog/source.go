// internal/catalog/source.go
//
// Catalog sources: where the raw {category: [{item, path}]} document comes from.
//
// Selection (SourceFromOptions), first match wins:
//   1. URL set   → HTTPSource (GET, 200 required)
//   2. DB set    → SQLSource (catalog_items table)
//   3. File set  → FileSource (JSON on disk)
//   4. otherwise → EmbeddedSource (assets/items.json)
//
// Sources only fetch and decode; validation happens in FromDocument.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/robalobadob/recycle-sort/assets"
)

// Source provides the raw catalog document.
type Source interface {
	Fetch(ctx context.Context) (Document, error)
	String() string
}

// SourceOptions mirrors the catalog settings of the server config.
type SourceOptions struct {
	URL     string
	DB      string
	File    string
	Timeout time.Duration
}

// SourceFromOptions picks a Source according to the precedence above.
func SourceFromOptions(o SourceOptions) Source {
	switch {
	case o.URL != "":
		c := &http.Client{Timeout: o.Timeout}
		return &HTTPSource{URL: o.URL, Client: c}
	case o.DB != "":
		return &SQLSource{Path: o.DB}
	case o.File != "":
		return &FileSource{Path: o.File}
	default:
		return EmbeddedSource{}
	}
}

// EmbeddedSource reads the catalog compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Fetch(ctx context.Context) (Document, error) {
	b, err := assets.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return decode(bytes.NewReader(b))
}

func (EmbeddedSource) String() string { return "embedded items.json" }

// FileSource reads a JSON catalog from disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(ctx context.Context) (Document, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func (s *FileSource) String() string { return "file " + s.Path }

// HTTPSource fetches a JSON catalog with GET.
// Any status other than 200 is an error; the body is not parsed.
type HTTPSource struct {
	URL    string
	Client *http.Client // nil → http.DefaultClient
}

func (s *HTTPSource) Fetch(ctx context.Context) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c := s.Client
	if c == nil {
		c = http.DefaultClient
	}
	res, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return decode(res.Body)
}

func (s *HTTPSource) String() string { return "url " + s.URL }

// decode parses a Document; a missing or null top-level object is an error.
func decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode json: document is null")
	}
	return doc, nil
}
