// Package stock reads the batches a service instance starts with.
package stock

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"allocationservice/internal/domain"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// File is the YAML stock document.
type File struct {
	Batches []BatchEntry `yaml:"batches"`
}

// BatchEntry describes one batch. ETA is a YYYY-MM-DD date; empty means the
// batch is already in the warehouse.
type BatchEntry struct {
	Reference string `yaml:"reference"`
	SKU       string `yaml:"sku"`
	Quantity  int    `yaml:"quantity"`
	ETA       string `yaml:"eta,omitempty"`
}

// Load reads and parses a stock file.
func Load(path string) (File, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return File{}, fmt.Errorf("failed to read stock file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a stock document, rejecting unknown fields.
func Parse(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("failed to parse stock file: %w", err)
	}
	return file, nil
}

// Products validates every entry and groups the batches by SKU. Products
// are returned in order of first appearance. A reference may appear only
// once per SKU.
func (f File) Products(opts ...domain.Option) ([]*domain.Product, error) {
	grouped := make(map[string][]*domain.Batch)
	seenRefs := make(map[[2]string]struct{})
	var order []string

	for i, entry := range f.Batches {
		eta, err := entry.eta()
		if err != nil {
			return nil, fmt.Errorf("batch %d (%s): %w", i, entry.Reference, err)
		}
		key := [2]string{entry.SKU, entry.Reference}
		if _, dup := seenRefs[key]; dup {
			return nil, fmt.Errorf("batch %d (%s): %w", i, entry.Reference,
				&domain.ValidationError{Field: "reference", Reason: "duplicate for sku " + entry.SKU})
		}
		seenRefs[key] = struct{}{}

		batch, err := domain.NewBatch(entry.Reference, entry.SKU, entry.Quantity, eta, opts...)
		if err != nil {
			return nil, fmt.Errorf("batch %d (%s): %w", i, entry.Reference, err)
		}
		if _, seen := grouped[entry.SKU]; !seen {
			order = append(order, entry.SKU)
		}
		grouped[entry.SKU] = append(grouped[entry.SKU], batch)
	}

	products := make([]*domain.Product, 0, len(order))
	for _, sku := range order {
		product, err := domain.NewProduct(sku, grouped[sku], opts...)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", sku, err)
		}
		products = append(products, product)
	}
	return products, nil
}

func (e BatchEntry) eta() (*time.Time, error) {
	if e.ETA == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, e.ETA)
	if err != nil {
		return nil, &domain.ValidationError{Field: "eta", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", e.ETA)}
	}
	return &t, nil
}
