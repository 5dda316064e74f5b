package domain

import (
	"slices"
	"time"
)

// Product aggregates the batches of one SKU and picks which batch serves
// an incoming order line. It takes no locks; callers serialize access.
type Product struct {
	sku     string
	batches []*Batch
	clock   Clock
}

// NewProduct rejects a nil batch slice. An empty slice is a product with
// nothing in stock.
func NewProduct(sku string, batches []*Batch, opts ...Option) (*Product, error) {
	if batches == nil {
		return nil, &ValidationError{Field: "batches", Reason: "must not be nil"}
	}
	o := buildOptions(opts)
	return &Product{sku: sku, batches: batches, clock: o.clock}, nil
}

func (p *Product) SKU() string { return p.sku }

// Batches returns the batches in the order the product was built with.
func (p *Product) Batches() []*Batch {
	return slices.Clone(p.batches)
}

// Batch finds a batch by reference.
func (p *Product) Batch(reference string) (*Batch, bool) {
	for _, b := range p.batches {
		if b.reference == reference {
			return b, true
		}
	}
	return nil, false
}

// Allocate prefers warehouse stock (no eta) and then the earliest
// shipment. Only the first candidate is tried; if it cannot take the line
// its AllocationError is returned.
func (p *Product) Allocate(line OrderLine) (string, error) {
	today := p.clock.today()

	candidates := make([]*Batch, 0, len(p.batches))
	for _, b := range p.batches {
		if b.eta == nil || !b.eta.Before(today) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return "", &OutOfStockError{SKU: line.SKU}
	}

	slices.SortStableFunc(candidates, func(a, b *Batch) int {
		return etaOrMin(a).Compare(etaOrMin(b))
	})

	chosen := candidates[0]
	if err := chosen.Allocate(line); err != nil {
		return "", err
	}
	return chosen.reference, nil
}

func etaOrMin(b *Batch) time.Time {
	if b.eta == nil {
		return time.Time{}
	}
	return *b.eta
}
