package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxReferenceLength is the longest batch reference, counted in runes.
const MaxReferenceLength = 25

// Batch is a stock lot of a single SKU. Its available quantity and expiry
// are derived from its allocations and the clock on every call.
type Batch struct {
	reference         string
	sku               string
	purchasedQuantity int
	eta               *time.Time
	allocations       map[OrderLine]struct{}
	clock             Clock
}

// NewBatch validates its arguments against the current date. A nil eta
// means the stock is already in the warehouse.
func NewBatch(reference, sku string, quantity int, eta *time.Time, opts ...Option) (*Batch, error) {
	o := buildOptions(opts)

	if reference == "" || utf8.RuneCountInString(reference) > MaxReferenceLength {
		return nil, &ValidationError{Field: "reference", Reason: "must be 1 to 25 characters"}
	}
	if sku == "" {
		return nil, &ValidationError{Field: "sku", Reason: "must not be empty"}
	}
	if quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	var date *time.Time
	if eta != nil {
		d := Date(*eta)
		if d.Before(o.clock.today()) {
			return nil, &ValidationError{Field: "eta", Reason: "must not be in the past"}
		}
		date = &d
	}

	return &Batch{
		reference:         reference,
		sku:               sku,
		purchasedQuantity: quantity,
		eta:               date,
		allocations:       make(map[OrderLine]struct{}),
		clock:             o.clock,
	}, nil
}

func (b *Batch) Reference() string      { return b.reference }
func (b *Batch) SKU() string            { return b.sku }
func (b *Batch) PurchasedQuantity() int { return b.purchasedQuantity }

// ETA returns a copy of the expected arrival date, or nil.
func (b *Batch) ETA() *time.Time {
	if b.eta == nil {
		return nil
	}
	eta := *b.eta
	return &eta
}

func (b *Batch) AvailableQuantity() int {
	allocated := 0
	for line := range b.allocations {
		allocated += line.Quantity
	}
	return b.purchasedQuantity - allocated
}

func (b *Batch) IsExpired() bool {
	return b.eta != nil && b.eta.Before(b.clock.today())
}

// CanAllocate does not look at whether line is already allocated: an
// allocated line still counts against the available quantity.
func (b *Batch) CanAllocate(line OrderLine) bool {
	return b.sku == line.SKU && b.AvailableQuantity() >= line.Quantity && !b.IsExpired()
}

func (b *Batch) Allocate(line OrderLine) error {
	if !b.CanAllocate(line) {
		return &AllocationError{LineReference: line.Reference, BatchReference: b.reference}
	}
	b.allocations[line] = struct{}{}
	return nil
}

func (b *Batch) Deallocate(line OrderLine) error {
	if _, ok := b.allocations[line]; !ok {
		return &DeallocationError{LineReference: line.Reference, BatchReference: b.reference}
	}
	delete(b.allocations, line)
	return nil
}

func (b *Batch) IsAllocated(line OrderLine) bool {
	_, ok := b.allocations[line]
	return ok
}

// Allocations returns the allocated lines ordered by reference, then SKU,
// then quantity.
func (b *Batch) Allocations() []OrderLine {
	lines := make([]OrderLine, 0, len(b.allocations))
	for line := range b.allocations {
		lines = append(lines, line)
	}
	slices.SortFunc(lines, func(a, c OrderLine) int {
		if n := strings.Compare(a.Reference, c.Reference); n != 0 {
			return n
		}
		if n := strings.Compare(a.SKU, c.SKU); n != 0 {
			return n
		}
		return cmp.Compare(a.Quantity, c.Quantity)
	})
	return lines
}
