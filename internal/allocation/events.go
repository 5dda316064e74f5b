package allocation

import (
	"errors"
	"time"

	"allocationservice/internal/domain"
)

type AllocationRequested struct {
	OrderID  string `json:"order_id"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type DeallocationRequested struct {
	OrderID        string `json:"order_id"`
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	BatchReference string `json:"batch_reference"`
}

type Allocated struct {
	EventID        string    `json:"event_id"`
	OrderID        string    `json:"order_id"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	BatchReference string    `json:"batch_reference"`
	AllocatedAt    time.Time `json:"allocated_at"`
}

type AllocationFailed struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	ErrorKind ErrorKind `json:"error_kind"`
}

type Deallocated struct {
	EventID        string    `json:"event_id"`
	OrderID        string    `json:"order_id"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	BatchReference string    `json:"batch_reference"`
	DeallocatedAt  time.Time `json:"deallocated_at"`
}

type DeallocationFailed struct {
	EventID        string    `json:"event_id"`
	OrderID        string    `json:"order_id"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	BatchReference string    `json:"batch_reference"`
	Reason         string    `json:"reason"`
	ErrorKind      ErrorKind `json:"error_kind"`
}

func (r AllocationRequested) line() domain.OrderLine {
	return domain.NewOrderLine(r.OrderID, r.SKU, r.Quantity)
}

func (r DeallocationRequested) line() domain.OrderLine {
	return domain.NewOrderLine(r.OrderID, r.SKU, r.Quantity)
}

// ErrorKind classifies a failed request on the wire.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindOutOfStock   ErrorKind = "out_of_stock"
	KindAllocation   ErrorKind = "allocation"
	KindDeallocation ErrorKind = "deallocation"
	KindUnknown      ErrorKind = "unknown"
)

// KindOf maps a domain error to its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return KindValidation
	case errors.Is(err, domain.ErrOutOfStock):
		return KindOutOfStock
	case errors.Is(err, domain.ErrAllocation):
		return KindAllocation
	case errors.Is(err, domain.ErrDeallocation):
		return KindDeallocation
	default:
		return KindUnknown
	}
}
