package domain

// OrderLine is a request to fulfil Quantity units of SKU for an order.
// It is a comparable value and is used directly as a set key by Batch.
type OrderLine struct {
	Reference string
	SKU       string
	Quantity  int
}

func NewOrderLine(reference, sku string, quantity int) OrderLine {
	return OrderLine{Reference: reference, SKU: sku, Quantity: quantity}
}
