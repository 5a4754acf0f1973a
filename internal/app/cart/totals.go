package cart

import (
	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
)

// Totals are the derived projections of a line item sequence: the money
// total and the summed quantity.
type Totals struct {
	Total     float64
	ItemCount int
}

// ComputeTotals folds the items in a single pass. Pure and
// order-independent; callers must have filtered malformed items already.
func ComputeTotals(items []model.CartLineItem) Totals {
	var t Totals
	for _, item := range items {
		t.Total += item.Product.Price * float64(item.Quantity)
		t.ItemCount += item.Quantity
	}
	return t
}
