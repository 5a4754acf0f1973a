package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
)

func lineItem(id string, price float64, quantity int) model.CartLineItem {
	return model.CartLineItem{
		Product:  model.Product{ID: id, Name: "Product " + id, Price: price},
		Quantity: quantity,
	}
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.Equal(t, 0.0, totals.Total)
	assert.Equal(t, 0, totals.ItemCount)
}

func TestComputeTotals_SumsPriceTimesQuantity(t *testing.T) {
	items := []model.CartLineItem{
		lineItem("a", 100000, 2),
		lineItem("b", 50000, 1),
	}

	totals := ComputeTotals(items)
	assert.Equal(t, 250000.0, totals.Total)
	assert.Equal(t, 3, totals.ItemCount)
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	forward := []model.CartLineItem{
		lineItem("a", 19999, 3),
		lineItem("b", 45000, 1),
		lineItem("c", 120000, 2),
	}
	reversed := []model.CartLineItem{forward[2], forward[1], forward[0]}

	assert.Equal(t, ComputeTotals(forward), ComputeTotals(reversed))
}

func TestComputeTotals_SingleLine(t *testing.T) {
	totals := ComputeTotals([]model.CartLineItem{lineItem("a", 75000, 4)})
	assert.Equal(t, 300000.0, totals.Total)
	assert.Equal(t, 4, totals.ItemCount)
}
