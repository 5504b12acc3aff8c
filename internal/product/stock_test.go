package product_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nicksonlangat/clinicsync-api/internal/product"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name        string
		stockNumber int
		want        product.StockStatus
	}{
		{name: "zero_is_out_of_stock", stockNumber: 0, want: product.OutOfStock},
		{name: "one_is_low_stock", stockNumber: 1, want: product.LowStock},
		{name: "twenty_is_low_stock", stockNumber: 20, want: product.LowStock},
		{name: "twenty_one_is_in_stock", stockNumber: 21, want: product.InStock},
		{name: "large_counter_is_in_stock", stockNumber: 10000, want: product.InStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, product.ClassifyStock(tt.stockNumber))
		})
	}
}

func TestComputeStats(t *testing.T) {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	products := []product.Product{
		{Name: "Gauze", StockNumber: 0, Price: price("10.00")},
		{Name: "Syringes", StockNumber: 5, Price: price("2.50")},
		{Name: "Gloves", StockNumber: 20, Price: price("1.00")},
		{Name: "Masks", StockNumber: 100, Price: price("0.30")},
		{Name: "Thermometers", StockNumber: 40, Price: price("12.00")},
	}

	stats := product.ComputeStats(products)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.Equal(t, 2, stats.LowStock)
	assert.Equal(t, 2, stats.InStock)

	// The out-of-stock product contributes 0.00 to the valuation.
	want := price("0.00").Add(price("12.50")).Add(price("20.00")).Add(price("30.00")).Add(price("480.00"))
	assert.True(t, stats.TotalValuation.Equal(want),
		"valuation: got %s, want %s", stats.TotalValuation, want)

	assert.Equal(t, "20.0%", stats.OutOfStockPercentage)
	assert.Equal(t, "40.0%", stats.LowStockPercentage)
	assert.Equal(t, "40.0%", stats.InStockPercentage)
}

func TestComputeStats_EmptyCollection(t *testing.T) {
	stats := product.ComputeStats(nil)

	assert.Equal(t, 0, stats.Total)
	assert.True(t, stats.TotalValuation.IsZero())
	assert.Equal(t, "0", stats.InStockPercentage)
	assert.Equal(t, "0", stats.LowStockPercentage)
	assert.Equal(t, "0", stats.OutOfStockPercentage)
}
