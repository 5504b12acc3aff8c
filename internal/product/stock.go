package product

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StockStatus is the stock-level class derived from a product's counter.
type StockStatus string

const (
	OutOfStock StockStatus = "Out of stock"
	LowStock   StockStatus = "Low stock"
	InStock    StockStatus = "In stock"
)

// lowStockThreshold is inclusive: a counter of exactly 20 is still low.
const lowStockThreshold = 20

// ClassifyStock maps a stock counter onto its class. Pure function.
func ClassifyStock(stockNumber int) StockStatus {
	switch {
	case stockNumber == 0:
		return OutOfStock
	case stockNumber <= lowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// Stats is the aggregate inventory report over a product collection.
type Stats struct {
	Total          int             `json:"total"`
	InStock        int             `json:"in_stock"`
	LowStock       int             `json:"low_stock"`
	OutOfStock     int             `json:"out_of_stock"`
	TotalValuation decimal.Decimal `json:"total_valuation"`

	// Percentages are preformatted; "0" when the collection is empty.
	InStockPercentage    string `json:"in_stock_percentage"`
	LowStockPercentage   string `json:"low_stock_percentage"`
	OutOfStockPercentage string `json:"out_of_stock_percentage"`
}

// ComputeStats classifies every product in the collection and sums the
// valuation as Σ(price × stock). An empty collection yields zero counts,
// a zero valuation and "0" percentages rather than an error.
func ComputeStats(products []Product) Stats {
	stats := Stats{
		Total:          len(products),
		TotalValuation: decimal.Zero,
	}

	for _, p := range products {
		switch ClassifyStock(p.StockNumber) {
		case OutOfStock:
			stats.OutOfStock++
		case LowStock:
			stats.LowStock++
		case InStock:
			stats.InStock++
		}
		stats.TotalValuation = stats.TotalValuation.Add(
			p.Price.Mul(decimal.NewFromInt(int64(p.StockNumber))))
	}

	stats.InStockPercentage = percentage(stats.InStock, stats.Total)
	stats.LowStockPercentage = percentage(stats.LowStock, stats.Total)
	stats.OutOfStockPercentage = percentage(stats.OutOfStock, stats.Total)

	return stats
}

func percentage(part, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
