package product

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a single catalog entry owned by a vendor. SKU is generated on
// create when absent and never changes afterwards.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	StockNumber int             `json:"stock_number"`
	Price       decimal.Decimal `json:"price"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Derived on read, never stored.
	StockStatus StockStatus `json:"stock_status"`
}
