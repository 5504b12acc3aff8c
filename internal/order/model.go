package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Status is the order's own lifecycle field, distinct from any single
// item's status. Cancelled is terminal for synchronization purposes: item
// writes never resurrect a cancelled order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusComplete  Status = "Complete"
	StatusCancelled Status = "Cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusComplete || s == StatusCancelled
}

// ItemStatus tracks fulfillment of one line item.
type ItemStatus string

const (
	ItemPending  ItemStatus = "Pending"
	ItemReceived ItemStatus = "Received"
)

func (s ItemStatus) String() string {
	return string(s)
}

func (s ItemStatus) Valid() bool {
	return s == ItemPending || s == ItemReceived
}

// OrderItem is one product-quantity-price record belonging to an order.
// Price is captured at creation time and deliberately decoupled from the
// product's current price; Total = Quantity × Price is recomputed on every
// write and persisted for read efficiency.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Status    ItemStatus      `json:"status"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Order owns its line items exclusively; deleting the order deletes them.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	OrderNumber string      `json:"order_number"`
	Status      Status      `json:"status"`
	VendorID    uuid.UUID   `json:"vendor_id"`
	Notes       string      `json:"notes"`
	EmailSent   bool        `json:"email_sent"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Derived on read from Items, never stored.
	AllProducts         int             `json:"all_products"`
	ReceivedProducts    int             `json:"received_products"`
	OrderTotals         decimal.Decimal `json:"order_totals"`
	ReceptionPercentage string          `json:"reception_percentage"`
}

// fillReadFields computes the derived read-only fields from Items.
func (o *Order) fillReadFields() {
	o.AllProducts = len(o.Items)
	o.ReceivedProducts = 0
	o.OrderTotals = decimal.Zero
	for _, item := range o.Items {
		if item.Status == ItemReceived {
			o.ReceivedProducts++
		}
		o.OrderTotals = o.OrderTotals.Add(item.Total)
	}
	if o.AllProducts == 0 {
		o.ReceptionPercentage = "0"
		return
	}
	o.ReceptionPercentage = decimal.NewFromInt(int64(o.ReceivedProducts)).
		Div(decimal.NewFromInt(int64(o.AllProducts))).
		Mul(decimal.NewFromInt(100)).
		Round(1).String() + "%"
}
