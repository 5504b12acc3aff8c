package vendors

import (
	"time"

	"github.com/gofrs/uuid"
)

// Vendor supplies products and receives fulfillment notifications at Email.
type Vendor struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Location    string    `json:"location"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
