package reservation

import (
	"time"

	"github.com/gofrs/uuid"
)

// Status is the same three-value lifecycle as orders. Reservations and
// bills do not take part in status synchronization; they only share the
// generated-number pattern.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusComplete  Status = "Complete"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusComplete || s == StatusCancelled
}

type Reservation struct {
	ID                uuid.UUID `json:"id"`
	ReservationNumber string    `json:"reservation_number"`
	PatientID         uuid.UUID `json:"patient_id"`
	DoctorID          uuid.UUID `json:"doctor_id"`
	ReservationDate   time.Time `json:"reservation_date"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	Status            Status    `json:"status"`
	Description       string    `json:"description"`
	Treatment         string    `json:"treatment"`
	CreatedBy         uuid.UUID `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Bill struct {
	ID            uuid.UUID  `json:"id"`
	BillNumber    string     `json:"bill_number"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	Status        Status     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Description   string     `json:"description"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
