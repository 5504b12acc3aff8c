package clinic

import (
	"time"

	"github.com/gofrs/uuid"
)

type Clinic struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	OpeningHour string    `json:"opening_hour"`
	ClosingHour string    `json:"closing_hour"`
	Email       string    `json:"clinic_email"`
	PhoneNumber string    `json:"clinic_phone_number"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

type Patient struct {
	ID          uuid.UUID `json:"id"`
	ClinicID    uuid.UUID `json:"clinic_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	Gender      Gender    `json:"gender"`
	Age         int       `json:"age"`
	BloodGroup  string    `json:"blood_group"`
	IsAllergic  bool      `json:"is_allergic"`
	LastVisit   time.Time `json:"last_visit"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Staff struct {
	ID          uuid.UUID `json:"id"`
	ClinicID    uuid.UUID `json:"clinic_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        string    `json:"role"`
	PhoneNumber string    `json:"phone_number"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PatientStats and StaffStats back the read-only stats endpoints; simple
// counts, no derived classes.
type PatientStats struct {
	Total    int `json:"total"`
	Male     int `json:"male"`
	Female   int `json:"female"`
	Allergic int `json:"allergic"`
}

type StaffStats struct {
	Total   int            `json:"total"`
	ByRole  map[string]int `json:"by_role"`
	Clinics int            `json:"clinics"`
}
