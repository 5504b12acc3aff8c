package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrClinicNotFound  = errors.New("clinic not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrStaffNotFound   = errors.New("staff not found")
)

type Repository interface {
	CreateClinic(ctx context.Context, c *Clinic) error
	GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	ListClinics(ctx context.Context, createdBy uuid.UUID) ([]Clinic, error)

	CreatePatient(ctx context.Context, p *Patient) error
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context, clinicID uuid.UUID) ([]Patient, error)

	CreateStaff(ctx context.Context, s *Staff) error
	GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	ListStaff(ctx context.Context, clinicID uuid.UUID) ([]Staff, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateClinic(ctx context.Context, c *Clinic) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate clinic ID: %w", err)
		}
		c.ID = id
	}

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO clinics (id, name, location, opening_hour, closing_hour, clinic_email, clinic_phone_number, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, c.Location, c.OpeningHour, c.ClosingHour, c.Email, c.PhoneNumber, c.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert clinic: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *postgresRepository) GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	var c Clinic
	err := r.db.QueryRow(ctx, `
		SELECT id, name, location, opening_hour, closing_hour, clinic_email, clinic_phone_number, created_by, created_at, updated_at
		FROM clinics WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Location, &c.OpeningHour, &c.ClosingHour, &c.Email, &c.PhoneNumber, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, fmt.Errorf("repository: failed to select clinic by id %s: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) ListClinics(ctx context.Context, createdBy uuid.UUID) ([]Clinic, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, location, opening_hour, closing_hour, clinic_email, clinic_phone_number, created_by, created_at, updated_at
		FROM clinics WHERE created_by = $1 ORDER BY updated_at DESC`, createdBy)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query clinics: %w", err)
	}
	defer rows.Close()

	clinics := make([]Clinic, 0)
	for rows.Next() {
		var c Clinic
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.OpeningHour, &c.ClosingHour, &c.Email, &c.PhoneNumber, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan clinic: %w", err)
		}
		clinics = append(clinics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating clinics: %w", err)
	}
	return clinics, nil
}

func (r *postgresRepository) CreatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate patient ID: %w", err)
		}
		p.ID = id
	}

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO patients (id, clinic_id, first_name, last_name, phone_number, address, gender, age, blood_group, is_allergic, last_visit, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.ClinicID, p.FirstName, p.LastName, p.PhoneNumber, p.Address, p.Gender, p.Age, p.BloodGroup, p.IsAllergic, p.LastVisit, p.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert patient: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *postgresRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx, `
		SELECT id, clinic_id, first_name, last_name, phone_number, address, gender, age, blood_group, is_allergic, last_visit, created_by, created_at, updated_at
		FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.ClinicID, &p.FirstName, &p.LastName, &p.PhoneNumber, &p.Address, &p.Gender, &p.Age, &p.BloodGroup, &p.IsAllergic, &p.LastVisit, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("repository: failed to select patient by id %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) ListPatients(ctx context.Context, clinicID uuid.UUID) ([]Patient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, clinic_id, first_name, last_name, phone_number, address, gender, age, blood_group, is_allergic, last_visit, created_by, created_at, updated_at
		FROM patients WHERE clinic_id = $1 ORDER BY updated_at DESC`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := make([]Patient, 0)
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.ClinicID, &p.FirstName, &p.LastName, &p.PhoneNumber, &p.Address, &p.Gender, &p.Age, &p.BloodGroup, &p.IsAllergic, &p.LastVisit, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating patients: %w", err)
	}
	return patients, nil
}

func (r *postgresRepository) CreateStaff(ctx context.Context, s *Staff) error {
	if s.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate staff ID: %w", err)
		}
		s.ID = id
	}

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO staff (id, clinic_id, first_name, last_name, role, phone_number, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.ClinicID, s.FirstName, s.LastName, s.Role, s.PhoneNumber, s.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert staff: %w", err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *postgresRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	var s Staff
	err := r.db.QueryRow(ctx, `
		SELECT id, clinic_id, first_name, last_name, role, phone_number, created_by, created_at, updated_at
		FROM staff WHERE id = $1`, id,
	).Scan(&s.ID, &s.ClinicID, &s.FirstName, &s.LastName, &s.Role, &s.PhoneNumber, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("repository: failed to select staff by id %s: %w", id, err)
	}
	return &s, nil
}

func (r *postgresRepository) ListStaff(ctx context.Context, clinicID uuid.UUID) ([]Staff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, clinic_id, first_name, last_name, role, phone_number, created_by, created_at, updated_at
		FROM staff WHERE clinic_id = $1 ORDER BY updated_at DESC`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query staff: %w", err)
	}
	defer rows.Close()

	staff := make([]Staff, 0)
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.ClinicID, &s.FirstName, &s.LastName, &s.Role, &s.PhoneNumber, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan staff: %w", err)
		}
		staff = append(staff, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating staff: %w", err)
	}
	return staff, nil
}
