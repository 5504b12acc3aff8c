package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateClinic(ctx context.Context, c *Clinic) (*Clinic, error)
	GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	ListClinics(ctx context.Context, createdBy uuid.UUID) ([]Clinic, error)

	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context, clinicID uuid.UUID) ([]Patient, error)
	PatientStats(ctx context.Context, clinicID uuid.UUID) (*PatientStats, error)

	CreateStaff(ctx context.Context, s *Staff) (*Staff, error)
	ListStaff(ctx context.Context, clinicID uuid.UUID) ([]Staff, error)
	StaffStats(ctx context.Context, clinicID uuid.UUID) (*StaffStats, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateClinic(ctx context.Context, c *Clinic) (*Clinic, error) {
	if c.Name == "" {
		return nil, errors.New("service: clinic name is required")
	}
	c.ID = uuid.Nil
	if err := s.repo.CreateClinic(ctx, c); err != nil {
		log.Error().Err(err).Str("name", c.Name).Msg("service: failed to create clinic")
		return nil, fmt.Errorf("service: failed to create clinic: %w", err)
	}
	return c, nil
}

func (s *service) GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c, err := s.repo.GetClinicByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			return nil, ErrClinicNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch clinic: %w", err)
	}
	return c, nil
}

func (s *service) ListClinics(ctx context.Context, createdBy uuid.UUID) ([]Clinic, error) {
	clinics, err := s.repo.ListClinics(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list clinics: %w", err)
	}
	return clinics, nil
}

func (s *service) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	if p.ClinicID == uuid.Nil {
		return nil, errors.New("service: clinic id is required")
	}
	if p.Age < 0 {
		return nil, fmt.Errorf("service: patient age cannot be negative, got %d", p.Age)
	}
	if p.Gender == "" {
		p.Gender = GenderMale
	}
	p.ID = uuid.Nil
	if err := s.repo.CreatePatient(ctx, p); err != nil {
		log.Error().Err(err).Stringer("clinic_id", p.ClinicID).Msg("service: failed to create patient")
		return nil, fmt.Errorf("service: failed to create patient: %w", err)
	}
	return p, nil
}

func (s *service) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch patient: %w", err)
	}
	return p, nil
}

func (s *service) ListPatients(ctx context.Context, clinicID uuid.UUID) ([]Patient, error) {
	patients, err := s.repo.ListPatients(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list patients: %w", err)
	}
	return patients, nil
}

func (s *service) PatientStats(ctx context.Context, clinicID uuid.UUID) (*PatientStats, error) {
	patients, err := s.repo.ListPatients(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to compute patient stats: %w", err)
	}

	stats := &PatientStats{Total: len(patients)}
	for _, p := range patients {
		switch p.Gender {
		case GenderMale:
			stats.Male++
		case GenderFemale:
			stats.Female++
		}
		if p.IsAllergic {
			stats.Allergic++
		}
	}
	return stats, nil
}

func (s *service) CreateStaff(ctx context.Context, st *Staff) (*Staff, error) {
	if st.ClinicID == uuid.Nil {
		return nil, errors.New("service: clinic id is required")
	}
	st.ID = uuid.Nil
	if err := s.repo.CreateStaff(ctx, st); err != nil {
		log.Error().Err(err).Stringer("clinic_id", st.ClinicID).Msg("service: failed to create staff")
		return nil, fmt.Errorf("service: failed to create staff: %w", err)
	}
	return st, nil
}

func (s *service) ListStaff(ctx context.Context, clinicID uuid.UUID) ([]Staff, error) {
	staff, err := s.repo.ListStaff(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list staff: %w", err)
	}
	return staff, nil
}

func (s *service) StaffStats(ctx context.Context, clinicID uuid.UUID) (*StaffStats, error) {
	staff, err := s.repo.ListStaff(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to compute staff stats: %w", err)
	}

	stats := &StaffStats{Total: len(staff), ByRole: make(map[string]int)}
	clinics := make(map[uuid.UUID]struct{})
	for _, member := range staff {
		stats.ByRole[member.Role]++
		clinics[member.ClinicID] = struct{}{}
	}
	stats.Clinics = len(clinics)
	return stats, nil
}
