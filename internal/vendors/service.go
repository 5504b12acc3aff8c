package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateVendor(ctx context.Context, v *Vendor) (*Vendor, error)
	GetVendorByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	ListVendors(ctx context.Context, createdBy uuid.UUID) ([]Vendor, error)
	UpdateVendor(ctx context.Context, v *Vendor) (*Vendor, error)
	DeleteVendor(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateVendor(ctx context.Context, v *Vendor) (*Vendor, error) {
	if v.Name == "" {
		return nil, errors.New("service: vendor name is required")
	}
	if v.Email == "" {
		return nil, errors.New("service: vendor email is required")
	}

	v.ID = uuid.Nil
	if err := s.repo.Create(ctx, v); err != nil {
		log.Error().Err(err).Str("name", v.Name).Msg("service: failed to create vendor")
		return nil, fmt.Errorf("service: failed to create vendor: %w", err)
	}

	log.Info().Stringer("vendor_id", v.ID).Msg("service: vendor created")
	return v, nil
}

func (s *service) GetVendorByID(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVendorNotFound) {
			return nil, ErrVendorNotFound
		}
		log.Error().Err(err).Stringer("vendor_id", id).Msg("service: failed to fetch vendor")
		return nil, fmt.Errorf("service: failed to fetch vendor: %w", err)
	}
	return v, nil
}

func (s *service) ListVendors(ctx context.Context, createdBy uuid.UUID) ([]Vendor, error) {
	list, err := s.repo.List(ctx, createdBy)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list vendors")
		return nil, fmt.Errorf("service: failed to list vendors: %w", err)
	}
	return list, nil
}

func (s *service) UpdateVendor(ctx context.Context, v *Vendor) (*Vendor, error) {
	if err := s.repo.Update(ctx, v); err != nil {
		if errors.Is(err, ErrVendorNotFound) {
			return nil, ErrVendorNotFound
		}
		log.Error().Err(err).Stringer("vendor_id", v.ID).Msg("service: failed to update vendor")
		return nil, fmt.Errorf("service: failed to update vendor: %w", err)
	}
	return s.repo.GetByID(ctx, v.ID)
}

func (s *service) DeleteVendor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrVendorNotFound) {
			return ErrVendorNotFound
		}
		log.Error().Err(err).Stringer("vendor_id", id).Msg("service: failed to delete vendor")
		return fmt.Errorf("service: failed to delete vendor: %w", err)
	}
	return nil
}
