package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidStatus = errors.New("invalid status value")

type Service interface {
	CreateReservation(ctx context.Context, res *Reservation) (*Reservation, error)
	GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListReservations(ctx context.Context, createdBy uuid.UUID) ([]Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uuid.UUID, status Status) (*Reservation, error)

	CreateBill(ctx context.Context, b *Bill) (*Bill, error)
	GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	ListBillsByReservation(ctx context.Context, reservationID uuid.UUID) ([]Bill, error)
	MarkBillPaid(ctx context.Context, id uuid.UUID) (*Bill, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateReservation(ctx context.Context, res *Reservation) (*Reservation, error) {
	if res.PatientID == uuid.Nil {
		return nil, errors.New("service: patient id is required")
	}
	if res.DoctorID == uuid.Nil {
		return nil, errors.New("service: doctor id is required")
	}

	res.ID = uuid.Nil
	res.Status = StatusPending

	if err := s.repo.CreateReservation(ctx, res); err != nil {
		log.Error().Err(err).Stringer("patient_id", res.PatientID).Msg("service: failed to create reservation")
		return nil, fmt.Errorf("service: failed to create reservation: %w", err)
	}

	log.Info().Stringer("reservation_id", res.ID).Str("reservation_number", res.ReservationNumber).
		Msg("service: reservation created")
	return res, nil
}

func (s *service) GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.repo.GetReservationByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch reservation: %w", err)
	}
	return res, nil
}

func (s *service) ListReservations(ctx context.Context, createdBy uuid.UUID) ([]Reservation, error) {
	reservations, err := s.repo.ListReservations(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list reservations: %w", err)
	}
	return reservations, nil
}

func (s *service) UpdateReservationStatus(ctx context.Context, id uuid.UUID, status Status) (*Reservation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("service: %w: %q", ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateReservationStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("service: failed to update reservation status: %w", err)
	}
	return s.GetReservationByID(ctx, id)
}

func (s *service) CreateBill(ctx context.Context, b *Bill) (*Bill, error) {
	if b.ReservationID == uuid.Nil {
		return nil, errors.New("service: reservation id is required")
	}

	b.ID = uuid.Nil
	b.Status = StatusPending
	b.PaidAt = nil

	if err := s.repo.CreateBill(ctx, b); err != nil {
		log.Error().Err(err).Stringer("reservation_id", b.ReservationID).Msg("service: failed to create bill")
		return nil, fmt.Errorf("service: failed to create bill: %w", err)
	}

	log.Info().Stringer("bill_id", b.ID).Str("bill_number", b.BillNumber).Msg("service: bill created")
	return b, nil
}

func (s *service) GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.repo.GetBillByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBillNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch bill: %w", err)
	}
	return b, nil
}

func (s *service) ListBillsByReservation(ctx context.Context, reservationID uuid.UUID) ([]Bill, error) {
	bills, err := s.repo.ListBillsByReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bills: %w", err)
	}
	return bills, nil
}

func (s *service) MarkBillPaid(ctx context.Context, id uuid.UUID) (*Bill, error) {
	now := time.Now().UTC()
	if err := s.repo.UpdateBillStatus(ctx, id, StatusComplete, &now); err != nil {
		if errors.Is(err, ErrBillNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("service: failed to mark bill paid: %w", err)
	}
	return s.GetBillByID(ctx, id)
}
