package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/nicksonlangat/clinicsync-api/internal/ident"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrBillNotFound        = errors.New("bill not found")
	ErrNumberConflict      = errors.New("number already exists")
)

const numberRetryLimit = 5

type Repository interface {
	CreateReservation(ctx context.Context, res *Reservation) error
	GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListReservations(ctx context.Context, createdBy uuid.UUID) ([]Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uuid.UUID, status Status) error

	CreateBill(ctx context.Context, b *Bill) error
	GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	ListBillsByReservation(ctx context.Context, reservationID uuid.UUID) ([]Bill, error)
	UpdateBillStatus(ctx context.Context, id uuid.UUID, status Status, paidAt *time.Time) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// CreateReservation generates a reservation number when none is given and
// retries on a unique-constraint collision; a caller-supplied number is
// never regenerated.
func (r *postgresRepository) CreateReservation(ctx context.Context, res *Reservation) error {
	if res.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate reservation ID: %w", err)
		}
		res.ID = id
	}

	generated := res.ReservationNumber == ""
	attempts := 1
	if generated {
		attempts = numberRetryLimit
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if generated {
			res.ReservationNumber = ident.Generate(ident.KindReservationNumber, "")
		}

		now := time.Now().UTC()
		_, err := r.db.Exec(ctx, `
			INSERT INTO reservations (id, reservation_number, patient_id, doctor_id, reservation_date, start_time, end_time, status, description, treatment, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			res.ID, res.ReservationNumber, res.PatientID, res.DoctorID, res.ReservationDate,
			res.StartTime, res.EndTime, string(res.Status), res.Description, res.Treatment, res.CreatedBy, now, now,
		)
		if err == nil {
			res.CreatedAt = now
			res.UpdatedAt = now
			return nil
		}

		if isUniqueViolation(err, "reservations_reservation_number_key") {
			if generated {
				log.Warn().Str("reservation_number", res.ReservationNumber).Msg("repository: generated reservation number collided, retrying")
				continue
			}
			return ErrNumberConflict
		}
		return fmt.Errorf("repository: failed to insert reservation: %w", err)
	}

	return fmt.Errorf("repository: %w after %d attempts", ErrNumberConflict, attempts)
}

const reservationColumns = `id, reservation_number, patient_id, doctor_id, reservation_date, start_time, end_time, status, description, treatment, created_by, created_at, updated_at`

func (r *postgresRepository) GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var res Reservation
	err := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id).Scan(
		&res.ID, &res.ReservationNumber, &res.PatientID, &res.DoctorID, &res.ReservationDate,
		&res.StartTime, &res.EndTime, &res.Status, &res.Description, &res.Treatment, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("repository: failed to select reservation by id %s: %w", id, err)
	}
	return &res, nil
}

func (r *postgresRepository) ListReservations(ctx context.Context, createdBy uuid.UUID) ([]Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE created_by = $1 ORDER BY updated_at DESC`, createdBy)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]Reservation, 0)
	for rows.Next() {
		var res Reservation
		err := rows.Scan(
			&res.ID, &res.ReservationNumber, &res.PatientID, &res.DoctorID, &res.ReservationDate,
			&res.StartTime, &res.EndTime, &res.Status, &res.Description, &res.Treatment, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating reservations: %w", err)
	}
	return reservations, nil
}

func (r *postgresRepository) UpdateReservationStatus(ctx context.Context, id uuid.UUID, status Status) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update reservation status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *postgresRepository) CreateBill(ctx context.Context, b *Bill) error {
	if b.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate bill ID: %w", err)
		}
		b.ID = id
	}

	generated := b.BillNumber == ""
	attempts := 1
	if generated {
		attempts = numberRetryLimit
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if generated {
			b.BillNumber = ident.Generate(ident.KindBillNumber, "")
		}

		now := time.Now().UTC()
		_, err := r.db.Exec(ctx, `
			INSERT INTO bills (id, bill_number, reservation_id, status, paid_at, description, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			b.ID, b.BillNumber, b.ReservationID, string(b.Status), b.PaidAt, b.Description, b.CreatedBy, now, now,
		)
		if err == nil {
			b.CreatedAt = now
			b.UpdatedAt = now
			return nil
		}

		if isUniqueViolation(err, "bills_bill_number_key") {
			if generated {
				log.Warn().Str("bill_number", b.BillNumber).Msg("repository: generated bill number collided, retrying")
				continue
			}
			return ErrNumberConflict
		}
		return fmt.Errorf("repository: failed to insert bill: %w", err)
	}

	return fmt.Errorf("repository: %w after %d attempts", ErrNumberConflict, attempts)
}

func (r *postgresRepository) GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	var b Bill
	err := r.db.QueryRow(ctx, `
		SELECT id, bill_number, reservation_id, status, paid_at, description, created_by, created_at, updated_at
		FROM bills WHERE id = $1`, id,
	).Scan(&b.ID, &b.BillNumber, &b.ReservationID, &b.Status, &b.PaidAt, &b.Description, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("repository: failed to select bill by id %s: %w", id, err)
	}
	return &b, nil
}

func (r *postgresRepository) ListBillsByReservation(ctx context.Context, reservationID uuid.UUID) ([]Bill, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, bill_number, reservation_id, status, paid_at, description, created_by, created_at, updated_at
		FROM bills WHERE reservation_id = $1 ORDER BY updated_at DESC`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query bills: %w", err)
	}
	defer rows.Close()

	bills := make([]Bill, 0)
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.BillNumber, &b.ReservationID, &b.Status, &b.PaidAt, &b.Description, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating bills: %w", err)
	}
	return bills, nil
}

func (r *postgresRepository) UpdateBillStatus(ctx context.Context, id uuid.UUID, status Status, paidAt *time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE bills SET status = $1, paid_at = $2, updated_at = $3 WHERE id = $4`,
		string(status), paidAt, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update bill status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
	}
	return false
}
