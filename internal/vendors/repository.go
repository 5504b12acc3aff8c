package vendors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrVendorNotFound = errors.New("vendor not found")

type Repository interface {
	Create(ctx context.Context, v *Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	List(ctx context.Context, createdBy uuid.UUID) ([]Vendor, error)
	Update(ctx context.Context, v *Vendor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, v *Vendor) error {
	if v.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate vendor ID: %w", err)
		}
		v.ID = id
	}

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO vendors (id, name, email, phone_number, location, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID, v.Name, v.Email, v.PhoneNumber, v.Location, v.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert vendor: %w", err)
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	var v Vendor
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, phone_number, location, created_by, created_at, updated_at
		FROM vendors WHERE id = $1`, id,
	).Scan(&v.ID, &v.Name, &v.Email, &v.PhoneNumber, &v.Location, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("repository: failed to select vendor by id %s: %w", id, err)
	}
	return &v, nil
}

func (r *postgresRepository) List(ctx context.Context, createdBy uuid.UUID) ([]Vendor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, phone_number, location, created_by, created_at, updated_at
		FROM vendors WHERE created_by = $1 ORDER BY updated_at DESC`, createdBy)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query vendors: %w", err)
	}
	defer rows.Close()

	list := make([]Vendor, 0)
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.PhoneNumber, &v.Location, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan vendor: %w", err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating vendors: %w", err)
	}
	return list, nil
}

func (r *postgresRepository) Update(ctx context.Context, v *Vendor) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE vendors
		SET name = $1, email = $2, phone_number = $3, location = $4, updated_at = $5
		WHERE id = $6`,
		v.Name, v.Email, v.PhoneNumber, v.Location, time.Now().UTC(), v.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update vendor %s: %w", v.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrVendorNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM vendors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete vendor %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrVendorNotFound
	}
	return nil
}
