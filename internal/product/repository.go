package product

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
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrSKUConflict      = errors.New("sku already exists")
)

// skuRetryLimit bounds the regenerate-and-retry loop on SKU collisions.
// The keyspace is 36^5 per prefix, so a second collision in a row is
// effectively a data problem, not bad luck.
const skuRetryLimit = 5

type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, createdBy uuid.UUID) ([]Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]Category, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, sku, stock_number, price, vendor_id, category_id, created_by, created_at, updated_at`

// CreateProduct inserts the product, generating a SKU when none is set.
// A generated SKU that collides with an existing row is regenerated and the
// insert retried; a caller-supplied SKU is never regenerated and a conflict
// surfaces as ErrSKUConflict.
func (r *postgresRepository) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product ID: %w", err)
		}
		p.ID = id
	}

	generated := p.SKU == ""

	query := `
		INSERT INTO products (id, name, sku, stock_number, price, vendor_id, category_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	attempts := 1
	if generated {
		attempts = skuRetryLimit
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if generated {
			p.SKU = ident.Generate(ident.KindSKU, p.Name)
		}

		now := time.Now().UTC()
		_, err := r.db.Exec(ctx, query,
			p.ID, p.Name, p.SKU, p.StockNumber, p.Price,
			p.VendorID, p.CategoryID, p.CreatedBy, now, now,
		)
		if err == nil {
			p.CreatedAt = now
			p.UpdatedAt = now
			return nil
		}

		if isUniqueViolation(err, "products_sku_key") {
			if generated {
				log.Warn().Str("sku", p.SKU).Msg("repository: generated SKU collided, retrying")
				continue
			}
			return ErrSKUConflict
		}
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}

	return fmt.Errorf("repository: %w after %d attempts", ErrSKUConflict, attempts)
}

func (r *postgresRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.SKU, &p.StockNumber, &p.Price,
		&p.VendorID, &p.CategoryID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) ListProducts(ctx context.Context, createdBy uuid.UUID) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE created_by = $1 ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, createdBy)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID, &p.Name, &p.SKU, &p.StockNumber, &p.Price,
			&p.VendorID, &p.CategoryID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}
	return products, nil
}

// UpdateProduct writes the mutable fields. The SKU column is deliberately
// absent from the statement: once assigned it is immutable.
func (r *postgresRepository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $1, stock_number = $2, price = $3, vendor_id = $4, category_id = $5, updated_at = $6
		WHERE id = $7
	`

	cmdTag, err := r.db.Exec(ctx, query,
		p.Name, p.StockNumber, p.Price, p.VendorID, p.CategoryID, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AdjustStock applies a relative stock change atomically in the database,
// so a racing import job and a user edit cannot lose updates. The counter
// is clamped at zero by the CHECK constraint; a violation means oversell.
func (r *postgresRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Product, error) {
	query := `
		UPDATE products
		SET stock_number = stock_number + $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + productColumns

	var p Product
	err := r.db.QueryRow(ctx, query, delta, time.Now().UTC(), id).Scan(
		&p.ID, &p.Name, &p.SKU, &p.StockNumber, &p.Price,
		&p.VendorID, &p.CategoryID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to adjust stock for product %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate category ID: %w", err)
		}
		c.ID = id
	}

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO categories (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert category: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}
	return categories, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
	}
	return false
}
