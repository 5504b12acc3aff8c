package order

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
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderItemNotFound   = errors.New("order item not found")
	ErrOrderNumberConflict = errors.New("order number already exists")
)

// numberRetryLimit bounds the regenerate-and-retry loop when a generated
// order number collides with an existing row. The keyspace is 10^5, so
// collisions happen; repeated collisions mean the keyspace is exhausted.
const numberRetryLimit = 5

// TxStore is the transaction-scoped view of orders and items that the
// Synchronizer settles against. Every method runs on the same transaction,
// so one settlement commits or rolls back as a unit.
type TxStore interface {
	GetOrderStatus(ctx context.Context, orderID uuid.UUID) (Status, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status Status) error
	GetItem(ctx context.Context, itemID uuid.UUID) (*OrderItem, error)
	InsertItem(ctx context.Context, item *OrderItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status ItemStatus) error
	UpdateAllItemStatuses(ctx context.Context, orderID uuid.UUID, status ItemStatus) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	CountItemsByStatus(ctx context.Context, orderID uuid.UUID, status ItemStatus) (int, error)
}

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrdersByCreator(ctx context.Context, createdBy uuid.UUID) ([]Order, error)
	UpdateOrderDetails(ctx context.Context, o *Order) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error
	GetItemByID(ctx context.Context, itemID uuid.UUID) (*OrderItem, error)

	// WithinTx runs fn against a transaction-scoped store; commit on nil,
	// rollback otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, store TxStore) error) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, order_number, status, vendor_id, notes, email_sent, created_by, created_at, updated_at`
const itemColumns = `id, order_id, product_id, status, quantity, price, total, created_at, updated_at`

// CreateOrder inserts the order and its items in one transaction. An empty
// OrderNumber is generated here; a generated number that collides is
// regenerated and the whole transaction retried. A caller-supplied number
// is used as-is and a collision surfaces as ErrOrderNumberConflict.
func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		o.ID = id
	}

	generated := o.OrderNumber == ""

	attempts := 1
	if generated {
		attempts = numberRetryLimit
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if generated {
			o.OrderNumber = ident.Generate(ident.KindOrderNumber, "")
		}

		err := r.insertOrderTx(ctx, o)
		if err == nil {
			return nil
		}

		if isUniqueViolation(err, "orders_order_number_key") {
			if generated {
				log.Warn().Str("order_number", o.OrderNumber).Msg("repository: generated order number collided, retrying")
				continue
			}
			return ErrOrderNumberConflict
		}
		return err
	}

	return fmt.Errorf("repository: %w after %d attempts", ErrOrderNumberConflict, attempts)
}

func (r *postgresRepository) insertOrderTx(ctx context.Context, o *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback order insert")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, status, vendor_id, notes, email_sent, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.OrderNumber, o.Status.String(), o.VendorID, o.Notes, o.EmailSent, o.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == uuid.Nil {
			itemID, genErr := uuid.NewV4()
			if genErr != nil {
				err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
				return err
			}
			item.ID = itemID
		}
		item.OrderID = o.ID

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, status, quantity, price, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, item.OrderID, item.ProductID, item.Status.String(), item.Quantity, item.Price, item.Total, now, now,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
		}
		item.CreatedAt = now
		item.UpdatedAt = now
	}

	return nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.OrderNumber, &o.Status, &o.VendorID, &o.Notes, &o.EmailSent, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order id %s: %w", id, err)
	}
	defer rows.Close()

	o.Items = make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Status, &item.Quantity,
			&item.Price, &item.Total, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order id %s: %w", id, err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order id %s: %w", id, err)
	}

	return &o, nil
}

func (r *postgresRepository) ListOrdersByCreator(ctx context.Context, createdBy uuid.UUID) ([]Order, error) {
	orderRows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE created_by = $1 ORDER BY updated_at DESC`, createdBy)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for creator %s: %w", createdBy, err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var o Order
		err := orderRows.Scan(
			&o.ID, &o.OrderNumber, &o.Status, &o.VendorID, &o.Notes, &o.EmailSent, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for creator %s: %w", createdBy, err)
		}
		o.Items = make([]OrderItem, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for creator %s: %w", createdBy, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemRows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for creator %s: %w", createdBy, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Status, &item.Quantity,
			&item.Price, &item.Total, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for creator %s: %w", createdBy, err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for creator %s: %w", createdBy, err)
	}

	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *ordersMap[id])
	}
	return orders, nil
}

// UpdateOrderDetails writes notes and vendor only. Status goes through the
// synchronizer path, never through here.
func (r *postgresRepository) UpdateOrderDetails(ctx context.Context, o *Order) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET notes = $1, vendor_id = $2, updated_at = $3 WHERE id = $4`,
		o.Notes, o.VendorID, time.Now().UTC(), o.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %s: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// DeleteOrder removes the order; its items go with it via ON DELETE CASCADE.
func (r *postgresRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET email_sent = $1, updated_at = $2 WHERE id = $3`,
		sent, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to set email_sent for order %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) GetItemByID(ctx context.Context, itemID uuid.UUID) (*OrderItem, error) {
	return scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM order_items WHERE id = $1`, itemID), itemID)
}

func (r *postgresRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, store TxStore) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback transaction after panic")
			}
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(ctx, &txStore{tx: tx})
	return err
}

// txStore implements TxStore over a single pgx transaction.
type txStore struct {
	tx pgx.Tx
}

// GetOrderStatus locks the order row for the rest of the transaction, so
// two concurrent settlements on the same order serialize at the database.
func (s *txStore) GetOrderStatus(ctx context.Context, orderID uuid.UUID) (Status, error) {
	var status Status
	err := s.tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("repository: failed to select order status %s: %w", orderID, err)
	}
	return status, nil
}

func (s *txStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	cmdTag, err := s.tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status.String(), time.Now().UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *txStore) GetItem(ctx context.Context, itemID uuid.UUID) (*OrderItem, error) {
	return scanItem(s.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM order_items WHERE id = $1 FOR UPDATE`, itemID), itemID)
}

func (s *txStore) InsertItem(ctx context.Context, item *OrderItem) error {
	if item.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order item ID: %w", err)
		}
		item.ID = id
	}

	now := time.Now().UTC()
	_, err := s.tx.Exec(ctx, `
		INSERT INTO order_items (id, order_id, product_id, status, quantity, price, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.OrderID, item.ProductID, item.Status.String(), item.Quantity, item.Price, item.Total, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order item: %w", err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

// UpdateItemQuantity rewrites quantity and the persisted total in one
// statement, keeping total = quantity × price consistent with this write.
func (s *txStore) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	cmdTag, err := s.tx.Exec(ctx,
		`UPDATE order_items SET quantity = $1, total = price * $1, updated_at = $2 WHERE id = $3`,
		quantity, time.Now().UTC(), itemID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order item quantity %s: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderItemNotFound
	}
	return nil
}

func (s *txStore) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status ItemStatus) error {
	cmdTag, err := s.tx.Exec(ctx,
		`UPDATE order_items SET status = $1, updated_at = $2 WHERE id = $3`,
		status.String(), time.Now().UTC(), itemID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order item status %s: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderItemNotFound
	}
	return nil
}

func (s *txStore) UpdateAllItemStatuses(ctx context.Context, orderID uuid.UUID, status ItemStatus) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE order_items SET status = $1, updated_at = $2 WHERE order_id = $3 AND status <> $1`,
		status.String(), time.Now().UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to bulk update item statuses for order %s: %w", orderID, err)
	}
	return nil
}

func (s *txStore) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	cmdTag, err := s.tx.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order item %s: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderItemNotFound
	}
	return nil
}

func (s *txStore) CountItemsByStatus(ctx context.Context, orderID uuid.UUID, status ItemStatus) (int, error) {
	var count int
	err := s.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items WHERE order_id = $1 AND status = $2`,
		orderID, status.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count items for order %s: %w", orderID, err)
	}
	return count, nil
}

func scanItem(row pgx.Row, itemID uuid.UUID) (*OrderItem, error) {
	var item OrderItem
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.Status, &item.Quantity,
		&item.Price, &item.Total, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order item %s: %w", itemID, err)
	}
	return &item, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
	}
	return false
}
