package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nicksonlangat/clinicsync-api/internal/vendors"
)

var (
	ErrNoItems       = errors.New("order must contain at least one item")
	ErrInvalidStatus = errors.New("invalid status value")
)

// VendorDirectory resolves the vendor an order belongs to; the vendors
// package provides the production implementation.
type VendorDirectory interface {
	GetVendorByID(ctx context.Context, id uuid.UUID) (*vendors.Vendor, error)
}

// ItemInput is one line item in a create or update request. On update,
// IsNew distinguishes items to insert from existing items to rewrite; an
// existing item with Quantity <= 0 is removed from the order.
type ItemInput struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	IsNew     bool            `json:"is_new"`
}

// DetailsInput carries the mutable order header fields for a partial
// update. A Nil VendorID keeps the stored vendor and a nil Notes keeps the
// stored notes; an empty non-nil Notes clears them.
type DetailsInput struct {
	VendorID uuid.UUID
	Notes    *string
}

type Service interface {
	CreateOrder(ctx context.Context, o *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrdersByCreator(ctx context.Context, createdBy uuid.UUID) ([]Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, details DetailsInput, items []ItemInput) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, orderID uuid.UUID, input ItemInput) (*Order, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*Order, error)
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status ItemStatus) (*Order, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (*Order, error)

	SendEmail(ctx context.Context, orderID uuid.UUID) (NotificationResult, error)
}

type service struct {
	repo      Repository
	vendorDir VendorDirectory
	sync      *Synchronizer
	notifier  *Notifier
}

func NewService(repo Repository, vendorDir VendorDirectory, sync *Synchronizer, notifier *Notifier) Service {
	return &service{
		repo:      repo,
		vendorDir: vendorDir,
		sync:      sync,
		notifier:  notifier,
	}
}

// CreateOrder persists the order with its items, then fires the fulfillment
// notification. Notification runs after the creating transaction commits
// and its failure is recorded on the order, never returned: the created
// order comes back to the caller either way.
func (s *service) CreateOrder(ctx context.Context, o *Order) (*Order, error) {
	if len(o.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, fmt.Errorf("service: %w", ErrNoItems)
	}
	if o.VendorID == uuid.Nil {
		return nil, errors.New("service: vendor id is required")
	}

	o.ID = uuid.Nil
	o.Status = StatusPending
	o.EmailSent = false

	for i := range o.Items {
		item := &o.Items[i]
		if item.ProductID == uuid.Nil {
			return nil, errors.New("service: product id in order item cannot be nil")
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("service: order item quantity for product %s must be at least 1", item.ProductID)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("service: order item price for product %s cannot be negative", item.ProductID)
		}
		item.ID = uuid.Nil
		item.Status = ItemPending
		item.Total = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	result := s.deliver(ctx, o)
	o.EmailSent = result.Delivered

	o.fillReadFields()
	log.Info().
		Stringer("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Bool("email_sent", o.EmailSent).
		Msg("service: order created")
	return o, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	o.fillReadFields()
	return o, nil
}

func (s *service) ListOrdersByCreator(ctx context.Context, createdBy uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListOrdersByCreator(ctx, createdBy)
	if err != nil {
		log.Error().Err(err).Stringer("created_by", createdBy).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	for i := range orders {
		orders[i].fillReadFields()
	}
	return orders, nil
}

// UpdateOrder applies a partial header update (fields absent from the
// request keep their stored values), then the item batch: new items are
// inserted, existing items are requantified, and an existing item with a
// non-positive quantity is deleted. One settlement runs after the whole
// batch.
func (s *service) UpdateOrder(ctx context.Context, orderID uuid.UUID, details DetailsInput, items []ItemInput) (*Order, error) {
	current, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to load order for update")
		return nil, fmt.Errorf("service: failed to update order: %w", err)
	}

	o := &Order{ID: orderID, VendorID: current.VendorID, Notes: current.Notes}
	if details.VendorID != uuid.Nil {
		o.VendorID = details.VendorID
	}
	if details.Notes != nil {
		o.Notes = *details.Notes
	}

	if err := s.repo.UpdateOrderDetails(ctx, o); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: failed to update order details")
		return nil, fmt.Errorf("service: failed to update order: %w", err)
	}

	if len(items) > 0 {
		err := s.repo.WithinTx(ctx, func(ctx context.Context, store TxStore) error {
			for _, input := range items {
				if input.IsNew {
					if input.Quantity < 1 {
						continue
					}
					item := OrderItem{
						OrderID:   o.ID,
						ProductID: input.ProductID,
						Status:    ItemPending,
						Quantity:  input.Quantity,
						Price:     input.Price,
						Total:     input.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
					}
					if err := store.InsertItem(ctx, &item); err != nil {
						return err
					}
					continue
				}
				if input.Quantity <= 0 {
					if err := store.DeleteItem(ctx, input.ID); err != nil {
						return err
					}
					continue
				}
				if err := store.UpdateItemQuantity(ctx, input.ID, input.Quantity); err != nil {
					return err
				}
			}
			return s.sync.SettleFromItem(ctx, store, o.ID)
		})
		if err != nil {
			log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: failed to update order items")
			return nil, fmt.Errorf("service: failed to update order items: %w", err)
		}
	}

	return s.GetOrderByID(ctx, o.ID)
}

// UpdateOrderStatus applies a manual order-level status command and returns
// the settled post-synchronization state. Writing the current status again
// is a no-op: no item writes happen.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("service: %w: %q", ErrInvalidStatus, newStatus)
	}

	err := s.repo.WithinTx(ctx, func(ctx context.Context, store TxStore) error {
		current, err := store.GetOrderStatus(ctx, orderID)
		if err != nil {
			return err
		}
		if current == newStatus {
			log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).
				Msg("service: order status unchanged, skipping synchronization")
			return nil
		}
		if err := store.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
			return err
		}
		return s.sync.SettleFromOrder(ctx, store, orderID, newStatus)
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).
			Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	return s.GetOrderByID(ctx, orderID)
}

func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to delete order")
		return fmt.Errorf("service: failed to delete order: %w", err)
	}
	return nil
}

// AddItem appends a line item to an existing order. A new Pending item
// demotes a Complete order back to Pending via the settlement.
func (s *service) AddItem(ctx context.Context, orderID uuid.UUID, input ItemInput) (*Order, error) {
	if input.ProductID == uuid.Nil {
		return nil, errors.New("service: product id in order item cannot be nil")
	}
	if input.Quantity < 1 {
		return nil, fmt.Errorf("service: order item quantity must be at least 1, got %d", input.Quantity)
	}
	if input.Price.IsNegative() {
		return nil, errors.New("service: order item price cannot be negative")
	}

	err := s.repo.WithinTx(ctx, func(ctx context.Context, store TxStore) error {
		if _, err := store.GetOrderStatus(ctx, orderID); err != nil {
			return err
		}
		item := OrderItem{
			OrderID:   orderID,
			ProductID: input.ProductID,
			Status:    ItemPending,
			Quantity:  input.Quantity,
			Price:     input.Price,
			Total:     input.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
		}
		if err := store.InsertItem(ctx, &item); err != nil {
			return err
		}
		return s.sync.SettleFromItem(ctx, store, orderID)
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to add order item")
		return nil, fmt.Errorf("service: failed to add order item: %w", err)
	}

	return s.GetOrderByID(ctx, orderID)
}

// UpdateItemQuantity requantifies one item; a non-positive quantity deletes
// it. The persisted total follows the write in the same statement.
func (s *service) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*Order, error) {
	var orderID uuid.UUID

	err := s.repo.WithinTx(ctx, func(ctx context.Context, store TxStore) error {
		item, err := store.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		orderID = item.OrderID

		if quantity <= 0 {
			if err := store.DeleteItem(ctx, itemID); err != nil {
				return err
			}
		} else if err := store.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
			return err
		}
		return s.sync.SettleFromItem(ctx, store, orderID)
	})
	if err != nil {
		if errors.Is(err, ErrOrderItemNotFound) {
			return nil, ErrOrderItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to update order item")
		return nil, fmt.Errorf("service: failed to update order item: %w", err)
	}

	return s.GetOrderByID(ctx, orderID)
}

// UpdateItemStatus writes one item's fulfillment status and returns the
// settled order: marking the last Pending item Received completes the
// order automatically.
func (s *service) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status ItemStatus) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("service: %w: %q", ErrInvalidStatus, status)
	}

	var orderID uuid.UUID

	err := s.repo.WithinTx(ctx, func(ctx context.Context, store TxStore) error {
		item, err := store.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		orderID = item.OrderID

		if err := store.UpdateItemStatus(ctx, itemID, status); err != nil {
			return err
		}
		return s.sync.SettleFromItem(ctx, store, orderID)
	})
	if err != nil {
		if errors.Is(err, ErrOrderItemNotFound) {
			return nil, ErrOrderItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", itemID).Stringer("status", status).
			Msg("service: failed to update order item status")
		return nil, fmt.Errorf("service: failed to update order item status: %w", err)
	}

	return s.GetOrderByID(ctx, orderID)
}

func (s *service) DeleteItem(ctx context.Context, itemID uuid.UUID) (*Order, error) {
	var orderID uuid.UUID

	err := s.repo.WithinTx(ctx, func(ctx context.Context, store TxStore) error {
		item, err := store.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		orderID = item.OrderID

		if err := store.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return s.sync.SettleFromItem(ctx, store, orderID)
	})
	if err != nil {
		if errors.Is(err, ErrOrderItemNotFound) {
			return nil, ErrOrderItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to delete order item")
		return nil, fmt.Errorf("service: failed to delete order item: %w", err)
	}

	return s.GetOrderByID(ctx, orderID)
}

// SendEmail re-triggers the fulfillment notification on demand, regardless
// of the current email_sent value. Each call sends again: delivery is
// at-least-once, not exactly-once.
func (s *service) SendEmail(ctx context.Context, orderID uuid.UUID) (NotificationResult, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return NotificationResult{}, ErrOrderNotFound
		}
		return NotificationResult{}, fmt.Errorf("service: failed to fetch order for notification: %w", err)
	}

	return s.deliver(ctx, o), nil
}

// deliver runs the notification flow and records the outcome on the order
// row. Every failure path degrades to Delivered=false.
func (s *service) deliver(ctx context.Context, o *Order) NotificationResult {
	vendor, err := s.vendorDir.GetVendorByID(ctx, o.VendorID)
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", o.ID).Stringer("vendor_id", o.VendorID).
			Msg("service: failed to resolve vendor for notification")
		s.recordDelivery(ctx, o.ID, false)
		return NotificationResult{Delivered: false}
	}

	result := s.notifier.Notify(ctx, o, vendor)
	s.recordDelivery(ctx, o.ID, result.Delivered)
	return result
}

func (s *service) recordDelivery(ctx context.Context, orderID uuid.UUID, delivered bool) {
	if err := s.repo.SetEmailSent(ctx, orderID, delivered); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Bool("delivered", delivered).
			Msg("service: failed to record notification outcome")
	}
}
