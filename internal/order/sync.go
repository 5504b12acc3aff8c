package order

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Synchronizer keeps an order's aggregate status consistent with its line
// items. It encodes a bidirectional invariant (an order is Complete iff
// every item is Received) under an asymmetric policy: item-driven
// completion is automatic, while cancellation and explicit pending/complete
// assignment are manual order-level commands that item writes must not
// override. The one exception is that a newly Pending item always demotes a
// Complete order back to Pending.
//
// Both entry points run against a transaction-scoped store, so a settlement
// is atomic: no reader ever observes an order whose status contradicts its
// items. Each settlement finishes in at most two passes: the triggering
// pass plus one suppressed reverse pass.
type Synchronizer struct{}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// SettleFromItem recomputes the order's status after any line item write
// (insert, update, status change or delete). A Cancelled order is never
// touched. With at least one Pending item the order must not stay Complete;
// with no Pending items (all Received, or zero items) the order becomes
// Complete. A status change fans back out to the items as a suppressed
// control pass.
func (s *Synchronizer) SettleFromItem(ctx context.Context, store TxStore, orderID uuid.UUID) error {
	if syncSuppressed(ctx) {
		return nil
	}

	current, err := store.GetOrderStatus(ctx, orderID)
	if err != nil {
		return fmt.Errorf("sync: failed to load order %s: %w", orderID, err)
	}
	if current == StatusCancelled {
		return nil
	}

	pending, err := store.CountItemsByStatus(ctx, orderID, ItemPending)
	if err != nil {
		return fmt.Errorf("sync: failed to count pending items for order %s: %w", orderID, err)
	}

	desired := StatusComplete
	if pending > 0 {
		desired = StatusPending
		if current != StatusComplete {
			// Already Pending; nothing to settle.
			return nil
		}
	}
	if current == desired {
		return nil
	}

	if err := store.UpdateOrderStatus(ctx, orderID, desired); err != nil {
		return fmt.Errorf("sync: failed to update order %s status: %w", orderID, err)
	}

	log.Debug().
		Stringer("order_id", orderID).
		Stringer("old_status", current).
		Stringer("new_status", desired).
		Msg("sync: order status settled from item write")

	// Reverse pass: the order change propagates back to the items exactly
	// once, with further synchronization suppressed.
	return s.fanOut(WithSuppressedSync(ctx), store, orderID, desired)
}

// SettleFromOrder propagates a manual order-level status write down to the
// line items: Complete forces every item to Received, Pending and Cancelled
// force every item to Pending. The item writes run as a suppressed control
// pass so they cannot re-enter SettleFromItem.
func (s *Synchronizer) SettleFromOrder(ctx context.Context, store TxStore, orderID uuid.UUID, newStatus Status) error {
	if syncSuppressed(ctx) {
		return nil
	}
	return s.fanOut(WithSuppressedSync(ctx), store, orderID, newStatus)
}

func (s *Synchronizer) fanOut(ctx context.Context, store TxStore, orderID uuid.UUID, status Status) error {
	var itemStatus ItemStatus
	switch status {
	case StatusComplete:
		itemStatus = ItemReceived
	case StatusPending, StatusCancelled:
		itemStatus = ItemPending
	default:
		return nil
	}

	if err := store.UpdateAllItemStatuses(ctx, orderID, itemStatus); err != nil {
		return fmt.Errorf("sync: failed to fan out %s to items of order %s: %w", itemStatus, orderID, err)
	}
	return nil
}
