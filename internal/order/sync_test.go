package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicksonlangat/clinicsync-api/internal/order"
)

func TestSettleFromItem_AllReceivedCompletes(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemReceived, 1, "1.00")
	store.addItem(order.ItemReceived, 2, "2.00")

	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromItem(context.Background(), store, store.orderID))

	assert.Equal(t, order.StatusComplete, store.status)
}

func TestSettleFromItem_ZeroItemsCompletes(t *testing.T) {
	store := newMemStore(order.StatusPending)

	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromItem(context.Background(), store, store.orderID))

	assert.Equal(t, order.StatusComplete, store.status)
}

func TestSettleFromItem_PendingItemDemotesComplete(t *testing.T) {
	store := newMemStore(order.StatusComplete)
	store.addItem(order.ItemReceived, 1, "1.00")
	store.addItem(order.ItemPending, 1, "1.00")

	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromItem(context.Background(), store, store.orderID))

	assert.Equal(t, order.StatusPending, store.status)
	// The reverse pass resets every item, not only the new one.
	for id, item := range store.items {
		assert.Equal(t, order.ItemPending, item.Status, "item %s", id)
	}
}

func TestSettleFromItem_PendingOrderStaysPut(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemPending, 1, "1.00")
	store.addItem(order.ItemReceived, 1, "1.00")

	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromItem(context.Background(), store, store.orderID))

	assert.Equal(t, order.StatusPending, store.status)
	assert.Zero(t, store.orderStatusWrites)
	assert.Zero(t, store.bulkItemWrites)
}

func TestSettleFromItem_CancelledIsTerminal(t *testing.T) {
	store := newMemStore(order.StatusCancelled)
	store.addItem(order.ItemReceived, 1, "1.00")

	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromItem(context.Background(), store, store.orderID))

	assert.Equal(t, order.StatusCancelled, store.status,
		"item writes must not resurrect a cancelled order")
	assert.Zero(t, store.orderStatusWrites)
}

func TestSettleFromItem_SuppressedContextIsNoOp(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemReceived, 1, "1.00")

	ctx := order.WithSuppressedSync(context.Background())
	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromItem(ctx, store, store.orderID))

	assert.Equal(t, order.StatusPending, store.status)
	assert.Zero(t, store.orderStatusWrites)
}

func TestSettleFromOrder_SuppressedContextIsNoOp(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemPending, 1, "1.00")

	ctx := order.WithSuppressedSync(context.Background())
	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromOrder(ctx, store, store.orderID, order.StatusComplete))

	assert.Zero(t, store.bulkItemWrites)
}

func TestSettlement_BoundedPasses(t *testing.T) {
	// One item-driven settlement performs at most one order-status write
	// and one bulk item write: the triggering pass plus one suppressed
	// reverse pass, never a loop.
	store := newMemStore(order.StatusComplete)
	store.addItem(order.ItemPending, 1, "1.00")

	sync := order.NewSynchronizer()
	require.NoError(t, sync.SettleFromItem(context.Background(), store, store.orderID))

	assert.Equal(t, 1, store.orderStatusWrites)
	assert.Equal(t, 1, store.bulkItemWrites)
}

func TestSettleFromOrder_FanOut(t *testing.T) {
	tests := []struct {
		name       string
		newStatus  order.Status
		wantItems  order.ItemStatus
		wantWrites int
	}{
		{name: "complete_forces_received", newStatus: order.StatusComplete, wantItems: order.ItemReceived, wantWrites: 1},
		{name: "pending_forces_pending", newStatus: order.StatusPending, wantItems: order.ItemPending, wantWrites: 1},
		{name: "cancelled_forces_pending", newStatus: order.StatusCancelled, wantItems: order.ItemPending, wantWrites: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(order.StatusPending)
			store.addItem(order.ItemPending, 1, "1.00")
			store.addItem(order.ItemReceived, 1, "1.00")

			sync := order.NewSynchronizer()
			require.NoError(t, sync.SettleFromOrder(context.Background(), store, store.orderID, tt.newStatus))

			for id, item := range store.items {
				assert.Equal(t, tt.wantItems, item.Status, "item %s", id)
			}
			assert.Equal(t, tt.wantWrites, store.bulkItemWrites)
		})
	}
}
