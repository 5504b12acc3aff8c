package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicksonlangat/clinicsync-api/internal/notify"
	"github.com/nicksonlangat/clinicsync-api/internal/order"
	"github.com/nicksonlangat/clinicsync-api/internal/vendors"
)

// memStore is a single-order, in-memory TxStore. It counts order-status
// writes and bulk item writes so tests can assert how many synchronization
// passes a single operation produced.
type memStore struct {
	orderID uuid.UUID
	status  order.Status

	itemSeq []uuid.UUID
	items   map[uuid.UUID]*order.OrderItem

	orderStatusWrites int
	bulkItemWrites    int
}

func newMemStore(status order.Status) *memStore {
	id, _ := uuid.NewV4()
	return &memStore{
		orderID: id,
		status:  status,
		items:   make(map[uuid.UUID]*order.OrderItem),
	}
}

func (m *memStore) addItem(status order.ItemStatus, quantity int, price string) uuid.UUID {
	id, _ := uuid.NewV4()
	p := decimal.RequireFromString(price)
	m.items[id] = &order.OrderItem{
		ID:        id,
		OrderID:   m.orderID,
		ProductID: mustUUID(),
		Status:    status,
		Quantity:  quantity,
		Price:     p,
		Total:     p.Mul(decimal.NewFromInt(int64(quantity))),
	}
	m.itemSeq = append(m.itemSeq, id)
	return id
}

func (m *memStore) GetOrderStatus(ctx context.Context, orderID uuid.UUID) (order.Status, error) {
	if orderID != m.orderID {
		return "", order.ErrOrderNotFound
	}
	return m.status, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status order.Status) error {
	if orderID != m.orderID {
		return order.ErrOrderNotFound
	}
	m.status = status
	m.orderStatusWrites++
	return nil
}

func (m *memStore) GetItem(ctx context.Context, itemID uuid.UUID) (*order.OrderItem, error) {
	item, ok := m.items[itemID]
	if !ok {
		return nil, order.ErrOrderItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *memStore) InsertItem(ctx context.Context, item *order.OrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = mustUUID()
	}
	copied := *item
	m.items[item.ID] = &copied
	m.itemSeq = append(m.itemSeq, item.ID)
	return nil
}

func (m *memStore) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	item, ok := m.items[itemID]
	if !ok {
		return order.ErrOrderItemNotFound
	}
	item.Quantity = quantity
	item.Total = item.Price.Mul(decimal.NewFromInt(int64(quantity)))
	return nil
}

func (m *memStore) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status order.ItemStatus) error {
	item, ok := m.items[itemID]
	if !ok {
		return order.ErrOrderItemNotFound
	}
	item.Status = status
	return nil
}

func (m *memStore) UpdateAllItemStatuses(ctx context.Context, orderID uuid.UUID, status order.ItemStatus) error {
	if orderID != m.orderID {
		return order.ErrOrderNotFound
	}
	for _, item := range m.items {
		item.Status = status
	}
	m.bulkItemWrites++
	return nil
}

func (m *memStore) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if _, ok := m.items[itemID]; !ok {
		return order.ErrOrderItemNotFound
	}
	delete(m.items, itemID)
	for i, id := range m.itemSeq {
		if id == itemID {
			m.itemSeq = append(m.itemSeq[:i], m.itemSeq[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) CountItemsByStatus(ctx context.Context, orderID uuid.UUID, status order.ItemStatus) (int, error) {
	if orderID != m.orderID {
		return 0, order.ErrOrderNotFound
	}
	count := 0
	for _, item := range m.items {
		if item.Status == status {
			count++
		}
	}
	return count, nil
}

// memRepo is the single-order Repository built on memStore.
type memRepo struct {
	store       *memStore
	orderNumber string
	vendorID    uuid.UUID
	notes       string
	emailSent   bool
}

func newMemRepo(store *memStore) *memRepo {
	return &memRepo{store: store, orderNumber: "ORD-00001", vendorID: mustUUID()}
}

func (r *memRepo) CreateOrder(ctx context.Context, o *order.Order) error {
	if o.ID == uuid.Nil {
		o.ID = mustUUID()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = r.orderNumber
	}
	r.store.orderID = o.ID
	r.store.status = o.Status
	r.vendorID = o.VendorID
	r.notes = o.Notes
	r.emailSent = o.EmailSent
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		if err := r.store.InsertItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if id != r.store.orderID {
		return nil, order.ErrOrderNotFound
	}
	o := &order.Order{
		ID:          r.store.orderID,
		OrderNumber: r.orderNumber,
		Status:      r.store.status,
		VendorID:    r.vendorID,
		Notes:       r.notes,
		EmailSent:   r.emailSent,
		Items:       make([]order.OrderItem, 0, len(r.store.itemSeq)),
	}
	for _, itemID := range r.store.itemSeq {
		o.Items = append(o.Items, *r.store.items[itemID])
	}
	return o, nil
}

func (r *memRepo) ListOrdersByCreator(ctx context.Context, createdBy uuid.UUID) ([]order.Order, error) {
	o, err := r.GetOrderByID(ctx, r.store.orderID)
	if err != nil {
		return []order.Order{}, nil
	}
	return []order.Order{*o}, nil
}

func (r *memRepo) UpdateOrderDetails(ctx context.Context, o *order.Order) error {
	if o.ID != r.store.orderID {
		return order.ErrOrderNotFound
	}
	r.notes = o.Notes
	r.vendorID = o.VendorID
	return nil
}

func (r *memRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if id != r.store.orderID {
		return order.ErrOrderNotFound
	}
	r.store.items = make(map[uuid.UUID]*order.OrderItem)
	r.store.itemSeq = nil
	r.store.orderID = uuid.Nil
	return nil
}

func (r *memRepo) SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error {
	if id != r.store.orderID {
		return order.ErrOrderNotFound
	}
	r.emailSent = sent
	return nil
}

func (r *memRepo) GetItemByID(ctx context.Context, itemID uuid.UUID) (*order.OrderItem, error) {
	return r.store.GetItem(ctx, itemID)
}

func (r *memRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, store order.TxStore) error) error {
	return fn(ctx, r.store)
}

// Notification collaborator stubs.

type stubRenderer struct{ err error }

func (r stubRenderer) Render(ctx context.Context, templateID string, data map[string]any) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("<html>" + templateID + "</html>"), nil
}

type stubSender struct {
	err  error
	sent []notify.Message
}

func (s *stubSender) Send(ctx context.Context, msg notify.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubVendorDirectory struct {
	vendor *vendors.Vendor
	err    error
}

func (d stubVendorDirectory) GetVendorByID(ctx context.Context, id uuid.UUID) (*vendors.Vendor, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.vendor, nil
}

func mustUUID() uuid.UUID {
	id, err := uuid.NewV4()
	if err != nil {
		panic(err)
	}
	return id
}

func newTestService(repo order.Repository, sender notify.Sender, renderErr error) order.Service {
	notifier := order.NewNotifier(stubRenderer{err: renderErr}, sender, "Nairobi Dental Clinic", time.Second)
	dir := stubVendorDirectory{vendor: &vendors.Vendor{ID: mustUUID(), Name: "MediSupply", Email: "orders@medisupply.test"}}
	return order.NewService(repo, dir, order.NewSynchronizer(), notifier)
}

func TestCreateOrder_Scenario(t *testing.T) {
	store := newMemStore(order.StatusPending)
	repo := newMemRepo(store)
	sender := &stubSender{}
	svc := newTestService(repo, sender, nil)

	created, err := svc.CreateOrder(context.Background(), &order.Order{
		VendorID: mustUUID(),
		Notes:    "monthly restock",
		Items: []order.OrderItem{
			{ProductID: mustUUID(), Quantity: 2, Price: decimal.RequireFromString("5.00")},
			{ProductID: mustUUID(), Quantity: 1, Price: decimal.RequireFromString("3.00")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, created.Status)
	assert.True(t, created.EmailSent)
	assert.Equal(t, 2, created.AllProducts)
	assert.Equal(t, 0, created.ReceivedProducts)
	assert.True(t, created.OrderTotals.Equal(decimal.RequireFromString("13.00")),
		"order totals: got %s", created.OrderTotals)
	assert.Equal(t, "0%", created.ReceptionPercentage)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"orders@medisupply.test"}, sender.sent[0].Recipients)

	// Mark both items received: the order completes automatically.
	settled, err := svc.UpdateItemStatus(context.Background(), created.Items[0].ID, order.ItemReceived)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, settled.Status)

	settled, err = svc.UpdateItemStatus(context.Background(), created.Items[1].ID, order.ItemReceived)
	require.NoError(t, err)
	assert.Equal(t, order.StatusComplete, settled.Status)
	assert.Equal(t, "100%", settled.ReceptionPercentage)

	// Cancelling the order forces every item back to Pending.
	settled, err = svc.UpdateOrderStatus(context.Background(), created.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, settled.Status)

	gotStatuses := make([]order.ItemStatus, 0, len(settled.Items))
	for _, item := range settled.Items {
		gotStatuses = append(gotStatuses, item.Status)
	}
	wantStatuses := []order.ItemStatus{order.ItemPending, order.ItemPending}
	if diff := cmp.Diff(wantStatuses, gotStatuses); diff != "" {
		t.Errorf("item statuses after cancel mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		order *order.Order
	}{
		{name: "no_items", order: &order.Order{VendorID: mustUUID()}},
		{name: "no_vendor", order: &order.Order{
			Items: []order.OrderItem{{ProductID: mustUUID(), Quantity: 1, Price: decimal.NewFromInt(1)}},
		}},
		{name: "zero_quantity", order: &order.Order{
			VendorID: mustUUID(),
			Items:    []order.OrderItem{{ProductID: mustUUID(), Quantity: 0, Price: decimal.NewFromInt(1)}},
		}},
		{name: "negative_price", order: &order.Order{
			VendorID: mustUUID(),
			Items:    []order.OrderItem{{ProductID: mustUUID(), Quantity: 1, Price: decimal.NewFromInt(-1)}},
		}},
		{name: "nil_product", order: &order.Order{
			VendorID: mustUUID(),
			Items:    []order.OrderItem{{Quantity: 1, Price: decimal.NewFromInt(1)}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMemRepo(newMemStore(order.StatusPending)), &stubSender{}, nil)
			_, err := svc.CreateOrder(context.Background(), tt.order)
			assert.Error(t, err)
		})
	}
}

func TestCreateOrder_DeliveryFailureDoesNotFailCreation(t *testing.T) {
	store := newMemStore(order.StatusPending)
	repo := newMemRepo(store)
	sender := &stubSender{err: errors.New("relay unreachable")}
	svc := newTestService(repo, sender, nil)

	created, err := svc.CreateOrder(context.Background(), &order.Order{
		VendorID: mustUUID(),
		Items:    []order.OrderItem{{ProductID: mustUUID(), Quantity: 1, Price: decimal.NewFromInt(10)}},
	})

	require.NoError(t, err, "order creation must succeed even when delivery fails")
	assert.False(t, created.EmailSent)
	assert.False(t, repo.emailSent)
}

func TestCreateOrder_RenderFailureDoesNotFailCreation(t *testing.T) {
	repo := newMemRepo(newMemStore(order.StatusPending))
	svc := newTestService(repo, &stubSender{}, errors.New("template exploded"))

	created, err := svc.CreateOrder(context.Background(), &order.Order{
		VendorID: mustUUID(),
		Items:    []order.OrderItem{{ProductID: mustUUID(), Quantity: 1, Price: decimal.NewFromInt(10)}},
	})

	require.NoError(t, err)
	assert.False(t, created.EmailSent)
}

func TestSendEmail_RetriggerIgnoresFlag(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemPending, 1, "4.00")
	repo := newMemRepo(store)
	repo.emailSent = true
	sender := &stubSender{}
	svc := newTestService(repo, sender, nil)

	result, err := svc.SendEmail(context.Background(), store.orderID)
	require.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Len(t, sender.sent, 1, "a re-trigger sends again even when email_sent is already true")

	// A failing resend flips the recorded flag back to false.
	sender.err = errors.New("relay unreachable")
	result, err = svc.SendEmail(context.Background(), store.orderID)
	require.NoError(t, err)
	assert.False(t, result.Delivered)
	assert.False(t, repo.emailSent)
}

func TestUpdateOrderStatus_IdempotentWrite(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemPending, 2, "5.00")
	repo := newMemRepo(store)
	svc := newTestService(repo, &stubSender{}, nil)

	settled, err := svc.UpdateOrderStatus(context.Background(), store.orderID, order.StatusPending)
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, settled.Status)
	assert.Zero(t, store.bulkItemWrites, "writing the current status must not touch items")
	assert.Zero(t, store.orderStatusWrites)
}

func TestUpdateOrderStatus_CompleteForcesItemsReceived(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemPending, 1, "2.00")
	store.addItem(order.ItemPending, 3, "1.50")
	repo := newMemRepo(store)
	svc := newTestService(repo, &stubSender{}, nil)

	settled, err := svc.UpdateOrderStatus(context.Background(), store.orderID, order.StatusComplete)
	require.NoError(t, err)

	assert.Equal(t, order.StatusComplete, settled.Status)
	for _, item := range settled.Items {
		assert.Equal(t, order.ItemReceived, item.Status)
	}
	assert.Equal(t, 1, store.bulkItemWrites)
}

func TestUpdateItemQuantity_NonPositiveDeletes(t *testing.T) {
	store := newMemStore(order.StatusPending)
	keep := store.addItem(order.ItemReceived, 2, "5.00")
	drop := store.addItem(order.ItemPending, 1, "3.00")
	repo := newMemRepo(store)
	svc := newTestService(repo, &stubSender{}, nil)

	settled, err := svc.UpdateItemQuantity(context.Background(), drop, 0)
	require.NoError(t, err)

	require.Len(t, settled.Items, 1)
	assert.Equal(t, keep, settled.Items[0].ID)
	// The only remaining item is Received, so the settlement completes the order.
	assert.Equal(t, order.StatusComplete, settled.Status)
}

func TestUpdateItemQuantity_RecomputesTotal(t *testing.T) {
	store := newMemStore(order.StatusPending)
	itemID := store.addItem(order.ItemPending, 2, "5.00")
	repo := newMemRepo(store)
	svc := newTestService(repo, &stubSender{}, nil)

	settled, err := svc.UpdateItemQuantity(context.Background(), itemID, 7)
	require.NoError(t, err)

	require.Len(t, settled.Items, 1)
	assert.True(t, settled.Items[0].Total.Equal(decimal.RequireFromString("35.00")),
		"total: got %s", settled.Items[0].Total)
}

func TestUpdateOrder_OmittedHeaderFieldsKeepStoredValues(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemPending, 1, "4.00")
	repo := newMemRepo(store)
	repo.notes = "monthly restock"
	storedVendor := repo.vendorID
	svc := newTestService(repo, &stubSender{}, nil)

	updated, err := svc.UpdateOrder(context.Background(), store.orderID, order.DetailsInput{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storedVendor, updated.VendorID, "omitted vendor_id must keep the stored vendor")
	assert.Equal(t, "monthly restock", updated.Notes, "omitted notes must keep the stored notes")

	// Explicit fields still overwrite, and empty non-nil notes clear.
	newVendor := mustUUID()
	empty := ""
	updated, err = svc.UpdateOrder(context.Background(), store.orderID,
		order.DetailsInput{VendorID: newVendor, Notes: &empty}, nil)
	require.NoError(t, err)
	assert.Equal(t, newVendor, updated.VendorID)
	assert.Equal(t, "", updated.Notes)
}

func TestAddItem_DemotesCompleteOrder(t *testing.T) {
	store := newMemStore(order.StatusComplete)
	store.addItem(order.ItemReceived, 1, "9.99")
	repo := newMemRepo(store)
	svc := newTestService(repo, &stubSender{}, nil)

	settled, err := svc.AddItem(context.Background(), store.orderID, order.ItemInput{
		ProductID: mustUUID(),
		Quantity:  4,
		Price:     decimal.RequireFromString("2.25"),
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, settled.Status, "a new Pending item un-completes the order")
	require.Len(t, settled.Items, 2)
}

func TestDeleteItem_LastReceivedCompletes(t *testing.T) {
	store := newMemStore(order.StatusPending)
	store.addItem(order.ItemReceived, 1, "1.00")
	pending := store.addItem(order.ItemPending, 1, "1.00")
	repo := newMemRepo(store)
	svc := newTestService(repo, &stubSender{}, nil)

	settled, err := svc.DeleteItem(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, order.StatusComplete, settled.Status)
}

func TestOrderStatusInvariant(t *testing.T) {
	// After any sequence of item and order writes, the order is Complete
	// iff every item is Received (orders with at least one item).
	store := newMemStore(order.StatusPending)
	a := store.addItem(order.ItemPending, 1, "1.00")
	b := store.addItem(order.ItemPending, 1, "1.00")
	repo := newMemRepo(store)
	svc := newTestService(repo, &stubSender{}, nil)
	ctx := context.Background()

	checkInvariant := func(o *order.Order) {
		t.Helper()
		if len(o.Items) == 0 {
			return
		}
		allReceived := true
		for _, item := range o.Items {
			if item.Status != order.ItemReceived {
				allReceived = false
			}
		}
		if o.Status == order.StatusCancelled {
			return
		}
		assert.Equal(t, allReceived, o.Status == order.StatusComplete,
			"status %s contradicts items %+v", o.Status, o.Items)
	}

	steps := []func() (*order.Order, error){
		func() (*order.Order, error) { return svc.UpdateItemStatus(ctx, a, order.ItemReceived) },
		func() (*order.Order, error) { return svc.UpdateOrderStatus(ctx, store.orderID, order.StatusComplete) },
		func() (*order.Order, error) { return svc.UpdateItemStatus(ctx, b, order.ItemPending) },
		func() (*order.Order, error) { return svc.UpdateItemStatus(ctx, a, order.ItemReceived) },
		func() (*order.Order, error) { return svc.UpdateItemStatus(ctx, b, order.ItemReceived) },
		func() (*order.Order, error) { return svc.UpdateOrderStatus(ctx, store.orderID, order.StatusPending) },
	}

	for i, step := range steps {
		o, err := step()
		require.NoError(t, err, "step %d", i)
		checkInvariant(o)
	}
}
