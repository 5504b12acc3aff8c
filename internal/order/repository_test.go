package order_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nicksonlangat/clinicsync-api/internal/order"
)

// testDB is nil unless DB_HOST_TEST points at a migrated postgres; the
// integration tests below skip themselves in that case.
var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	dbHost := os.Getenv("DB_HOST_TEST")
	if dbHost != "" {
		dbPort := getenvDefault("DB_PORT_TEST", "5432")
		dbUser := getenvDefault("DB_USER_TEST", "postgres")
		dbPassword := getenvDefault("DB_PASSWORD_TEST", "postgres")
		dbName := getenvDefault("DB_NAME_TEST", "clinicsync_test")
		dbSSLMode := getenvDefault("DB_SSLMODE_TEST", "disable")

		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse test database config")
		}
		poolConfig.MaxConns = 5

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		testDB, err = pgxpool.NewWithConfig(ctx, poolConfig)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to test database")
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = testDB.Ping(pingCtx)
		pingCancel()
		if err != nil {
			testDB.Close()
			log.Fatal().Err(err).Msg("Failed to ping test database")
		}
	}

	exitCode := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(exitCode)
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireTestDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("DB_HOST_TEST not set; skipping repository integration test")
	}
}

func truncateOrderTables(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE order_items, orders, products, categories, vendors RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate order tables")
}

func seedVendor(tb testing.TB, pool *pgxpool.Pool) uuid.UUID {
	tb.Helper()
	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO vendors (id, name, email, phone_number, location, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, '', '', $4, $5, $5)`,
		id, "Test Vendor", "vendor@example.com", uuid.Must(uuid.NewV4()), now)
	require.NoError(tb, err)
	return id
}

func seedProduct(tb testing.TB, pool *pgxpool.Pool, vendorID uuid.UUID) uuid.UUID {
	tb.Helper()
	categoryID := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO categories (id, name, created_at, updated_at) VALUES ($1, 'Supplies', $2, $2)`,
		categoryID, now)
	require.NoError(tb, err)

	id := uuid.Must(uuid.NewV4())
	_, err = pool.Exec(context.Background(), `
		INSERT INTO products (id, name, sku, stock_number, price, vendor_id, category_id, created_by, created_at, updated_at)
		VALUES ($1, 'Gauze', $2, 10, 2.50, $3, $4, $5, $6, $6)`,
		id, "GAU-"+id.String()[:5], vendorID, categoryID, uuid.Must(uuid.NewV4()), now)
	require.NoError(tb, err)
	return id
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateOrderTables(t, testDB) })

	repo := order.NewRepository(testDB)
	vendorID := seedVendor(t, testDB)
	productID := seedProduct(t, testDB, vendorID)

	o := order.Order{
		Status:    order.StatusPending,
		VendorID:  vendorID,
		Notes:     "integration",
		CreatedBy: uuid.Must(uuid.NewV4()),
		Items: []order.OrderItem{
			{ProductID: productID, Status: order.ItemPending, Quantity: 2,
				Price: decimal.RequireFromString("2.50"), Total: decimal.RequireFromString("5.00")},
		},
	}

	require.NoError(t, repo.CreateOrder(context.Background(), &o))
	require.NotEqual(t, uuid.Nil, o.ID)
	require.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"), "order number %q", o.OrderNumber)

	fetched, err := repo.GetOrderByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, o.OrderNumber, fetched.OrderNumber)
	require.Len(t, fetched.Items, 1)
	require.Equal(t, 2, fetched.Items[0].Quantity)
	require.True(t, fetched.Items[0].Total.Equal(decimal.RequireFromString("5.00")))
}

func TestOrderRepository_CreateKeepsCallerNumber(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateOrderTables(t, testDB) })

	repo := order.NewRepository(testDB)
	vendorID := seedVendor(t, testDB)
	productID := seedProduct(t, testDB, vendorID)

	makeOrder := func() order.Order {
		return order.Order{
			OrderNumber: "ORD-77777",
			Status:      order.StatusPending,
			VendorID:    vendorID,
			CreatedBy:   uuid.Must(uuid.NewV4()),
			Items: []order.OrderItem{
				{ProductID: productID, Status: order.ItemPending, Quantity: 1,
					Price: decimal.RequireFromString("2.50"), Total: decimal.RequireFromString("2.50")},
			},
		}
	}

	first := makeOrder()
	require.NoError(t, repo.CreateOrder(context.Background(), &first))
	require.Equal(t, "ORD-77777", first.OrderNumber)

	// A caller-supplied number is not regenerated on collision.
	second := makeOrder()
	err := repo.CreateOrder(context.Background(), &second)
	require.ErrorIs(t, err, order.ErrOrderNumberConflict)
}

func TestOrderRepository_WithinTxSettlesAtomically(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateOrderTables(t, testDB) })

	repo := order.NewRepository(testDB)
	vendorID := seedVendor(t, testDB)
	productID := seedProduct(t, testDB, vendorID)

	o := order.Order{
		Status:    order.StatusPending,
		VendorID:  vendorID,
		CreatedBy: uuid.Must(uuid.NewV4()),
		Items: []order.OrderItem{
			{ProductID: productID, Status: order.ItemPending, Quantity: 1,
				Price: decimal.RequireFromString("2.50"), Total: decimal.RequireFromString("2.50")},
		},
	}
	require.NoError(t, repo.CreateOrder(context.Background(), &o))

	sync := order.NewSynchronizer()
	err := repo.WithinTx(context.Background(), func(ctx context.Context, store order.TxStore) error {
		if err := store.UpdateItemStatus(ctx, o.Items[0].ID, order.ItemReceived); err != nil {
			return err
		}
		return sync.SettleFromItem(ctx, store, o.ID)
	})
	require.NoError(t, err)

	fetched, err := repo.GetOrderByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusComplete, fetched.Status)
	require.Equal(t, order.ItemReceived, fetched.Items[0].Status)
}

func TestOrderRepository_DeleteCascades(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateOrderTables(t, testDB) })

	repo := order.NewRepository(testDB)
	vendorID := seedVendor(t, testDB)
	productID := seedProduct(t, testDB, vendorID)

	o := order.Order{
		Status:    order.StatusPending,
		VendorID:  vendorID,
		CreatedBy: uuid.Must(uuid.NewV4()),
		Items: []order.OrderItem{
			{ProductID: productID, Status: order.ItemPending, Quantity: 1,
				Price: decimal.RequireFromString("2.50"), Total: decimal.RequireFromString("2.50")},
		},
	}
	require.NoError(t, repo.CreateOrder(context.Background(), &o))
	itemID := o.Items[0].ID

	require.NoError(t, repo.DeleteOrder(context.Background(), o.ID))

	_, err := repo.GetOrderByID(context.Background(), o.ID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
	_, err = repo.GetItemByID(context.Background(), itemID)
	require.ErrorIs(t, err, order.ErrOrderItemNotFound)
}
