package orders

import (
	"context"
	"testing"
	"time"

	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.Location{},
		&models.Inventory{},
		&models.Order{},
		&models.OrderItem{},
	))
	return conn
}

func TestRecentFiltersByWindow(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)

	fresh := &models.Order{OrderNumber: "aaaa1111", ImplicitID: "student@rowan.edu"}
	require.NoError(t, conn.Create(fresh).Error)

	stale := &models.Order{OrderNumber: "bbbb2222", ImplicitID: "123456789012"}
	require.NoError(t, conn.Create(stale).Error)
	require.NoError(t, conn.Model(stale).
		Update("created_at", time.Now().AddDate(0, 0, -45)).Error)

	svc, err := NewService(repo, config.CheckoutConfig{RecentOrdersDays: 30})
	require.NoError(t, err)

	list, err := svc.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "aaaa1111", list[0].OrderNumber)
}

func TestRecentIncludesLineItems(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)

	loc := &models.Location{Name: "Shopfloor", IsActive: true}
	require.NoError(t, conn.Create(loc).Error)
	product := &models.Product{
		Name: "Soup", Manufacturer: "Campbell",
		Barcode: "036000291452", NormalizedBarcode: "036000291452",
		IsActive: true,
	}
	require.NoError(t, conn.Create(product).Error)
	row := &models.Inventory{ProductID: product.ID, LocationID: loc.ID, Quantity: 3, IsActive: true}
	require.NoError(t, conn.Create(row).Error)

	order := &models.Order{OrderNumber: "cccc3333", ImplicitID: "student@rowan.edu"}
	require.NoError(t, conn.Create(order).Error)
	item := &models.OrderItem{OrderID: order.ID, InventoryID: row.ID, Quantity: 2}
	require.NoError(t, conn.Create(item).Error)

	svc, err := NewService(repo, config.CheckoutConfig{RecentOrdersDays: 30})
	require.NoError(t, err)

	list, err := svc.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Items, 1)
	require.NotNil(t, list[0].Items[0].Inventory)
	require.NotNil(t, list[0].Items[0].Inventory.Product)
	require.Equal(t, "Soup", list[0].Items[0].Inventory.Product.Name)
}

func TestOrderNumberExists(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err := repo.CreateOrder(ctx, &models.Order{OrderNumber: "dddd4444", ImplicitID: "123456789012"})
	require.NoError(t, err)

	exists, err := repo.OrderNumberExists(ctx, "dddd4444")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.OrderNumberExists(ctx, "eeee5555")
	require.NoError(t, err)
	require.False(t, exists)
}
