package inventory

import (
	"context"
	"testing"

	"github.com/campusfreestore/freestore-backend/pkg/db"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.Location{},
		&models.Inventory{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn))
	require.NoError(t, err)
	return svc
}

func seedLocation(t *testing.T, conn *gorm.DB, name string, active bool) *models.Location {
	t.Helper()
	loc := &models.Location{Name: name, IsActive: active}
	require.NoError(t, conn.Create(loc).Error)
	return loc
}

func seedProduct(t *testing.T, conn *gorm.DB, name, manufacturer, code string, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:              name,
		Manufacturer:      manufacturer,
		Barcode:           code,
		NormalizedBarcode: code,
		IsActive:          active,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func seedRow(t *testing.T, conn *gorm.DB, productID, locationID uuid.UUID, qty int, active bool) *models.Inventory {
	t.Helper()
	row := &models.Inventory{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   qty,
		IsActive:   active,
	}
	require.NoError(t, conn.Create(row).Error)
	return row
}

func TestAddProductNew(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	product, err := svc.AddProduct(context.Background(), AddProductInput{
		Name:         "Tomato Soup",
		Manufacturer: "Campbell",
		Barcode:      "234567123456",
	})
	require.NoError(t, err)
	require.Equal(t, "234567123456", product.Barcode)
	require.Equal(t, "234567000009", product.NormalizedBarcode)
	require.True(t, product.IsActive)
}

func TestAddProductActiveDuplicateConflicts(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)
	seedProduct(t, conn, "Soup", "Campbell", "036000291452", true)

	_, err := svc.AddProduct(context.Background(), AddProductInput{
		Name:         "Soup",
		Manufacturer: "Campbell",
		Barcode:      "036000291452",
	})
	require.Error(t, err)
}

func TestAddProductRestoresInactiveDuplicate(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)
	old := seedProduct(t, conn, "Soup", "Campbell", "036000291452", false)

	product, err := svc.AddProduct(context.Background(), AddProductInput{
		Name:         "Soup",
		Manufacturer: "Campbell",
		Barcode:      "036000291452",
	})
	require.NoError(t, err)
	require.Equal(t, old.ID, product.ID)
	require.True(t, product.IsActive)
}

func TestAddProductRejectsInvalidBarcode(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.AddProduct(context.Background(), AddProductInput{
		Name:         "Soup",
		Manufacturer: "Campbell",
		Barcode:      "not-a-code",
	})
	require.Error(t, err)
}

func TestAddStockAccumulatesOnOneRow(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "234567000009", true)

	first, err := svc.AddStock(ctx, product.ID, loc.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 5, first.Quantity)

	second, err := svc.AddStock(ctx, product.ID, loc.ID, 5)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 10, second.Quantity)

	var count int64
	require.NoError(t, conn.Model(&models.Inventory{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAddStockRestoresInactiveRowWithFreshQuantity(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "234567000009", true)
	stale := seedRow(t, conn, product.ID, loc.ID, 7, false)

	row, err := svc.AddStock(context.Background(), product.ID, loc.ID, 3)
	require.NoError(t, err)
	require.Equal(t, stale.ID, row.ID)
	require.True(t, row.IsActive)
	require.Equal(t, 3, row.Quantity)
}

func TestStockUpdateAppliesDelta(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "036000291452", true)
	row := seedRow(t, conn, product.ID, loc.ID, 4, true)

	updated, err := svc.StockUpdate(context.Background(), StockUpdateInput{
		InventoryID: row.ID,
		DeltaQty:    -3,
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated.Quantity)
	require.True(t, updated.IsActive)
}

func TestStockUpdateRefusesBelowZero(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "036000291452", true)
	row := seedRow(t, conn, product.ID, loc.ID, 2, true)

	_, err := svc.StockUpdate(context.Background(), StockUpdateInput{
		InventoryID: row.ID,
		DeltaQty:    -5,
	})
	require.Error(t, err)

	var stored models.Inventory
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.Equal(t, 2, stored.Quantity)
}

func TestStockUpdateDeactivatesDrainedRowOfRetiredProduct(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "036000291452", false)
	row := seedRow(t, conn, product.ID, loc.ID, 2, true)

	updated, err := svc.StockUpdate(context.Background(), StockUpdateInput{
		InventoryID: row.ID,
		DeltaQty:    -2,
	})
	require.NoError(t, err)
	require.Equal(t, 0, updated.Quantity)
	require.False(t, updated.IsActive)
}

func TestStockUpdateRefusesAddingToRetiredProduct(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "036000291452", false)
	row := seedRow(t, conn, product.ID, loc.ID, 2, true)

	_, err := svc.StockUpdate(context.Background(), StockUpdateInput{
		InventoryID: row.ID,
		DeltaQty:    1,
	})
	require.Error(t, err)
}

func TestDeactivateProductCascadesToEmptyRows(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "036000291452", true)
	empty := seedRow(t, conn, product.ID, loc.ID, 0, true)

	other := seedLocation(t, conn, "Storage", true)
	stocked := seedRow(t, conn, product.ID, other.ID, 4, true)

	require.NoError(t, svc.DeactivateProduct(context.Background(), product.ID))

	var storedProduct models.Product
	require.NoError(t, conn.First(&storedProduct, "id = ?", product.ID).Error)
	require.False(t, storedProduct.IsActive)

	var storedEmpty, storedStocked models.Inventory
	require.NoError(t, conn.First(&storedEmpty, "id = ?", empty.ID).Error)
	require.False(t, storedEmpty.IsActive)
	require.NoError(t, conn.First(&storedStocked, "id = ?", stocked.ID).Error)
	require.True(t, storedStocked.IsActive)
}

func TestAddLocationRestoresInactive(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)
	gone := seedLocation(t, conn, "Annex", false)

	loc, err := svc.AddLocation(context.Background(), AddLocationInput{Name: "Annex"})
	require.NoError(t, err)
	require.Equal(t, gone.ID, loc.ID)
	require.True(t, loc.IsActive)

	_, err = svc.AddLocation(context.Background(), AddLocationInput{Name: "Annex"})
	require.Error(t, err)
}

func TestDeactivateLocationBlockedByActiveStock(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "036000291452", true)
	seedRow(t, conn, product.ID, loc.ID, 1, true)

	err := svc.DeactivateLocation(context.Background(), loc.ID)
	require.Error(t, err)

	var stored models.Location
	require.NoError(t, conn.First(&stored, "id = ?", loc.ID).Error)
	require.True(t, stored.IsActive)
}

func TestDeactivateLocationWithoutStock(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)
	loc := seedLocation(t, conn, "Annex", true)

	require.NoError(t, svc.DeactivateLocation(context.Background(), loc.ID))

	var stored models.Location
	require.NoError(t, conn.First(&stored, "id = ?", loc.ID).Error)
	require.False(t, stored.IsActive)
}

func TestFindProductByScanNormalizesVariableWeight(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	product := seedProduct(t, conn, "Bulk Rice", "Campus", "234567000009", true)

	// Two different scale prints resolve to the one catalog entry.
	found, err := svc.FindProductByScan(ctx, "234567123456")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, product.ID, found.ID)

	found, err = svc.FindProductByScan(ctx, "234567654321")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, product.ID, found.ID)
}

func TestFindProductByScanMissReturnsNil(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	found, err := svc.FindProductByScan(context.Background(), "036000291452")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestStockCheckGroupsPerLocation(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	floor := seedLocation(t, conn, "Shopfloor", true)
	storage := seedLocation(t, conn, "Storage", true)
	product := seedProduct(t, conn, "Soup", "Campbell", "036000291452", true)
	seedRow(t, conn, product.ID, floor.ID, 3, true)

	groups, err := svc.StockCheck(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byName := map[string]StockCheckGroup{}
	for _, g := range groups {
		byName[g.Location.Name] = g
	}
	require.Len(t, byName["Shopfloor"].Rows, 1)
	require.Empty(t, byName["Storage"].Rows)
	_ = storage
}

func TestListRowsSearch(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newTestService(t, conn)

	loc := seedLocation(t, conn, "Shopfloor", true)
	soup := seedProduct(t, conn, "Tomato Soup", "Campbell", "036000291452", true)
	rice := seedProduct(t, conn, "Bulk Rice", "Campus", "234567000009", true)
	seedRow(t, conn, soup.ID, loc.ID, 3, true)
	seedRow(t, conn, rice.ID, loc.ID, 5, true)

	rows, err := svc.ListRows(context.Background(), RowFilter{Search: "soup", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, soup.ID, rows[0].ProductID)
}
