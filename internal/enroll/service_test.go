package enroll

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/campusfreestore/freestore-backend/internal/inventory"
	"github.com/campusfreestore/freestore-backend/pkg/db"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeState struct {
	buckets map[string]string
}

func newFakeState() *fakeState {
	return &fakeState{buckets: map[string]string{}}
}

func (f *fakeState) key(sessionID, bucket string) string {
	return sessionID + ":" + bucket
}

func (f *fakeState) Get(_ context.Context, sessionID, bucket string, dest any) (bool, error) {
	raw, ok := f.buckets[f.key(sessionID, bucket)]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), dest)
}

func (f *fakeState) Put(_ context.Context, sessionID, bucket string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.buckets[f.key(sessionID, bucket)] = string(raw)
	return nil
}

func (f *fakeState) Del(_ context.Context, sessionID, bucket string) error {
	delete(f.buckets, f.key(sessionID, bucket))
	return nil
}

type enrollFixture struct {
	conn  *gorm.DB
	svc   Service
	floor *models.Location
}

func setupEnroll(t *testing.T) *enrollFixture {
	t.Helper()
	dsn := "file:enroll_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.Location{},
		&models.Inventory{},
	))

	floor := &models.Location{Name: "Shopfloor", IsActive: true}
	require.NoError(t, conn.Create(floor).Error)

	invSvc, err := inventory.NewService(inventory.NewRepository(conn), db.NewWithConn(conn))
	require.NoError(t, err)

	svc, err := NewService(invSvc, newFakeState())
	require.NoError(t, err)

	return &enrollFixture{conn: conn, svc: svc, floor: floor}
}

func TestWizardStartsAtLocationStep(t *testing.T) {
	f := setupEnroll(t)

	state, err := f.svc.Current(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, StepLocation, state.Step)
}

func TestWizardFullRunWithNewProduct(t *testing.T) {
	f := setupEnroll(t)
	ctx := context.Background()

	state, err := f.svc.SelectLocation(ctx, "sid", SelectLocationInput{LocationID: f.floor.ID})
	require.NoError(t, err)
	require.Equal(t, StepScan, state.Step)
	require.Equal(t, "Shopfloor", state.LocationName)

	state, err = f.svc.ScanBarcode(ctx, "sid", ScanInput{Barcode: "036000291452"})
	require.NoError(t, err)
	require.Equal(t, StepNewProduct, state.Step)
	require.Equal(t, "036000291452", state.ScannedBarcode)

	state, err = f.svc.AddNewProduct(ctx, "sid", NewProductInput{Name: "Soup", Manufacturer: "Campbell"})
	require.NoError(t, err)
	require.Equal(t, StepQuantity, state.Step)
	require.NotNil(t, state.ProductID)

	state, err = f.svc.AddQuantity(ctx, "sid", QuantityInput{Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, StepScan, state.Step)
	require.NotNil(t, state.LocationID)
	require.Nil(t, state.ProductID)
	require.Empty(t, state.ScannedBarcode)

	var row models.Inventory
	require.NoError(t, f.conn.First(&row, "location_id = ?", f.floor.ID).Error)
	require.Equal(t, 4, row.Quantity)
}

func TestWizardScanKnownProductSkipsDetails(t *testing.T) {
	f := setupEnroll(t)
	ctx := context.Background()

	product := &models.Product{
		Name: "Soup", Manufacturer: "Campbell",
		Barcode: "036000291452", NormalizedBarcode: "036000291452",
		IsActive: true,
	}
	require.NoError(t, f.conn.Create(product).Error)

	_, err := f.svc.SelectLocation(ctx, "sid", SelectLocationInput{LocationID: f.floor.ID})
	require.NoError(t, err)

	state, err := f.svc.ScanBarcode(ctx, "sid", ScanInput{Barcode: "036000291452"})
	require.NoError(t, err)
	require.Equal(t, StepQuantity, state.Step)
	require.Equal(t, product.ID, *state.ProductID)
	require.Equal(t, "Soup", state.ProductName)
}

func TestWizardVariableWeightScansAccumulateOnOneRow(t *testing.T) {
	f := setupEnroll(t)
	ctx := context.Background()

	_, err := f.svc.SelectLocation(ctx, "sid", SelectLocationInput{LocationID: f.floor.ID})
	require.NoError(t, err)

	// First scale print is unknown; enroll it.
	state, err := f.svc.ScanBarcode(ctx, "sid", ScanInput{Barcode: "234567123456"})
	require.NoError(t, err)
	require.Equal(t, StepNewProduct, state.Step)

	_, err = f.svc.AddNewProduct(ctx, "sid", NewProductInput{Name: "Bulk Rice", Manufacturer: "Campus"})
	require.NoError(t, err)

	_, err = f.svc.AddQuantity(ctx, "sid", QuantityInput{Quantity: 5})
	require.NoError(t, err)

	// Second scale print of the same item resolves to the same product.
	state, err = f.svc.ScanBarcode(ctx, "sid", ScanInput{Barcode: "234567654321"})
	require.NoError(t, err)
	require.Equal(t, StepQuantity, state.Step)

	_, err = f.svc.AddQuantity(ctx, "sid", QuantityInput{Quantity: 5})
	require.NoError(t, err)

	var rows []models.Inventory
	require.NoError(t, f.conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, 10, rows[0].Quantity)

	var products []models.Product
	require.NoError(t, f.conn.Find(&products).Error)
	require.Len(t, products, 1)
	require.Equal(t, "234567000009", products[0].NormalizedBarcode)
}

func TestAddQuantityWithoutProductResetsWizard(t *testing.T) {
	f := setupEnroll(t)
	ctx := context.Background()

	_, err := f.svc.SelectLocation(ctx, "sid", SelectLocationInput{LocationID: f.floor.ID})
	require.NoError(t, err)

	_, err = f.svc.AddQuantity(ctx, "sid", QuantityInput{Quantity: 3})
	require.Error(t, err)

	// The wizard is back at the beginning, not wedged.
	state, err := f.svc.Current(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, StepLocation, state.Step)
	require.Nil(t, state.LocationID)
}

func TestScanWithoutLocationResetsWizard(t *testing.T) {
	f := setupEnroll(t)

	_, err := f.svc.ScanBarcode(context.Background(), "sid", ScanInput{Barcode: "036000291452"})
	require.Error(t, err)
}

func TestInvalidBarcodeKeepsState(t *testing.T) {
	f := setupEnroll(t)
	ctx := context.Background()

	_, err := f.svc.SelectLocation(ctx, "sid", SelectLocationInput{LocationID: f.floor.ID})
	require.NoError(t, err)

	_, err = f.svc.ScanBarcode(ctx, "sid", ScanInput{Barcode: "garbage"})
	require.Error(t, err)

	// A bad scan is recoverable in place; the operator rescans.
	state, err := f.svc.Current(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, StepScan, state.Step)
	require.NotNil(t, state.LocationID)
}

func TestCancelClearsState(t *testing.T) {
	f := setupEnroll(t)
	ctx := context.Background()

	_, err := f.svc.SelectLocation(ctx, "sid", SelectLocationInput{LocationID: f.floor.ID})
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, "sid"))

	state, err := f.svc.Current(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, StepLocation, state.Step)
}

func TestSelectLocationRejectsInactive(t *testing.T) {
	f := setupEnroll(t)

	gone := &models.Location{Name: "Annex", IsActive: false}
	require.NoError(t, f.conn.Create(gone).Error)

	_, err := f.svc.SelectLocation(context.Background(), "sid", SelectLocationInput{LocationID: gone.ID})
	require.Error(t, err)
}
