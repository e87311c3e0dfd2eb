package inventory

import (
	"context"
	"strings"

	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for products, locations, and
// inventory rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductByNormalizedBarcode(ctx context.Context, normalized string) (*models.Product, error)
	FindProductByNameManufacturer(ctx context.Context, name, manufacturer string) (*models.Product, error)
	ListProducts(ctx context.Context, includeInactive bool) ([]models.Product, error)

	CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error)
	SaveLocation(ctx context.Context, location *models.Location) error
	FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindLocationByName(ctx context.Context, name string) (*models.Location, error)
	ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error)
	CountActiveStock(ctx context.Context, locationID uuid.UUID) (int64, error)

	CreateRow(ctx context.Context, row *models.Inventory) (*models.Inventory, error)
	SaveRow(ctx context.Context, row *models.Inventory) error
	FindRowByID(ctx context.Context, id uuid.UUID) (*models.Inventory, error)
	FindRowByProductLocation(ctx context.Context, productID, locationID uuid.UUID) (*models.Inventory, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	ListRows(ctx context.Context, filter RowFilter) ([]models.Inventory, error)
	DeactivateEmptyRowsForProduct(ctx context.Context, productID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindProductByNormalizedBarcode(ctx context.Context, normalized string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("normalized_barcode = ?", normalized).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindProductByNameManufacturer(ctx context.Context, name, manufacturer string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("name = ? AND manufacturer = ?", name, manufacturer).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, includeInactive bool) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Order("name ASC, manufacturer ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *repository) SaveLocation(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}

func (r *repository) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) FindLocationByName(ctx context.Context, name string) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var locations []models.Location
	if err := q.Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repository) CountActiveStock(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("location_id = ? AND is_active = ?", locationID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateRow(ctx context.Context, row *models.Inventory) (*models.Inventory, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) SaveRow(ctx context.Context, row *models.Inventory) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindRowByID(ctx context.Context, id uuid.UUID) (*models.Inventory, error) {
	var row models.Inventory
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Location").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DecrementStock atomically subtracts quantity from an active row, refusing
// when remaining stock is insufficient. Returns false when no row qualified.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory
		SET quantity = quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_active = ? AND quantity >= ?
	`, quantity, id, true, quantity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindRowByProductLocation(ctx context.Context, productID, locationID uuid.UUID) (*models.Inventory, error) {
	var row models.Inventory
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListRows(ctx context.Context, filter RowFilter) ([]models.Inventory, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Joins("JOIN products ON products.id = inventory.product_id").
		Preload("Product").
		Preload("Location").
		Order("products.name ASC")

	if filter.ActiveOnly {
		q = q.Where("inventory.is_active = ?", true).
			Where("products.is_active = ?", true)
	}
	if filter.InStockOnly {
		q = q.Where("inventory.quantity > 0")
	}
	if filter.LocationID != nil {
		q = q.Where("inventory.location_id = ?", *filter.LocationID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.manufacturer) LIKE ? OR products.barcode LIKE ?", like, like, like)
	}

	var rows []models.Inventory
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeactivateEmptyRowsForProduct flips off rows already at zero quantity when a
// product is retired.
func (r *repository) DeactivateEmptyRowsForProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("product_id = ? AND quantity = 0", productID).
		Update("is_active", false).Error
}
