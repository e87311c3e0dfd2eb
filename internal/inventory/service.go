package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/campusfreestore/freestore-backend/internal/barcode"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	pkgerrors "github.com/campusfreestore/freestore-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers the staff-facing catalog, location, and stock operations.
type Service interface {
	ListRows(ctx context.Context, filter RowFilter) ([]models.Inventory, error)
	StockCheck(ctx context.Context) ([]StockCheckGroup, error)
	StockUpdate(ctx context.Context, input StockUpdateInput) (*models.Inventory, error)
	EditQuantity(ctx context.Context, rowID uuid.UUID, quantity int) (*models.Inventory, error)

	ListProducts(ctx context.Context, includeInactive bool) ([]models.Product, error)
	AddProduct(ctx context.Context, input AddProductInput) (*models.Product, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) error
	ReactivateProduct(ctx context.Context, productID uuid.UUID) error
	FindProductByScan(ctx context.Context, scanned string) (*models.Product, error)

	ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error)
	GetLocation(ctx context.Context, locationID uuid.UUID) (*models.Location, error)
	AddLocation(ctx context.Context, input AddLocationInput) (*models.Location, error)
	DeactivateLocation(ctx context.Context, locationID uuid.UUID) error
	ReactivateLocation(ctx context.Context, locationID uuid.UUID) error

	AddStock(ctx context.Context, productID, locationID uuid.UUID, quantity int) (*models.Inventory, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the inventory service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) ListRows(ctx context.Context, filter RowFilter) ([]models.Inventory, error) {
	rows, err := s.repo.ListRows(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return rows, nil
}

// StockCheck returns every active row grouped per active location.
func (s *service) StockCheck(ctx context.Context) ([]StockCheckGroup, error) {
	locations, err := s.repo.ListLocations(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}

	groups := make([]StockCheckGroup, 0, len(locations))
	for _, loc := range locations {
		locID := loc.ID
		rows, err := s.repo.ListRows(ctx, RowFilter{LocationID: &locID, ActiveOnly: true})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list location stock")
		}
		groups = append(groups, StockCheckGroup{Location: loc, Rows: rows})
	}
	return groups, nil
}

func (s *service) StockUpdate(ctx context.Context, input StockUpdateInput) (*models.Inventory, error) {
	var updated *models.Inventory
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		row, err := repo.FindRowByID(ctx, input.InventoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
		}
		if !row.IsActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
		}

		productActive := row.Product != nil && row.Product.IsActive
		if input.DeltaQty > 0 && !productActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot add quantity to a retired product")
		}

		newQuantity := row.Quantity + input.DeltaQty
		if newQuantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot reduce quantity below zero").
				WithDetails(map[string]any{"quantity": row.Quantity, "delta_qty": input.DeltaQty})
		}

		row.Quantity = newQuantity
		if newQuantity == 0 && !productActive {
			row.IsActive = false
		}
		if err := repo.SaveRow(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inventory row")
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) EditQuantity(ctx context.Context, rowID uuid.UUID, quantity int) (*models.Inventory, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	var updated *models.Inventory
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindRowByID(ctx, rowID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
		}
		row.Quantity = quantity
		if err := repo.SaveRow(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inventory row")
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListProducts(ctx context.Context, includeInactive bool) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

// AddProduct creates a catalog entry. A deactivated duplicate by
// (name, manufacturer) or by barcode is restored instead of duplicated; an
// active duplicate is a conflict.
func (s *service) AddProduct(ctx context.Context, input AddProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	manufacturer := strings.TrimSpace(input.Manufacturer)
	code := strings.TrimSpace(input.Barcode)

	if err := barcode.Validate(code); err != nil {
		return nil, err
	}
	normalized := barcode.Normalize(code)

	existing, err := s.repo.FindProductByNameManufacturer(ctx, name, manufacturer)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product duplicates")
	}
	if existing != nil {
		if existing.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name and manufacturer already exists")
		}
		existing.IsActive = true
		if err := s.repo.SaveProduct(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product")
		}
		return existing, nil
	}

	byCode, err := s.repo.FindProductByNormalizedBarcode(ctx, normalized)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check barcode duplicates")
	}
	if byCode != nil {
		if byCode.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this barcode already exists")
		}
		byCode.IsActive = true
		if err := s.repo.SaveProduct(ctx, byCode); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product")
		}
		return byCode, nil
	}

	product := &models.Product{
		Name:              name,
		Manufacturer:      manufacturer,
		Barcode:           code,
		NormalizedBarcode: normalized,
		IsActive:          true,
	}
	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

// DeactivateProduct retires a product. Rows already at zero quantity are
// deactivated immediately; rows with stock stay active until they drain.
func (s *service) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		product.IsActive = false
		if err := repo.SaveProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
		}
		if err := repo.DeactivateEmptyRowsForProduct(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate empty rows")
		}
		return nil
	})
}

func (s *service) ReactivateProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	product.IsActive = true
	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
	}
	return nil
}

// FindProductByScan validates and normalizes the scanned code, then looks up
// the catalog by the normalized key. Returns nil (no error) when no product
// matches.
func (s *service) FindProductByScan(ctx context.Context, scanned string) (*models.Product, error) {
	if err := barcode.Validate(scanned); err != nil {
		return nil, err
	}
	normalized := barcode.Normalize(scanned)

	product, err := s.repo.FindProductByNormalizedBarcode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product by barcode")
	}
	return product, nil
}

func (s *service) ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error) {
	locations, err := s.repo.ListLocations(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return locations, nil
}

func (s *service) GetLocation(ctx context.Context, locationID uuid.UUID) (*models.Location, error) {
	location, err := s.repo.FindLocationByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}

func (s *service) AddLocation(ctx context.Context, input AddLocationInput) (*models.Location, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}

	existing, err := s.repo.FindLocationByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check location duplicates")
	}
	if existing != nil {
		if existing.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a location with this name already exists")
		}
		existing.IsActive = true
		if err := s.repo.SaveLocation(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore location")
		}
		return existing, nil
	}

	location := &models.Location{Name: name, IsActive: true}
	if _, err := s.repo.CreateLocation(ctx, location); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	return location, nil
}

// DeactivateLocation refuses while any active inventory row still points at
// the location.
func (s *service) DeactivateLocation(ctx context.Context, locationID uuid.UUID) error {
	location, err := s.repo.FindLocationByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}

	count, err := s.repo.CountActiveStock(ctx, locationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count location stock")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot remove a location that has active products")
	}

	location.IsActive = false
	if err := s.repo.SaveLocation(ctx, location); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save location")
	}
	return nil
}

func (s *service) ReactivateLocation(ctx context.Context, locationID uuid.UUID) error {
	location, err := s.repo.FindLocationByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	location.IsActive = true
	if err := s.repo.SaveLocation(ctx, location); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save location")
	}
	return nil
}

// AddStock gets or creates the (product, location) row and accumulates
// quantity. A deactivated row is restored with the fresh quantity instead of
// accumulating onto the stale count.
func (s *service) AddStock(ctx context.Context, productID, locationID uuid.UUID, quantity int) (*models.Inventory, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var result *models.Inventory
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		row, err := repo.FindRowByProductLocation(ctx, productID, locationID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
			}
			row = &models.Inventory{
				ProductID:  productID,
				LocationID: locationID,
				Quantity:   quantity,
				IsActive:   true,
			}
			if _, err := repo.CreateRow(ctx, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory row")
			}
			result = row
			return nil
		}

		if row.IsActive {
			row.Quantity += quantity
		} else {
			row.Quantity = quantity
			row.IsActive = true
		}
		if err := repo.SaveRow(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inventory row")
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
