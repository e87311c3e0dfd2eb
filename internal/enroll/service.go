package enroll

import (
	"context"
	"strings"

	"github.com/campusfreestore/freestore-backend/internal/barcode"
	"github.com/campusfreestore/freestore-backend/internal/inventory"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	pkgerrors "github.com/campusfreestore/freestore-backend/pkg/errors"
	"github.com/google/uuid"
)

const stateBucket = "enroll"

type stateStore interface {
	Get(ctx context.Context, sessionID, bucket string, dest any) (bool, error)
	Put(ctx context.Context, sessionID, bucket string, value any) error
	Del(ctx context.Context, sessionID, bucket string) error
}

type inventoryOps interface {
	FindProductByScan(ctx context.Context, scanned string) (*models.Product, error)
	AddProduct(ctx context.Context, input inventory.AddProductInput) (*models.Product, error)
	AddStock(ctx context.Context, productID, locationID uuid.UUID, quantity int) (*models.Inventory, error)
	GetLocation(ctx context.Context, locationID uuid.UUID) (*models.Location, error)
}

// Service drives the multi-request enrollment wizard.
type Service interface {
	Current(ctx context.Context, sessionID string) (*State, error)
	SelectLocation(ctx context.Context, sessionID string, input SelectLocationInput) (*State, error)
	ScanBarcode(ctx context.Context, sessionID string, input ScanInput) (*State, error)
	AddNewProduct(ctx context.Context, sessionID string, input NewProductInput) (*State, error)
	AddQuantity(ctx context.Context, sessionID string, input QuantityInput) (*State, error)
	Cancel(ctx context.Context, sessionID string) error
}

type service struct {
	inv   inventoryOps
	state stateStore
}

// NewService builds the enrollment service.
func NewService(inv inventoryOps, state stateStore) (Service, error) {
	if inv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory service required")
	}
	if state == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session state store required")
	}
	return &service{inv: inv, state: state}, nil
}

func (s *service) Current(ctx context.Context, sessionID string) (*State, error) {
	return s.load(ctx, sessionID)
}

func (s *service) SelectLocation(ctx context.Context, sessionID string, input SelectLocationInput) (*State, error) {
	location, err := s.inv.GetLocation(ctx, input.LocationID)
	if err != nil {
		return nil, err
	}
	if !location.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is not active")
	}

	state := NewState()
	state.Step = StepScan
	state.LocationID = &location.ID
	state.LocationName = location.Name

	if err := s.save(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// ScanBarcode looks the scanned code up in the catalog. A known product jumps
// to the quantity step; an unknown one parks the code and asks for details.
func (s *service) ScanBarcode(ctx context.Context, sessionID string, input ScanInput) (*State, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.LocationID == nil {
		return nil, s.reset(ctx, sessionID, "no location selected")
	}

	scanned := strings.TrimSpace(input.Barcode)
	if err := barcode.Validate(scanned); err != nil {
		return nil, err
	}

	product, err := s.inv.FindProductByScan(ctx, scanned)
	if err != nil {
		return nil, err
	}

	state.ScannedBarcode = scanned
	state.NormalizedBarcode = barcode.Normalize(scanned)
	if product != nil {
		state.Step = StepQuantity
		state.ProductID = &product.ID
		state.ProductName = product.Name
	} else {
		state.Step = StepNewProduct
		state.ProductID = nil
		state.ProductName = ""
	}

	if err := s.save(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) AddNewProduct(ctx context.Context, sessionID string, input NewProductInput) (*State, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Step != StepNewProduct || state.ScannedBarcode == "" || state.LocationID == nil {
		return nil, s.reset(ctx, sessionID, "no scanned barcode pending")
	}

	product, err := s.inv.AddProduct(ctx, inventory.AddProductInput{
		Name:         input.Name,
		Manufacturer: input.Manufacturer,
		Barcode:      state.ScannedBarcode,
	})
	if err != nil {
		return nil, err
	}

	state.Step = StepQuantity
	state.ProductID = &product.ID
	state.ProductName = product.Name

	if err := s.save(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// AddQuantity books the stock on the (product, location) row, then returns to
// the scan step with the location retained.
func (s *service) AddQuantity(ctx context.Context, sessionID string, input QuantityInput) (*State, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Step != StepQuantity || state.ProductID == nil || state.LocationID == nil {
		return nil, s.reset(ctx, sessionID, "no product pending a quantity")
	}

	if _, err := s.inv.AddStock(ctx, *state.ProductID, *state.LocationID, input.Quantity); err != nil {
		return nil, err
	}

	state.clearProduct()
	if err := s.save(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) Cancel(ctx context.Context, sessionID string) error {
	if err := s.state.Del(ctx, sessionID, stateBucket); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear enrollment state")
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionID string) (*State, error) {
	state := NewState()
	if _, err := s.state.Get(ctx, sessionID, stateBucket, state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment state")
	}
	if state.Step == "" {
		state.Step = StepLocation
	}
	return state, nil
}

func (s *service) save(ctx context.Context, sessionID string, state *State) error {
	if err := s.state.Put(ctx, sessionID, stateBucket, state); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save enrollment state")
	}
	return nil
}

// reset wipes the wizard and reports a recoverable conflict. Stale or
// half-missing state must never 500; the operator just starts over.
func (s *service) reset(ctx context.Context, sessionID, reason string) error {
	if err := s.state.Del(ctx, sessionID, stateBucket); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear enrollment state")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		"enrollment session was out of sync; start again by selecting a location").
		WithDetails(map[string]any{"reason": reason})
}
