package inventory

import (
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/google/uuid"
)

// RowFilter narrows inventory listings.
type RowFilter struct {
	Search      string
	LocationID  *uuid.UUID
	ActiveOnly  bool
	InStockOnly bool
}

// StockUpdateInput applies a signed delta to one row.
type StockUpdateInput struct {
	InventoryID uuid.UUID `json:"inventory_id" validate:"required"`
	DeltaQty    int       `json:"delta_qty" validate:"required"`
}

// EditQuantityInput replaces a row's quantity outright.
type EditQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// AddProductInput creates a catalog entry outside the scan wizard.
type AddProductInput struct {
	Name         string `json:"name" validate:"required,max=30"`
	Manufacturer string `json:"manufacturer" validate:"required,max=30"`
	Barcode      string `json:"barcode" validate:"required,max=32"`
}

// AddLocationInput creates a stock location.
type AddLocationInput struct {
	Name string `json:"name" validate:"required,max=30"`
}

// StockCheckGroup is one location's rows in the stock-check report.
type StockCheckGroup struct {
	Location models.Location    `json:"location"`
	Rows     []models.Inventory `json:"rows"`
}
