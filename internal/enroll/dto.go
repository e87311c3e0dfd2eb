package enroll

import "github.com/google/uuid"

// SelectLocationInput starts (or restarts) a wizard run.
type SelectLocationInput struct {
	LocationID uuid.UUID `json:"location_id" validate:"required"`
}

// ScanInput carries one scanned code.
type ScanInput struct {
	Barcode string `json:"barcode" validate:"required,max=32"`
}

// NewProductInput names a product the scanner did not recognize.
type NewProductInput struct {
	Name         string `json:"name" validate:"required,max=30"`
	Manufacturer string `json:"manufacturer" validate:"required,max=30"`
}

// QuantityInput books the counted stock.
type QuantityInput struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}
