package enroll

import "github.com/google/uuid"

// Step names one station of the enrollment wizard.
type Step string

const (
	// StepLocation: nothing selected yet; the operator picks where stock goes.
	StepLocation Step = "location"
	// StepScan: location chosen; waiting for a barcode.
	StepScan Step = "scan"
	// StepNewProduct: scanned code is unknown; waiting for catalog details.
	StepNewProduct Step = "new_product"
	// StepQuantity: product resolved; waiting for a count.
	StepQuantity Step = "quantity"
)

// State is the typed wizard state held per staff session. Every transition
// validates the fields the step needs; anything inconsistent resets the
// wizard rather than erroring opaquely.
type State struct {
	Step              Step       `json:"step"`
	LocationID        *uuid.UUID `json:"location_id,omitempty"`
	LocationName      string     `json:"location_name,omitempty"`
	ScannedBarcode    string     `json:"scanned_barcode,omitempty"`
	NormalizedBarcode string     `json:"normalized_barcode,omitempty"`
	ProductID         *uuid.UUID `json:"product_id,omitempty"`
	ProductName       string     `json:"product_name,omitempty"`
}

// NewState is the wizard's starting point.
func NewState() *State {
	return &State{Step: StepLocation}
}

// clearProduct drops the product-scoped fields after a quantity is booked,
// keeping the location so the operator can keep scanning.
func (s *State) clearProduct() {
	s.Step = StepScan
	s.ScannedBarcode = ""
	s.NormalizedBarcode = ""
	s.ProductID = nil
	s.ProductName = ""
}
