package checkout

import (
	"time"

	"github.com/google/uuid"
)

// Cart maps inventory row ids to requested quantities. It lives in the client
// session only and is advisory until commit.
type Cart map[string]int

// AddToCartInput accepts either a scanned barcode (quantity forced to 1) or an
// explicit inventory row id with a quantity.
type AddToCartInput struct {
	Barcode     string     `json:"barcode"`
	InventoryID *uuid.UUID `json:"inventory_id"`
	Quantity    int        `json:"quantity" validate:"omitempty,gte=1"`
}

// CommitOrderInput carries the customer identifier.
type CommitOrderInput struct {
	ImplicitID string `json:"implicit_id" validate:"required,max=255"`
}

// ReceiptItem is one confirmed order line.
type ReceiptItem struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Quantity     int    `json:"quantity"`
}

// Receipt summarizes a committed order.
type Receipt struct {
	OrderNumber string        `json:"order_number"`
	ImplicitID  string        `json:"implicit_id"`
	Items       []ReceiptItem `json:"items"`
	CreatedAt   time.Time     `json:"created_at"`
}
