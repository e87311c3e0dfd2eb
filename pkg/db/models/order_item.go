package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is an immutable line item created atomically with its Order.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	InventoryID uuid.UUID  `gorm:"column:inventory_id;type:uuid;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	Inventory   *Inventory `gorm:"foreignKey:InventoryID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
