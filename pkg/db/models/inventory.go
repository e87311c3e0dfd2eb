package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inventory counts stock of one product at one location. Rows are soft
// deleted: quantity reaching zero for a deactivated product flips IsActive off
// instead of removing the row.
type Inventory struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_product_location"`
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;not null;uniqueIndex:idx_inventory_product_location"`
	Quantity   int       `gorm:"column:quantity;not null;default:0"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	Product    *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Location   *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string {
	return "inventory"
}

func (i *Inventory) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
