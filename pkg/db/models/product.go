package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry for a physical item on the shop floor. The raw
// scanned barcode is kept verbatim; NormalizedBarcode is the derived lookup key
// that collapses variable-weight labels onto one record.
type Product struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name              string    `gorm:"column:name;not null;uniqueIndex:idx_products_name_manufacturer"`
	Manufacturer      string    `gorm:"column:manufacturer;not null;uniqueIndex:idx_products_name_manufacturer"`
	Barcode           string    `gorm:"column:barcode;not null;uniqueIndex"`
	NormalizedBarcode string    `gorm:"column:normalized_barcode;not null;uniqueIndex"`
	IsActive          bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
