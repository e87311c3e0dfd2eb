package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order records one customer checkout. ImplicitID identifies the customer
// without an account: a campus email or a 12-digit card number.
type Order struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string      `gorm:"column:order_number;size:8;not null;uniqueIndex"`
	ImplicitID  string      `gorm:"column:implicit_id;not null"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
