package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles. Employees run the floor (enrollment, stock moves); managers
// additionally manage the catalog, locations, and order reports.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
)

// User is a staff account. Customers never have accounts.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         string     `gorm:"column:role;not null;default:'employee'"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
