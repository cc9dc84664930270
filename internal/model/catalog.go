package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is catalog reference data. Price is the list price and may differ
// from the unit price negotiated on an LPO.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Description string          `gorm:"type:varchar(200)" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Supplier is a vendor an LPO can be issued to
type Supplier struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	ContactName  string    `gorm:"type:varchar(100)" json:"contact_name"`
	ContactEmail string    `gorm:"type:varchar(100)" json:"contact_email"`
	ContactPhone string    `gorm:"type:varchar(20)" json:"contact_phone"`
	Address      string    `gorm:"type:varchar(200)" json:"address"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
