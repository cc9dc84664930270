package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Largest values the unit_price (12,2) and total_value (14,2) columns hold.
var (
	MaxUnitPrice  = decimal.RequireFromString("9999999999.99")
	MaxTotalValue = decimal.RequireFromString("999999999999.99")
)

// LPOStatus is the delivery state of a purchase order
type LPOStatus string

const (
	LPOPending      LPOStatus = "pending"
	LPODelivered    LPOStatus = "delivered"
	LPONotDelivered LPOStatus = "not_delivered"
)

// Valid reports whether s is a known LPO status.
func (s LPOStatus) Valid() bool {
	switch s {
	case LPOPending, LPODelivered, LPONotDelivered:
		return true
	}
	return false
}

// LPO is a Local Purchase Order issued to a supplier for one approved requisition.
// TotalValue always equals the sum of quantity x unit price over Lines.
type LPO struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	RequisitionID uint            `gorm:"not null;uniqueIndex" json:"requisition_id"` // at most one LPO per requisition
	Requisition   *Requisition    `gorm:"foreignKey:RequisitionID" json:"-"`
	SupplierID    uint            `gorm:"not null;index" json:"supplier_id"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID" json:"-"`
	Status        LPOStatus       `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalValue    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_value"`
	Lines         []LPOLine       `gorm:"foreignKey:LPOID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (LPO) TableName() string {
	return "lpos"
}

// LPOLine prices one requisition product on an LPO
type LPOLine struct {
	LPOID     uint            `gorm:"column:lpo_id;primaryKey" json:"lpo_id"`
	ProductID uint            `gorm:"primaryKey" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Position  int             `gorm:"not null;default:0" json:"-"`
}

func (LPOLine) TableName() string {
	return "lpo_lines"
}

// LineTotal returns quantity x unit price.
func (l LPOLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SumLines returns the total value of lines.
func SumLines(lines []LPOLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
