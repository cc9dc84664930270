package model

import "time"

// MaxItemQuantity caps the aggregated quantity of one product on a requisition
const MaxItemQuantity = 100000

// RequisitionStatus is the approval state of a requisition
type RequisitionStatus string

const (
	RequisitionPending  RequisitionStatus = "pending"
	RequisitionApproved RequisitionStatus = "approved"
	RequisitionRejected RequisitionStatus = "rejected"
)

// Valid reports whether s is a known requisition status.
func (s RequisitionStatus) Valid() bool {
	switch s {
	case RequisitionPending, RequisitionApproved, RequisitionRejected:
		return true
	}
	return false
}

// Decided reports whether s is a terminal admin decision.
func (s RequisitionStatus) Decided() bool {
	return s == RequisitionApproved || s == RequisitionRejected
}

// Requisition is a user's request to purchase a set of products.
// Status only moves pending -> approved or pending -> rejected.
type Requisition struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	User      *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Status    RequisitionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes     string            `gorm:"type:text" json:"notes"`
	Items     []RequisitionItem `gorm:"foreignKey:RequisitionID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RequisitionItem is one aggregated product line of a requisition
type RequisitionItem struct {
	RequisitionID uint     `gorm:"primaryKey" json:"requisition_id"`
	ProductID     uint     `gorm:"primaryKey" json:"product_id"`
	Product       *Product `gorm:"foreignKey:ProductID" json:"-"`
	Quantity      int      `gorm:"not null;check:quantity > 0" json:"quantity"`
	Position      int      `gorm:"not null;default:0" json:"-"` // order of first appearance in the request
}

func (RequisitionItem) TableName() string {
	return "requisition_items"
}
