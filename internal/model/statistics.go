package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusCount is the number of rows in one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ProductRanking ranks a product by the quantity ordered on LPOs
type ProductRanking struct {
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// TimeRange bounds statistics on created_at, both ends inclusive
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside r.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
