package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSumLines(t *testing.T) {
	lines := []LPOLine{
		{ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
		{ProductID: 9, Quantity: 1, UnitPrice: decimal.RequireFromString("50.00")},
	}

	assert.True(t, decimal.RequireFromString("250.00").Equal(SumLines(lines)))
	assert.True(t, SumLines(nil).IsZero())
}

func TestSumLinesKeepsCents(t *testing.T) {
	lines := []LPOLine{
		{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")},
		{ProductID: 2, Quantity: 7, UnitPrice: decimal.RequireFromString("19.99")},
	}

	assert.Equal(t, "140.23", SumLines(lines).StringFixed(2))
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, RequisitionPending.Valid())
	assert.False(t, RequisitionStatus("cancelled").Valid())
	assert.True(t, RequisitionRejected.Decided())
	assert.False(t, RequisitionPending.Decided())

	assert.True(t, LPONotDelivered.Valid())
	assert.False(t, LPOStatus("shipped").Valid())
}
