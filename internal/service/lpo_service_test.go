package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"lpotracker/internal/apperr"
	"lpotracker/internal/events"
	"lpotracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The total is computed from requisition quantities and unit prices,
// and a requisition takes one LPO only.
func TestCreateLPOComputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.approvedRequisition(t)

	lpo, err := f.lpos.Create(ctx, f.admin, CreateLPORequest{
		RequisitionID: req.ID,
		SupplierID:    f.supplier.ID,
		Lines: []LPOLineInput{
			{ProductID: f.paper.ID, UnitPrice: price("100.00")},
			{ProductID: f.toner.ID, UnitPrice: price("50")},
		},
		TotalValue: price("250"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.LPOPending, lpo.Status)
	assert.Equal(t, "250.00", lpo.TotalValue)
	assert.Equal(t, "Office Mart", lpo.SupplierName)
	assert.Equal(t, f.alice.UserID, lpo.RequestedBy)
	require.Len(t, lpo.Lines, 2)
	assert.Equal(t, LPOLineResponse{ProductID: f.paper.ID, ProductName: "A4 Paper", Quantity: 2, UnitPrice: "100.00", LineTotal: "200.00"}, lpo.Lines[0])
	assert.Equal(t, LPOLineResponse{ProductID: f.toner.ID, ProductName: "Toner", Quantity: 1, UnitPrice: "50.00", LineTotal: "50.00"}, lpo.Lines[1])

	_, err = f.lpos.Create(ctx, f.admin, CreateLPORequest{RequisitionID: req.ID, SupplierID: f.supplier.ID})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, []string{events.RequisitionCreated, events.RequisitionApproved, events.LPOCreated}, f.published.names())
}

func TestCreateLPODefaultsToCatalogPrice(t *testing.T) {
	f := newFixture(t)
	req := f.approvedRequisition(t)

	lpo, err := f.lpos.Create(context.Background(), f.admin, CreateLPORequest{
		RequisitionID: req.ID,
		SupplierID:    f.supplier.ID,
		Lines:         []LPOLineInput{{ProductID: f.toner.ID, UnitPrice: price("40.25")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "240.25", lpo.TotalValue)
	assert.Equal(t, "100.00", lpo.Lines[0].UnitPrice)
	assert.Equal(t, "40.25", lpo.Lines[1].UnitPrice)
}

func TestCreateLPORejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	approved := f.approvedRequisition(t)
	pending, err := f.requisitions.Create(ctx, f.alice, CreateRequisitionRequest{ProductIDs: []uint{f.paper.ID}})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  CreateLPORequest
		kind error
	}{
		{"unknown requisition", CreateLPORequest{RequisitionID: 99, SupplierID: f.supplier.ID}, apperr.ErrNotFound},
		{"pending requisition", CreateLPORequest{RequisitionID: pending.ID, SupplierID: f.supplier.ID}, apperr.ErrConflict},
		{"unknown supplier", CreateLPORequest{RequisitionID: approved.ID, SupplierID: 77}, apperr.ErrValidation},
		{"missing ids", CreateLPORequest{}, apperr.ErrValidation},
		{"foreign product", CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID,
			Lines: []LPOLineInput{{ProductID: 55, UnitPrice: price("1")}}}, apperr.ErrValidation},
		{"duplicate line", CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID,
			Lines: []LPOLineInput{{ProductID: f.paper.ID, UnitPrice: price("1")}, {ProductID: f.paper.ID, UnitPrice: price("2")}}}, apperr.ErrValidation},
		{"negative price", CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID,
			Lines: []LPOLineInput{{ProductID: f.paper.ID, UnitPrice: price("-1")}}}, apperr.ErrValidation},
		{"sub-cent price", CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID,
			Lines: []LPOLineInput{{ProductID: f.paper.ID, UnitPrice: price("1.005")}}}, apperr.ErrValidation},
		{"missing price", CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID,
			Lines: []LPOLineInput{{ProductID: f.paper.ID}}}, apperr.ErrValidation},
		{"wrong total", CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID,
			TotalValue: price("10")}, apperr.ErrValidation},
		{"price over column limit", CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID,
			Lines: []LPOLineInput{{ProductID: f.paper.ID, UnitPrice: price("10000000000.00")}}}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.lpos.Create(ctx, f.admin, tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err = f.lpos.Create(ctx, f.alice, CreateLPORequest{RequisitionID: approved.ID, SupplierID: f.supplier.ID})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	list, _, err := f.lpos.List(ctx, f.admin, LPOFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConcurrentLPOCreationYieldsOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.approvedRequisition(t)

	var created, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lpos.Create(ctx, f.admin, CreateLPORequest{RequisitionID: req.ID, SupplierID: f.supplier.ID})
			if err == nil {
				atomic.AddInt32(&created, 1)
			} else if assert.ErrorIs(t, err, apperr.ErrConflict) {
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created)
	assert.EqualValues(t, 11, conflicts)
}

func TestCreateLPORejectsTotalBeyondColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.requisitions.Create(ctx, f.alice, CreateRequisitionRequest{
		Items: []RequisitionItemInput{{ProductID: f.paper.ID, Quantity: model.MaxItemQuantity}},
	})
	require.NoError(t, err)
	_, err = f.requisitions.UpdateStatus(ctx, f.admin, req.ID, UpdateRequisitionStatusRequest{Status: "approved"})
	require.NoError(t, err)

	_, err = f.lpos.Create(ctx, f.admin, CreateLPORequest{
		RequisitionID: req.ID,
		SupplierID:    f.supplier.ID,
		Lines:         []LPOLineInput{{ProductID: f.paper.ID, UnitPrice: price("9999999999.99")}},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	lpos, _, err := f.lpos.List(ctx, f.admin, LPOFilter{})
	require.NoError(t, err)
	assert.Empty(t, lpos)
}

// LPO status moves freely between the three values.
func TestLPOStatusToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.approvedRequisition(t)
	lpo, err := f.lpos.Create(ctx, f.admin, CreateLPORequest{RequisitionID: req.ID, SupplierID: f.supplier.ID})
	require.NoError(t, err)

	for _, status := range []string{"delivered", "pending", "not_delivered", "delivered"} {
		updated, err := f.lpos.UpdateStatus(ctx, f.admin, lpo.ID, UpdateLPOStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, model.LPOStatus(status), updated.Status)
		assert.Equal(t, "250.00", updated.TotalValue)
	}

	_, err = f.lpos.UpdateStatus(ctx, f.admin, lpo.ID, UpdateLPOStatusRequest{Status: "lost"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.lpos.UpdateStatus(ctx, f.admin, 404, UpdateLPOStatusRequest{Status: "pending"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.lpos.UpdateStatus(ctx, f.alice, lpo.ID, UpdateLPOStatusRequest{Status: "pending"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestLPOVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.approvedRequisition(t)
	lpo, err := f.lpos.Create(ctx, f.admin, CreateLPORequest{RequisitionID: req.ID, SupplierID: f.supplier.ID})
	require.NoError(t, err)

	mine, total, err := f.lpos.List(ctx, f.alice, LPOFilter{Sort: "status_asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, lpo.ID, mine[0].ID)

	theirs, _, err := f.lpos.List(ctx, f.bob, LPOFilter{})
	require.NoError(t, err)
	assert.Empty(t, theirs)

	_, err = f.lpos.Get(ctx, f.bob, lpo.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	got, err := f.lpos.Get(ctx, f.alice, lpo.ID)
	require.NoError(t, err)
	assert.Equal(t, "250.00", got.TotalValue)

	_, _, err = f.lpos.List(ctx, f.admin, LPOFilter{Sort: "cheapest"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEventsCarryRequisitionOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.approvedRequisition(t)
	lpo, err := f.lpos.Create(ctx, f.admin, CreateLPORequest{RequisitionID: req.ID, SupplierID: f.supplier.ID})
	require.NoError(t, err)
	_, err = f.lpos.UpdateStatus(ctx, f.admin, lpo.ID, UpdateLPOStatusRequest{Status: "delivered"})
	require.NoError(t, err)

	f.published.mu.Lock()
	defer f.published.mu.Unlock()
	require.Len(t, f.published.events, 4)
	for _, ev := range f.published.events {
		assert.Equal(t, f.alice.UserID, ev.OwnerID, ev.Name)
	}
}
