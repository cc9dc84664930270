package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"lpotracker/internal/auth"
	"lpotracker/internal/events"
	"lpotracker/internal/model"
	"lpotracker/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

type fixture struct {
	store        *memory.Store
	published    *recorder
	users        UserService
	catalog      CatalogService
	requisitions RequisitionService
	lpos         LPOService
	statistics   StatisticsService
	tokens       *auth.TokenManager

	admin, alice, bob auth.Session
	paper, toner      model.Product
	supplier          model.Supplier
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	rec := &recorder{}
	logger := quietLogger()
	tokens := auth.NewTokenManager([]byte("test-secret"), time.Hour)

	f := &fixture{
		store:     store,
		published: rec,
		tokens:    tokens,
		users:     NewUserService(store.Users(), tokens, logger),
		catalog:   NewCatalogService(store.Products(), store.Suppliers()),
		requisitions: NewRequisitionService(
			store.Requisitions(), store.Products(), rec, nil, logger),
		lpos: NewLPOService(
			store.TransactionManager(), store.LPOs(), store.Requisitions(), store.Suppliers(), rec, nil, logger),
		statistics: NewStatisticsService(store.Statistics()),
	}

	mkUser := func(name, email, role string) auth.Session {
		hash, err := auth.HashPassword("secret123")
		require.NoError(t, err)
		u := &model.User{Name: name, Email: email, Password: hash, Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return auth.Session{UserID: u.ID, Role: u.Role, Name: u.Name}
	}
	f.admin = mkUser("Admin", "admin@example.com", model.RoleAdmin)
	f.alice = mkUser("Alice", "alice@example.com", model.RoleUser)
	f.bob = mkUser("Bob", "bob@example.com", model.RoleUser)

	f.paper = model.Product{Name: "A4 Paper", Price: decimal.RequireFromString("100.00")}
	f.toner = model.Product{Name: "Toner", Price: decimal.RequireFromString("50.00")}
	require.NoError(t, store.Products().Create(ctx, &f.paper))
	require.NoError(t, store.Products().Create(ctx, &f.toner))

	f.supplier = model.Supplier{Name: "Office Mart", ContactEmail: "sales@officemart.test"}
	require.NoError(t, store.Suppliers().Create(ctx, &f.supplier))
	return f
}

// approvedRequisition raises 2 x paper and 1 x toner for alice and approves it.
func (f *fixture) approvedRequisition(t *testing.T) *RequisitionResponse {
	t.Helper()
	ctx := context.Background()
	req, err := f.requisitions.Create(ctx, f.alice, CreateRequisitionRequest{
		ProductIDs: []uint{f.paper.ID, f.toner.ID, f.paper.ID},
	})
	require.NoError(t, err)
	approved, err := f.requisitions.UpdateStatus(ctx, f.admin, req.ID, UpdateRequisitionStatusRequest{Status: "approved"})
	require.NoError(t, err)
	return approved
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
