// Package memory implements the repository interfaces on process memory.
// A single Store guards every table with one lock so each repository call
// is atomic, which is what the conditional writes in the interfaces require.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

// Store holds all tables
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users        map[uint]model.User
	products     map[uint]model.Product
	suppliers    map[uint]model.Supplier
	requisitions map[uint]model.Requisition
	lpos         map[uint]model.LPO

	nextUserID        uint
	nextProductID     uint
	nextSupplierID    uint
	nextRequisitionID uint
	nextLPOID         uint
}

func NewStore() *Store {
	return &Store{
		now:          time.Now,
		users:        make(map[uint]model.User),
		products:     make(map[uint]model.Product),
		suppliers:    make(map[uint]model.Supplier),
		requisitions: make(map[uint]model.Requisition),
		lpos:         make(map[uint]model.LPO),
	}
}

// SetClock replaces the time source used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() repository.UserRepository               { return &userRepository{s} }
func (s *Store) Products() repository.ProductRepository         { return &productRepository{s} }
func (s *Store) Suppliers() repository.SupplierRepository       { return &supplierRepository{s} }
func (s *Store) Requisitions() repository.RequisitionRepository { return &requisitionRepository{s} }
func (s *Store) LPOs() repository.LPORepository                 { return &lpoRepository{s} }
func (s *Store) Statistics() repository.StatisticsRepository    { return &statisticsRepository{s} }

// TransactionManager returns a manager that runs fn directly. Every
// repository call is already atomic and nothing is rolled back on error.
func (s *Store) TransactionManager() repository.TransactionManager {
	return txManager{}
}

type txManager struct{}

func (txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func paginate[T any](items []T, page repository.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
