package memory

import (
	"context"

	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

type productRepository struct {
	s *Store
}

func (r *productRepository) Create(_ context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextProductID++
	now := r.s.now()
	product.ID = r.s.nextProductID
	product.CreatedAt = now
	product.UpdatedAt = now
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepository) List(_ context.Context) ([]model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]model.Product, 0, len(r.s.products))
	for _, id := range sortedKeys(r.s.products) {
		products = append(products, r.s.products[id])
	}
	return products, nil
}

func (r *productRepository) FindByIDs(_ context.Context, ids []uint) ([]model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	products := []model.Product{}
	for _, id := range sortedKeys(r.s.products) {
		if wanted[id] {
			products = append(products, r.s.products[id])
		}
	}
	return products, nil
}

func (r *productRepository) FindByName(_ context.Context, name string) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, id := range sortedKeys(r.s.products) {
		if p := r.s.products[id]; p.Name == name {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

type supplierRepository struct {
	s *Store
}

func (r *supplierRepository) Create(_ context.Context, supplier *model.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextSupplierID++
	now := r.s.now()
	supplier.ID = r.s.nextSupplierID
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	r.s.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *supplierRepository) List(_ context.Context) ([]model.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	suppliers := make([]model.Supplier, 0, len(r.s.suppliers))
	for _, id := range sortedKeys(r.s.suppliers) {
		suppliers = append(suppliers, r.s.suppliers[id])
	}
	return suppliers, nil
}

func (r *supplierRepository) FindByID(_ context.Context, id uint) (*model.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.suppliers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *supplierRepository) FindByName(_ context.Context, name string) (*model.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, id := range sortedKeys(r.s.suppliers) {
		if s := r.s.suppliers[id]; s.Name == name {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}
