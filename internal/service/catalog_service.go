package service

import (
	"context"
	"fmt"

	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

type ProductResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

type SupplierResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
}

// CatalogService exposes the read-only product and supplier reference data
type CatalogService interface {
	ListProducts(ctx context.Context) ([]ProductResponse, error)
	ListSuppliers(ctx context.Context) ([]SupplierResponse, error)
}

type catalogService struct {
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
}

func NewCatalogService(products repository.ProductRepository, suppliers repository.SupplierRepository) CatalogService {
	return &catalogService{products: products, suppliers: suppliers}
}

func mapProduct(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, mapProduct(&products[i]))
	}
	return out, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context) ([]SupplierResponse, error) {
	suppliers, err := s.suppliers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	out := make([]SupplierResponse, 0, len(suppliers))
	for _, sup := range suppliers {
		out = append(out, SupplierResponse{
			ID:           sup.ID,
			Name:         sup.Name,
			ContactName:  sup.ContactName,
			ContactEmail: sup.ContactEmail,
			ContactPhone: sup.ContactPhone,
			Address:      sup.Address,
		})
	}
	return out, nil
}
