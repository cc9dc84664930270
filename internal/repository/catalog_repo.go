package repository

import (
	"context"

	"lpotracker/internal/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	List(ctx context.Context) ([]model.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	List(ctx context.Context) ([]model.Supplier, error)
	FindByID(ctx context.Context, id uint) (*model.Supplier, error)
	FindByName(ctx context.Context, name string) (*model.Supplier, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return translateError(GetDB(ctx, r.db).Create(product).Error)
}

func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return translateError(GetDB(ctx, r.db).Create(supplier).Error)
}

func (r *supplierRepository) List(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	if err := GetDB(ctx, r.db).Order("id ASC").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *supplierRepository) FindByID(ctx context.Context, id uint) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &supplier, nil
}

func (r *supplierRepository) FindByName(ctx context.Context, name string) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&supplier).Error; err != nil {
		return nil, translateError(err)
	}
	return &supplier, nil
}
