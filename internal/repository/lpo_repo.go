package repository

import (
	"context"

	"lpotracker/internal/model"

	"gorm.io/gorm"
)

// LPOSort orders an LPO listing
type LPOSort string

const (
	LPOSortDateAsc    LPOSort = "date_asc"
	LPOSortDateDesc   LPOSort = "date_desc"
	LPOSortStatusAsc  LPOSort = "status_asc"
	LPOSortStatusDesc LPOSort = "status_desc"
)

var lpoOrderClauses = map[LPOSort][]string{
	LPOSortDateAsc:    {"lpos.created_at ASC", "lpos.id ASC"},
	LPOSortDateDesc:   {"lpos.created_at DESC", "lpos.id DESC"},
	LPOSortStatusAsc:  {"lpos.status ASC", "lpos.id ASC"},
	LPOSortStatusDesc: {"lpos.status DESC", "lpos.id DESC"},
}

// Valid reports whether s is a supported ordering.
func (s LPOSort) Valid() bool {
	_, ok := lpoOrderClauses[s]
	return ok
}

// LPOQuery filters an LPO listing
type LPOQuery struct {
	OwnerID uint // 0 lists every LPO, otherwise only those whose requisition OwnerID owns
	Sort    LPOSort
	Page    Page
}

func (q LPOQuery) scope(db *gorm.DB) *gorm.DB {
	if q.OwnerID != 0 {
		db = db.Joins("JOIN requisitions ON requisitions.id = lpos.requisition_id").
			Where("requisitions.user_id = ?", q.OwnerID)
	}
	return db
}

type LPORepository interface {
	// Create inserts the LPO and its lines. A second LPO for the same
	// requisition fails with ErrDuplicate.
	Create(ctx context.Context, lpo *model.LPO) error
	FindByID(ctx context.Context, id uint) (*model.LPO, error)
	List(ctx context.Context, q LPOQuery) ([]model.LPO, int64, error)
	UpdateStatus(ctx context.Context, id uint, status model.LPOStatus) error
}

type lpoRepository struct {
	db *gorm.DB
}

func NewLPORepository(db *gorm.DB) LPORepository {
	return &lpoRepository{db: db}
}

func preloadLPO(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Requisition").
		Preload("Supplier").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Lines.Product")
}

func (r *lpoRepository) Create(ctx context.Context, lpo *model.LPO) error {
	return translateError(GetDB(ctx, r.db).Create(lpo).Error)
}

func (r *lpoRepository) FindByID(ctx context.Context, id uint) (*model.LPO, error) {
	var lpo model.LPO
	if err := preloadLPO(GetDB(ctx, r.db)).First(&lpo, "lpos.id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &lpo, nil
}

func (r *lpoRepository) List(ctx context.Context, q LPOQuery) ([]model.LPO, int64, error) {
	var lpos []model.LPO
	var total int64

	db := GetDB(ctx, r.db)
	if err := q.scope(db.Model(&model.LPO{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := q.Sort
	if !sort.Valid() {
		sort = LPOSortDateDesc
	}
	fetch := q.Page.apply(q.scope(preloadLPO(db)))
	for _, clause := range lpoOrderClauses[sort] {
		fetch = fetch.Order(clause)
	}
	if err := fetch.Find(&lpos).Error; err != nil {
		return nil, 0, err
	}
	return lpos, total, nil
}

func (r *lpoRepository) UpdateStatus(ctx context.Context, id uint, status model.LPOStatus) error {
	res := GetDB(ctx, r.db).Model(&model.LPO{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
