package repository

import (
	"context"

	"lpotracker/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequisitionQuery filters a requisition listing
type RequisitionQuery struct {
	UserID     uint // 0 lists every owner
	Status     model.RequisitionStatus
	WithoutLPO bool // only requisitions no LPO references yet
	Page       Page
}

func (q RequisitionQuery) scope(db *gorm.DB) *gorm.DB {
	if q.UserID != 0 {
		db = db.Where("requisitions.user_id = ?", q.UserID)
	}
	if q.Status != "" {
		db = db.Where("requisitions.status = ?", q.Status)
	}
	if q.WithoutLPO {
		db = db.Where("NOT EXISTS (SELECT 1 FROM lpos WHERE lpos.requisition_id = requisitions.id)")
	}
	return db
}

type RequisitionRepository interface {
	Create(ctx context.Context, req *model.Requisition) error
	FindByID(ctx context.Context, id uint) (*model.Requisition, error)
	List(ctx context.Context, q RequisitionQuery) ([]model.Requisition, int64, error)
	// UpdateStatusIfPending moves a pending requisition to status in a single
	// conditional write.
	UpdateStatusIfPending(ctx context.Context, id uint, status model.RequisitionStatus) error
	// DeleteIfPending removes a requisition and its items while it is still pending.
	DeleteIfPending(ctx context.Context, id uint) error
}

type requisitionRepository struct {
	db *gorm.DB
}

func NewRequisitionRepository(db *gorm.DB) RequisitionRepository {
	return &requisitionRepository{db: db}
}

func preloadRequisition(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Product")
}

func (r *requisitionRepository) Create(ctx context.Context, req *model.Requisition) error {
	return translateError(GetDB(ctx, r.db).Create(req).Error)
}

func (r *requisitionRepository) FindByID(ctx context.Context, id uint) (*model.Requisition, error) {
	var req model.Requisition
	if err := preloadRequisition(GetDB(ctx, r.db)).First(&req, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &req, nil
}

func (r *requisitionRepository) List(ctx context.Context, q RequisitionQuery) ([]model.Requisition, int64, error) {
	var reqs []model.Requisition
	var total int64

	db := GetDB(ctx, r.db)
	if err := q.scope(db.Model(&model.Requisition{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := q.Page.apply(q.scope(preloadRequisition(db))).
		Order("requisitions.created_at DESC").
		Order("requisitions.id DESC")
	if err := fetch.Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *requisitionRepository) UpdateStatusIfPending(ctx context.Context, id uint, status model.RequisitionStatus) error {
	db := GetDB(ctx, r.db)
	res := db.Model(&model.Requisition{}).
		Where("id = ? AND status = ?", id, model.RequisitionPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.Model(&model.Requisition{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStatusMismatch
}

func (r *requisitionRepository) DeleteIfPending(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var req model.Requisition
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error; err != nil {
			return translateError(err)
		}
		if req.Status != model.RequisitionPending {
			return ErrStatusMismatch
		}

		if err := tx.Where("requisition_id = ?", id).Delete(&model.RequisitionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Requisition{}, id).Error
	})
}
