package repository

import (
	"context"
	"fmt"

	"lpotracker/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	RequisitionCounts(ctx context.Context, r model.TimeRange) ([]model.StatusCount, error)
	LPOCounts(ctx context.Context, r model.TimeRange) ([]model.StatusCount, error)
	// LPOValue sums total_value over LPOs created in r.
	LPOValue(ctx context.Context, r model.TimeRange) (decimal.Decimal, error)
	TopProducts(ctx context.Context, r model.TimeRange, limit int) ([]model.ProductRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) countByStatus(ctx context.Context, table string, tr model.TimeRange) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	if err := GetDB(ctx, r.db).Table(table).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at <= ?", tr.Start, tr.End).
		Group("status").
		Order("status ASC").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return counts, nil
}

func (r *statisticsRepository) RequisitionCounts(ctx context.Context, tr model.TimeRange) ([]model.StatusCount, error) {
	return r.countByStatus(ctx, "requisitions", tr)
}

func (r *statisticsRepository) LPOCounts(ctx context.Context, tr model.TimeRange) ([]model.StatusCount, error) {
	return r.countByStatus(ctx, "lpos", tr)
}

func (r *statisticsRepository) LPOValue(ctx context.Context, tr model.TimeRange) (decimal.Decimal, error) {
	var result struct {
		Value decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Table("lpos").
		Select("COALESCE(SUM(total_value), 0) AS value").
		Where("created_at >= ? AND created_at <= ?", tr.Start, tr.End).
		Scan(&result).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum lpo value: %w", err)
	}
	return result.Value, nil
}

func (r *statisticsRepository) TopProducts(ctx context.Context, tr model.TimeRange, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	if err := GetDB(ctx, r.db).Table("lpo_lines").
		Select("products.id AS product_id, products.name AS product_name, SUM(lpo_lines.quantity) AS total_quantity, SUM(lpo_lines.quantity * lpo_lines.unit_price) AS total_value").
		Joins("JOIN products ON products.id = lpo_lines.product_id").
		Joins("JOIN lpos ON lpos.id = lpo_lines.lpo_id").
		Where("lpos.created_at >= ? AND lpos.created_at <= ?", tr.Start, tr.End).
		Group("products.id, products.name").
		Order("total_quantity DESC, products.id ASC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}
