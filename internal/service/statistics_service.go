package service

import (
	"context"
	"fmt"
	"time"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

const topProductsLimit = 5

type ProductRankingResponse struct {
	ProductID     uint   `json:"product_id"`
	ProductName   string `json:"product_name"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
}

// StatisticsResponse is the admin dashboard summary for one time range
type StatisticsResponse struct {
	Requisitions  []model.StatusCount      `json:"requisitions"`
	LPOs          []model.StatusCount      `json:"lpos"`
	TotalLPOValue string                   `json:"total_lpo_value"`
	TopProducts   []ProductRankingResponse `json:"top_products"`
	StartDate     time.Time                `json:"start_date"`
	EndDate       time.Time                `json:"end_date"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, s auth.Session, r model.TimeRange) (*StatisticsResponse, error)
}

type statisticsService struct {
	stats repository.StatisticsRepository
}

func NewStatisticsService(stats repository.StatisticsRepository) StatisticsService {
	return &statisticsService{stats: stats}
}

// GetStatistics counts requisitions and LPOs by status, sums LPO value and
// ranks the most ordered products, all over records created in r.
func (svc *statisticsService) GetStatistics(ctx context.Context, s auth.Session, r model.TimeRange) (*StatisticsResponse, error) {
	if err := requireAdmin(s); err != nil {
		return nil, err
	}
	if r.End.Before(r.Start) {
		return nil, apperr.Validation("end_date must not be before start_date")
	}

	reqCounts, err := svc.stats.RequisitionCounts(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("requisition counts: %w", err)
	}
	lpoCounts, err := svc.stats.LPOCounts(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("lpo counts: %w", err)
	}
	value, err := svc.stats.LPOValue(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("lpo value: %w", err)
	}
	top, err := svc.stats.TopProducts(ctx, r, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	resp := &StatisticsResponse{
		Requisitions:  nonNil(reqCounts),
		LPOs:          nonNil(lpoCounts),
		TotalLPOValue: value.StringFixed(2),
		TopProducts:   make([]ProductRankingResponse, 0, len(top)),
		StartDate:     r.Start,
		EndDate:       r.End,
	}
	for _, p := range top {
		resp.TopProducts = append(resp.TopProducts, ProductRankingResponse{
			ProductID:     p.ProductID,
			ProductName:   p.ProductName,
			TotalQuantity: p.TotalQuantity,
			TotalValue:    p.TotalValue.StringFixed(2),
		})
	}
	return resp, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
