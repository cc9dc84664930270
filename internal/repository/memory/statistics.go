package memory

import (
	"context"
	"sort"

	"lpotracker/internal/model"

	"github.com/shopspring/decimal"
)

type statisticsRepository struct {
	s *Store
}

func countStatuses(counts map[string]int64) []model.StatusCount {
	out := make([]model.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, model.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

func (r *statisticsRepository) RequisitionCounts(_ context.Context, tr model.TimeRange) ([]model.StatusCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, req := range r.s.requisitions {
		if tr.Contains(req.CreatedAt) {
			counts[string(req.Status)]++
		}
	}
	return countStatuses(counts), nil
}

func (r *statisticsRepository) LPOCounts(_ context.Context, tr model.TimeRange) ([]model.StatusCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, lpo := range r.s.lpos {
		if tr.Contains(lpo.CreatedAt) {
			counts[string(lpo.Status)]++
		}
	}
	return countStatuses(counts), nil
}

func (r *statisticsRepository) LPOValue(_ context.Context, tr model.TimeRange) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := decimal.Zero
	for _, lpo := range r.s.lpos {
		if tr.Contains(lpo.CreatedAt) {
			total = total.Add(lpo.TotalValue)
		}
	}
	return total, nil
}

func (r *statisticsRepository) TopProducts(_ context.Context, tr model.TimeRange, limit int) ([]model.ProductRanking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byProduct := make(map[uint]*model.ProductRanking)
	for _, lpo := range r.s.lpos {
		if !tr.Contains(lpo.CreatedAt) {
			continue
		}
		for _, line := range lpo.Lines {
			rank, ok := byProduct[line.ProductID]
			if !ok {
				rank = &model.ProductRanking{ProductID: line.ProductID, ProductName: r.s.products[line.ProductID].Name}
				byProduct[line.ProductID] = rank
			}
			rank.TotalQuantity += int64(line.Quantity)
			rank.TotalValue = rank.TotalValue.Add(line.LineTotal())
		}
	}

	rankings := make([]model.ProductRanking, 0, len(byProduct))
	for _, rank := range byProduct {
		rankings = append(rankings, *rank)
	}
	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].TotalQuantity != rankings[j].TotalQuantity {
			return rankings[i].TotalQuantity > rankings[j].TotalQuantity
		}
		return rankings[i].ProductID < rankings[j].ProductID
	})
	if limit > 0 && len(rankings) > limit {
		rankings = rankings[:limit]
	}
	return rankings, nil
}
