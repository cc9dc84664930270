package memory

import (
	"context"
	"sort"

	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

type lpoRepository struct {
	s *Store
}

func (s *Store) hydrateLPO(lpo model.LPO) model.LPO {
	if req, ok := s.requisitions[lpo.RequisitionID]; ok {
		req.Items = nil
		lpo.Requisition = &req
	}
	if sup, ok := s.suppliers[lpo.SupplierID]; ok {
		lpo.Supplier = &sup
	}
	lines := make([]model.LPOLine, len(lpo.Lines))
	copy(lines, lpo.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
	for i := range lines {
		if p, ok := s.products[lines[i].ProductID]; ok {
			lines[i].Product = &p
		}
	}
	lpo.Lines = lines
	return lpo
}

func (r *lpoRepository) Create(_ context.Context, lpo *model.LPO) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.lpos {
		if existing.RequisitionID == lpo.RequisitionID {
			return repository.ErrDuplicate
		}
	}

	r.s.nextLPOID++
	now := r.s.now()
	lpo.ID = r.s.nextLPOID
	if lpo.Status == "" {
		lpo.Status = model.LPOPending
	}
	lpo.CreatedAt = now
	lpo.UpdatedAt = now

	stored := *lpo
	stored.Requisition = nil
	stored.Supplier = nil
	stored.Lines = make([]model.LPOLine, len(lpo.Lines))
	for i, line := range lpo.Lines {
		lpo.Lines[i].LPOID = lpo.ID
		line.LPOID = lpo.ID
		line.Product = nil
		stored.Lines[i] = line
	}
	r.s.lpos[lpo.ID] = stored
	return nil
}

func (r *lpoRepository) FindByID(_ context.Context, id uint) (*model.LPO, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lpo, ok := r.s.lpos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	lpo = r.s.hydrateLPO(lpo)
	return &lpo, nil
}

func lpoLess(sortBy repository.LPOSort, a, b model.LPO) bool {
	switch sortBy {
	case repository.LPOSortDateAsc:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	case repository.LPOSortStatusAsc:
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.ID < b.ID
	case repository.LPOSortStatusDesc:
		if a.Status != b.Status {
			return a.Status > b.Status
		}
		return a.ID > b.ID
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
}

func (r *lpoRepository) List(_ context.Context, q repository.LPOQuery) ([]model.LPO, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lpos := []model.LPO{}
	for _, lpo := range r.s.lpos {
		if q.OwnerID != 0 {
			req, ok := r.s.requisitions[lpo.RequisitionID]
			if !ok || req.UserID != q.OwnerID {
				continue
			}
		}
		lpos = append(lpos, r.s.hydrateLPO(lpo))
	}

	sortBy := q.Sort
	if !sortBy.Valid() {
		sortBy = repository.LPOSortDateDesc
	}
	sort.Slice(lpos, func(i, j int) bool { return lpoLess(sortBy, lpos[i], lpos[j]) })
	return paginate(lpos, q.Page), int64(len(lpos)), nil
}

func (r *lpoRepository) UpdateStatus(_ context.Context, id uint, status model.LPOStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lpo, ok := r.s.lpos[id]
	if !ok {
		return repository.ErrNotFound
	}
	lpo.Status = status
	lpo.UpdatedAt = r.s.now()
	r.s.lpos[id] = lpo
	return nil
}
