package memory

import (
	"context"
	"sort"

	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

type requisitionRepository struct {
	s *Store
}

// hydrate copies req and attaches owner and products the way the gorm
// repository preloads them. Caller holds the lock.
func (s *Store) hydrateRequisition(req model.Requisition) model.Requisition {
	if u, ok := s.users[req.UserID]; ok {
		req.User = &u
	}
	items := make([]model.RequisitionItem, len(req.Items))
	copy(items, req.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	for i := range items {
		if p, ok := s.products[items[i].ProductID]; ok {
			items[i].Product = &p
		}
	}
	req.Items = items
	return req
}

func (r *requisitionRepository) Create(_ context.Context, req *model.Requisition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextRequisitionID++
	now := r.s.now()
	req.ID = r.s.nextRequisitionID
	if req.Status == "" {
		req.Status = model.RequisitionPending
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	stored := *req
	stored.User = nil
	stored.Items = make([]model.RequisitionItem, len(req.Items))
	for i, item := range req.Items {
		req.Items[i].RequisitionID = req.ID
		item.RequisitionID = req.ID
		item.Product = nil
		stored.Items[i] = item
	}
	r.s.requisitions[req.ID] = stored
	return nil
}

func (r *requisitionRepository) FindByID(_ context.Context, id uint) (*model.Requisition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requisitions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req = r.s.hydrateRequisition(req)
	return &req, nil
}

func (r *requisitionRepository) hasLPO(id uint) bool {
	for _, lpo := range r.s.lpos {
		if lpo.RequisitionID == id {
			return true
		}
	}
	return false
}

func (r *requisitionRepository) List(_ context.Context, q repository.RequisitionQuery) ([]model.Requisition, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reqs := []model.Requisition{}
	for _, req := range r.s.requisitions {
		if q.UserID != 0 && req.UserID != q.UserID {
			continue
		}
		if q.Status != "" && req.Status != q.Status {
			continue
		}
		if q.WithoutLPO && r.hasLPO(req.ID) {
			continue
		}
		reqs = append(reqs, r.s.hydrateRequisition(req))
	}
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ID > reqs[j].ID
	})
	return paginate(reqs, q.Page), int64(len(reqs)), nil
}

func (r *requisitionRepository) UpdateStatusIfPending(_ context.Context, id uint, status model.RequisitionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requisitions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != model.RequisitionPending {
		return repository.ErrStatusMismatch
	}
	req.Status = status
	req.UpdatedAt = r.s.now()
	r.s.requisitions[id] = req
	return nil
}

func (r *requisitionRepository) DeleteIfPending(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requisitions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != model.RequisitionPending {
		return repository.ErrStatusMismatch
	}
	delete(r.s.requisitions, id)
	return nil
}
