package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/internal/events"
	"lpotracker/internal/metrics"
	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

// --- DTOs ---

type RequisitionItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateRequisitionRequest accepts products either as a flat product_ids list,
// where a repeated id adds one unit, or as explicit items. Both are merged.
type CreateRequisitionRequest struct {
	UserID     *uint                  `json:"user_id"`
	ProductIDs []uint                 `json:"product_ids"`
	Items      []RequisitionItemInput `json:"items"`
	Notes      string                 `json:"notes"`
}

type UpdateRequisitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RequisitionFilter struct {
	Status     string
	WithoutLPO bool
	Page       repository.Page
}

type RequisitionProductResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type RequisitionResponse struct {
	ID        uint                         `json:"id"`
	UserID    uint                         `json:"user_id"`
	UserName  string                       `json:"user_name"`
	Status    model.RequisitionStatus      `json:"status"`
	Notes     string                       `json:"notes"`
	Products  []RequisitionProductResponse `json:"products"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// --- Interface ---

type RequisitionService interface {
	Create(ctx context.Context, session auth.Session, req CreateRequisitionRequest) (*RequisitionResponse, error)
	List(ctx context.Context, session auth.Session, filter RequisitionFilter) ([]RequisitionResponse, int64, error)
	Get(ctx context.Context, session auth.Session, id uint) (*RequisitionResponse, error)
	UpdateStatus(ctx context.Context, session auth.Session, id uint, req UpdateRequisitionStatusRequest) (*RequisitionResponse, error)
	Recall(ctx context.Context, session auth.Session, id uint) error
}

type requisitionService struct {
	requisitions repository.RequisitionRepository
	products     repository.ProductRepository
	publisher    events.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewRequisitionService(
	requisitions repository.RequisitionRepository,
	products repository.ProductRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) RequisitionService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &requisitionService{
		requisitions: requisitions,
		products:     products,
		publisher:    publisher,
		metrics:      m,
		logger:       orDefault(logger),
	}
}

func mapRequisition(req *model.Requisition) RequisitionResponse {
	resp := RequisitionResponse{
		ID:        req.ID,
		UserID:    req.UserID,
		Status:    req.Status,
		Notes:     req.Notes,
		Products:  make([]RequisitionProductResponse, 0, len(req.Items)),
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
	if req.User != nil {
		resp.UserName = req.User.Name
	}
	for _, item := range req.Items {
		line := RequisitionProductResponse{ID: item.ProductID, Quantity: item.Quantity}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.Price = item.Product.Price.StringFixed(2)
		}
		resp.Products = append(resp.Products, line)
	}
	return resp
}

// aggregateItems folds product_ids and items into one line per product,
// keeping the order in which each product first appeared.
func aggregateItems(productIDs []uint, items []RequisitionItemInput) ([]model.RequisitionItem, error) {
	var lines []model.RequisitionItem
	index := make(map[uint]int)

	add := func(productID uint, qty int) error {
		if i, ok := index[productID]; ok {
			qty += lines[i].Quantity
			if qty > model.MaxItemQuantity {
				return apperr.Validation("quantity for product %d cannot exceed %d", productID, model.MaxItemQuantity)
			}
			lines[i].Quantity = qty
			return nil
		}
		index[productID] = len(lines)
		lines = append(lines, model.RequisitionItem{ProductID: productID, Quantity: qty, Position: len(lines)})
		return nil
	}

	for _, id := range productIDs {
		if id == 0 {
			return nil, apperr.Validation("product_ids must contain positive ids")
		}
		if err := add(id, 1); err != nil {
			return nil, err
		}
	}
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, apperr.Validation("items[].product_id is required")
		}
		if item.Quantity < 1 {
			return nil, apperr.Validation("quantity for product %d must be at least 1", item.ProductID)
		}
		// both operands are bounded, so the running sum cannot overflow
		if item.Quantity > model.MaxItemQuantity {
			return nil, apperr.Validation("quantity for product %d cannot exceed %d", item.ProductID, model.MaxItemQuantity)
		}
		if err := add(item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if len(lines) == 0 {
		return nil, apperr.Validation("a requisition needs at least one product")
	}
	return lines, nil
}

// --- Implementation ---

func (s *requisitionService) Create(ctx context.Context, session auth.Session, req CreateRequisitionRequest) (*RequisitionResponse, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if req.UserID != nil && *req.UserID != session.UserID {
		return nil, apperr.Forbidden("requisitions can only be raised for yourself")
	}

	lines, err := aggregateItems(req.ProductIDs, req.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	if len(found) != len(ids) {
		known := make(map[uint]bool, len(found))
		for _, p := range found {
			known[p.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, apperr.Validation("product %d does not exist", id)
			}
		}
	}

	requisition := &model.Requisition{
		UserID: session.UserID,
		Status: model.RequisitionPending,
		Notes:  strings.TrimSpace(req.Notes),
		Items:  lines,
	}
	if err := s.requisitions.Create(ctx, requisition); err != nil {
		return nil, fmt.Errorf("create requisition: %w", err)
	}

	s.logger.Info("requisition created",
		"requisition_id", requisition.ID,
		"user_id", session.UserID,
		"lines", len(lines),
	)
	s.metrics.RequisitionCreated()
	events.Emit(ctx, s.publisher, s.logger,
		events.New(events.RequisitionCreated, events.EntityRequisition, requisition.ID, requisition.UserID, string(requisition.Status)))

	return s.load(ctx, requisition.ID)
}

func (s *requisitionService) load(ctx context.Context, id uint) (*RequisitionResponse, error) {
	req, err := s.requisitions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "find requisition", "requisition %d not found", id)
	}
	resp := mapRequisition(req)
	return &resp, nil
}

func (s *requisitionService) List(ctx context.Context, session auth.Session, filter RequisitionFilter) ([]RequisitionResponse, int64, error) {
	if err := requireSession(session); err != nil {
		return nil, 0, err
	}

	status := model.RequisitionStatus(filter.Status)
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation("invalid status %q", filter.Status)
	}

	q := repository.RequisitionQuery{Status: status, WithoutLPO: filter.WithoutLPO, Page: filter.Page}
	if !session.IsAdmin() {
		q.UserID = session.UserID
	}

	reqs, total, err := s.requisitions.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list requisitions: %w", err)
	}

	out := make([]RequisitionResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, mapRequisition(&reqs[i]))
	}
	return out, total, nil
}

// Get hides requisitions the caller does not own behind NotFound.
func (s *requisitionService) Get(ctx context.Context, session auth.Session, id uint) (*RequisitionResponse, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	req, err := s.requisitions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "find requisition", "requisition %d not found", id)
	}
	if !session.IsAdmin() && !session.Owns(req.UserID) {
		return nil, apperr.NotFound("requisition %d not found", id)
	}

	resp := mapRequisition(req)
	return &resp, nil
}

func (s *requisitionService) UpdateStatus(ctx context.Context, session auth.Session, id uint, req UpdateRequisitionStatusRequest) (*RequisitionResponse, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	status := model.RequisitionStatus(req.Status)
	if !status.Decided() {
		return nil, apperr.Validation("status must be %s or %s", model.RequisitionApproved, model.RequisitionRejected)
	}

	if err := s.requisitions.UpdateStatusIfPending(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrStatusMismatch) {
			return nil, s.transitionConflict(ctx, id, string(status))
		}
		return nil, notFoundOr(err, "update requisition status", "requisition %d not found", id)
	}

	s.logger.Info("requisition status changed",
		"requisition_id", id,
		"status", status,
		"by", session.UserID,
	)
	s.metrics.RequisitionDecided(string(status))

	name := events.RequisitionApproved
	if status == model.RequisitionRejected {
		name = events.RequisitionRejected
	}
	resp, err := s.load(ctx, id)
	var owner uint
	if err == nil {
		owner = resp.UserID
	}
	events.Emit(ctx, s.publisher, s.logger, events.New(name, events.EntityRequisition, id, owner, string(status)))
	return resp, err
}

func (s *requisitionService) transitionConflict(ctx context.Context, id uint, to string) error {
	current, err := s.requisitions.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "find requisition", "requisition %d not found", id)
	}
	return apperr.InvalidTransition("requisition", id, string(current.Status), to)
}

// Recall deletes a pending requisition on behalf of its owner.
func (s *requisitionService) Recall(ctx context.Context, session auth.Session, id uint) error {
	if err := requireSession(session); err != nil {
		return err
	}

	req, err := s.requisitions.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "find requisition", "requisition %d not found", id)
	}
	if !session.Owns(req.UserID) {
		return apperr.Forbidden("only the owner can recall requisition %d", id)
	}
	if req.Status != model.RequisitionPending {
		return apperr.Conflict("requisition %d is %s and can no longer be recalled", id, req.Status)
	}

	if err := s.requisitions.DeleteIfPending(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStatusMismatch) {
			return apperr.Conflict("requisition %d was decided before it could be recalled", id)
		}
		return notFoundOr(err, "recall requisition", "requisition %d not found", id)
	}

	s.logger.Info("requisition recalled", "requisition_id", id, "user_id", session.UserID)
	s.metrics.RequisitionRecalled()
	events.Emit(ctx, s.publisher, s.logger,
		events.New(events.RequisitionRecalled, events.EntityRequisition, id, session.UserID, ""))
	return nil
}
