package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/internal/events"
	"lpotracker/internal/metrics"
	"lpotracker/internal/model"
	"lpotracker/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type LPOLineInput struct {
	ProductID uint             `json:"product_id"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateLPORequest prices an approved requisition. Products without a line
// are priced at their catalog price. TotalValue, when sent, must match the
// computed total.
type CreateLPORequest struct {
	RequisitionID uint             `json:"requisition_id" binding:"required"`
	SupplierID    uint             `json:"supplier_id" binding:"required"`
	Lines         []LPOLineInput   `json:"lines"`
	TotalValue    *decimal.Decimal `json:"total_value"`
}

type UpdateLPOStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type LPOFilter struct {
	Sort string
	Page repository.Page
}

type LPOLineResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type LPOResponse struct {
	ID            uint              `json:"id"`
	RequisitionID uint              `json:"requisition_id"`
	RequestedBy   uint              `json:"requested_by"`
	SupplierID    uint              `json:"supplier_id"`
	SupplierName  string            `json:"supplier_name"`
	Status        model.LPOStatus   `json:"status"`
	TotalValue    string            `json:"total_value"`
	Lines         []LPOLineResponse `json:"lines"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// --- Interface ---

type LPOService interface {
	Create(ctx context.Context, session auth.Session, req CreateLPORequest) (*LPOResponse, error)
	List(ctx context.Context, session auth.Session, filter LPOFilter) ([]LPOResponse, int64, error)
	Get(ctx context.Context, session auth.Session, id uint) (*LPOResponse, error)
	UpdateStatus(ctx context.Context, session auth.Session, id uint, req UpdateLPOStatusRequest) (*LPOResponse, error)
}

type lpoService struct {
	txManager    repository.TransactionManager
	lpos         repository.LPORepository
	requisitions repository.RequisitionRepository
	suppliers    repository.SupplierRepository
	publisher    events.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewLPOService(
	txManager repository.TransactionManager,
	lpos repository.LPORepository,
	requisitions repository.RequisitionRepository,
	suppliers repository.SupplierRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) LPOService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &lpoService{
		txManager:    txManager,
		lpos:         lpos,
		requisitions: requisitions,
		suppliers:    suppliers,
		publisher:    publisher,
		metrics:      m,
		logger:       orDefault(logger),
	}
}

func mapLPO(lpo *model.LPO) LPOResponse {
	resp := LPOResponse{
		ID:            lpo.ID,
		RequisitionID: lpo.RequisitionID,
		SupplierID:    lpo.SupplierID,
		Status:        lpo.Status,
		TotalValue:    lpo.TotalValue.StringFixed(2),
		Lines:         make([]LPOLineResponse, 0, len(lpo.Lines)),
		CreatedAt:     lpo.CreatedAt,
		UpdatedAt:     lpo.UpdatedAt,
	}
	if lpo.Requisition != nil {
		resp.RequestedBy = lpo.Requisition.UserID
	}
	if lpo.Supplier != nil {
		resp.SupplierName = lpo.Supplier.Name
	}
	for _, line := range lpo.Lines {
		lr := LPOLineResponse{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal().StringFixed(2),
		}
		if line.Product != nil {
			lr.ProductName = line.Product.Name
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

func validUnitPrice(productID uint, price *decimal.Decimal) error {
	if price == nil {
		return apperr.Validation("unit_price for product %d is required", productID)
	}
	if price.IsNegative() {
		return apperr.Validation("unit_price for product %d cannot be negative", productID)
	}
	if !price.Equal(price.Round(2)) {
		return apperr.Validation("unit_price for product %d has more than 2 decimal places", productID)
	}
	if price.GreaterThan(model.MaxUnitPrice) {
		return apperr.Validation("unit_price for product %d cannot exceed %s", productID, model.MaxUnitPrice.StringFixed(2))
	}
	return nil
}

// priceLines copies quantities from the requisition and attaches a unit
// price to each, taken from input or, failing that, from the catalog.
func priceLines(req *model.Requisition, input []LPOLineInput) ([]model.LPOLine, error) {
	quantities := make(map[uint]bool, len(req.Items))
	for _, item := range req.Items {
		quantities[item.ProductID] = true
	}

	prices := make(map[uint]decimal.Decimal, len(input))
	for _, in := range input {
		if !quantities[in.ProductID] {
			return nil, apperr.Validation("product %d is not on requisition %d", in.ProductID, req.ID)
		}
		if _, dup := prices[in.ProductID]; dup {
			return nil, apperr.Validation("product %d is priced more than once", in.ProductID)
		}
		if err := validUnitPrice(in.ProductID, in.UnitPrice); err != nil {
			return nil, err
		}
		prices[in.ProductID] = *in.UnitPrice
	}

	lines := make([]model.LPOLine, 0, len(req.Items))
	for i, item := range req.Items {
		price, ok := prices[item.ProductID]
		if !ok {
			if item.Product == nil {
				return nil, apperr.Validation("unit_price for product %d is required", item.ProductID)
			}
			price = item.Product.Price
		}
		lines = append(lines, model.LPOLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price.Round(2),
			Position:  i,
		})
	}
	return lines, nil
}

// --- Implementation ---

func (s *lpoService) Create(ctx context.Context, session auth.Session, req CreateLPORequest) (*LPOResponse, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	if req.RequisitionID == 0 || req.SupplierID == 0 {
		return nil, apperr.Validation("requisition_id and supplier_id are required")
	}

	var lpo *model.LPO
	var owner uint
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		requisition, err := s.requisitions.FindByID(txCtx, req.RequisitionID)
		if err != nil {
			return notFoundOr(err, "find requisition", "requisition %d not found", req.RequisitionID)
		}
		if requisition.Status != model.RequisitionApproved {
			return apperr.Conflict("requisition %d is %s; only approved requisitions can be ordered",
				requisition.ID, requisition.Status)
		}
		owner = requisition.UserID

		if _, err := s.suppliers.FindByID(txCtx, req.SupplierID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.Validation("supplier %d does not exist", req.SupplierID)
			}
			return fmt.Errorf("find supplier: %w", err)
		}

		lines, err := priceLines(requisition, req.Lines)
		if err != nil {
			return err
		}
		total := model.SumLines(lines)
		if total.GreaterThan(model.MaxTotalValue) {
			return apperr.Validation("total value %s exceeds %s", total.StringFixed(2), model.MaxTotalValue.StringFixed(2))
		}
		if req.TotalValue != nil && !req.TotalValue.Equal(total) {
			return apperr.Validation("total_value %s does not match the computed total %s",
				req.TotalValue.String(), total.StringFixed(2))
		}

		lpo = &model.LPO{
			RequisitionID: requisition.ID,
			SupplierID:    req.SupplierID,
			Status:        model.LPOPending,
			TotalValue:    total,
			Lines:         lines,
		}
		if err := s.lpos.Create(txCtx, lpo); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflict("requisition %d already has an LPO", requisition.ID)
			}
			return fmt.Errorf("create lpo: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lpo created",
		"lpo_id", lpo.ID,
		"requisition_id", lpo.RequisitionID,
		"supplier_id", lpo.SupplierID,
		"total_value", lpo.TotalValue.StringFixed(2),
	)
	s.metrics.LPOCreated(lpo.TotalValue.InexactFloat64())
	events.Emit(ctx, s.publisher, s.logger, events.New(events.LPOCreated, events.EntityLPO, lpo.ID, owner, string(lpo.Status)))

	return s.load(ctx, lpo.ID)
}

func (s *lpoService) load(ctx context.Context, id uint) (*LPOResponse, error) {
	lpo, err := s.lpos.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "find lpo", "lpo %d not found", id)
	}
	resp := mapLPO(lpo)
	return &resp, nil
}

func (s *lpoService) List(ctx context.Context, session auth.Session, filter LPOFilter) ([]LPOResponse, int64, error) {
	if err := requireSession(session); err != nil {
		return nil, 0, err
	}

	sort := repository.LPOSortDateDesc
	if filter.Sort != "" {
		sort = repository.LPOSort(filter.Sort)
		if !sort.Valid() {
			return nil, 0, apperr.Validation("invalid sort %q: use date_asc, date_desc, status_asc or status_desc", filter.Sort)
		}
	}

	q := repository.LPOQuery{Sort: sort, Page: filter.Page}
	if !session.IsAdmin() {
		q.OwnerID = session.UserID
	}

	lpos, total, err := s.lpos.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list lpos: %w", err)
	}

	out := make([]LPOResponse, 0, len(lpos))
	for i := range lpos {
		out = append(out, mapLPO(&lpos[i]))
	}
	return out, total, nil
}

func (s *lpoService) Get(ctx context.Context, session auth.Session, id uint) (*LPOResponse, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	lpo, err := s.lpos.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "find lpo", "lpo %d not found", id)
	}
	if !session.IsAdmin() && (lpo.Requisition == nil || !session.Owns(lpo.Requisition.UserID)) {
		return nil, apperr.NotFound("lpo %d not found", id)
	}

	resp := mapLPO(lpo)
	return &resp, nil
}

// UpdateStatus sets any of the three delivery statuses; no transition is refused.
func (s *lpoService) UpdateStatus(ctx context.Context, session auth.Session, id uint, req UpdateLPOStatusRequest) (*LPOResponse, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	status := model.LPOStatus(req.Status)
	if !status.Valid() {
		return nil, apperr.Validation("status must be %s, %s or %s", model.LPOPending, model.LPODelivered, model.LPONotDelivered)
	}

	if err := s.lpos.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFoundOr(err, "update lpo status", "lpo %d not found", id)
	}

	s.logger.Info("lpo status changed", "lpo_id", id, "status", status, "by", session.UserID)
	s.metrics.LPOStatusChanged(string(status))
	resp, err := s.load(ctx, id)
	var owner uint
	if err == nil {
		owner = resp.RequestedBy
	}
	events.Emit(ctx, s.publisher, s.logger, events.New(events.LPOStatusChanged, events.EntityLPO, id, owner, string(status)))
	return resp, err
}
