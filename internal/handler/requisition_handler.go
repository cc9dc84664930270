package handler

import (
	"net/http"
	"strconv"

	"lpotracker/internal/middleware"
	"lpotracker/internal/model"
	"lpotracker/internal/service"
	"lpotracker/pkg/pagination"
	"lpotracker/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequisitionHandler struct {
	requisitionService service.RequisitionService
}

func NewRequisitionHandler(requisitionService service.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{requisitionService: requisitionService}
}

// RegisterRoutes binds the requisition endpoints; all of them require a session
func (h *RequisitionHandler) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	reqs := router.Group("/requisitions", authenticate)
	{
		reqs.GET("", h.List)
		reqs.POST("", h.Create)
		reqs.GET("/:id", h.Get)
		reqs.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateStatus)
		reqs.DELETE("/:id", h.Recall)
	}
}

// Create handles POST /requisitions
// @Summary      Raise a requisition
// @Description  Repeated ids in product_ids add one unit each and are merged with items
// @Tags         requisitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequisitionRequest  true  "Requested products"
// @Success      201      {object}  service.RequisitionResponse
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /requisitions [post]
func (h *RequisitionHandler) Create(c *gin.Context) {
	var req service.CreateRequisitionRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.requisitionService.Create(c.Request.Context(), session(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List handles GET /requisitions
// @Summary      List requisitions
// @Description  Admins see every requisition, users only their own. Newest first
// @Tags         requisitions
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "pending, approved or rejected"
// @Param        without_lpo  query     bool    false  "Only requisitions that have no LPO yet"
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Success      200          {array}   service.RequisitionResponse
// @Failure      400          {object}  response.Response
// @Router       /requisitions [get]
func (h *RequisitionHandler) List(c *gin.Context) {
	filter := service.RequisitionFilter{Status: c.Query("status")}
	if raw := c.Query("without_lpo"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "without_lpo must be true or false"))
			return
		}
		filter.WithoutLPO = v
	}
	p, paged := page(c)
	filter.Page = p

	reqs, total, err := h.requisitionService.List(c.Request.Context(), session(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if paged {
		pagination.SetTotal(c, total)
	}
	c.JSON(http.StatusOK, reqs)
}

// Get handles GET /requisitions/:id
// @Summary      Get a requisition
// @Tags         requisitions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Requisition ID"
// @Success      200  {object}  service.RequisitionResponse
// @Failure      404  {object}  response.Response
// @Router       /requisitions/{id} [get]
func (h *RequisitionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, err := h.requisitionService.Get(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// UpdateStatus handles PUT /requisitions/:id
// @Summary      Approve or reject a requisition
// @Tags         requisitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                                     true  "Requisition ID"
// @Param        payload  body      service.UpdateRequisitionStatusRequest  true  "approved or rejected"
// @Success      200      {object}  service.RequisitionResponse
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /requisitions/{id} [put]
func (h *RequisitionHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateRequisitionStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.requisitionService.UpdateStatus(c.Request.Context(), session(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Recall handles DELETE /requisitions/:id
// @Summary      Recall a pending requisition
// @Description  Only the owner can recall, and only while the requisition is pending
// @Tags         requisitions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Requisition ID"
// @Success      200  {object}  response.MessageResponse
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /requisitions/{id} [delete]
func (h *RequisitionHandler) Recall(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.requisitionService.Recall(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Message("Requisition recalled"))
}
