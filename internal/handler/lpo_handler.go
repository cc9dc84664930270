package handler

import (
	"net/http"

	"lpotracker/internal/middleware"
	"lpotracker/internal/model"
	"lpotracker/internal/service"
	"lpotracker/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type LPOHandler struct {
	lpoService service.LPOService
}

func NewLPOHandler(lpoService service.LPOService) *LPOHandler {
	return &LPOHandler{lpoService: lpoService}
}

// RegisterRoutes binds the LPO endpoints; all of them require a session
func (h *LPOHandler) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	lpos := router.Group("/lpos", authenticate)
	{
		lpos.GET("", h.List)
		lpos.POST("", adminOnly, h.Create)
		lpos.GET("/:id", h.Get)
		lpos.PUT("/:id", adminOnly, h.UpdateStatus)
	}
}

// Create handles POST /lpos
// @Summary      Issue an LPO for an approved requisition
// @Description  Quantities come from the requisition. Products without a line use the catalog price. total_value is recomputed and must match when sent
// @Tags         lpos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLPORequest  true  "LPO payload"
// @Success      201      {object}  service.LPOResponse
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /lpos [post]
func (h *LPOHandler) Create(c *gin.Context) {
	var req service.CreateLPORequest
	if !bindJSON(c, &req) {
		return
	}

	lpo, err := h.lpoService.Create(c.Request.Context(), session(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lpo)
}

// List handles GET /lpos
// @Summary      List LPOs
// @Description  Admins see every LPO, users those raised from their own requisitions
// @Tags         lpos
// @Produce      json
// @Security     BearerAuth
// @Param        sort   query     string  false  "date_asc, date_desc (default), status_asc or status_desc"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {array}   service.LPOResponse
// @Failure      400    {object}  response.Response
// @Router       /lpos [get]
func (h *LPOHandler) List(c *gin.Context) {
	p, paged := page(c)
	lpos, total, err := h.lpoService.List(c.Request.Context(), session(c), service.LPOFilter{
		Sort: c.Query("sort"),
		Page: p,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if paged {
		pagination.SetTotal(c, total)
	}
	c.JSON(http.StatusOK, lpos)
}

// Get handles GET /lpos/:id
// @Summary      Get an LPO
// @Tags         lpos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "LPO ID"
// @Success      200  {object}  service.LPOResponse
// @Failure      404  {object}  response.Response
// @Router       /lpos/{id} [get]
func (h *LPOHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	lpo, err := h.lpoService.Get(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lpo)
}

// UpdateStatus handles PUT /lpos/:id
// @Summary      Set LPO delivery status
// @Description  Any of pending, delivered, not_delivered; every transition is allowed
// @Tags         lpos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                             true  "LPO ID"
// @Param        payload  body      service.UpdateLPOStatusRequest  true  "New status"
// @Success      200      {object}  service.LPOResponse
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /lpos/{id} [put]
func (h *LPOHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateLPOStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	lpo, err := h.lpoService.UpdateStatus(c.Request.Context(), session(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lpo)
}
