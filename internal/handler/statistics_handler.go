package handler

import (
	"net/http"
	"time"

	"lpotracker/internal/middleware"
	"lpotracker/internal/model"
	"lpotracker/internal/service"
	"lpotracker/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	now               func() time.Time
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, now: time.Now}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	router.GET("/statistics", authenticate, middleware.RequireRole(model.RoleAdmin), h.GetStatistics)
}

// GetStatistics handles GET /statistics
// @Summary      Get dashboard statistics
// @Description  Requisition and LPO counts by status, LPO value and top ordered products. Defaults to the current month.
// @Tags         statistics
// @Produce      json
// @Param        start_date query string false "Start date (RFC3339)"
// @Param        end_date   query string false "End date (RFC3339)"
// @Success      200  {object}  service.StatisticsResponse
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Security     BearerAuth
// @Router       /statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	now := h.now()
	r := model.TimeRange{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		End:   now,
	}

	var err error
	if v := c.Query("start_date"); v != "" {
		if r.Start, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date format, expected RFC3339"))
			return
		}
	}
	if v := c.Query("end_date"); v != "" {
		if r.End, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date format, expected RFC3339"))
			return
		}
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), session(c), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
