package handler

import (
	"net/http"

	"lpotracker/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// RegisterRoutes binds the public catalog endpoints
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/products", h.ListProducts)
	router.GET("/suppliers", h.ListSuppliers)
}

// ListProducts handles GET /products
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Success      200  {array}   service.ProductResponse
// @Failure      500  {object}  response.Response
// @Router       /products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListSuppliers handles GET /suppliers
// @Summary      List suppliers
// @Tags         catalog
// @Produce      json
// @Success      200  {array}   service.SupplierResponse
// @Failure      500  {object}  response.Response
// @Router       /suppliers [get]
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.catalogService.ListSuppliers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}
