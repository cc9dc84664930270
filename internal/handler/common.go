package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/internal/middleware"
	"lpotracker/internal/repository"
	"lpotracker/pkg/pagination"
	"lpotracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps an apperr kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Unclassified errors are attached
// to the context for the access log and hidden from the client.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := apperr.Message(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.JSON(code, response.Error(code, msg))
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid id "+strconv.Quote(c.Param("id"))))
		return 0, false
	}
	return uint(id), true
}

// session returns the authenticated caller. Routes using it sit behind
// middleware.Authenticate.
func session(c *gin.Context) auth.Session {
	s, _ := middleware.SessionFrom(c)
	return s
}

// page reads the optional ?page=&limit= window.
func page(c *gin.Context) (repository.Page, bool) {
	p, ok := pagination.ParseOptional(c)
	if !ok {
		return repository.Page{}, false
	}
	return repository.Page{Offset: p.Offset, Limit: p.Limit}, true
}
