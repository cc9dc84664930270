package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lpotracker/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Unauthenticated("who"), http.StatusUnauthorized},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{fmt.Errorf("create lpo: %w", apperr.Conflict("dup")), http.StatusConflict},
		{apperr.InvalidTransition("requisition", 1, "approved", "rejected"), http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","status_code":500,"error":"internal server error"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for raw, ok := range map[string]bool{"12": true, "0": false, "-1": false, "x": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		_, got := parseID(c)
		assert.Equal(t, ok, got, raw)
	}
}
