package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextFor(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/lpos?"+rawQuery, nil)
	return c
}

func TestParseClamps(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"page=0&limit=0", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=2&limit=500", Params{Page: 2, Limit: 100, Offset: 100}},
		{"page=abc", Params{Page: 1, Limit: 20, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(contextFor(tt.query)))
		})
	}
}

func TestParseOptional(t *testing.T) {
	_, ok := ParseOptional(contextFor("sort=date_asc"))
	assert.False(t, ok)

	p, ok := ParseOptional(contextFor("limit=5"))
	assert.True(t, ok)
	assert.Equal(t, Params{Page: 1, Limit: 5, Offset: 0}, p)
}

func TestSetTotal(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	SetTotal(c, 42)
	assert.Equal(t, "42", w.Header().Get(TotalCountHeader))
}
