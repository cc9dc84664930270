package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1

	// TotalCountHeader carries the unpaged total of a paged listing
	TotalCountHeader = "X-Total-Count"
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// ParseOptional is Parse for endpoints that return everything unless the
// caller asks for a page. ok is false when neither page nor limit is set.
func ParseOptional(c *gin.Context) (p Params, ok bool) {
	_, hasPage := c.GetQuery("page")
	_, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		return Params{}, false
	}
	return Parse(c), true
}

// SetTotal writes the unpaged total of a listing.
func SetTotal(c *gin.Context, total int64) {
	c.Header(TotalCountHeader, strconv.FormatInt(total, 10))
}
