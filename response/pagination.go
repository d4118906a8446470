package response

import (
	"net/http"
	"strconv"
)

const (
	DefaultPaginationOffset = 0
	DefaultPaginationLimit  = 50
	MaxPaginationLimit      = 1000
)

type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

func NewPagination(offset, limit, total int) Pagination {
	return Pagination{
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}
}

func (p Pagination) WithTotal(total int) Pagination {
	p.Total = total
	return p
}

// NewPaginationFromRequest reads offset and limit from the query string.
// Missing or invalid values fall back to the defaults; limit is capped at
// MaxPaginationLimit.
func NewPaginationFromRequest(r *http.Request) Pagination {
	limit := DefaultPaginationLimit
	offset := DefaultPaginationOffset

	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		val, err := strconv.Atoi(offsetParam)
		if err == nil && val >= 0 {
			offset = val
		}
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		val, err := strconv.Atoi(limitParam)
		if err == nil && val > 0 {
			limit = min(val, MaxPaginationLimit)
		}
	}

	return NewPagination(offset, limit, 0)
}
