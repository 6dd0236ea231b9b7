package common

import (
	"net/http"
	"strconv"
)

// Pagination holds list window parameters parsed from the query string.
type Pagination struct {
	Page    int
	PerPage int
}

// Limit returns the window size as an int32 suitable for SQL parameters.
func (p Pagination) Limit() int32 { return int32(p.PerPage) }

// Offset returns the window offset as an int32 suitable for SQL parameters.
func (p Pagination) Offset() int32 { return int32((p.Page - 1) * p.PerPage) }

// ParsePagination extracts page and limit parameters, applying defaults and
// capping limit at maxPerPage.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) Pagination {
	p := Pagination{Page: 1, PerPage: defaultPerPage}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.PerPage = v
	}
	if maxPerPage > 0 && p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

// SetTotalCount exposes the total row count to clients via header.
func SetTotalCount(w http.ResponseWriter, total int64) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
}
