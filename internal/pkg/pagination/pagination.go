// internal/pkg/pagination/pagination.go
package pagination

import "gorm.io/gorm"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Request is embedded in list query DTOs
type Request struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Normalize clamps page and limit to sane values
func (r *Request) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
}

// Offset returns the row offset for the current page
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Scope applies offset and limit to a query
func (r Request) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(r.Offset()).Limit(r.Limit)
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// New builds the response block for a normalized request
func New(r Request, total int64) Pagination {
	totalPages := 0
	if r.Limit > 0 {
		totalPages = int((total + int64(r.Limit) - 1) / int64(r.Limit))
	}
	return Pagination{
		Page:       r.Page,
		Limit:      r.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    r.Page < totalPages,
		HasPrev:    r.Page > 1,
	}
}
