package utils

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Meta mirrors the pagination block returned by list endpoints.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Paging clamps page/limit to sane values.
func Paging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func Offset(page, limit int) int { return (page - 1) * limit }

func NewMeta(page, limit int, total int64) Meta {
	return Meta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// RoundRating rounds an average score to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
