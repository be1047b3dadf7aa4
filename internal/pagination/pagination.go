// Package pagination provides offset pagination helpers shared by list endpoints.
package pagination

// Defaults applied when a request omits page or limit.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// Meta describes one page of a larger result set.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Clamp normalizes page and limit: page is raised to at least 1, and a
// non-positive limit falls back to DefaultLimit.
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// Offset returns the row offset for a clamped page and limit.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// NewMeta builds page metadata with TotalPages = ceil(total/limit).
func NewMeta(page, limit, total int) Meta {
	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
}
