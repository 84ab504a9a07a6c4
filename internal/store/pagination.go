package store

// Page size limits for offset pagination.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams is a 1-based offset page request.
type PageParams struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows to skip.
func (p PageParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns ceil(total / pageSize), 0 when there is nothing to page.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
