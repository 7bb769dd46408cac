package catalog

import "strconv"

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// ParsePage parses page and limit query values: page is at least 1 and limit
// is clamped to [1, MaxLimit], falling back to defaults on garbage.
func ParsePage(page, limit string) (int, int) {
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l == 0 {
		l = DefaultLimit
	}
	if l < 1 {
		l = 1
	}
	if l > MaxLimit {
		l = MaxLimit
	}
	return p, l
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

func offset(page, limit int) int {
	return (page - 1) * limit
}
