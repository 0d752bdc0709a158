package utils

import (
	"strconv"

	store "github.com/phillip/community-platform-go/store"
)

const MaxPageSize = 100

// ParsePage reads page/limit query values, falling back to page 1 and
// defaultLimit on anything unparsable.
func ParsePage(page, limit string, defaultLimit int) store.Page {
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l < 1 {
		l = defaultLimit
	}
	if l > MaxPageSize {
		l = MaxPageSize
	}
	return store.Page{Page: p, Limit: l}
}

// Pagination builds the list envelope's pagination block. totalKey names
// the total field, e.g. "totalPosts".
func Pagination(p store.Page, total int64, totalKey string) map[string]interface{} {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return map[string]interface{}{
		"currentPage": p.Page,
		"totalPages":  pages,
		totalKey:      total,
		"hasNext":     p.Page < pages,
		"hasPrev":     p.Page > 1,
	}
}
