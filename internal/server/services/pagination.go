package services

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50

	// MaxPage keeps (page-1)*limit within int for any allowed limit.
	MaxPage = math.MaxInt / MaxPageLimit
)

// Page is a parsed page request.
type Page struct {
	Page   int
	Limit  int
	Offset int
}

// PageFromQuery reads page, limit and offset. The limit defaults to 10 and
// is capped at 50; pages start at 1.
func PageFromQuery(q url.Values) Page {
	p := Page{Page: 1, Limit: DefaultPageLimit}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = min(v, MaxPage)
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxPageLimit)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		p.Offset = v
	}
	return p
}

// Skip is the number of documents before the page: the explicit offset
// when given, otherwise (page-1)*limit.
func (p Page) Skip() int {
	if p.Offset > 0 {
		return p.Offset
	}
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// PageResult is one page of items with the total across all pages.
type PageResult[T any] struct {
	Items []T   `json:"docs"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

func newPageResult[T any](items []T, total int64, p Page) PageResult[T] {
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}
