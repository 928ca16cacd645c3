// Package pagination parses page/limit query parameters and builds the list
// envelope {items, pagination}.
package pagination

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxOffset bounds Offset so huge page numbers cannot overflow it.
	MaxOffset = math.MaxInt32
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// New normalizes page and limit: values below 1 fall back to page 1 and
// DefaultLimit, limit is capped at MaxLimit, and page is capped so that
// Offset never exceeds MaxOffset.
func New(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if maxPage := MaxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	return Params{Page: page, Limit: limit}
}

// FromContext reads ?page= and ?limit=. Unparseable values are treated as
// absent.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return New(page, limit)
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Response is the envelope of every list endpoint.
type Response[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// Pages returns ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// NewResponse wraps one page of items. A nil slice is serialized as [].
func NewResponse[T any](items []T, total int, p Params) *Response[T] {
	if items == nil {
		items = []T{}
	}
	return &Response[T]{
		Items: items,
		Pagination: Meta{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Pages: Pages(total, p.Limit),
		},
	}
}
