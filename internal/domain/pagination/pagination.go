// Package pagination holds the paging value objects shared by read repositories.
package pagination

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxResultWindow is the deepest item a page may reach, matching Elasticsearch's default
	// index.max_result_window.
	MaxResultWindow = 10000
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultSortField is used when no sort field, or an unknown one, is requested.
const DefaultSortField = "created_at"

// TiebreakField is always appended to the sort so pages stay deterministic.
const TiebreakField = "id"

// SortFields whitelists the read-model fields callers may sort on.
var SortFields = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"last_login": {},
	"first_name": {},
	"last_name":  {},
	"email":      {},
	"birthdate":  {},
	"age":        {},
}

// Params are normalised paging parameters. Build them with NewParams.
type Params struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  Direction
	Search   string
}

// Limits bounds page sizes. The zero value uses DefaultPageSize and MaxPageSize.
type Limits struct {
	Default int
	Max     int
}

func (l Limits) normalise() Limits {
	if l.Max <= 0 {
		l.Max = MaxPageSize
	}
	if l.Max > MaxResultWindow {
		l.Max = MaxResultWindow
	}
	if l.Default <= 0 {
		l.Default = DefaultPageSize
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

// NewParams clamps page and size into range and falls back to defaults for unknown sort input. It never
// fails. Pages past MaxResultWindow are pulled back to the last page that fits in it.
func NewParams(page, size int, sortBy, sortDir, search string, limits Limits) Params {
	limits = limits.normalise()
	if page < 1 {
		page = 1
	}
	switch {
	case size <= 0:
		size = limits.Default
	case size > limits.Max:
		size = limits.Max
	}
	if lastPage := MaxResultWindow / size; page > lastPage {
		page = lastPage
	}
	sortBy = strings.ToLower(strings.TrimSpace(sortBy))
	if _, ok := SortFields[sortBy]; !ok {
		sortBy = DefaultSortField
	}
	dir := Direction(strings.ToLower(strings.TrimSpace(sortDir)))
	if dir != Asc && dir != Desc {
		dir = Desc
	}
	return Params{
		Page:     page,
		PageSize: size,
		SortBy:   sortBy,
		SortDir:  dir,
		Search:   strings.TrimSpace(search),
	}
}

// Normalise re-applies NewParams rules, for Params built by hand.
func (p Params) Normalise(limits Limits) Params {
	return NewParams(p.Page, p.PageSize, p.SortBy, string(p.SortDir), p.Search, limits)
}

// Offset is the number of items before the first item of the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of results.
type Page[T any] struct {
	Items           []T   `json:"items"`
	TotalCount      int64 `json:"total_count"`
	Page            int   `json:"page"`
	PageSize        int   `json:"page_size"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// NewPage derives the page counters from the total.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return Page[T]{
		Items:           items,
		TotalCount:      total,
		Page:            p.Page,
		PageSize:        p.PageSize,
		TotalPages:      totalPages,
		HasNextPage:     p.Page < totalPages,
		HasPreviousPage: p.Page > 1,
	}
}

// Map converts page items, keeping the counters.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, it := range p.Items {
		out[i] = fn(it)
	}
	return Page[U]{
		Items:           out,
		TotalCount:      p.TotalCount,
		Page:            p.Page,
		PageSize:        p.PageSize,
		TotalPages:      p.TotalPages,
		HasNextPage:     p.HasNextPage,
		HasPreviousPage: p.HasPreviousPage,
	}
}
