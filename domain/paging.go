package domain

import "sort"

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 50
	MaxPageSize       = 200
)

// PageRequest selects one page of a listing.
type PageRequest struct {
	Number int
	Size   int
}

// Normalize fills unset values with defaults.
func (p PageRequest) Normalize() PageRequest {
	if p.Number == 0 {
		p.Number = DefaultPageNumber
	}
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	return p
}

func (p PageRequest) Validate() error {
	if p.Number < 1 {
		return NewInvalidArgument("pageNumber", "must be at least 1")
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return NewInvalidArgument("pageSize", "must be between 1 and 200")
	}
	return nil
}

// Offset is the number of items skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Number - 1) * p.Size
}

// PagedResult is one page of items plus what is needed to navigate the rest.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

func NewPagedResult[T any](items []T, page PageRequest, total int) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	return PagedResult[T]{
		Items:      items,
		PageNumber: page.Number,
		PageSize:   page.Size,
		TotalCount: total,
	}
}

func (r PagedResult[T]) TotalPages() int {
	if r.PageSize <= 0 {
		return 0
	}
	return (r.TotalCount + r.PageSize - 1) / r.PageSize
}

func (r PagedResult[T]) HasPrevious() bool {
	return r.PageNumber > 1
}

func (r PagedResult[T]) HasNext() bool {
	return r.PageNumber < r.TotalPages()
}

// MapPaged projects every item while keeping the pagination metadata.
func MapPaged[T, U any](r PagedResult[T], fn func(T) U) PagedResult[U] {
	out := make([]U, len(r.Items))
	for i, item := range r.Items {
		out[i] = fn(item)
	}
	return PagedResult[U]{
		Items:      out,
		PageNumber: r.PageNumber,
		PageSize:   r.PageSize,
		TotalCount: r.TotalCount,
	}
}

// Paginate filters items with spec, orders them with less, and cuts out the requested page.
// The input slice is not modified.
func Paginate[T any](items []T, spec Specification[T], less func(a, b T) bool, page PageRequest) PagedResult[T] {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if spec.IsSatisfiedBy(item) {
			matched = append(matched, item)
		}
	}
	if less != nil {
		sort.SliceStable(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	}

	total := len(matched)
	start := page.Offset()
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return NewPagedResult(matched[start:end:end], page, total)
}
