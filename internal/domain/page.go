package domain

import "math"

// PageRequest asks for a bounded slice of an ordered result set.
// Page is zero based.
type PageRequest struct {
	Page int
	Size int
	Sort *PropertySort
}

// Offset returns the number of rows to skip. It saturates so that
// Offset()+Size never overflows an int.
func (r PageRequest) Offset() int {
	if r.Page <= 0 || r.Size <= 0 {
		return 0
	}
	if limit := math.MaxInt - r.Size; r.Page > limit/r.Size {
		return limit
	}
	return r.Page * r.Size
}

// Page is one slice of a result set together with the total match count.
type Page[T any] struct {
	Items      []T
	TotalCount int64
	PageNumber int
	PageSize   int
	TotalPages int
}

// NewPage assembles a page envelope for the given request.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: req.Page,
		PageSize:   req.Size,
		TotalPages: totalPages,
	}
}
