package entity

import (
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
)

// Pagination defaults for history listings
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest identifies a 1-based page of results
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest applies defaults to zero values and rejects out-of-range sizes
func NewPageRequest(page, pageSize int) (PageRequest, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 0 || pageSize > MaxPageSize {
		return PageRequest{}, errs.ErrInvalidPagination
	}
	return PageRequest{Page: page, PageSize: pageSize}, nil
}

// Offset returns the number of rows to skip
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Pagination is the metadata returned with a page of results
type Pagination struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// NewPagination computes the page count as ceil(total / pageSize)
func NewPagination(req PageRequest, total int64) Pagination {
	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	return Pagination{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
