// Package service holds the business rules. Services validate requests,
// enforce ownership, and translate storage errors into result values;
// repositories stay mechanical.
package service

import (
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a list slice plus its pagination window.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
