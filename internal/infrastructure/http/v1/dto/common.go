// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"stockroom/internal/domain"
)

// PaginationRequest contains pagination parameters. Reconciling a page costs
// one snapshot per inventory, which bounds pageSize.
type PaginationRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1,max=1000000"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ToPage converts the request to a normalized domain page.
func (p PaginationRequest) ToPage() domain.Page {
	return domain.Page{Number: p.Page, Size: p.PageSize}.Normalize()
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LimitQuery bounds history-style listings.
type LimitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// LimitOr returns Limit, or def when it is unset.
func (q LimitQuery) LimitOr(def int) int {
	if q.Limit == 0 {
		return def
	}
	return q.Limit
}
