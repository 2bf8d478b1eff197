package dto

import (
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
)

// CreateInventoryRequest creates an empty inventory record.
type CreateInventoryRequest struct {
	Name     string             `json:"name" binding:"required"`
	Unit     string             `json:"unit"`
	SizeType inventory.SizeType `json:"sizeType"`
}

// InventoryListQuery holds the list filters.
type InventoryListQuery struct {
	PaginationRequest
	Search     string `form:"search"`
	Status     string `form:"status"`
	SizeType   string `form:"sizeType"`
	StockLevel string `form:"stockLevel"`
}

// InventoryDetailQuery holds the detail view options.
type InventoryDetailQuery struct {
	IncludeConsumed bool `form:"includeConsumed"`
}

// InventoryDetailResponse is the reconciled breakdown of one inventory.
type InventoryDetailResponse struct {
	*reconcile.Result
	StockLevel     reconcile.StockLevel `json:"stockLevel"`
	FormattedTotal string               `json:"formattedTotal"`
}
