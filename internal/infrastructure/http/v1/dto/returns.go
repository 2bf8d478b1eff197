package dto

import (
	"stockroom/internal/core/id"
	"stockroom/internal/domain/documents/returns"
	"stockroom/internal/domain/inventory"
)

// ProcessReturnRequest returns units of one lot to stock.
type ProcessReturnRequest struct {
	InventoryID id.ID  `json:"inventoryId" binding:"required"`
	ReceiptRef  string `json:"receiptRef" binding:"required"`
	ItemName    string `json:"itemName"`
	Size        string `json:"size"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
}

// ToInput converts the request to the service payload.
func (r *ProcessReturnRequest) ToInput() returns.Input {
	return returns.Input{
		InventoryID: r.InventoryID,
		ReceiptRef:  r.ReceiptRef,
		ItemName:    r.ItemName,
		Size:        r.Size,
		Quantity:    r.Quantity,
	}
}

// ProcessReturnResponse lists the returned units.
type ProcessReturnResponse struct {
	Returned []inventory.ReturnedItem `json:"returned"`
	Count    int                      `json:"count"`
}
