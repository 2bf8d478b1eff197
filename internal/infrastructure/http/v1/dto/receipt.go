package dto

import (
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/inventory"
)

// CreateReceiptRequest represents a request to create a receipt.
type CreateReceiptRequest struct {
	Directive string                  `json:"directive" binding:"required"`
	Status    inventory.ReceiptStatus `json:"status"`
	Lines     []ReceiptLineRequest    `json:"lines" binding:"required,min=1,dive"`
}

// ReceiptLineRequest is one received lot. Exactly one of InventoryID and
// NewInventory is set.
type ReceiptLineRequest struct {
	InventoryID  *id.ID                  `json:"inventoryId"`
	NewInventory *CreateInventoryRequest `json:"newInventory"`
	Quantity     int64                   `json:"quantity" binding:"required,gt=0"`
	Price        types.Money             `json:"price"`
	Size         string                  `json:"size"`
}

// ToInput converts the request to the service payload.
func (r *CreateReceiptRequest) ToInput() receipt.CreateInput {
	in := receipt.CreateInput{
		Directive: r.Directive,
		Status:    r.Status,
		Lines:     make([]receipt.Line, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		line := receipt.Line{
			InventoryID: l.InventoryID,
			Quantity:    l.Quantity,
			Price:       l.Price,
			Size:        l.Size,
		}
		if l.NewInventory != nil {
			line.NewInventory = &receipt.NewInventory{
				Name:     l.NewInventory.Name,
				Unit:     l.NewInventory.Unit,
				SizeType: l.NewInventory.SizeType,
			}
		}
		in.Lines = append(in.Lines, line)
	}
	return in
}
