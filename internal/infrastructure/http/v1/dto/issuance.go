package dto

import (
	"stockroom/internal/core/id"
	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/domain/inventory"
)

// CreateIssuanceRequest represents a request to issue stock.
type CreateIssuanceRequest struct {
	Directive string                `json:"directive" binding:"required"`
	EndUser   string                `json:"endUser" binding:"required"`
	Withdraw  bool                  `json:"withdraw"`
	Lines     []IssuanceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// IssuanceLineRequest is one requested size of one inventory.
type IssuanceLineRequest struct {
	InventoryID id.ID  `json:"inventoryId" binding:"required"`
	Size        string `json:"size"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
}

// ToInput converts the request to the service payload.
func (r *CreateIssuanceRequest) ToInput() issuance.CreateInput {
	in := issuance.CreateInput{
		Directive: r.Directive,
		EndUser:   r.EndUser,
		Withdraw:  r.Withdraw,
		Lines:     make([]issuance.Line, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, issuance.Line{
			InventoryID: l.InventoryID,
			Size:        l.Size,
			Quantity:    l.Quantity,
		})
	}
	return in
}

// SetDetailStatusRequest moves one issuance detail through its state machine.
type SetDetailStatusRequest struct {
	Status inventory.IssuanceStatus `json:"status" binding:"required"`
}
