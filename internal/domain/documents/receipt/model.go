package receipt

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/inventory"
)

// NewInventory describes an inventory created by its first receipt.
type NewInventory struct {
	Name     string
	Unit     string
	SizeType inventory.SizeType
}

// Line is one received lot. Exactly one of InventoryID and NewInventory is set.
type Line struct {
	InventoryID  *id.ID
	NewInventory *NewInventory
	Quantity     int64
	Price        types.Money
	Size         string
}

// CreateInput is the payload of Service.Create.
type CreateInput struct {
	Directive string
	// Status defaults to pending.
	Status inventory.ReceiptStatus
	Lines  []Line
}

// Validate implements entity.Validatable.
func (in *CreateInput) Validate(ctx context.Context) error {
	doc := entity.NewDocument(in.Directive)
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if in.Status == "" {
		in.Status = inventory.ReceiptPending
	}
	if in.Status != inventory.ReceiptPending && in.Status != inventory.ReceiptActive {
		return apperror.NewValidation("receipt status must be pending or active").
			WithDetail("field", "status")
	}

	if len(in.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range in.Lines {
		lineErr := func(msg string) error {
			return apperror.NewValidation(msg).
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if (line.InventoryID == nil) == (line.NewInventory == nil) {
			return lineErr("either inventoryId or newInventory is required")
		}
		if line.NewInventory != nil {
			rec := inventory.NewRecord(line.NewInventory.Name, line.NewInventory.Unit, line.NewInventory.SizeType)
			if err := rec.Validate(ctx); err != nil {
				return lineErr(fmt.Sprintf("new inventory: %s", appMessage(err)))
			}
		}
		if line.Quantity <= 0 {
			return lineErr("quantity must be positive")
		}
		if line.Price.IsNegative() {
			return lineErr("price must not be negative")
		}
	}
	return nil
}

func appMessage(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
