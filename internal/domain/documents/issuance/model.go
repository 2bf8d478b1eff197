package issuance

import (
	"context"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
)

// Line is one requested size of one inventory.
type Line struct {
	InventoryID id.ID
	Size        string
	Quantity    int64
}

// CreateInput is the payload of Service.Create.
type CreateInput struct {
	Directive string
	EndUser   string

	// Withdraw creates the details as withdrawn instead of pending.
	Withdraw bool

	Lines []Line
}

// Validate implements entity.Validatable.
func (in *CreateInput) Validate(ctx context.Context) error {
	doc := entity.NewDocument(in.Directive)
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if in.EndUser == "" {
		return apperror.NewValidation("end user is required").
			WithDetail("field", "endUser")
	}
	if len(in.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, line := range in.Lines {
		if id.IsNil(line.InventoryID) {
			return apperror.NewValidation("inventory is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
