package entity

import (
	"context"
	"strings"

	"stockroom/internal/core/apperror"
)

// Document is the base type for stock documents (receipts, issuances).
// Directive is the human-readable document reference; returned items link
// back to their receipt through it rather than through the id.
type Document struct {
	BaseEntity

	Directive string `db:"directive" json:"directive"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(directive string) Document {
	return Document{
		BaseEntity: NewBaseEntity(),
		Directive:  strings.TrimSpace(directive),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Directive == "" {
		return apperror.NewValidation("directive is required").
			WithDetail("field", "directive")
	}
	return nil
}
