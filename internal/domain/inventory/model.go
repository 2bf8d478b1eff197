// Package inventory provides the stock records tracked by the warehouse:
// inventory records, physical item lots and the documents that move them.
package inventory

import (
	"context"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

// NoSize is the size key used when an item carries no size.
const NoSize = "No Size"

// SizeKey returns size, or NoSize when it is blank.
func SizeKey(size string) string {
	if s := strings.TrimSpace(size); s != "" {
		return s
	}
	return NoSize
}

// SizeType describes how an inventory's variants are sized.
type SizeType string

const (
	SizeTypeNone      SizeType = "none"
	SizeTypeApparel   SizeType = "apparel"
	SizeTypeNumerical SizeType = "numerical"
)

// Valid reports whether s is a known size type.
func (s SizeType) Valid() bool {
	switch s {
	case SizeTypeNone, SizeTypeApparel, SizeTypeNumerical:
		return true
	}
	return false
}

// Status is the lifecycle state of an inventory record.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Record is a trackable inventory line with size-variant sub-accounting.
type Record struct {
	entity.BaseEntity

	Name     string   `db:"name" json:"name"`
	Unit     string   `db:"unit" json:"unit"`
	SizeType SizeType `db:"size_type" json:"sizeType"`
	Status   Status   `db:"status" json:"status"`

	// ItemID points at the baseline lot (original stock), if any.
	ItemID *id.ID `db:"item_id" json:"itemId,omitempty"`

	// Quantity is a cached aggregate maintained by the write paths.
	// Reconciliation recomputes it from the ledger and reports drift.
	Quantity int64 `db:"quantity" json:"quantity"`
}

// NewRecord creates an active inventory record with an empty cache.
func NewRecord(name, unit string, sizeType SizeType) *Record {
	if sizeType == "" {
		sizeType = SizeTypeNone
	}
	return &Record{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Unit:       strings.TrimSpace(unit),
		SizeType:   sizeType,
		Status:     StatusActive,
	}
}

// Validate implements entity.Validatable.
func (r *Record) Validate(ctx context.Context) error {
	if r.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !r.SizeType.Valid() {
		return apperror.NewValidation("size type must be one of none, apparel, numerical").
			WithDetail("field", "sizeType").
			WithDetail("value", string(r.SizeType))
	}
	return nil
}

// IsArchived reports whether the record has been soft-deleted.
func (r *Record) IsArchived() bool {
	return r.Status == StatusArchived
}

// Item is a physical lot. A source lot carries ReceiptID; a derived lot
// carries IssuanceDetailID and RefID pointing back at the lot it was taken from.
type Item struct {
	ID          id.ID       `db:"id" json:"id"`
	InventoryID id.ID       `db:"inventory_id" json:"inventoryId"`
	Name        string      `db:"name" json:"name"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	Price       types.Money `db:"price" json:"price"`
	Amount      types.Money `db:"amount" json:"amount"`
	Size        string      `db:"size" json:"size"`

	ReceiptID        *id.ID `db:"receipt_id" json:"receiptId,omitempty"`
	IssuanceDetailID *id.ID `db:"issuance_detail_id" json:"issuanceDetailId,omitempty"`
	RefID            *id.ID `db:"ref_id" json:"refId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewItem creates a lot with generated id and Amount = quantity * price.
func NewItem(inventoryID id.ID, name string, quantity int64, price types.Money, size string) Item {
	return Item{
		ID:          id.New(),
		InventoryID: inventoryID,
		Name:        name,
		Quantity:    quantity,
		Price:       price,
		Amount:      types.LineAmount(quantity, price),
		Size:        SizeKey(size),
		CreatedAt:   time.Now().UTC(),
	}
}

// IsSource reports whether the item is a receipt lot.
func (i *Item) IsSource() bool {
	return i.ReceiptID != nil && i.IssuanceDetailID == nil
}

// IsDerived reports whether the item was produced by an issuance.
func (i *Item) IsDerived() bool {
	return i.IssuanceDetailID != nil
}

// ReceiptStatus is the lifecycle state of a receipt.
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptActive   ReceiptStatus = "active"
	ReceiptArchived ReceiptStatus = "archived"
)

// Valid reports whether s is a known receipt status.
func (s ReceiptStatus) Valid() bool {
	switch s {
	case ReceiptPending, ReceiptActive, ReceiptArchived:
		return true
	}
	return false
}

// Receipt is a document bringing stock in.
type Receipt struct {
	entity.Document

	Status ReceiptStatus `db:"status" json:"status"`

	Items []Item `db:"-" json:"items"`
}

// IssuanceStatus is shared by issuances and their details.
type IssuanceStatus string

const (
	IssuancePending   IssuanceStatus = "pending"
	IssuanceWithdrawn IssuanceStatus = "withdrawn"
	IssuanceArchived  IssuanceStatus = "archived"
)

// Valid reports whether s is a known issuance status.
func (s IssuanceStatus) Valid() bool {
	switch s {
	case IssuancePending, IssuanceWithdrawn, IssuanceArchived:
		return true
	}
	return false
}

// CanTransitionTo implements the detail state machine:
// pending <-> withdrawn, pending|withdrawn -> archived, nothing leaves archived.
func (s IssuanceStatus) CanTransitionTo(next IssuanceStatus) bool {
	switch s {
	case IssuancePending:
		return next == IssuanceWithdrawn || next == IssuanceArchived
	case IssuanceWithdrawn:
		return next == IssuancePending || next == IssuanceArchived
	}
	return false
}

// Issuance is a document sending stock out to an end user.
//
// InventoryID and Quantity carry the legacy single-inventory shape; new
// issuances record their lines as Details instead.
type Issuance struct {
	entity.Document

	EndUser string         `db:"end_user" json:"endUser"`
	Status  IssuanceStatus `db:"status" json:"status"`

	InventoryID *id.ID `db:"inventory_id" json:"inventoryId,omitempty"`
	Quantity    int64  `db:"quantity" json:"quantity,omitempty"`

	Details []IssuanceDetail `db:"-" json:"details"`
}

// HasWithdrawnDetail reports whether any detail is withdrawn.
func (i *Issuance) HasWithdrawnDetail() bool {
	for _, d := range i.Details {
		if d.Status == IssuanceWithdrawn {
			return true
		}
	}
	return false
}

// IssuanceDetail is one issued line against an inventory.
type IssuanceDetail struct {
	ID          id.ID          `db:"id" json:"id"`
	IssuanceID  id.ID          `db:"issuance_id" json:"issuanceId"`
	InventoryID id.ID          `db:"inventory_id" json:"inventoryId"`
	ItemID      id.ID          `db:"item_id" json:"itemId"`
	Quantity    int64          `db:"quantity" json:"quantity"`
	Price       types.Money    `db:"price" json:"price"`
	Size        string         `db:"size" json:"size"`
	Status      IssuanceStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// ReturnedStatus is the state of a returned unit.
type ReturnedStatus string

const ReturnedReceived ReturnedStatus = "returned"

// ReturnedItem is one discrete returned unit. ReceiptRef is the directive
// of the receipt that originally brought the unit in.
type ReturnedItem struct {
	ID          id.ID          `db:"id" json:"id"`
	InventoryID id.ID          `db:"inventory_id" json:"inventoryId"`
	ItemName    string         `db:"item_name" json:"itemName"`
	Size        string         `db:"size" json:"size"`
	ReceiptRef  string         `db:"receipt_ref" json:"receiptRef"`
	Status      ReturnedStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}
