package entity

import (
	"time"

	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

// TransactionType is the kind of stock movement recorded in the ledger.
type TransactionType string

const (
	TransactionReceipt  TransactionType = "RECEIPT"
	TransactionIssuance TransactionType = "ISSUANCE"
	TransactionReturned TransactionType = "RETURNED"
)

// Valid reports whether t is a known movement type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionReceipt, TransactionIssuance, TransactionReturned:
		return true
	}
	return false
}

// Transaction is an immutable inventory ledger entry.
// Entries are appended by the write paths and never updated; cached
// aggregates on the inventory row are derivable from them.
type Transaction struct {
	ID          id.ID           `db:"id" json:"id"`
	Type        TransactionType `db:"type" json:"type"`
	InventoryID id.ID           `db:"inventory_id" json:"inventoryId"`
	ItemID      id.ID           `db:"item_id" json:"itemId"`

	// Originating documents (optional)
	ReceiptID        *id.ID `db:"receipt_id" json:"receiptId,omitempty"`
	IssuanceID       *id.ID `db:"issuance_id" json:"issuanceId,omitempty"`
	IssuanceDetailID *id.ID `db:"issuance_detail_id" json:"issuanceDetailId,omitempty"`

	Quantity int64       `db:"quantity" json:"quantity"`
	Price    types.Money `db:"price" json:"price"`
	Amount   types.Money `db:"amount" json:"amount"`
	Size     string      `db:"size" json:"size"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewTransaction creates a ledger entry with generated id; Amount is quantity * price.
func NewTransaction(typ TransactionType, inventoryID, itemID id.ID, quantity int64, price types.Money, size string) Transaction {
	return Transaction{
		ID:          id.New(),
		Type:        typ,
		InventoryID: inventoryID,
		ItemID:      itemID,
		Quantity:    quantity,
		Price:       price,
		Amount:      types.LineAmount(quantity, price),
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}
}
