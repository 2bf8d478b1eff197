package memory

import (
	"context"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/documents/returns"
	"stockroom/internal/domain/inventory"
)

var (
	_ receipt.Repository  = receiptRepo{}
	_ issuance.Repository = issuanceRepo{}
	_ returns.Repository  = returnsRepo{}
)

// Receipts returns the receipt repository.
func (s *Store) Receipts() receipt.Repository { return receiptRepo{s} }

// Issuances returns the issuance repository.
func (s *Store) Issuances() issuance.Repository { return issuanceRepo{s} }

// Returns returns the returned-item repository.
func (s *Store) Returns() returns.Repository { return returnsRepo{s} }

type receiptRepo struct{ s *Store }

func (r receiptRepo) Create(ctx context.Context, doc *inventory.Receipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("receipt.create"); err != nil {
		return err
	}
	stored := *doc
	stored.Items = nil
	r.s.st.receipts[doc.ID] = stored
	return nil
}

func (r receiptRepo) GetByID(ctx context.Context, docID id.ID) (*inventory.Receipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doc, ok := r.s.st.receipts[docID]
	if !ok {
		return nil, apperror.NewNotFound("receipt", docID.String())
	}
	return &doc, nil
}

func (r receiptRepo) GetForUpdate(ctx context.Context, docID id.ID) (*inventory.Receipt, error) {
	return r.GetByID(ctx, docID)
}

func (r receiptRepo) SetStatus(ctx context.Context, docID id.ID, status inventory.ReceiptStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc, ok := r.s.st.receipts[docID]
	if !ok {
		return apperror.NewNotFound("receipt", docID.String())
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	r.s.st.receipts[docID] = doc
	return nil
}

func (r receiptRepo) ListItems(ctx context.Context, docID id.ID) ([]inventory.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return filterSlice(r.s.st.items, func(it inventory.Item) bool {
		return it.ReceiptID != nil && *it.ReceiptID == docID
	}), nil
}

type issuanceRepo struct{ s *Store }

func (r issuanceRepo) Create(ctx context.Context, doc *inventory.Issuance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("issuance.create"); err != nil {
		return err
	}
	stored := *doc
	stored.Details = nil
	r.s.st.issuances[doc.ID] = stored
	return nil
}

func (r issuanceRepo) GetByID(ctx context.Context, docID id.ID) (*inventory.Issuance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doc, ok := r.s.st.issuances[docID]
	if !ok {
		return nil, apperror.NewNotFound("issuance", docID.String())
	}
	return &doc, nil
}

func (r issuanceRepo) GetForUpdate(ctx context.Context, docID id.ID) (*inventory.Issuance, error) {
	return r.GetByID(ctx, docID)
}

func (r issuanceRepo) SetStatus(ctx context.Context, docID id.ID, status inventory.IssuanceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc, ok := r.s.st.issuances[docID]
	if !ok {
		return apperror.NewNotFound("issuance", docID.String())
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	r.s.st.issuances[docID] = doc
	return nil
}

func (r issuanceRepo) CreateDetails(ctx context.Context, details []inventory.IssuanceDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("issuance.details"); err != nil {
		return err
	}
	r.s.st.details = append(r.s.st.details, details...)
	return nil
}

func (r issuanceRepo) ListDetails(ctx context.Context, docID id.ID) ([]inventory.IssuanceDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return filterSlice(r.s.st.details, func(d inventory.IssuanceDetail) bool { return d.IssuanceID == docID }), nil
}

func (r issuanceRepo) GetDetailForUpdate(ctx context.Context, detailID id.ID) (*inventory.IssuanceDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.st.details {
		if d.ID == detailID {
			return &d, nil
		}
	}
	return nil, apperror.NewNotFound("issuance detail", detailID.String())
}

func (r issuanceRepo) SetDetailStatus(ctx context.Context, detailID id.ID, status inventory.IssuanceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("issuance.detail_status"); err != nil {
		return err
	}
	for i := range r.s.st.details {
		if r.s.st.details[i].ID == detailID {
			r.s.st.details[i].Status = status
			r.s.st.details[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperror.NewNotFound("issuance detail", detailID.String())
}

func (r issuanceRepo) SetDetailsStatus(ctx context.Context, docID id.ID, status inventory.IssuanceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	for i := range r.s.st.details {
		if r.s.st.details[i].IssuanceID == docID {
			r.s.st.details[i].Status = status
			r.s.st.details[i].UpdatedAt = now
		}
	}
	return nil
}

type returnsRepo struct{ s *Store }

func (r returnsRepo) CreateReturnedItems(ctx context.Context, items []inventory.ReturnedItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("returns.create"); err != nil {
		return err
	}
	r.s.st.returned = append(r.s.st.returned, items...)
	return nil
}

func (r returnsRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]inventory.ReturnedItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return filterSlice(r.s.st.returned, func(ri inventory.ReturnedItem) bool { return ri.InventoryID == inventoryID }), nil
}
