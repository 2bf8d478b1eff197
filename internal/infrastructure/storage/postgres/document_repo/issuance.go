package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
)

const (
	issuancesTable = "issuances"
	detailsTable   = "issuance_details"
)

var detailColumns = postgres.ExtractDBColumns[inventory.IssuanceDetail]()

var _ issuance.Repository = (*IssuanceRepo)(nil)

// IssuanceRepo implements issuance.Repository.
type IssuanceRepo struct {
	*catalog_repo.BaseCatalogRepo[*inventory.Issuance]
	inserter *postgres.BatchInserter
	details  *catalog_repo.BaseCatalogRepo[*inventory.IssuanceDetail]
}

// NewIssuanceRepo creates a new issuance repository.
func NewIssuanceRepo(txManager *postgres.TxManager) *IssuanceRepo {
	return &IssuanceRepo{
		BaseCatalogRepo: catalog_repo.NewBaseCatalogRepo(
			txManager,
			issuancesTable,
			"issuance",
			postgres.ExtractDBColumns[inventory.Issuance](),
			func() *inventory.Issuance { return &inventory.Issuance{} },
		),
		inserter: postgres.NewBatchInserter(txManager),
		details: catalog_repo.NewBaseCatalogRepo(
			txManager,
			detailsTable,
			"issuance detail",
			detailColumns,
			func() *inventory.IssuanceDetail { return &inventory.IssuanceDetail{} },
		),
	}
}

// SetStatus implements issuance.Repository.
func (r *IssuanceRepo) SetStatus(ctx context.Context, docID id.ID, status inventory.IssuanceStatus) error {
	return r.Update(ctx, docID, map[string]any{"status": status})
}

// CreateDetails copies the lines in bulk. Must run inside a transaction.
func (r *IssuanceRepo) CreateDetails(ctx context.Context, details []inventory.IssuanceDetail) error {
	rows := make([][]any, 0, len(details))
	for i := range details {
		rows = append(rows, postgres.RowValues(&details[i], detailColumns))
	}
	if _, err := r.inserter.CopyFromSlice(ctx, detailsTable, detailColumns, rows); err != nil {
		return fmt.Errorf("create issuance details: %w", err)
	}
	return nil
}

// ListDetails implements issuance.Repository.
func (r *IssuanceRepo) ListDetails(ctx context.Context, docID id.ID) ([]inventory.IssuanceDetail, error) {
	return ListDetails(ctx, r.Querier(ctx), squirrel.Eq{"issuance_id": docID})
}

// GetDetailForUpdate implements issuance.Repository.
func (r *IssuanceRepo) GetDetailForUpdate(ctx context.Context, detailID id.ID) (*inventory.IssuanceDetail, error) {
	return r.details.GetForUpdate(ctx, detailID)
}

// SetDetailStatus implements issuance.Repository.
func (r *IssuanceRepo) SetDetailStatus(ctx context.Context, detailID id.ID, status inventory.IssuanceStatus) error {
	return r.details.Update(ctx, detailID, map[string]any{"status": status})
}

// SetDetailsStatus moves every detail of the issuance to status.
func (r *IssuanceRepo) SetDetailsStatus(ctx context.Context, docID id.ID, status inventory.IssuanceStatus) error {
	q := postgres.Builder().
		Update(detailsTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"issuance_id": docID})

	if _, err := postgres.Exec(ctx, r.Querier(ctx), q); err != nil {
		return fmt.Errorf("update issuance details: %w", err)
	}
	return nil
}

// ListDetails selects detail rows matching where, oldest first.
func ListDetails(ctx context.Context, q postgres.Querier, where squirrel.Sqlizer) ([]inventory.IssuanceDetail, error) {
	stmt := postgres.Builder().
		Select(detailColumns...).
		From(detailsTable).
		Where(where).
		OrderBy("created_at", "id")

	details := make([]inventory.IssuanceDetail, 0)
	if err := postgres.Select(ctx, q, &details, stmt); err != nil {
		return nil, fmt.Errorf("list issuance details: %w", err)
	}
	return details, nil
}
