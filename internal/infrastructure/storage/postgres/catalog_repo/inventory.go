package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"stockroom/internal/core/id"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
)

const inventoriesTable = "inventories"

var _ inventory.Repository = (*InventoryRepo)(nil)

// sortable maps OrderBy names to columns; anything else sorts by name.
var sortable = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"quantity":   "quantity",
}

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	*BaseCatalogRepo[*inventory.Record]
}

// NewInventoryRepo creates a new inventory record repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			inventoriesTable,
			"inventory",
			postgres.ExtractDBColumns[inventory.Record](),
			func() *inventory.Record { return &inventory.Record{} },
		),
	}
}

// SetStatus implements inventory.Repository.
func (r *InventoryRepo) SetStatus(ctx context.Context, recID id.ID, status inventory.Status) error {
	return r.Update(ctx, recID, map[string]any{"status": status})
}

// SetBaseline implements inventory.Repository.
func (r *InventoryRepo) SetBaseline(ctx context.Context, recID, itemID id.ID) error {
	return r.Update(ctx, recID, map[string]any{"item_id": itemID})
}

// AdjustQuantity adds delta to the cached quantity in one statement, so
// concurrent writers never lose an update.
func (r *InventoryRepo) AdjustQuantity(ctx context.Context, recID id.ID, delta int64) error {
	return r.Update(ctx, recID, map[string]any{"quantity": squirrel.Expr("quantity + ?", delta)})
}

// List implements inventory.Repository. Limit <= 0 returns every match.
func (r *InventoryRepo) List(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.Record], error) {
	result := domain.ListResult[*inventory.Record]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	q := r.listQuery(filter)

	countQ := postgres.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count inventories: %w", err)
	}

	q = q.OrderBy(orderClause(filter.OrderBy), "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	items := make([]*inventory.Record, 0)
	if err := postgres.Select(ctx, querier, &items, q); err != nil {
		return result, fmt.Errorf("list inventories: %w", err)
	}
	result.Items = items
	return result, nil
}

// listQuery applies the filter conditions without ordering or pagination.
func (r *InventoryRepo) listQuery(filter inventory.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + search + "%"})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.SizeType != nil {
		q = q.Where(squirrel.Eq{"size_type": *filter.SizeType})
	}
	return q
}

// orderClause turns "name" or "-created_at" into an ORDER BY term.
func orderClause(orderBy string) string {
	dir := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		orderBy = orderBy[1:]
	}
	col, ok := sortable[orderBy]
	if !ok {
		col = "name"
	}
	return col + " " + dir
}
