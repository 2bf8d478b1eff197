// Package reconcile derives per-size and system-wide stock quantities and
// valuation of inventories by folding their receipts, issuances, returns
// and ledger entries.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/tx"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
	"stockroom/pkg/logger"
)

var tracer = otel.Tracer("stockroom/reconcile")

// Projection selects how much of the pipeline output is produced.
type Projection int

const (
	// ProjectionDetail produces size groups and per-lot consumption.
	ProjectionDetail Projection = iota
	// ProjectionSummary stops after the reducer.
	ProjectionSummary
)

// Options tune a single Reconcile call.
type Options struct {
	Projection Projection

	// IncludeConsumed keeps fully consumed lots in Result.Items.
	IncludeConsumed bool
}

// Config configures an Engine.
type Config struct {
	// Concurrency bounds fan-out reads. Default 8.
	Concurrency int

	// LowStockThreshold triggers a notification when totalQuantity <= it. Default 5.
	LowStockThreshold int64

	// Meter records ledger drift and notifications. Defaults to the global meter provider.
	Meter metric.Meter
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:       8,
		LowStockThreshold: 5,
	}
}

// Engine reconciles inventories. It holds no per-inventory state and is
// safe for concurrent use.
type Engine struct {
	source   Source
	notifier Notifier
	cfg      Config

	inconsistent metric.Int64Counter
	lowStock     metric.Int64Counter
}

// NewEngine creates an engine. notifier may be nil.
func NewEngine(source Source, notifier Notifier, cfg Config) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.LowStockThreshold < 0 {
		cfg.LowStockThreshold = 0
	}
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter("stockroom/reconcile")
	}

	// Instrument creation only fails on invalid names.
	inconsistent, _ := meter.Int64Counter("reconcile.inconsistent_ledger",
		metric.WithDescription("Inventories whose cached quantity disagrees with the ledger"))
	lowStock, _ := meter.Int64Counter("reconcile.low_stock_notifications",
		metric.WithDescription("Low-stock notifications emitted"))

	return &Engine{
		source:       source,
		notifier:     notifier,
		cfg:          cfg,
		inconsistent: inconsistent,
		lowStock:     lowStock,
	}
}

// Threshold returns the configured low-stock threshold.
func (e *Engine) Threshold() int64 {
	return e.cfg.LowStockThreshold
}

// limit returns the fan-out bound; reads through an open transaction share
// one connection and run one at a time.
func (e *Engine) limit(ctx context.Context) int {
	if tx.InTransaction(ctx) {
		return 1
	}
	return e.cfg.Concurrency
}

// Result is the full breakdown of one inventory.
type Result struct {
	Inventory          *inventory.Record `json:"inventory"`
	QuantitySummary    Summary           `json:"quantitySummary"`
	SizeDetails        SizeDetails       `json:"sizeDetails"`
	DetailedQuantities []SizeQuantity    `json:"detailedQuantities"`
	Items              []ItemBalance     `json:"items"`
}

// Reconcile computes the breakdown of one inventory.
func (e *Engine) Reconcile(ctx context.Context, inventoryID id.ID, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "reconcile.inventory",
		trace.WithAttributes(attribute.String("inventory.id", inventoryID.String())))
	defer span.End()

	snap, err := e.source.LoadSnapshot(ctx, inventoryID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", inventoryID, err)
	}
	return e.reconcileSnapshot(ctx, snap, opts)
}

func (e *Engine) reconcileSnapshot(ctx context.Context, snap *Snapshot, opts Options) (*Result, error) {
	f := newFold(snap)

	itemTxns, err := e.prefetch(ctx, f, opts)
	if err != nil {
		return nil, err
	}

	runPipeline(f)
	sum := reduce(f.buckets, f.sum)
	e.observeDrift(ctx, snap.Inventory, sum)

	res := &Result{
		Inventory:       snap.Inventory,
		QuantitySummary: sum,
	}
	if opts.Projection == ProjectionSummary {
		return res, nil
	}

	res.SizeDetails = group(f.buckets)
	res.DetailedQuantities = detailedQuantities(f.buckets)
	res.Items = e.consumption(ctx, snap, itemTxns, opts.IncludeConsumed)
	return res, nil
}

// prefetch issues the independent reads the folders and the consumption
// calculator need. It returns once every read has completed.
func (e *Engine) prefetch(ctx context.Context, f *fold, opts Options) (map[id.ID][]entity.Transaction, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit(ctx))

	var mu sync.Mutex
	invID := f.inventoryID()

	if !f.hasReturnedTxn {
		refs := make(map[string]struct{})
		for _, ri := range f.snap.ReturnedItems {
			refs[ri.ReceiptRef] = struct{}{}
		}
		for ref := range refs {
			g.Go(func() error {
				lot, err := e.source.ItemByReceiptRef(gctx, invID, ref)
				if err != nil {
					return fmt.Errorf("resolve receipt ref %q: %w", ref, err)
				}
				mu.Lock()
				f.refLots[ref] = lot
				mu.Unlock()
				return nil
			})
		}
	}

	var itemTxns map[id.ID][]entity.Transaction
	if opts.Projection == ProjectionDetail {
		itemTxns = make(map[id.ID][]entity.Transaction, len(f.snap.Items))
		for _, it := range f.snap.Items {
			itemID := it.ID
			g.Go(func() error {
				txns, err := e.source.ItemTransactions(gctx, itemID)
				if err != nil {
					return fmt.Errorf("item transactions %s: %w", itemID, err)
				}
				mu.Lock()
				itemTxns[itemID] = txns
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return itemTxns, nil
}

func (e *Engine) consumption(ctx context.Context, snap *Snapshot, itemTxns map[id.ID][]entity.Transaction, includeConsumed bool) []ItemBalance {
	status := make(map[id.ID]inventory.IssuanceStatus, len(snap.IssuanceDetails))
	for _, d := range snap.IssuanceDetails {
		status[d.ID] = d.Status
	}

	pendingReceipts := make(map[id.ID]bool)
	for _, r := range snap.Receipts {
		if r.Status == inventory.ReceiptPending {
			pendingReceipts[r.ID] = true
		}
	}

	out := make([]ItemBalance, 0, len(snap.Items))
	for _, it := range snap.Items {
		b := consume(ctx, it, itemTxns[it.ID], status)
		b.ReceiptPending = it.ReceiptID != nil && pendingReceipts[*it.ReceiptID]
		if b.IsConsumed && !includeConsumed {
			continue
		}
		out = append(out, b)
	}
	return out
}

// observeDrift reports a cached quantity that disagrees with the ledger.
// The reconciled value always wins.
func (e *Engine) observeDrift(ctx context.Context, rec *inventory.Record, sum Summary) {
	if rec.Quantity == sum.TotalQuantity {
		return
	}
	logger.Warn(ctx, "inconsistent ledger: cached quantity differs from reconciled total",
		"inventory_id", rec.ID,
		"cached_quantity", rec.Quantity,
		"reconciled_quantity", sum.TotalQuantity)
	e.inconsistent.Add(ctx, 1, metric.WithAttributes(attribute.String("inventory.id", rec.ID.String())))
}

// ListQuery filters the inventory list.
type ListQuery struct {
	inventory.ListFilter

	// StockLevel keeps only inventories of this dashboard level. Applied after reconciliation.
	StockLevel *StockLevel
}

// InventorySummary is one row of the inventory list.
type InventorySummary struct {
	ID                id.ID              `json:"id"`
	Name              string             `json:"name"`
	Unit              string             `json:"unit"`
	SizeType          inventory.SizeType `json:"sizeType"`
	Status            inventory.Status   `json:"status"`
	TotalQuantity     int64              `json:"totalQuantity"`
	AvailableQuantity int64              `json:"availableQuantity"`
	ReturnedQuantity  int64              `json:"returnedQuantity"`
	GrandTotalAmount  types.Money        `json:"grandTotalAmount"`
	FormattedTotal    string             `json:"formattedTotal"`
	StockLevel        StockLevel         `json:"stockLevel"`
}

// ListPage is a page of reconciled inventories.
type ListPage struct {
	Data        []InventorySummary `json:"data"`
	Total       int64              `json:"total"`
	CurrentPage int                `json:"currentPage"`
	TotalPages  int                `json:"totalPages"`
}

// ReconcileList reconciles one page of inventories in summary projection.
// With a stock-level filter the whole filtered set is reconciled first and
// paginated afterwards, since the level is only known after computation.
func (e *Engine) ReconcileList(ctx context.Context, q ListQuery, page domain.Page) (*ListPage, error) {
	ctx, span := tracer.Start(ctx, "reconcile.list")
	defer span.End()

	page = page.Normalize()
	filter := q.ListFilter
	if q.StockLevel == nil {
		filter.Limit = page.Size
		filter.Offset = page.Offset()
	} else {
		filter.Limit = 0
		filter.Offset = 0
	}

	records, err := e.source.ListInventories(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list inventories: %w", err)
	}

	rows, err := e.summarize(ctx, records.Items)
	if err != nil {
		return nil, err
	}

	total := records.TotalCount
	if q.StockLevel != nil {
		filtered := rows[:0]
		for _, r := range rows {
			if r.StockLevel == *q.StockLevel {
				filtered = append(filtered, r)
			}
		}
		total = int64(len(filtered))
		rows = domain.Slice(filtered, page)
	}

	return &ListPage{
		Data:        rows,
		Total:       total,
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages(total),
	}, nil
}

func (e *Engine) summarize(ctx context.Context, records []*inventory.Record) ([]InventorySummary, error) {
	rows := make([]InventorySummary, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit(ctx))
	for i, rec := range records {
		g.Go(func() error {
			res, err := e.Reconcile(gctx, rec.ID, Options{Projection: ProjectionSummary})
			if err != nil {
				return err
			}
			rows[i] = toSummary(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func toSummary(res *Result) InventorySummary {
	rec, sum := res.Inventory, res.QuantitySummary
	return InventorySummary{
		ID:                rec.ID,
		Name:              rec.Name,
		Unit:              rec.Unit,
		SizeType:          rec.SizeType,
		Status:            rec.Status,
		TotalQuantity:     sum.TotalQuantity,
		AvailableQuantity: sum.AvailableQuantity,
		ReturnedQuantity:  sum.ReturnedQuantity,
		GrandTotalAmount:  sum.GrandTotalAmount,
		FormattedTotal:    types.FormatMoney(sum.GrandTotalAmount),
		StockLevel:        ClassifyDashboardStockLevel(sum.AvailableQuantity),
	}
}

// CheckLowStock reconciles the inventory and notifies when its total
// quantity is at or below the threshold. It reports whether a
// notification was sent.
func (e *Engine) CheckLowStock(ctx context.Context, inventoryID id.ID) (bool, error) {
	res, err := e.Reconcile(ctx, inventoryID, Options{Projection: ProjectionSummary})
	if err != nil {
		return false, err
	}
	return e.notifyIfLow(ctx, res)
}

func (e *Engine) notifyIfLow(ctx context.Context, res *Result) (bool, error) {
	remaining := res.QuantitySummary.TotalQuantity
	if e.notifier == nil || remaining > e.cfg.LowStockThreshold {
		return false, nil
	}

	event := LowStock{
		Name:              res.Inventory.Name,
		RemainingQuantity: remaining,
		InventoryID:       res.Inventory.ID,
	}
	if err := e.notifier.NotifyLowStock(ctx, event); err != nil {
		return false, fmt.Errorf("notify low stock: %w", err)
	}
	e.lowStock.Add(ctx, 1)
	logger.Info(ctx, "low stock notification sent",
		"inventory_id", event.InventoryID,
		"remaining_quantity", remaining)
	return true, nil
}
