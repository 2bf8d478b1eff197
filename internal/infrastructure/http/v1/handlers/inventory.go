package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves inventory records and their reconciled quantities.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
	engine  *reconcile.Engine
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service, engine *reconcile.Engine) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service, engine: engine}
}

// List reconciles one page of inventories.
// GET /api/v1/inventories
func (h *InventoryHandler) List(c *gin.Context) {
	var req dto.InventoryListQuery
	if !h.BindQuery(c, &req) {
		return
	}
	q, err := listQuery(req)
	if err != nil {
		h.Error(c, err)
		return
	}

	page, err := h.engine.ReconcileList(c.Request.Context(), q, req.ToPage())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, page)
}

func listQuery(req dto.InventoryListQuery) (reconcile.ListQuery, error) {
	q := reconcile.ListQuery{
		ListFilter: inventory.ListFilter{
			ListFilter: domain.ListFilter{Search: req.Search},
		},
	}
	if req.Status != "" {
		status := inventory.Status(req.Status)
		if status != inventory.StatusActive && status != inventory.StatusArchived {
			return q, apperror.NewValidation("status must be active or archived").WithDetail("field", "status")
		}
		q.Status = &status
	}
	if req.SizeType != "" {
		sizeType := inventory.SizeType(req.SizeType)
		if !sizeType.Valid() {
			return q, apperror.NewValidation("size type must be one of none, apparel, numerical").WithDetail("field", "sizeType")
		}
		q.SizeType = &sizeType
	}
	if req.StockLevel != "" {
		level, ok := reconcile.ParseStockLevel(req.StockLevel)
		if !ok {
			return q, apperror.NewValidation("unknown stock level").WithDetail("field", "stockLevel")
		}
		q.StockLevel = &level
	}
	return q, nil
}

// Get returns the full reconciled breakdown of one inventory.
// GET /api/v1/inventories/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	recID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.InventoryDetailQuery
	if !h.BindQuery(c, &req) {
		return
	}

	res, err := h.engine.Reconcile(c.Request.Context(), recID, reconcile.Options{
		Projection:      reconcile.ProjectionDetail,
		IncludeConsumed: req.IncludeConsumed,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.InventoryDetailResponse{
		Result:         res,
		StockLevel:     reconcile.ClassifyDashboardStockLevel(res.QuantitySummary.AvailableQuantity),
		FormattedTotal: types.FormatMoney(res.QuantitySummary.GrandTotalAmount),
	})
}

// Create adds an empty inventory record.
// POST /api/v1/inventories
func (h *InventoryHandler) Create(c *gin.Context) {
	var req dto.CreateInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rec, err := h.service.Create(c.Request.Context(), req.Name, req.Unit, req.SizeType)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rec)
}

// Archive soft-deletes an inventory record.
// DELETE /api/v1/inventories/:id
func (h *InventoryHandler) Archive(c *gin.Context) {
	recID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Archive(c.Request.Context(), recID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "inventory archived")
}
