package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// ReceiptHandler handles HTTP requests for receipt documents.
type ReceiptHandler struct {
	*BaseHandler
	service *receipt.Service
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(base *BaseHandler, service *receipt.Service) *ReceiptHandler {
	return &ReceiptHandler{BaseHandler: base, service: service}
}

// Create records incoming stock.
// POST /api/v1/receipts
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get returns a receipt with its lots.
// GET /api/v1/receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Activate moves a pending receipt into stock.
// POST /api/v1/receipts/:id/activate
func (h *ReceiptHandler) Activate(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Activate(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
