package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/documents/returns"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// ReturnsHandler handles returned stock.
type ReturnsHandler struct {
	*BaseHandler
	service *returns.Service
}

// NewReturnsHandler creates a new returns handler.
func NewReturnsHandler(base *BaseHandler, service *returns.Service) *ReturnsHandler {
	return &ReturnsHandler{BaseHandler: base, service: service}
}

// Process returns units of one lot to stock.
// POST /api/v1/returns
func (h *ReturnsHandler) Process(c *gin.Context) {
	var req dto.ProcessReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	items, err := h.service.Process(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.ProcessReturnResponse{Returned: items, Count: len(items)})
}
