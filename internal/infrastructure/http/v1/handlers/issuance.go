package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// IssuanceHandler handles HTTP requests for issuance documents.
type IssuanceHandler struct {
	*BaseHandler
	service *issuance.Service
}

// NewIssuanceHandler creates a new issuance handler.
func NewIssuanceHandler(base *BaseHandler, service *issuance.Service) *IssuanceHandler {
	return &IssuanceHandler{BaseHandler: base, service: service}
}

// Create issues stock to an end user.
// POST /api/v1/issuances
func (h *IssuanceHandler) Create(c *gin.Context) {
	var req dto.CreateIssuanceRequest
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

// Get returns an issuance with its details.
// GET /api/v1/issuances/:id
func (h *IssuanceHandler) Get(c *gin.Context) {
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

// Archive archives an issuance without withdrawn details.
// POST /api/v1/issuances/:id/archive
func (h *IssuanceHandler) Archive(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Archive(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// SetDetailStatus moves one detail through pending, withdrawn and archived.
// PUT /api/v1/issuances/details/:detailId/status
func (h *IssuanceHandler) SetDetailStatus(c *gin.Context) {
	detailID, ok := h.ParamID(c, "detailId")
	if !ok {
		return
	}
	var req dto.SetDetailStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	detail, err := h.service.SetDetailStatus(c.Request.Context(), detailID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}
