package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/audit"
	"stockroom/internal/infrastructure/http/v1/dto"
)

var auditEntities = map[string]bool{
	audit.EntityInventory:      true,
	audit.EntityReceipt:        true,
	audit.EntityIssuance:       true,
	audit.EntityIssuanceDetail: true,
}

// AuditHandler serves the change history of an entity.
type AuditHandler struct {
	*BaseHandler
	reader audit.Reader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, reader audit.Reader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

// History lists the newest entries first.
// GET /api/v1/audit/:entityType/:id?limit=50
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("entityType")
	if !auditEntities[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").WithDetail("entityType", entityType))
		return
	}
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var q dto.LimitQuery
	if !h.BindQuery(c, &q) {
		return
	}

	entries, err := h.reader.History(c.Request.Context(), entityType, entityID, q.LimitOr(50))
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, gin.H{"items": entries})
}
