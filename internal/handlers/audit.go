package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	since, ok := parseDateQuery(c, "since", false)
	if !ok {
		return
	}
	until, ok := parseDateQuery(c, "until", true)
	if !ok {
		return
	}

	filters := services.AuditFilters{
		Action:   c.Query("action"),
		Result:   c.Query("result"),
		Resource: c.Query("resource"),
		Since:    since,
		Until:    until,
	}
	if userID := parseUintQuery(c, "userId"); userID > 0 {
		filters.UserID = &userID
	}

	page := pageFromQuery(c, 50)
	logs, total, err := h.svc.List(requestContext(c), filters, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, logs, page, total)
}
