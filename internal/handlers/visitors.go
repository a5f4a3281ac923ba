package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/response"
)

const visitorFilterPageSize = 10

type VisitorHandler struct {
	visitors    *services.VisitorService
	exports     *services.ExportService
	credentials *services.CredentialService
}

func NewVisitorHandler(visitors *services.VisitorService, exports *services.ExportService, credentials *services.CredentialService) *VisitorHandler {
	return &VisitorHandler{visitors: visitors, exports: exports, credentials: credentials}
}

type visitorRequest struct {
	FullName     string `json:"fullName" validate:"required,max=200"`
	Email        string `json:"email" validate:"omitempty,email,max=256"`
	PhoneNumber  string `json:"phoneNumber" validate:"omitempty,phone"`
	Notes        string `json:"notes" validate:"max=1000"`
	InvitationID *uint  `json:"invitationId"`
}

func (r *visitorRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r visitorRequest) input() services.VisitorInput {
	return services.VisitorInput{
		FullName:     r.FullName,
		Email:        r.Email,
		PhoneNumber:  r.PhoneNumber,
		Notes:        r.Notes,
		InvitationID: r.InvitationID,
	}
}

// GET /api/visitors
func (h *VisitorHandler) List(c *gin.Context) {
	visitors, err := h.visitors.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, visitors)
}

// GET /api/visitors/filter
func (h *VisitorHandler) Filter(c *gin.Context) {
	dates, ok := parseDateRange(c)
	if !ok {
		return
	}
	page := pageFromQuery(c, visitorFilterPageSize)

	visitors, total, err := h.visitors.Filter(requestContext(c), services.VisitorFilter{
		FullName:      c.Query("fullName"),
		PhoneNumber:   c.Query("phoneNumber"),
		Range:         dates,
		OnlyNotExited: parseBoolQuery(c, "onlyNotExited"),
	}, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, visitors, page, total)
}

// POST /api/visitors
func (h *VisitorHandler) Create(c *gin.Context) {
	var req visitorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	visitor, err := h.visitors.Create(requestContext(c), req.input(), actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, visitor)
}

// GET /api/visitors/:id
func (h *VisitorHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	visitor, err := h.visitors.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, visitor)
}

// PUT /api/visitors/:id
func (h *VisitorHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req visitorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	visitor, err := h.visitors.Update(requestContext(c), id, req.input(), actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, visitor)
}

// DELETE /api/visitors/:id
func (h *VisitorHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.visitors.Delete(requestContext(c), id, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/visitors/export-excel
func (h *VisitorHandler) ExportExcel(c *gin.Context) {
	table, err := h.exports.Visitors(requestContext(c))
	writeTable(c, table, err, services.ExportPrefixVisitors, formatXLSX)
}

// GET /api/visitors/export-csv
func (h *VisitorHandler) ExportCSV(c *gin.Context) {
	table, err := h.exports.Visitors(requestContext(c))
	writeTable(c, table, err, services.ExportPrefixVisitors, formatCSV)
}

// GET /api/visitors/:id/qrcode
func (h *VisitorHandler) QRCode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	png, visitor, err := h.credentials.QRCode(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"visitor-%d.png\"", visitor.ID))
	c.Data(http.StatusOK, "image/png", png)
}

// POST /api/visitors/:id/send-qrcode-email
func (h *VisitorHandler) SendQRCodeEmail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.credentials.SendByEmail(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true})
}
