package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/services"
	appErrors "github.com/mellystark/visitormanagement/pkg/errors"
)

// ScanHandler serves the public scan endpoint used by door devices. Unlike
// the admin API it answers with a flat {success, message} body.
type ScanHandler struct {
	ledger *services.LedgerService
}

func NewScanHandler(ledger *services.LedgerService) *ScanHandler {
	return &ScanHandler{ledger: ledger}
}

type scanRequest struct {
	QRData string `json:"qrData"`
}

type scanFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// POST /api/scan
func (h *ScanHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, scanFailure{Message: services.ErrEmptyCredential.Message})
		return
	}

	result, err := h.ledger.Scan(requestContext(c), services.ScanInput{
		Token:     req.QRData,
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		status := appErr.StatusCode
		message := appErr.Message
		if status == 0 || status >= http.StatusInternalServerError {
			status = http.StatusInternalServerError
			message = appErrors.ErrInternalServer.Message
		}
		c.JSON(status, scanFailure{Message: message})
		return
	}

	c.JSON(http.StatusOK, result)
}
