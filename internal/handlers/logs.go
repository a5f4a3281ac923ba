package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/response"
)

const logPageSize = 20

type LogHandler struct {
	ledger  *services.LedgerService
	exports *services.ExportService
}

func NewLogHandler(ledger *services.LedgerService, exports *services.ExportService) *LogHandler {
	return &LogHandler{ledger: ledger, exports: exports}
}

func (h *LogHandler) filterFromQuery(c *gin.Context) (services.LogFilter, bool) {
	dates, ok := parseDateRange(c)
	if !ok {
		return services.LogFilter{}, false
	}
	return services.LogFilter{
		Range:         dates,
		VisitorName:   c.Query("visitorName"),
		PhoneNumber:   c.Query("phoneNumber"),
		OnlyNotExited: parseBoolQuery(c, "onlyNotExited"),
	}, true
}

// GET /api/logs/all
func (h *LogHandler) All(c *gin.Context) {
	filter, ok := h.filterFromQuery(c)
	if !ok {
		return
	}
	page := pageFromQuery(c, logPageSize)

	rows, total, err := h.ledger.List(requestContext(c), filter, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, rows, page, total)
}

// GET /api/logs?visitorId=
func (h *LogHandler) ForVisitor(c *gin.Context) {
	dates, ok := parseDateRange(c)
	if !ok {
		return
	}
	rows, err := h.ledger.ForVisitor(requestContext(c), parseUintQuery(c, "visitorId"), dates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// PUT /api/logs/:id/exit
func (h *LogHandler) ManualExit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	row, err := h.ledger.ManualExit(requestContext(c), id, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, row)
}

// GET /api/logs/export-excel
func (h *LogHandler) ExportExcel(c *gin.Context) {
	h.export(c, formatXLSX)
}

// GET /api/logs/export-csv
func (h *LogHandler) ExportCSV(c *gin.Context) {
	h.export(c, formatCSV)
}

func (h *LogHandler) export(c *gin.Context, format exportFormat) {
	filter, ok := h.filterFromQuery(c)
	if !ok {
		return
	}
	table, err := h.exports.Logs(requestContext(c), filter)
	writeTable(c, table, err, services.ExportPrefixLogs, format)
}

// GET /api/reports/visitor-logs
func (h *LogHandler) Report(c *gin.Context) {
	dates, ok := parseDateRange(c)
	if !ok {
		return
	}
	rows, err := h.ledger.Report(requestContext(c), parseUintQuery(c, "visitorId"), dates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}
