package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/response"
)

type StatsHandler struct {
	stats   *services.StatsService
	exports *services.ExportService
}

func NewStatsHandler(stats *services.StatsService, exports *services.ExportService) *StatsHandler {
	return &StatsHandler{stats: stats, exports: exports}
}

// Overview recomputes the snapshot and pushes it to statistics subscribers.
// Serves both GET /api/stats/overview and POST /api/stats/update.
func (h *StatsHandler) Overview(c *gin.Context) {
	snapshot, err := h.stats.Broadcast(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// GET /api/stats/export-csv
func (h *StatsHandler) ExportCSV(c *gin.Context) {
	table, err := h.exports.Stats(requestContext(c))
	writeTable(c, table, err, services.ExportPrefixStats, formatCSV)
}
