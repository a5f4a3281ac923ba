package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/middleware"
	"github.com/mellystark/visitormanagement/internal/realtime"
)

// RealtimeHandler upgrades authenticated admins to the WebSocket hub.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /ws?streams=notifications,statistics
func (h *RealtimeHandler) Stream(c *gin.Context) {
	streams := parseStreams(c.Query("streams"))
	if len(streams) == 0 {
		streams = realtime.KnownStreams()
	}
	h.hub.Serve(c.Writer, c.Request, realtime.Subscriber{
		AdminID: middleware.UserID(c),
		Streams: streams,
	})
}

func parseStreams(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	streams := make([]string, 0, len(parts))
	for _, part := range parts {
		if stream := strings.TrimSpace(part); stream != "" {
			streams = append(streams, stream)
		}
	}
	return streams
}
