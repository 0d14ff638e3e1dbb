package handler

import (
	"net/http"
	"strings"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler serves live page previews over websocket
type WSHandler struct {
	hub            *ws.Hub
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, allowedOrigins string) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		allowedOrigins: parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// parseOrigins splits the comma-separated cors.allow_origins value
func parseOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// checkOrigin accepts same-origin requests and the configured CORS origins.
// With no origins configured every origin is accepted (local development).
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// Connect upgrades to a websocket that receives the live document of a
// page while it is being edited
// GET /ws/pages/:id
func (h *WSHandler) Connect(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	pageID := c.Param("id")
	if pageID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "Page ID is required", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}

	client := ws.NewClient(h.hub, conn, pageID, member)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
