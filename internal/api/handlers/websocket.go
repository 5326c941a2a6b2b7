package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sketchxpad-service/internal/websocket"
)

type WebSocketHandler struct {
	hub       *websocket.Hub
	jwtSecret string
}

func NewWebSocketHandler(hub *websocket.Hub, jwtSecret string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

// HandleWebSocket godoc
// @Summary WebSocket endpoint
// @Description Upgrade to a websocket session. Pass a JWT or guest id via ?token=; absent or invalid tokens get a fresh guest identity.
// @Tags websocket
// @Param token query string false "JWT or guest token"
// @Success 101 {string} string "Switching Protocols"
// @Router /ws [get]
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	identity := websocket.ResolveIdentity(c.Query("token"), h.jwtSecret)
	websocket.ServeWS(h.hub, c.Writer, c.Request, identity)
}

// GetStats godoc
// @Summary Hub statistics
// @Description Current number of active rooms and connected clients
// @Tags websocket
// @Produce json
// @Success 200 {object} map[string]int "Stats"
// @Router /stats [get]
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	rooms, clients := h.hub.Stats()
	c.JSON(http.StatusOK, gin.H{
		"rooms":   rooms,
		"clients": clients,
	})
}
