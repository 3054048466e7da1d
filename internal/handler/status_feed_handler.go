package handler

import (
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/serverutils"
	internalWS "advisor-command-centre-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// StatusFeedHandler upgrades authenticated clients onto the recording
// status feed.
type StatusFeedHandler struct {
	hub    *internalWS.Hub
	opts   serverutils.PrincipalOptions
	logger logger.ILogger
}

func NewStatusFeedHandler(hub *internalWS.Hub, opts serverutils.PrincipalOptions, log logger.ILogger) *StatusFeedHandler {
	return &StatusFeedHandler{
		hub:    hub,
		opts:   opts,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer. Browsers cannot set
// headers on the handshake, so the token may also come as ?token=.
func (h *StatusFeedHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = serverutils.BearerToken(c)
	}

	userID, appErr := serverutils.ResolvePrincipal(h.opts, tokenStr)
	if appErr != nil {
		h.logger.Warn("StatusFeed", "Rejected WebSocket handshake", map[string]interface{}{"error": appErr.Error()})
		return appErr
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("StatusFeed", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("StatusFeed", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *StatusFeedHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/recordings", h.ServeWs)
}
