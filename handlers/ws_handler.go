package handlers

import (
	"time"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/middleware"
	"github.com/anjiri1684/wellness_booking/websocket"
)

const defaultAuthTimeout = 10 * time.Second

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// WSHandler streams in-app notifications. The first frame a client sends must
// be {"type":"auth","token":"<access token>"}.
type WSHandler struct {
	hub         *websocket.Hub
	secret      string
	authTimeout time.Duration
	log         *zap.Logger
}

type WSOption func(*WSHandler)

// WithAuthTimeout bounds how long a socket may stay open before sending its auth frame.
func WithAuthTimeout(d time.Duration) WSOption {
	return func(h *WSHandler) { h.authTimeout = d }
}

func NewWSHandler(hub *websocket.Hub, secret string, log *zap.Logger, opts ...WSOption) *WSHandler {
	h := &WSHandler{hub: hub, secret: secret, authTimeout: defaultAuthTimeout, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// UpgradeRequired rejects plain HTTP requests on the socket endpoint.
func (h *WSHandler) UpgradeRequired(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

func (h *WSHandler) Serve(c *websocketcontrib.Conn) {
	_ = c.SetReadDeadline(time.Now().Add(h.authTimeout))
	var msg authMessage
	if err := c.ReadJSON(&msg); err != nil || msg.Type != "auth" {
		h.log.Debug("websocket auth message missing", zap.Error(err))
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		_ = c.Close()
		return
	}

	id, err := middleware.ParseToken(h.secret, msg.Token)
	if err != nil {
		h.log.Debug("websocket token rejected", zap.Error(err))
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		_ = c.Close()
		return
	}

	_ = c.SetReadDeadline(time.Time{})

	client := &websocket.Client{UserID: id.UserID, Conn: c}
	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		_ = c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				h.log.Debug("websocket read failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
			}
			return
		}
	}
}
