package handlers

import (
	"log"

	"github.com/anjiri1684/learnhub/middleware"
	"github.com/anjiri1684/learnhub/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const wsUserKey = "wsUserID"

// UpgradeWs authenticates the ?token= query parameter before the protocol
// switch.
func (h *Handler) UpgradeWs(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	claims, err := middleware.ParseToken(c.Query("token"), h.JWTSecret)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	c.Locals(wsUserKey, userID)
	return c.Next()
}

// ServeWs keeps the socket registered until the client goes away. Inbound
// frames are only read to detect the close.
func (h *Handler) ServeWs(c *websocketcontrib.Conn) {
	userID, ok := c.Locals(wsUserKey).(uuid.UUID)
	if !ok {
		_ = c.WriteJSON(fiber.Map{"error": "Unauthorized"})
		c.Close()
		return
	}

	client := &websocket.Client{UserID: userID, Conn: c}
	h.Hub.Register(client)
	defer func() {
		log.Printf("Unregistering client: %s", userID)
		h.Hub.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("WebSocket closed for client %s", userID)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			return
		}
	}
}
