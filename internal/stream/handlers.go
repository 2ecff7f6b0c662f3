package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the viewer websocket. guards run before the upgrade.
func RegisterRoutes(r fiber.Router, hub *Hub, guards ...fiber.Handler) {
	handlers := append([]fiber.Handler{}, guards...)
	handlers = append(handlers, upgradeOnly, websocket.New(func(c *websocket.Conn) {
		viewerID := c.Params("viewerID")
		client := hub.Register(viewerID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
	r.Get("/ws/:viewerID", handlers...)
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
