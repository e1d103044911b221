package realtime

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"backend-tripline/internal/chat"
	"backend-tripline/internal/presence"
)

func RegisterRoutes(r fiber.Router, hub *Hub, tracker *presence.Tracker, chats *chat.Service, authMiddleware, memberOnly fiber.Handler) {
	r.Get("/ws/:id", authMiddleware, memberOnly, websocket.New(func(c *websocket.Conn) {
		tripID := c.Params("id")
		userID, _ := c.Locals("user_id").(string)

		client := hub.Register(tripID)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			handleInbound(hub, tracker, chats, tripID, userID, raw)
		}

		// Closing Send unblocks the writer so it can drain and exit.
		hub.Unregister(client)
		<-done
	}))

	r.Get("/presence/:id", authMiddleware, memberOnly, func(c *fiber.Ctx) error {
		return c.JSON(tracker.Snapshot(c.Params("id")))
	})
}
