package chat

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, memberOnly fiber.Handler) {
	r.Get("/:id/messages", authMiddleware, memberOnly, func(c *fiber.Ctx) error {
		messages, err := svc.History(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if messages == nil {
			messages = []Message{}
		}
		return c.JSON(messages)
	})

	r.Post("/:id/messages", authMiddleware, memberOnly, func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil || body.Text == "" {
			return fiber.NewError(fiber.StatusBadRequest, "text required")
		}
		userID, _ := c.Locals("user_id").(string)
		msg, err := svc.Append(c.Context(), c.Params("id"), userID, body.Text)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})
}
