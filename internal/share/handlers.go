package share

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-tripline/internal/itinerary"
	"backend-tripline/internal/trip"
)

// RegisterRoutes mounts share link management under the trips group and the
// public read-only view at the top level. The public view needs no auth:
// the token is the capability.
func RegisterRoutes(trips fiber.Router, public fiber.Router, svc *Service, tripSvc *trip.Service, stops *itinerary.Service, authMiddleware, memberOnly fiber.Handler) {
	trips.Post("/:id/share", authMiddleware, memberOnly, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		link, err := svc.Create(c.Context(), c.Params("id"), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(link)
	})

	public.Delete("/share/:token", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		err := svc.Revoke(c.Context(), c.Params("token"), userID)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "link not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	public.Get("/share/:token", func(c *fiber.Ctx) error {
		link, err := svc.Resolve(c.Context(), c.Params("token"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "link not found")
		}

		t, err := tripSvc.GetTrip(c.Context(), link.TripID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "trip not found")
		}
		list, err := stops.Stops(c.Context(), link.TripID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if list == nil {
			list = []itinerary.Stop{}
		}
		return c.JSON(fiber.Map{"trip": t, "stops": list})
	})
}
