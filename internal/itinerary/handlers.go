package itinerary

import (
	"context"

	"backend-tripline/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

// CityResolver turns a city name into a coordinate, or reports that it
// cannot be resolved right now.
type CityResolver interface {
	Resolve(ctx context.Context, city string) (geo.Coordinate, bool)
}

func RegisterRoutes(r fiber.Router, svc *Service, resolver CityResolver, authMiddleware, memberOnly fiber.Handler) {
	r.Get("/:id/stops", func(c *fiber.Ctx) error {
		stops, err := svc.Stops(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if stops == nil {
			stops = []Stop{}
		}
		return c.JSON(stops)
	})

	r.Post("/:id/stops", authMiddleware, memberOnly, func(c *fiber.Ctx) error {
		var req Stop
		if err := c.BodyParser(&req); err != nil || req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		req.TripID = c.Params("id")
		stop, err := svc.AddStop(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(stop)
	})

	r.Delete("/:id/stops/:stopID", authMiddleware, memberOnly, func(c *fiber.Ctx) error {
		stops, err := svc.DeleteStop(c.Context(), c.Params("id"), c.Params("stopID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if stops == nil {
			stops = []Stop{}
		}
		return c.JSON(stops)
	})

	r.Post("/:id/stops/reorder", authMiddleware, memberOnly, func(c *fiber.Ctx) error {
		var req ReorderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		stops, err := svc.Reorder(c.Context(), c.Params("id"), req.From, req.To)
		if err == ErrBadIndex {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(stops)
	})

	r.Get("/:id/route/distance", func(c *fiber.Ctx) error {
		stops, err := svc.Stops(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(routeDistance(c.Context(), resolver, stops))
	})
}

// routeDistance sums great-circle legs over the stops that resolve to a
// coordinate. Unresolved cities are skipped outright rather than treated as
// (0,0), so the total deliberately undercounts when geocoding fails.
func routeDistance(ctx context.Context, resolver CityResolver, stops []Stop) RouteDistance {
	var coords []geo.Coordinate
	var skipped []string
	for _, st := range stops {
		coord, ok := resolver.Resolve(ctx, st.Name)
		if !ok {
			skipped = append(skipped, st.Name)
			continue
		}
		coords = append(coords, coord)
	}

	result := RouteDistance{Resolved: len(coords), Skipped: skipped}
	if len(coords) == 0 {
		return result
	}
	total := geo.RoundKm(geo.RouteKm(coords))
	result.TotalKm = &total
	return result
}
