package server

import (
	"backend-tripline/internal/auth"
	"backend-tripline/internal/chat"
	"backend-tripline/internal/config"
	"backend-tripline/internal/geocode"
	"backend-tripline/internal/itinerary"
	"backend-tripline/internal/presence"
	"backend-tripline/internal/realtime"
	"backend-tripline/internal/share"
	"backend-tripline/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Hub      *realtime.Hub
	Tracker  *presence.Tracker
	Resolver *geocode.Resolver
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Hub:      realtime.NewHub(redisClient),
		Tracker:  presence.NewTracker(cfg.PresenceTTL, cfg.PresenceSweepInterval),
		Resolver: geocode.NewResolver(geocode.NewHTTPProvider(cfg.GeocodeURL), redisClient, cfg.GeocodeFailTTL),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Clients read their heartbeat cadence from here instead of hardcoding it.
	s.App.Get("/realtime/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"heartbeat_interval_ms": s.Cfg.HeartbeatInterval.Milliseconds(),
			"presence_ttl_ms":       s.Cfg.PresenceTTL.Milliseconds(),
		})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	tripSvc := trip.NewService(s.DB)
	memberOnly := trip.RequireMember(tripSvc)
	stopsSvc := itinerary.NewService(s.DB)
	chatSvc := chat.NewService(s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))

	trips := s.App.Group("/trips")
	trip.RegisterRoutes(trips, tripSvc, jwtMiddleware)
	itinerary.RegisterRoutes(trips, stopsSvc, s.Resolver, jwtMiddleware, memberOnly)
	chat.RegisterRoutes(trips, chatSvc, jwtMiddleware, memberOnly)
	share.RegisterRoutes(trips, s.App, share.NewService(s.DB), tripSvc, stopsSvc, jwtMiddleware, memberOnly)

	realtime.RegisterRoutes(s.App.Group("/realtime"), s.Hub, s.Tracker, chatSvc, jwtMiddleware, memberOnly)
}
