// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"barangay/internal/bootstrap"
	"barangay/internal/config"
	"barangay/internal/featureflags"
	"barangay/internal/middleware"
	"barangay/internal/repository"
	"barangay/internal/service"
	"barangay/internal/syncbus"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	residentRepo     repository.ResidentRepository
	requestRepo      repository.UpdateRequestRepository
	notificationRepo repository.NotificationRepository
	directoryRepo    repository.DirectoryRepository

	notificationSvc *service.NotificationService
	requestSvc      *service.UpdateRequestService
	approvalSvc     *service.ApprovalService

	bus         *syncbus.Bus
	hub         *syncbus.Hub
	notifier    *syncbus.Notifier
	broadcaster *syncbus.Broadcaster
	presence    *syncbus.Presence

	featureFlags *featureflags.Manager
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps wires a server around externally provided database and
// Redis handles. Tests use it with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	residentRepo := repository.NewResidentRepository(db)
	requestRepo := repository.NewUpdateRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	flags := featureflags.NewManager(cfg.FeatureFlags)

	bus := syncbus.NewBus()
	hub := syncbus.NewHub()
	notifier := syncbus.NewNotifier(redisClient)
	broadcaster := syncbus.NewBroadcaster(bus, notifier, hub)
	presence := syncbus.NewPresence(redisClient)

	notificationSvc := service.NewNotificationService(notificationRepo)
	requestSvc := service.NewUpdateRequestService(requestRepo, residentRepo, notificationSvc, broadcaster)
	approvalSvc := service.NewApprovalService(requestRepo, notificationSvc, flags, broadcaster)

	shutdownCtx, shutdownFn := context.WithCancel(context.Background())

	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   middleware.InitMetrics("barangay-api"),
		shutdownCtx:      shutdownCtx,
		shutdownFn:       shutdownFn,
		userRepo:         userRepo,
		residentRepo:     residentRepo,
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
		directoryRepo:    directoryRepo,
		notificationSvc:  notificationSvc,
		requestSvc:       requestSvc,
		approvalSvc:      approvalSvc,
		bus:              bus,
		hub:              hub,
		notifier:         notifier,
		broadcaster:      broadcaster,
		presence:         presence,
		featureFlags:     flags,
	}

	if redisClient != nil {
		notifier.StartPatternSubscriber(shutdownCtx, hub)
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limit, 100 requests per minute per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Preflight requests are never limited; CORS handles them.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", s.HealthCheck)
	api.Get("/ready", s.ReadinessCheck)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	protected := api.Group("", middleware.AuthRequired)

	protected.Get("/me", s.GetMyAccount)
	protected.Get("/feature-flags", s.GetFeatureFlags)

	residents := protected.Group("/residents")
	residents.Get("/me", s.GetMyResident)
	residents.Get("/", middleware.AdminRequired, s.ListResidents)
	residents.Get("/:id", middleware.AdminRequired, s.GetResident)
	residents.Put("/:id", middleware.AdminRequired, s.UpdateResident)

	requests := protected.Group("/update-requests")
	requests.Post("/", middleware.RateLimit(s.redis, 5, time.Minute, "submit_request"), s.SubmitUpdateRequest)
	requests.Get("/pending", s.GetMyPendingRequest)
	requests.Get("/mine", s.GetMyRequests)
	requests.Get("/", middleware.AdminRequired, s.ListUpdateRequests)
	requests.Post("/:requestId/approve", middleware.AdminRequired, s.ApproveUpdateRequest)
	requests.Post("/:requestId/reject", middleware.AdminRequired, s.RejectUpdateRequest)
	requests.Get("/:requestId", s.GetUpdateRequest)

	notificationsGroup := protected.Group("/notifications")
	notificationsGroup.Get("/", s.GetNotifications)
	notificationsGroup.Post("/read-all", s.MarkAllNotificationsRead)
	notificationsGroup.Post("/:id/read", s.MarkNotificationRead)
	notificationsGroup.Patch("/:id/status", middleware.AdminRequired, s.PatchNotificationStatus)
	notificationsGroup.Delete("/:id", s.DeleteNotification)

	directory := protected.Group("/directory")
	directory.Get("/households", middleware.AdminRequired, s.ListHouseholds)
	directory.Get("/households/:id", middleware.AdminRequired, s.GetHousehold)
	directory.Get("/officials", s.ListOfficials)

	ws := api.Group("/ws", middleware.AuthRequired)
	ws.Get("/sync", s.SyncSocketHandler())
}

// Shutdown releases background resources: the Redis subscriber and every
// open websocket.
func (s *Server) Shutdown() {
	s.shutdownFn()
	s.hub.Shutdown()
}

// HealthCheck handles liveness probes.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":      "ok",
		"database":    dbStatus,
		"redis":       redisStatus,
		"connections": s.hub.ConnectionCount(),
	})
}

// ReadinessCheck reports whether the service can take traffic. Redis being
// down degrades sync push but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ready": false})
	}
	return c.JSON(fiber.Map{"ready": true})
}
