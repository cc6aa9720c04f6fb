package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reliefwatch/internal/config"
)

// Server represents the HTTP server with all configured routes and middleware.
type Server struct {
	app    *fiber.App
	config *config.ServerConfig
	logger *slog.Logger

	// Handlers
	hookHandler         *HookHandler
	endpointHandler     *EndpointHandler
	crisisHandler       *CrisisHandler
	jobHandler          *JobHandler
	subscriptionHandler *SubscriptionHandler
}

// ServerDeps contains all dependencies required to create a new Server.
type ServerDeps struct {
	Config              *config.ServerConfig
	Logger              *slog.Logger
	HookHandler         *HookHandler
	EndpointHandler     *EndpointHandler
	CrisisHandler       *CrisisHandler
	JobHandler          *JobHandler
	SubscriptionHandler *SubscriptionHandler
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps ServerDeps) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           deps.Config.ReadTimeout,
		WriteTimeout:          deps.Config.WriteTimeout,
		IdleTimeout:           deps.Config.IdleTimeout,
		ErrorHandler:          customErrorHandler,
	})

	s := &Server{
		app:                 app,
		config:              deps.Config,
		logger:              deps.Logger,
		hookHandler:         deps.HookHandler,
		endpointHandler:     deps.EndpointHandler,
		crisisHandler:       deps.CrisisHandler,
		jobHandler:          deps.JobHandler,
		subscriptionHandler: deps.SubscriptionHandler,
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.New())

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// Health check endpoint (outside versioned API)
	s.app.Get("/healthz", s.healthCheck)

	// Prometheus metrics endpoint
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Webhook receipt (public, per-endpoint path)
	s.app.Post("/hooks/:path", s.hookHandler.Receive)

	// API v1 routes
	v1 := s.app.Group("/v1")

	// Webhook event outcome query
	v1.Get("/webhook-events/:id", s.hookHandler.GetWebhookEvent)

	// Ingestion endpoint registry
	v1.Post("/endpoints", s.endpointHandler.Create)
	v1.Get("/endpoints", s.endpointHandler.List)
	v1.Get("/endpoints/:id", s.endpointHandler.GetByID)
	v1.Put("/endpoints/:id", s.endpointHandler.Update)
	v1.Delete("/endpoints/:id", s.endpointHandler.Delete)
	v1.Post("/endpoints/:id/rotate-secret", s.endpointHandler.RotateSecret)

	// Crises and events (read-only)
	v1.Get("/crises", s.crisisHandler.List)
	v1.Get("/crises/:id", s.crisisHandler.GetByID)
	v1.Get("/crises/:id/events", s.crisisHandler.GetEvents)
	v1.Get("/events", s.crisisHandler.ListEvents)

	// Background jobs
	v1.Get("/jobs", s.jobHandler.List)
	v1.Post("/jobs/:name/run", s.jobHandler.Run)

	// Subscriptions
	v1.Post("/subscriptions", s.subscriptionHandler.Create)
	v1.Get("/subscriptions/verify/:token", s.subscriptionHandler.Verify)
	v1.Get("/subscriptions/unsubscribe/:token", s.subscriptionHandler.Unsubscribe)
}

// healthCheck returns the health status of the service.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return Success(c, map[string]string{
		"status": "healthy",
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("starting HTTP server", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return Error(c, e.Code, ErrCodeInternalError, e.Message)
	}

	return InternalError(c, fmt.Sprintf("unexpected error: %v", err))
}
