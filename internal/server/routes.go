package server

import (
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/observability"
	"github.com/vantagegate/vantagegate/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Standard health endpoints
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	if s.deps.Registry != nil {
		tools := handlers.NewToolsHandler(s.deps.Registry)
		s.router.Route("/v1", func(r chi.Router) {
			r.Get("/tools", tools.List)
			r.Get("/tools/{name}", tools.Describe)
			r.Post("/tools/{name}", tools.Invoke)
			r.Get("/subscription", tools.Subscription)
		})
	}

	if s.deps.MCP != nil {
		path := s.deps.MCPPath
		if path == "" {
			path = "/mcp"
		}
		// Streamable HTTP uses GET, POST and DELETE on the same path.
		s.router.Handle(path, s.deps.MCP)
		if logger := observability.ServerLogger; logger != nil {
			logger.Info("MCP endpoint enabled", zap.String("path", path))
		}
	}

	// Admin signal endpoint (optional, requires VANTAGEGATE_ADMIN_TOKEN)
	s.registerAdminEndpoint()
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	tokenVar := config.EnvPrefix + "_ADMIN_TOKEN"
	adminToken := os.Getenv(tokenVar)
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no " + tokenVar + " set)")
		}
		return
	}

	// Create HTTP signal handler with bearer token auth and rate limiting
	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,  // 10 requests per minute
		RateBurst: 5,   // burst size
		Manager:   nil, // use default global manager
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
