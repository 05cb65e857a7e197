package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"policy-lens/internal/handlers"
	"policy-lens/internal/handlers/api"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Chat        handlers.ChatService
	Simulations handlers.SimulationRecorder
	Gatherer    prometheus.Gatherer // nil disables /metrics
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(deps Deps) {
	pages := handlers.NewPageHandler(deps.Chat, deps.Simulations, s.Cfg.MaxMessageLength)
	simulate := api.NewSimulateHandler(deps.Simulations)
	conversations := api.NewConversationHandler(deps.Chat)

	s.App.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.Gatherer != nil {
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Pages
	s.App.Get("/", pages.Home)
	s.App.Get("/simulator", pages.Simulator)
	s.App.Get("/chat", pages.Chat)
	s.App.Post("/chat", pages.Submit)

	// JSON API
	apiGroup := s.App.Group("/api")
	apiGroup.Get("/simulate", simulate.Simulate)
	apiGroup.Post("/conversations", conversations.Create)
	apiGroup.Get("/conversations/:id", conversations.Get)
	apiGroup.Post("/conversations/:id/messages", conversations.PostMessage)
}
