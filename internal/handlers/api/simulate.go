package api

import (
	"github.com/gofiber/fiber/v3"

	"policy-lens/internal/simulator"
)

// SimulationRecorder is notified of every simulator run.
type SimulationRecorder interface {
	Simulation(active int)
}

// SimulateHandler exposes the access score calculator.
type SimulateHandler struct {
	sims SimulationRecorder
}

// NewSimulateHandler creates a simulate handler. sims may be nil.
func NewSimulateHandler(sims SimulationRecorder) *SimulateHandler {
	return &SimulateHandler{sims: sims}
}

// Simulate returns per-community scores for ?toggle=... (repeated or comma-separated).
func (h *SimulateHandler) Simulate(c fiber.Ctx) error {
	raw := c.Request().URI().QueryArgs().PeekMulti("toggle")
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		names = append(names, string(v))
	}

	toggles, err := simulator.ParseToggles(names)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	result := simulator.Run(toggles)
	if h.sims != nil {
		h.sims.Simulation(len(result.Active))
	}
	return jsonSuccess(c, result)
}
