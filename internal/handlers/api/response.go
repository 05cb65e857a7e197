package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"policy-lens/internal/usecase"
)

// jsonSuccess returns a response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// jsonUseCaseError maps a usecase error onto the error envelope. The code
// travels in "error" and the machine-readable reason in "reason".
func jsonUseCaseError(c fiber.Ctx, err error) error {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		slog.Error("unexpected api error", "err", err)
		return jsonError(c, fiber.StatusInternalServerError, string(usecase.ErrorInternal))
	}
	status := ucErr.Code.HTTPStatus()
	if status >= fiber.StatusInternalServerError {
		slog.Error("api request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	}
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  string(ucErr.Code),
		"reason": ucErr.Reason,
	})
}
