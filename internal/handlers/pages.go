package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"policy-lens/internal/domain"
	"policy-lens/internal/simulator"
	"policy-lens/internal/usecase"
)

// PageHandler renders the three HTML views.
type PageHandler struct {
	chat      ChatService
	sims      SimulationRecorder
	maxLength int
}

type toggleView struct {
	Name        simulator.Toggle
	Label       string
	Description string
	On          bool
}

// NewPageHandler creates a page handler. sims may be nil.
func NewPageHandler(chat ChatService, sims SimulationRecorder, maxLength int) *PageHandler {
	if sims == nil {
		sims = noopSimulations{}
	}
	return &PageHandler{chat: chat, sims: sims, maxLength: maxLength}
}

// Home renders the landing page.
func (h *PageHandler) Home(c fiber.Ctx) error {
	return c.Render("home", fiber.Map{
		"Title": "Home",
		"Nav":   "home",
	})
}

// Simulator renders access scores for the toggles in the query string.
// Unknown toggle names are ignored so a stale bookmark still renders.
func (h *PageHandler) Simulator(c fiber.Ctx) error {
	toggles := simulator.ParseTogglesLenient(queryValues(c.Request().URI().QueryArgs(), "toggle"))

	views := make([]toggleView, 0, len(simulator.AllToggles))
	for _, t := range simulator.AllToggles {
		views = append(views, toggleView{Name: t, Label: t.Label(), Description: t.Description(), On: toggles.On(t)})
	}

	result := simulator.Run(toggles)
	h.sims.Simulation(len(result.Active))
	return c.Render("simulator", fiber.Map{
		"Title":   "Policy Impact Simulator",
		"Nav":     "simulator",
		"Toggles": views,
		"Scores":  result.Scores,
		"AnyOn":   toggles.Any(),
	})
}

// Chat starts a fresh conversation on every page load.
func (h *PageHandler) Chat(c fiber.Ctx) error {
	conv, err := h.chat.Start(c.Context())
	if err != nil {
		slog.Error("failed to start conversation", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not start a conversation")
	}
	return h.renderChat(c, conv, "")
}

// Submit handles the chat form.
func (h *PageHandler) Submit(c fiber.Ctx) error {
	id := c.FormValue("conversation_id")
	out, err := h.chat.Submit(c.Context(), usecase.SubmitInput{ConversationID: id, Text: c.FormValue("text")})
	if err == nil {
		return h.renderChat(c, out.Conversation, "")
	}

	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		slog.Error("chat submit failed", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "something went wrong")
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput, usecase.ErrorBusy:
		conv, getErr := h.chat.Conversation(c.Context(), id)
		if getErr != nil {
			return fiber.NewError(fiber.StatusNotFound, "this conversation has ended, please reload the chat")
		}
		return h.renderChat(c.Status(ucErr.Code.HTTPStatus()), conv, noticeFor(ucErr))
	case usecase.ErrorNotFound:
		return fiber.NewError(fiber.StatusNotFound, "this conversation has ended, please reload the chat")
	}
	slog.Error("chat submit failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	return fiber.NewError(fiber.StatusInternalServerError, "something went wrong")
}

func (h *PageHandler) renderChat(c fiber.Ctx, conv domain.Conversation, notice string) error {
	return c.Render("chat", fiber.Map{
		"Title":        "AI Policy Chatbot",
		"Nav":          "chat",
		"Conversation": conv,
		"Examples":     usecase.ExampleQuestions,
		"MaxLength":    h.maxLength,
		"Notice":       notice,
	})
}

func noticeFor(err *usecase.Error) string {
	switch err.Reason {
	case "empty_message":
		return "Please type a question first."
	case "message_too_long":
		return "That question is too long. Please shorten it and try again."
	case "conversation_busy":
		return "Please wait for the current answer before asking another question."
	}
	return "Please check your question and try again."
}
