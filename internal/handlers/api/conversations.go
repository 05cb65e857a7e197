package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"policy-lens/internal/domain"
	"policy-lens/internal/usecase"
)

type ChatService interface {
	Start(ctx context.Context) (domain.Conversation, error)
	Conversation(ctx context.Context, id string) (domain.Conversation, error)
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
}

// ConversationHandler handles chat conversations via JSON API.
type ConversationHandler struct {
	chat ChatService
}

// NewConversationHandler creates a new API conversation handler.
func NewConversationHandler(chat ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

// Create starts a conversation seeded with the welcome message.
func (h *ConversationHandler) Create(c fiber.Ctx) error {
	conv, err := h.chat.Start(c.Context())
	if err != nil {
		return jsonUseCaseError(c, err)
	}
	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, conv)
}

// Get returns a conversation by ID.
func (h *ConversationHandler) Get(c fiber.Ctx) error {
	conv, err := h.chat.Conversation(c.Context(), c.Params("id"))
	if err != nil {
		return jsonUseCaseError(c, err)
	}
	return jsonSuccess(c, conv)
}

// PostMessage submits a user message and returns the assistant's reply.
func (h *ConversationHandler) PostMessage(c fiber.Ctx) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	out, err := h.chat.Submit(c.Context(), usecase.SubmitInput{ConversationID: c.Params("id"), Text: body.Text})
	if err != nil {
		return jsonUseCaseError(c, err)
	}
	return jsonSuccess(c, fiber.Map{
		"outcome":      out.Outcome,
		"reply":        out.Reply,
		"conversation": out.Conversation,
	})
}
