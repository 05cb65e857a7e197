package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"policy-lens/internal/domain"
	"policy-lens/internal/simulator"
	"policy-lens/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type ChatUseCase interface {
	Start(ctx context.Context) (domain.Conversation, error)
	Conversation(ctx context.Context, id string) (domain.Conversation, error)
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
}

// SimulationRecorder is notified of every simulator run. Optional.
type SimulationRecorder interface {
	Simulation(active int)
}

type Handler struct {
	chat ChatUseCase
	sims SimulationRecorder
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type simulateRequest struct {
	Toggles []string `json:"toggles"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Outcome      usecase.Outcome     `json:"outcome"`
	Reply        domain.Message      `json:"reply"`
	Conversation domain.Conversation `json:"conversation"`
}

func NewHandler(chat ChatUseCase, sims SimulationRecorder) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{chat: chat, sims: sims}, nil
}

// Handle routes an API Gateway proxy event:
//
//	GET|POST /simulate
//	POST     /conversations
//	GET      /conversations/{id}
//	POST     /conversations/{id}/messages
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := slog.With("correlation_id", correlationID, "method", req.HTTPMethod, "path", req.Path)

	segments := splitPath(req.Path)
	switch {
	case len(segments) == 1 && segments[0] == "simulate":
		if req.HTTPMethod != http.MethodGet && req.HTTPMethod != http.MethodPost {
			return methodNotAllowed(correlationID), nil
		}
		return h.simulate(req, correlationID), nil

	case len(segments) == 1 && segments[0] == "conversations":
		if req.HTTPMethod != http.MethodPost {
			return methodNotAllowed(correlationID), nil
		}
		conv, err := h.chat.Start(ctx)
		if err != nil {
			return errorFromUseCase(logger, err, correlationID), nil
		}
		return jsonResponse(http.StatusCreated, conv, correlationID), nil

	case len(segments) == 2 && segments[0] == "conversations":
		if req.HTTPMethod != http.MethodGet {
			return methodNotAllowed(correlationID), nil
		}
		conv, err := h.chat.Conversation(ctx, segments[1])
		if err != nil {
			return errorFromUseCase(logger, err, correlationID), nil
		}
		return jsonResponse(http.StatusOK, conv, correlationID), nil

	case len(segments) == 3 && segments[0] == "conversations" && segments[2] == "messages":
		if req.HTTPMethod != http.MethodPost {
			return methodNotAllowed(correlationID), nil
		}
		var in messageRequest
		if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"}, correlationID), nil
		}
		out, err := h.chat.Submit(ctx, usecase.SubmitInput{ConversationID: segments[1], Text: in.Text})
		if err != nil {
			return errorFromUseCase(logger, err, correlationID), nil
		}
		logger.Info("chat message handled", "conversation_id", segments[1], "outcome", out.Outcome)
		return jsonResponse(http.StatusOK, messageResponse{Outcome: out.Outcome, Reply: out.Reply, Conversation: out.Conversation}, correlationID), nil
	}

	return jsonResponse(http.StatusNotFound, errorResponse{Error: string(usecase.ErrorNotFound), Reason: "unknown_route"}, correlationID), nil
}

func (h *Handler) simulate(req events.APIGatewayProxyRequest, correlationID string) events.APIGatewayProxyResponse {
	var names []string
	if req.HTTPMethod == http.MethodPost && strings.TrimSpace(req.Body) != "" {
		var in simulateRequest
		if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"}, correlationID)
		}
		names = in.Toggles
	} else {
		names = queryValues(req, "toggle")
	}

	toggles, err := simulator.ParseToggles(names)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "unknown_toggle"}, correlationID)
	}
	result := simulator.Run(toggles)
	if h.sims != nil {
		h.sims.Simulation(len(result.Active))
	}
	return jsonResponse(http.StatusOK, result, correlationID)
}

func errorFromUseCase(logger *slog.Logger, err error, correlationID string) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		logger.Error("unexpected error", "err", err)
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}, correlationID)
	}
	status := ucErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	}
	return jsonResponse(status, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}, correlationID)
}

func methodNotAllowed(correlationID string) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"}, correlationID)
}

func jsonResponse(status int, body any, correlationID string) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(payload),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func queryValues(req events.APIGatewayProxyRequest, key string) []string {
	if vs := req.MultiValueQueryStringParameters[key]; len(vs) > 0 {
		return vs
	}
	if v, ok := req.QueryStringParameters[key]; ok {
		return []string{v}
	}
	return nil
}

func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
