package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"policy-lens/internal/domain"
	"policy-lens/internal/simulator"
	"policy-lens/internal/usecase"
)

type stubChat struct {
	conv domain.Conversation
	out  usecase.SubmitOutput
	err  error
	in   usecase.SubmitInput
	id   string
}

func (s *stubChat) Start(context.Context) (domain.Conversation, error) {
	return s.conv, s.err
}

func (s *stubChat) Conversation(_ context.Context, id string) (domain.Conversation, error) {
	s.id = id
	return s.conv, s.err
}

func (s *stubChat) Submit(_ context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error) {
	s.in = in
	return s.out, s.err
}

type countingRecorder struct{ runs []int }

func (r *countingRecorder) Simulation(active int) { r.runs = append(r.runs, active) }

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func makeEvent(method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, chat *stubChat, rec SimulationRecorder) *Handler {
	t.Helper()
	h, err := NewHandler(chat, rec)
	require.NoError(t, err)
	return h
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil, nil)
	require.Error(t, err)
}

func TestHandle_StartConversation(t *testing.T) {
	chat := &stubChat{conv: domain.NewConversation("conv-1", testTime)}
	h := newTestHandler(t, chat, nil)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/conversations", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := parseBody[domain.Conversation](t, resp.Body)
	require.Equal(t, "conv-1", out.ID)
	require.Len(t, out.Messages, 1)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestHandle_GetConversation(t *testing.T) {
	chat := &stubChat{conv: domain.NewConversation("conv-1", testTime)}
	h := newTestHandler(t, chat, nil)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/conversations/conv-1/", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "conv-1", chat.id)
}

func TestHandle_SubmitMessage(t *testing.T) {
	chat := &stubChat{out: usecase.SubmitOutput{
		Outcome: usecase.OutcomeDeclined,
		Reply:   domain.Message{ID: 3, Role: domain.RoleAssistant, Text: usecase.DeclineText},
	}}
	h := newTestHandler(t, chat, nil)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/conversations/conv-1/messages", `{"text":"what's the weather"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.SubmitInput{ConversationID: "conv-1", Text: "what's the weather"}, chat.in)

	out := parseBody[messageResponse](t, resp.Body)
	require.Equal(t, usecase.OutcomeDeclined, out.Outcome)
	require.Equal(t, usecase.DeclineText, out.Reply.Text)
}

func TestHandle_InvalidBody(t *testing.T) {
	h := newTestHandler(t, &stubChat{}, nil)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/conversations/conv-1/messages", `not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_message"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "not found", err: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "conversation_not_found"}, status: http.StatusNotFound, code: string(usecase.ErrorNotFound)},
		{name: "busy", err: &usecase.Error{Code: usecase.ErrorBusy, Reason: "conversation_busy"}, status: http.StatusConflict, code: string(usecase.ErrorBusy)},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "store_write_error"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &stubChat{err: tc.err}, nil)

			resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/conversations/conv-1/messages", `{"text":"insurance"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
		})
	}
}

func TestHandle_Simulate(t *testing.T) {
	rec := &countingRecorder{}
	h := newTestHandler(t, &stubChat{}, rec)

	event := makeEvent(http.MethodGet, "/simulate", "")
	event.MultiValueQueryStringParameters = map[string][]string{"toggle": {"free-programs"}}
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := parseBody[simulator.Result](t, resp.Body)
	require.Equal(t, []simulator.Toggle{simulator.FreePrograms}, out.Active)
	require.Equal(t, []int{44, 81, 40}, []int{out.Scores[0].Access, out.Scores[1].Access, out.Scores[2].Access})

	resp, err = h.Handle(context.Background(), makeEvent(http.MethodPost, "/simulate", `{"toggles":["mobile-clinics"]}`))
	require.NoError(t, err)
	out = parseBody[simulator.Result](t, resp.Body)
	require.Equal(t, []int{46, 79, 43}, []int{out.Scores[0].Access, out.Scores[1].Access, out.Scores[2].Access})
	require.Equal(t, []int{1, 1}, rec.runs)
}

func TestHandle_SimulateRejectsUnknownToggle(t *testing.T) {
	h := newTestHandler(t, &stubChat{}, nil)

	event := makeEvent(http.MethodGet, "/simulate", "")
	event.QueryStringParameters = map[string]string{"toggle": "tax-cuts"}
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandle_UnknownRouteAndMethod(t *testing.T) {
	h := newTestHandler(t, &stubChat{}, nil)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/ask", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = h.Handle(context.Background(), makeEvent(http.MethodDelete, "/conversations/conv-1", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h := newTestHandler(t, &stubChat{}, nil)

	event := makeEvent(http.MethodGet, "/simulate", "")
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
