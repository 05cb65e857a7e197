package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"policy-lens/internal/domain"
	"policy-lens/internal/usecase"
)

type failingChat struct {
	err error
}

func (f failingChat) Start(context.Context) (domain.Conversation, error) {
	return domain.Conversation{}, f.err
}

func (f failingChat) Conversation(context.Context, string) (domain.Conversation, error) {
	return domain.Conversation{}, f.err
}

func (f failingChat) Submit(context.Context, usecase.SubmitInput) (usecase.SubmitOutput, error) {
	return usecase.SubmitOutput{}, f.err
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestJSONUseCaseError_StatusAndLogKey(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "busy", err: &usecase.Error{Code: usecase.ErrorBusy, Reason: "conversation_busy"}, status: http.StatusConflict},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "store_read_error", Err: errors.New("boom")}, status: http.StatusInternalServerError},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLogs(t)
			app := fiber.New()
			h := NewConversationHandler(failingChat{err: tc.err})
			app.Get("/conversations/:id", h.Get)

			req, _ := http.NewRequest(http.MethodGet, "/conversations/conv-1", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			if tc.status >= http.StatusInternalServerError {
				require.Contains(t, logs.String(), `"err":"`)
				require.False(t, strings.Contains(logs.String(), `"error":"`))
			}
		})
	}
}
