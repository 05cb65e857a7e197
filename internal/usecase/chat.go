package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"policy-lens/internal/domain"
	"policy-lens/internal/topic"
)

const (
	defaultMaxMessage    = 1000
	defaultThinkingLease = 2 * time.Minute
	finalizeAttempts     = 3
)

// Outcome is the terminal state of one submission.
type Outcome string

const (
	OutcomeDeflected      Outcome = "deflected"
	OutcomeDeclined       Outcome = "declined"
	OutcomeConfigError    Outcome = "config_error"
	OutcomeAnswered       Outcome = "answered"
	OutcomeFallback       Outcome = "fallback" // answered with the placeholder reply
	OutcomeUnreachable    Outcome = "unreachable"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeBusy           Outcome = "busy"
)

type ConversationStore interface {
	Create(ctx context.Context, conv domain.Conversation) error
	Get(ctx context.Context, id string) (domain.Conversation, error)
	Update(ctx context.Context, id string, fn func(conv *domain.Conversation) error) (domain.Conversation, error)
}

type LLMClient interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (json.RawMessage, error)
}

type Classifier interface {
	Classify(text string) topic.Verdict
}

// Recorder receives chat telemetry. A nil Recorder is allowed.
type Recorder interface {
	ChatOutcome(outcome string)
	ModelLatency(d time.Duration)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// errBusy aborts a store update when a model call is already outstanding.
var errBusy = errors.New("usecase: conversation is waiting for a reply")

type ChatOptions struct {
	MaxMessageLength int
	ThinkingLease    time.Duration
	Recorder         Recorder
}

// ChatService mediates between a conversation and the policy model.
type ChatService struct {
	store         ConversationStore
	llm           LLMClient
	classifier    Classifier
	recorder      Recorder
	maxMessageLen int
	thinkingLease time.Duration
	now           func() time.Time
}

type SubmitInput struct {
	ConversationID string
	Text           string
}

type SubmitOutput struct {
	Outcome      Outcome
	Reply        domain.Message
	Conversation domain.Conversation
}

func NewChatService(store ConversationStore, llm LLMClient, classifier Classifier, opts ChatOptions) (*ChatService, error) {
	if store == nil {
		return nil, errors.New("usecase: conversation store must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if classifier == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = defaultMaxMessage
	}
	if opts.ThinkingLease <= 0 {
		opts.ThinkingLease = defaultThinkingLease
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ChatService{
		store:         store,
		llm:           llm,
		classifier:    classifier,
		recorder:      recorder,
		maxMessageLen: opts.MaxMessageLength,
		thinkingLease: opts.ThinkingLease,
		now:           time.Now,
	}, nil
}

// Start creates a new conversation seeded with the welcome message.
func (s *ChatService) Start(ctx context.Context) (domain.Conversation, error) {
	conv := domain.NewConversation(newUUID(), s.now().UTC())
	if err := s.store.Create(ctx, conv); err != nil {
		return domain.Conversation{}, newError(ErrorInternal, "store_create_error", err)
	}
	return conv, nil
}

// Conversation returns the current state of a conversation.
func (s *ChatService) Conversation(ctx context.Context, id string) (domain.Conversation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Conversation{}, newError(ErrorInvalidInput, "missing_conversation_id", nil)
	}
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Conversation{}, storeError(err, "store_read_error")
	}
	return conv, nil
}

// Submit appends a user message and the assistant's answer to a conversation.
// Medical and off-topic messages are answered locally; everything else goes
// to the model. A submission while a reply is pending changes nothing and
// returns ErrorBusy.
func (s *ChatService) Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return SubmitOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(text) > s.maxMessageLen {
		return SubmitOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	id := strings.TrimSpace(in.ConversationID)
	if id == "" {
		return SubmitOutput{}, newError(ErrorInvalidInput, "missing_conversation_id", nil)
	}

	var out SubmitOutput
	var err error
	switch s.classifier.Classify(text) {
	case topic.Medical:
		out, err = s.answerLocally(ctx, id, text, OutcomeDeflected, DeflectionText)
	case topic.OffTopic:
		out, err = s.answerLocally(ctx, id, text, OutcomeDeclined, DeclineText)
	default:
		out, err = s.answerWithModel(ctx, id, text)
	}
	if err != nil {
		var ucErr *Error
		if errors.As(err, &ucErr) && ucErr.Code == ErrorBusy {
			s.recorder.ChatOutcome(string(OutcomeBusy))
		}
		return SubmitOutput{}, err
	}
	s.recorder.ChatOutcome(string(out.Outcome))
	return out, nil
}

func (s *ChatService) answerLocally(ctx context.Context, id, text string, outcome Outcome, replyText string) (SubmitOutput, error) {
	now := s.now()
	var reply domain.Message
	conv, err := s.store.Update(ctx, id, func(c *domain.Conversation) error {
		if c.Busy(now, s.thinkingLease) {
			return errBusy
		}
		c.Append(domain.RoleUser, text)
		reply = c.Append(domain.RoleAssistant, replyText)
		return nil
	})
	if err != nil {
		return SubmitOutput{}, storeError(err, "store_write_error")
	}
	return SubmitOutput{Outcome: outcome, Reply: reply, Conversation: conv}, nil
}

func (s *ChatService) answerWithModel(ctx context.Context, id, text string) (SubmitOutput, error) {
	now := s.now()
	conv, err := s.store.Update(ctx, id, func(c *domain.Conversation) error {
		if c.Busy(now, s.thinkingLease) {
			return errBusy
		}
		c.Append(domain.RoleUser, text)
		c.StartThinking(now)
		return nil
	})
	if err != nil {
		return SubmitOutput{}, storeError(err, "store_write_error")
	}

	// The turn must resolve even if the caller goes away, otherwise the
	// conversation would stay marked as thinking.
	callCtx := context.WithoutCancel(ctx)
	replyText, outcome := s.fetchAnswer(callCtx, conv.ChatHistory())

	var reply domain.Message
	finish := func(c *domain.Conversation) error {
		reply = c.Append(domain.RoleAssistant, replyText)
		c.StopThinking()
		return nil
	}
	for attempt := 1; ; attempt++ {
		conv, err = s.store.Update(callCtx, id, finish)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConversationConflict) || attempt == finalizeAttempts {
			slog.Error("failed to store assistant reply", "conversation_id", id, "err", err)
			return SubmitOutput{}, storeError(err, "store_write_error")
		}
	}
	return SubmitOutput{Outcome: outcome, Reply: reply, Conversation: conv}, nil
}

// fetchAnswer calls the model once and maps every failure to a fixed reply.
func (s *ChatService) fetchAnswer(ctx context.Context, history []domain.ChatMessage) (string, Outcome) {
	start := time.Now()
	content, err := s.llm.Complete(ctx, domain.CompletionRequest{Messages: buildPromptMessages(history)})
	if err != nil {
		if errors.Is(err, domain.ErrCredentialMissing) {
			slog.Warn("policy model credential is not configured")
			return ConfigErrorText, OutcomeConfigError
		}
		s.recorder.ModelLatency(time.Since(start))
		if status, ok := upstreamStatusCode(err); ok {
			slog.Warn("policy model returned non-success status", "status", status)
			return UnreachableText, OutcomeUnreachable
		}
		slog.Error("policy model call failed", "err", err)
		return TransportErrorText, OutcomeTransportError
	}
	s.recorder.ModelLatency(time.Since(start))

	text, ok := extractReply(content)
	if !ok {
		return text, OutcomeFallback
	}
	return text, OutcomeAnswered
}

// storeError maps store failures onto usecase errors.
func storeError(err error, reason string) error {
	switch {
	case errors.Is(err, errBusy), errors.Is(err, domain.ErrConversationConflict):
		return newError(ErrorBusy, "conversation_busy", nil)
	case errors.Is(err, domain.ErrConversationNotFound):
		return newError(ErrorNotFound, "conversation_not_found", nil)
	}
	return newError(ErrorInternal, reason, err)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

type noopRecorder struct{}

func (noopRecorder) ChatOutcome(string)         {}
func (noopRecorder) ModelLatency(time.Duration) {}

var newUUID = func() string {
	return uuid.NewString()
}
