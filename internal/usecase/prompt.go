package usecase

import (
	"bytes"
	"encoding/json"
	"strings"

	"policy-lens/internal/domain"
)

// Fixed assistant replies.
const (
	DeflectionText     = "I’m here to explain cancer policy, not to give medical advice. For questions about your health, test results, or what you personally should do, please talk with a health care professional who knows your situation."
	DeclineText        = "This chatbot is focused on cancer policy, insurance barriers, and access to screening. I’m not able to answer questions outside of that topic."
	ConfigErrorText    = "The policy chatbot is not fully configured yet because an API key is missing. Please check the environment settings."
	UnreachableText    = "I could not reach the policy model right now. Please try again in a moment."
	TransportErrorText = "Something went wrong while contacting the policy model. Please check your connection and try again."
	FallbackText       = "I had trouble generating a response. Please try asking your question again."
	RetryText          = "I had trouble generating a response. Please try again."
)

// ExampleQuestions are suggested on the chat page.
var ExampleQuestions = []string{
	"Why does insurance affect cancer screening?",
	"How do policies help underserved communities?",
	"What does ACS CAN advocate for?",
}

func buildSystemPrompt() string {
	return strings.Join([]string{
		"You are an educational assistant for the Policy Lens cancer policy web app.",
		"Your job is to explain cancer policy in simple, calm language for students and community members with no prior knowledge.",
		"Focus on: cancer screening basics, how insurance rules affect access, how policies can improve or limit access for urban, suburban, and underserved communities, and what advocacy groups like the American Cancer Society Cancer Action Network (ACS CAN) work toward.",
		"You must NOT give medical advice, interpret test results, or tell people what they personally should do.",
		"For any medical or diagnostic question, politely say you cannot answer and encourage the user to talk with a health care professional.",
		"Keep answers short, clear, and free of jargon.",
	}, " ")
}

// buildPromptMessages prepends the system instruction to the whole conversation.
func buildPromptMessages(history []domain.ChatMessage) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+1)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: buildSystemPrompt()})
	return append(messages, history...)
}

type contentSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// extractReply turns raw message content into reply text. Content is either a
// JSON string or a list of typed segments whose text fields are joined with
// single spaces. When ok is false, text is the placeholder to show instead:
// FallbackText for missing content, RetryText for content that yields nothing.
func extractReply(raw json.RawMessage) (text string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return FallbackText, false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return RetryText, false
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, true
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return RetryText, false
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			var seg contentSegment
			// Segments that are not objects contribute an empty string.
			_ = json.Unmarshal(item, &seg)
			parts = append(parts, seg.Text)
		}
		if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
			return joined, true
		}
	}
	return RetryText, false
}
