package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr  string
	CORSOrigins string // Comma-separated allowed origins
	RateLimit   int    // Requests per minute per IP, 0 disables

	// Model
	APIKey       string // env: POLICY_LENS_API_KEY, may be empty
	ParamPrefix  string // SSM prefix used when APIKey is empty
	ModelBaseURL string
	Model        string
	MaxTokens    int
	ModelTimeout time.Duration
	ClientTitle  string // sent as X-Title

	// Conversation state
	StateTable       string // DynamoDB table, empty selects the in-memory store
	ConversationTTL  time.Duration
	ThinkingLease    time.Duration
	MaxMessageLength int

	// Topic filter
	MarkersFile string // optional YAML override of the marker lists
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),
		RateLimit:   getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		APIKey:       strings.TrimSpace(os.Getenv("POLICY_LENS_API_KEY")),
		ParamPrefix:  strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
		ModelBaseURL: getEnv("MODEL_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:        getEnv("MODEL", "openai/gpt-4o-mini"),
		MaxTokens:    getEnvInt("MODEL_MAX_TOKENS", 400),
		ModelTimeout: getEnvDuration("MODEL_TIMEOUT", 60*time.Second),
		ClientTitle:  getEnv("CLIENT_TITLE", "Policy Lens"),

		StateTable:       getEnv("STATE_TABLE", ""),
		ConversationTTL:  getEnvDuration("CONVERSATION_TTL", 24*time.Hour),
		ThinkingLease:    getEnvDuration("THINKING_LEASE", 2*time.Minute),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 1000),

		MarkersFile: getEnv("MARKERS_FILE", ""),
	}
	cfg.ThinkingLease = minThinkingLease(cfg.ThinkingLease, cfg.ModelTimeout)
	return cfg
}

// leaseMargin is how much longer than the model timeout a thinking flag
// must stay valid.
const leaseMargin = 30 * time.Second

// minThinkingLease raises lease so a model call that is still within its
// timeout is never treated as abandoned.
func minThinkingLease(lease, modelTimeout time.Duration) time.Duration {
	if floor := modelTimeout + leaseMargin; lease < floor {
		slog.Warn("THINKING_LEASE is shorter than MODEL_TIMEOUT; raising it", "lease", lease, "model_timeout", modelTimeout, "raised_to", floor)
		return floor
	}
	return lease
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// UsesParamStore reports whether the API key should be fetched from SSM.
func (c *Config) UsesParamStore() bool {
	return c.APIKey == "" && c.ParamPrefix != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
