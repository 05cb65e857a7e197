// Package app wires configuration into the chat service shared by the
// Lambda and HTTP server entry points.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"policy-lens/internal/config"
	"policy-lens/internal/integrations/openai"
	"policy-lens/internal/integrations/paramstore"
	"policy-lens/internal/repository"
	"policy-lens/internal/topic"
	"policy-lens/internal/usecase"
)

// NewChatService builds the chat mediator. AWS is only contacted when a
// state table or parameter prefix is configured.
func NewChatService(ctx context.Context, cfg *config.Config, rec usecase.Recorder) (*usecase.ChatService, error) {
	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	var store usecase.ConversationStore
	if cfg.StateTable != "" {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ds, err := repository.NewDynamoStore(awsdynamodb.NewFromConfig(c), cfg.StateTable, cfg.ConversationTTL)
		if err != nil {
			return nil, err
		}
		store = ds
		slog.Info("using DynamoDB conversation store", "table", cfg.StateTable)
	} else {
		store = repository.NewMemoryStore(cfg.ConversationTTL)
		slog.Info("using in-memory conversation store")
	}

	var keys openai.KeySource = openai.StaticKey(cfg.APIKey)
	if cfg.UsesParamStore() {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(c))
		if err != nil {
			return nil, err
		}
		ks, err := paramstore.NewKeySource(ssmClient, cfg.ParamPrefix)
		if err != nil {
			return nil, err
		}
		keys = ks
	} else if cfg.APIKey == "" {
		slog.Warn("POLICY_LENS_API_KEY is not set; chat answers will report a configuration error")
	}

	llm, err := openai.NewClient(keys,
		openai.WithBaseURL(cfg.ModelBaseURL),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.ModelTimeout}),
		openai.WithModel(cfg.Model),
		openai.WithTitle(cfg.ClientTitle),
		openai.WithMaxTokens(cfg.MaxTokens),
	)
	if err != nil {
		return nil, err
	}

	return usecase.NewChatService(store, llm, classifier, usecase.ChatOptions{
		MaxMessageLength: cfg.MaxMessageLength,
		ThinkingLease:    cfg.ThinkingLease,
		Recorder:         rec,
	})
}

func newClassifier(cfg *config.Config) (*topic.Classifier, error) {
	markers, err := config.LoadMarkers(cfg.MarkersFile)
	if err != nil {
		return nil, err
	}
	if markers == nil {
		return topic.Default(), nil
	}
	slog.Info("loaded topic markers", "file", cfg.MarkersFile, "medical", len(markers.Medical), "policy", len(markers.Policy))
	return topic.NewClassifier(markers.Medical, markers.Policy), nil
}
