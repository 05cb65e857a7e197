package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"policy-lens/internal/domain"
)

const (
	pkPrefixConv = "CONV#"
	skState      = "STATE#"
	defaultTTL   = 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps each conversation as a single item so that the thinking
// flag and the message list change together. Writes are guarded by an
// optimistic version check.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewDynamoStore creates a DynamoDB-backed conversation store.
func NewDynamoStore(api dynamodbAPI, tableName string, ttl time.Duration) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DynamoStore{api: api, tableName: tableName, ttl: ttl, now: time.Now}, nil
}

// convPK returns the DynamoDB partition key for a conversation.
func convPK(conversationID string) string {
	return pkPrefixConv + conversationID
}

func (s *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: convPK(id)},
		"SK": &types.AttributeValueMemberS{Value: skState},
	}
}

// Create writes a new conversation; an existing id is rejected.
func (s *DynamoStore) Create(ctx context.Context, conv domain.Conversation) error {
	if strings.TrimSpace(conv.ID) == "" {
		return errors.New("repository: Create: conversation id is required")
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                s.conversationItem(conv),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrConversationExists
		}
		return fmt.Errorf("repository: Create: %w", err)
	}
	return nil
}

// Get reads a conversation with strong consistency.
func (s *DynamoStore) Get(ctx context.Context, id string) (domain.Conversation, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: Get: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Conversation{}, ErrConversationNotFound
	}
	conv, err := itemToConversation(out.Item)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: Get decode: %w", err)
	}
	conv.ID = id
	return conv, nil
}

// Update reads, mutates and conditionally writes the conversation. A
// concurrent writer causes ErrConflict; the caller decides whether to retry.
func (s *DynamoStore) Update(ctx context.Context, id string, fn UpdateFunc) (domain.Conversation, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	expected := conv.Version
	if err := fn(&conv); err != nil {
		return domain.Conversation{}, err
	}
	conv.Version = expected + 1
	conv.UpdatedAt = s.now().UTC()

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                s.conversationItem(conv),
		ConditionExpression: aws.String("#v = :v"),
		ExpressionAttributeNames: map[string]string{
			"#v": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.Itoa(expected)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return domain.Conversation{}, ErrConflict
		}
		return domain.Conversation{}, fmt.Errorf("repository: Update: %w", err)
	}
	return conv, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// ttlValue returns the Unix expiry timestamp for an item written now.
func (s *DynamoStore) ttlValue() int64 {
	return s.now().Add(s.ttl).Unix()
}

func (s *DynamoStore) conversationItem(conv domain.Conversation) map[string]types.AttributeValue {
	msgs := make([]types.AttributeValue, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		msgs = append(msgs, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"id":   &types.AttributeValueMemberN{Value: strconv.Itoa(m.ID)},
			"role": &types.AttributeValueMemberS{Value: m.Role},
			"text": &types.AttributeValueMemberS{Value: m.Text},
		}})
	}
	updated := conv.UpdatedAt
	if updated.IsZero() {
		updated = s.now().UTC()
	}
	item := s.key(conv.ID)
	item["conversationId"] = &types.AttributeValueMemberS{Value: conv.ID}
	item["messages"] = &types.AttributeValueMemberL{Value: msgs}
	item["thinking"] = &types.AttributeValueMemberBOOL{Value: conv.Thinking}
	item["version"] = &types.AttributeValueMemberN{Value: strconv.Itoa(conv.Version)}
	item["lastActivity"] = &types.AttributeValueMemberS{Value: updated.UTC().Format(time.RFC3339Nano)}
	item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.ttlValue(), 10)}
	if conv.Thinking && !conv.ThinkingSince.IsZero() {
		item["thinkingSince"] = &types.AttributeValueMemberS{Value: conv.ThinkingSince.UTC().Format(time.RFC3339Nano)}
	}
	return item
}

// itemToConversation converts a DynamoDB attribute map to a Conversation.
func itemToConversation(item map[string]types.AttributeValue) (domain.Conversation, error) {
	version, err := intAttr(item, "version")
	if err != nil {
		return domain.Conversation{}, err
	}
	rawMsgs, ok := item["messages"].(*types.AttributeValueMemberL)
	if !ok {
		return domain.Conversation{}, errors.New("repository: attribute \"messages\" is not a list")
	}
	msgs := make([]domain.Message, 0, len(rawMsgs.Value))
	for i, v := range rawMsgs.Value {
		m, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			return domain.Conversation{}, fmt.Errorf("repository: message %d is not a map", i)
		}
		id, err := intAttr(m.Value, "id")
		if err != nil {
			return domain.Conversation{}, err
		}
		role, err := strAttr(m.Value, "role")
		if err != nil {
			return domain.Conversation{}, err
		}
		text, err := strAttr(m.Value, "text")
		if err != nil {
			return domain.Conversation{}, err
		}
		msgs = append(msgs, domain.Message{ID: id, Role: role, Text: text})
	}

	conv := domain.Conversation{Messages: msgs, Version: version}
	if b, ok := item["thinking"].(*types.AttributeValueMemberBOOL); ok {
		conv.Thinking = b.Value
	}
	if s, err := strAttr(item, "thinkingSince"); err == nil {
		conv.ThinkingSince, _ = time.Parse(time.RFC3339Nano, s)
	}
	if s, err := strAttr(item, "lastActivity"); err == nil {
		conv.UpdatedAt, _ = time.Parse(time.RFC3339Nano, s)
	}
	return conv, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
