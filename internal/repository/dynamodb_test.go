package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"policy-lens/internal/domain"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustNewStore(t *testing.T, db *fakeDynamo) *DynamoStore {
	t.Helper()
	s, err := NewDynamoStore(db, "test-table", time.Hour)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

func storedItem(t *testing.T, conv domain.Conversation) map[string]types.AttributeValue {
	t.Helper()
	s := mustNewStore(t, &fakeDynamo{})
	return s.conversationItem(conv)
}

func TestNewDynamoStore_Validates(t *testing.T) {
	_, err := NewDynamoStore(nil, "t", time.Hour)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")

	_, err = NewDynamoStore(&fakeDynamo{}, " ", time.Hour)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}

func TestDynamoCreate_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewStore(t, db)
	require.NoError(t, s.Create(context.Background(), domain.NewConversation("abc", fixedNow)))

	in := db.lastPutInput
	require.Equal(t, "attribute_not_exists(PK)", *in.ConditionExpression)
	require.Equal(t, "CONV#abc", in.Item["PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, skState, in.Item["SK"].(*types.AttributeValueMemberS).Value)
	require.Len(t, in.Item["messages"].(*types.AttributeValueMemberL).Value, 1)
	require.Equal(t, strconv.FormatInt(fixedNow.Add(time.Hour).Unix(), 10), in.Item["ttl"].(*types.AttributeValueMemberN).Value)
}

func TestDynamoCreate_Errors(t *testing.T) {
	s := mustNewStore(t, &fakeDynamo{putErr: &types.ConditionalCheckFailedException{}})
	require.ErrorIs(t, s.Create(context.Background(), domain.NewConversation("abc", fixedNow)), ErrConversationExists)

	s = mustNewStore(t, &fakeDynamo{putErr: errors.New("throttled")})
	err := s.Create(context.Background(), domain.NewConversation("abc", fixedNow))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Create")

	err = s.Create(context.Background(), domain.Conversation{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "id is required")
}

func TestDynamoGet_RoundTrip(t *testing.T) {
	conv := domain.NewConversation("abc", fixedNow)
	conv.Append(domain.RoleUser, "Why does insurance matter?")
	conv.StartThinking(fixedNow)
	conv.Version = 3

	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: storedItem(t, conv)}}
	s := mustNewStore(t, db)
	got, err := s.Get(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "abc", got.ID)
	require.Equal(t, conv.Messages, got.Messages)
	require.True(t, got.Thinking)
	require.True(t, fixedNow.Equal(got.ThinkingSince))
	require.Equal(t, 3, got.Version)
	require.True(t, *db.lastGetInput.ConsistentRead)
}

func TestDynamoGet_NotFound(t *testing.T) {
	s := mustNewStore(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	_, err := s.Get(context.Background(), "abc")
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestDynamoGet_Errors(t *testing.T) {
	s := mustNewStore(t, &fakeDynamo{getErr: errors.New("ResourceNotFoundException")})
	_, err := s.Get(context.Background(), "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Get")

	malformed := map[string]types.AttributeValue{
		"PK":       &types.AttributeValueMemberS{Value: "CONV#abc"},
		"version":  &types.AttributeValueMemberS{Value: "bad"},
		"messages": &types.AttributeValueMemberL{},
	}
	s = mustNewStore(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: malformed}})
	_, err = s.Get(context.Background(), "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a number")
}

func TestDynamoUpdate_UsesVersionCondition(t *testing.T) {
	conv := domain.NewConversation("abc", fixedNow)
	conv.Version = 4
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: storedItem(t, conv)}}
	s := mustNewStore(t, db)

	updated, err := s.Update(context.Background(), "abc", func(c *domain.Conversation) error {
		c.Append(domain.RoleUser, "hello")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 5, updated.Version)
	require.Len(t, updated.Messages, 2)

	in := db.lastPutInput
	require.Equal(t, "#v = :v", *in.ConditionExpression)
	require.Equal(t, "4", in.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberN).Value)
	require.Equal(t, "5", in.Item["version"].(*types.AttributeValueMemberN).Value)
}

func TestDynamoUpdate_Conflict(t *testing.T) {
	conv := domain.NewConversation("abc", fixedNow)
	db := &fakeDynamo{
		getOut: &dynamodb.GetItemOutput{Item: storedItem(t, conv)},
		putErr: &types.ConditionalCheckFailedException{},
	}
	s := mustNewStore(t, db)
	_, err := s.Update(context.Background(), "abc", func(*domain.Conversation) error { return nil })
	require.ErrorIs(t, err, ErrConflict)
}

func TestDynamoUpdate_CallbackErrorSkipsWrite(t *testing.T) {
	conv := domain.NewConversation("abc", fixedNow)
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: storedItem(t, conv)}}
	s := mustNewStore(t, db)
	boom := errors.New("boom")
	_, err := s.Update(context.Background(), "abc", func(*domain.Conversation) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Nil(t, db.lastPutInput)
}

func TestConvPK(t *testing.T) {
	require.Equal(t, "CONV#my-conv", convPK("my-conv"))
}
