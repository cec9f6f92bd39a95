package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brighthome/leadquiz/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoSessionStore persists quiz sessions to DynamoDB with a TTL, so an
// abandoned quiz expires on its own.
type DynamoSessionStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	logger    *logging.Logger
}

var _ SessionStore = (*DynamoSessionStore)(nil)

// NewDynamoSessionStore builds a store backed by the provided DynamoDB client.
func NewDynamoSessionStore(client dynamoAPI, tableName string, ttl time.Duration, logger *logging.Logger) *DynamoSessionStore {
	if client == nil {
		panic("quiz: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("quiz: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &DynamoSessionStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		logger:    logger,
	}
}

// Create inserts a new session, refusing to overwrite an existing ID.
func (s *DynamoSessionStore) Create(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("quiz: session cannot be nil")
	}
	if sess.ExpiresAt == 0 {
		sess.ExpiresAt = time.Now().UTC().Add(s.ttl).Unix()
	}

	item, err := attributevalue.MarshalMap(sess)
	if err != nil {
		return fmt.Errorf("quiz: failed to marshal session: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(sessionId)"),
	})
	if err != nil {
		return fmt.Errorf("quiz: failed to persist session: %w", err)
	}
	return nil
}

// Get fetches a session by ID.
func (s *DynamoSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"sessionId": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("quiz: failed to load session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrSessionNotFound
	}

	var sess Session
	if err := attributevalue.UnmarshalMap(out.Item, &sess); err != nil {
		return nil, fmt.Errorf("quiz: failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save overwrites the session after a step advance.
func (s *DynamoSessionStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("quiz: session cannot be nil")
	}
	sess.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	item, err := attributevalue.MarshalMap(sess)
	if err != nil {
		return fmt.Errorf("quiz: failed to marshal session: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("quiz: failed to save session: %w", err)
	}
	return nil
}
