package chatlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/medassist/telehealth-platform/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Entry is one stored chat-history item. Entries are append-only per patient.
type Entry struct {
	PatientID string `dynamodbav:"patientId"`
	CreatedAt string `dynamodbav:"createdAt"`
	Message   string `dynamodbav:"message"`
}

// Store persists chat-history entries to DynamoDB, keyed by patient with a
// timestamp sort key.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("chatlog: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("chatlog: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
		tracer:    otel.Tracer("telehealth.internal.chatlog"),
		now:       time.Now,
	}
}

// Append stores a new entry for the patient. Existing entries are never
// rewritten; the conditional put guards against sort-key collisions.
func (s *Store) Append(ctx context.Context, patientID, message string) error {
	if patientID == "" {
		return errors.New("chatlog: patientID required")
	}
	ctx, span := s.tracer.Start(ctx, "chatlog.append")
	defer span.End()

	entry := Entry{
		PatientID: patientID,
		CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
		Message:   message,
	}
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chatlog: marshal entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(createdAt)"),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chatlog: persist entry: %w", err)
	}
	return nil
}

// List returns the patient's history oldest-first. A patient with no entries
// gets an empty slice, not an error.
func (s *Store) List(ctx context.Context, patientID string) ([]string, error) {
	if patientID == "" {
		return nil, errors.New("chatlog: patientID required")
	}
	ctx, span := s.tracer.Start(ctx, "chatlog.list")
	defer span.End()

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("patientId = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: patientID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chatlog: query history: %w", err)
	}

	messages := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		var entry Entry
		if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
			s.logger.Warn("skipping undecodable chat-history item", "patient_id", patientID, "error", err)
			continue
		}
		messages = append(messages, entry.Message)
	}
	return messages, nil
}
