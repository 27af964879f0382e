package chatlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/medassist/telehealth-platform/pkg/logging"
)

type fakeDynamo struct {
	putInputs   []*dynamodb.PutItemInput
	putErr      error
	queryOutput *dynamodb.QueryOutput
	queryErr    error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInputs = append(f.putInputs, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryOutput, nil
}

func TestStoreAppend(t *testing.T) {
	client := &fakeDynamo{}
	store := NewStore(client, "chat_history", logging.Default())
	store.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	if err := store.Append(context.Background(), "patient-1", "hello"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(client.putInputs) != 1 {
		t.Fatalf("expected 1 put, got %d", len(client.putInputs))
	}
	item := client.putInputs[0].Item
	if got := item["patientId"].(*types.AttributeValueMemberS).Value; got != "patient-1" {
		t.Errorf("patientId: got %q", got)
	}
	if got := item["message"].(*types.AttributeValueMemberS).Value; got != "hello" {
		t.Errorf("message: got %q", got)
	}
	if *client.putInputs[0].ConditionExpression != "attribute_not_exists(createdAt)" {
		t.Errorf("missing append-only condition expression")
	}
}

func TestStoreAppendRequiresPatient(t *testing.T) {
	store := NewStore(&fakeDynamo{}, "chat_history", logging.Default())
	if err := store.Append(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for empty patientID")
	}
}

func TestStoreList(t *testing.T) {
	client := &fakeDynamo{
		queryOutput: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				{
					"patientId": &types.AttributeValueMemberS{Value: "patient-1"},
					"createdAt": &types.AttributeValueMemberS{Value: "2024-06-01T12:00:00Z"},
					"message":   &types.AttributeValueMemberS{Value: "first"},
				},
				{
					"patientId": &types.AttributeValueMemberS{Value: "patient-1"},
					"createdAt": &types.AttributeValueMemberS{Value: "2024-06-02T12:00:00Z"},
					"message":   &types.AttributeValueMemberS{Value: "second"},
				},
			},
		},
	}
	store := NewStore(client, "chat_history", logging.Default())

	messages, err := store.List(context.Background(), "patient-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(messages) != 2 || messages[0] != "first" || messages[1] != "second" {
		t.Errorf("unexpected messages: %v", messages)
	}
}

func TestStoreListEmpty(t *testing.T) {
	client := &fakeDynamo{queryOutput: &dynamodb.QueryOutput{}}
	store := NewStore(client, "chat_history", logging.Default())

	messages, err := store.List(context.Background(), "patient-2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty history, got %v", messages)
	}
}

func TestStoreListError(t *testing.T) {
	client := &fakeDynamo{queryErr: errors.New("throttled")}
	store := NewStore(client, "chat_history", logging.Default())

	if _, err := store.List(context.Background(), "patient-1"); err == nil {
		t.Fatal("expected query error to propagate")
	}
}
