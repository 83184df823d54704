package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-event-bus/internal/domain"
)

// EventRepo provides typed DynamoDB operations for the append-only events table.
// Events are never updated or deleted.
type EventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEventRepo(client *dynamodb.Client, tableName string) *EventRepo {
	return &EventRepo{client: client, tableName: tableName}
}

// Put appends an event. A condition on event_id guards against accidental
// overwrite of an already-persisted event.
func (r *EventRepo) Put(ctx context.Context, e *domain.Event) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(event_id)"),
	})
	return err
}

func (r *EventRepo) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("event_id", eventID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
	}
	var e domain.Event
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByUser queries the user_id-timestamp GSI newest-first, following
// LastEvaluatedKey across pages, and pages in memory. Returns the page, the
// total match count and whether more remain.
func (r *EventRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Event, int, bool, error) {
	items, err := queryAllPages(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-timestamp-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	})
	if err != nil {
		return nil, 0, false, err
	}
	var events []domain.Event
	if err := attributevalue.UnmarshalListOfMaps(items, &events); err != nil {
		return nil, 0, false, err
	}
	// The GSI orders by timestamp; break ties by id for a stable order.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp > events[j].Timestamp
		}
		return events[i].EventID > events[j].EventID
	})

	total := len(events)
	if offset >= total {
		return []domain.Event{}, total, false, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return events[offset:end], total, end < total, nil
}
