package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-event-bus/internal/domain"
)

// DeliveryRepo provides typed DynamoDB operations for the delivery_attempts
// table, keyed by (notification_id, channel).
type DeliveryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDeliveryRepo(client *dynamodb.Client, tableName string) *DeliveryRepo {
	return &DeliveryRepo{client: client, tableName: tableName}
}

func (r *DeliveryRepo) Put(ctx context.Context, a *domain.DeliveryAttempt) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal delivery attempt: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DeliveryRepo) Get(ctx context.Context, notificationID string, channel domain.Channel) (*domain.DeliveryAttempt, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("notification_id", notificationID, "channel", string(channel)),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("delivery attempt %s/%s: %w", notificationID, channel, domain.ErrNotFound)
	}
	var a domain.DeliveryAttempt
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByNotification returns every channel's attempt for one notification.
func (r *DeliveryRepo) ListByNotification(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
	items, err := queryAllPages(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("notification_id = :nid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":nid": &types.AttributeValueMemberS{Value: notificationID},
		},
	})
	if err != nil {
		return nil, err
	}
	var attempts []domain.DeliveryAttempt
	if err := attributevalue.UnmarshalListOfMaps(items, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

// ListDue queries the attempt_status GSI for failed attempts whose
// next_retry_at has passed. now is ms epoch.
func (r *DeliveryRepo) ListDue(ctx context.Context, now int64) ([]domain.DeliveryAttempt, error) {
	items, err := queryAllPages(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("attempt_status-next_retry_at-index"),
		KeyConditionExpression: aws.String("attempt_status = :failed AND next_retry_at <= :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: string(domain.AttemptFailed)},
			":now":    &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
	})
	if err != nil {
		return nil, err
	}
	var attempts []domain.DeliveryAttempt
	if err := attributevalue.UnmarshalListOfMaps(items, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}
