package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-event-bus/internal/domain"
)

// SubscriptionRepo provides typed DynamoDB operations for the subscriptions table.
type SubscriptionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSubscriptionRepo(client *dynamodb.Client, tableName string) *SubscriptionRepo {
	return &SubscriptionRepo{client: client, tableName: tableName}
}

func (r *SubscriptionRepo) Put(ctx context.Context, s *domain.Subscription) error {
	if s.Active {
		s.ActiveFlag = 1
	} else {
		s.ActiveFlag = 0
	}
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SubscriptionRepo) Get(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("subscription_id", subscriptionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("subscription %s: %w", subscriptionID, domain.ErrNotFound)
	}
	var s domain.Subscription
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser queries the user_id GSI; includes inactive subscriptions.
func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	items, err := queryAllPages(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var subs []domain.Subscription
	if err := attributevalue.UnmarshalListOfMaps(items, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ListActiveByType queries the active_flag GSI and filters for subscriptions
// whose event_types set contains the given type. This hits the index, not a
// full table scan.
func (r *SubscriptionRepo) ListActiveByType(ctx context.Context, eventType string) ([]domain.Subscription, error) {
	items, err := queryAllPages(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("active_flag-index"),
		KeyConditionExpression: aws.String("active_flag = :one"),
		FilterExpression:       aws.String("contains(event_types, :t)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":t":   &types.AttributeValueMemberS{Value: eventType},
		},
	})
	if err != nil {
		return nil, err
	}
	var subs []domain.Subscription
	if err := attributevalue.UnmarshalListOfMaps(items, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Deactivate soft-deletes a subscription. The row is kept for audit.
func (r *SubscriptionRepo) Deactivate(ctx context.Context, subscriptionID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"active":      false,
		"active_flag": 0,
		"updated_at":  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("subscription_id", subscriptionID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
