package dynamo

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedQueryClient struct {
	pages     []*dynamodb.QueryOutput
	calls     int
	startKeys []map[string]types.AttributeValue
}

func (c *pagedQueryClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.startKeys = append(c.startKeys, in.ExclusiveStartKey)
	out := c.pages[c.calls]
	c.calls++
	return out, nil
}

func TestQueryAllPages_FollowsLastEvaluatedKey(t *testing.T) {
	cursor := strKey("event_id", "e2")
	client := &pagedQueryClient{pages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{strKey("event_id", "e1"), strKey("event_id", "e2")},
			LastEvaluatedKey: cursor,
		},
		{
			Items: []map[string]types.AttributeValue{strKey("event_id", "e3")},
		},
	}}

	items, err := queryAllPages(context.Background(), client, &dynamodb.QueryInput{})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	require.Equal(t, 2, client.calls)
	assert.Empty(t, client.startKeys[0])
	assert.Equal(t, cursor, client.startKeys[1])
}

func TestQueryAllPages_SinglePage(t *testing.T) {
	client := &pagedQueryClient{pages: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{strKey("event_id", "e1")}},
	}}

	items, err := queryAllPages(context.Background(), client, &dynamodb.QueryInput{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, client.calls)
}

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"notification_status": "sent"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "notification_status"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"active":      false,
		"active_flag": 0,
		"updated_at":  "2026-01-01T00:00:00Z",
	}
	// Call twice to verify determinism.
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// Keys must be sorted: active < active_flag < updated_at
	assert.Equal(t, "active", ue1.Names["#f0"])
	assert.Equal(t, "active_flag", ue1.Names["#f1"])
	assert.Equal(t, "updated_at", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"active": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}
