package eventdao

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
)

// Query narrows a tenant's event history. Zero values mean unbounded.
type Query struct {
	Start     int64 // unix millis, inclusive
	End       int64 // unix millis, inclusive
	EventType string
}

// DAO provides access to the analytics events table.
type DAO struct {
	table     *ddb.Table
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// New creates a new events DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table:     ddb.New(api).MustTable(tableName, Event{}),
		api:       api,
		tableName: tableName,
	}
}

// Put stores an event record.
func (d *DAO) Put(ctx context.Context, event Event) error {
	return d.table.Put(event).RunWithContext(ctx)
}

// QueryByTenant returns a tenant's events, newest first, optionally bounded
// by time range and filtered by event type.
func (d *DAO) QueryByTenant(ctx context.Context, tenantID string, q Query) ([]Event, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("tenant_id = :tenant_id"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":tenant_id": {S: aws.String(tenantID)},
		},
		ScanIndexForward: aws.Bool(false),
	}

	if q.Start != 0 || q.End != 0 {
		input.KeyConditionExpression = aws.String("tenant_id = :tenant_id AND #ts BETWEEN :start AND :end")
		input.ExpressionAttributeNames = map[string]*string{"#ts": aws.String("timestamp")}
		input.ExpressionAttributeValues[":start"] = &dynamodb.AttributeValue{N: aws.String(fmt.Sprintf("%d", q.Start))}
		input.ExpressionAttributeValues[":end"] = &dynamodb.AttributeValue{N: aws.String(fmt.Sprintf("%d", q.End))}
	}
	if q.EventType != "" {
		input.FilterExpression = aws.String("event_type = :event_type")
		input.ExpressionAttributeValues[":event_type"] = &dynamodb.AttributeValue{S: aws.String(q.EventType)}
	}

	var events []Event
	var unmarshalErr error
	err := d.api.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		var chunk []Event
		if unmarshalErr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &chunk); unmarshalErr != nil {
			return false
		}
		events = append(events, chunk...)
		return true
	})
	if err == nil {
		err = unmarshalErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query events for tenant %v: %w", tenantID, err)
	}
	return events, nil
}
