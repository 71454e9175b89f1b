package connectiondao

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
)

// DAO provides access to the WebSocket connections table.
type DAO struct {
	table     *ddb.Table
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// New creates a new connections DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table:     ddb.New(api).MustTable(tableName, Connection{}),
		api:       api,
		tableName: tableName,
	}
}

// Put stores a connection record, overwriting any prior record with the same
// connection id.
func (d *DAO) Put(ctx context.Context, conn Connection) error {
	return d.table.Put(conn).RunWithContext(ctx)
}

// Get retrieves a connection record by id.
func (d *DAO) Get(ctx context.Context, connectionID string) (*Connection, error) {
	var conn Connection
	if err := d.table.Get(connectionID).ScanWithContext(ctx, &conn); err != nil {
		if ddb.IsItemNotFoundError(err) {
			return nil, fmt.Errorf("connection %v not found", connectionID)
		}
		return nil, fmt.Errorf("failed to get connection %v: %w", connectionID, err)
	}
	return &conn, nil
}

// Delete removes a connection record by id. Deleting an absent record is a
// no-op.
func (d *DAO) Delete(ctx context.Context, connectionID string) error {
	return d.table.Delete(connectionID).RunWithContext(ctx)
}

// Join binds a connection to a tenant. Re-joining overwrites the tenant id,
// which doubles as tenant switch for an already-joined connection.
func (d *DAO) Join(ctx context.Context, connectionID, tenantID string, joinedAt time.Time) error {
	_, err := d.api.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"pk": {S: aws.String(connectionID)},
		},
		UpdateExpression: aws.String("SET tenant_id = :tenant_id, joined_at = :joined_at, #status = :status"),
		ExpressionAttributeNames: map[string]*string{
			"#status": aws.String("status"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":tenant_id": {S: aws.String(tenantID)},
			":joined_at": {N: aws.String(fmt.Sprintf("%d", joinedAt.UnixMilli()))},
			":status":    {S: aws.String(StatusJoined)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to join connection %v to tenant %v: %w", connectionID, tenantID, err)
	}
	return nil
}

// QueryJoined returns all joined connections for a tenant using the
// TenantIndex GSI.
func (d *DAO) QueryJoined(ctx context.Context, tenantID string) ([]Connection, error) {
	var conns []Connection
	err := d.table.Query("#TenantID = ?", tenantID).
		IndexName("TenantIndex").
		FindAllWithContext(ctx, &conns)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections for tenant %v: %w", tenantID, err)
	}

	joined := conns[:0]
	for _, conn := range conns {
		if conn.Joined() {
			joined = append(joined, conn)
		}
	}
	return joined, nil
}

// DeleteExpired removes connection records whose ttl has passed. DynamoDB's
// own TTL expiry is lazy (up to 48h behind), so the sweeper bounds staleness.
func (d *DAO) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	input := &dynamodb.ScanInput{
		TableName:            aws.String(d.tableName),
		FilterExpression:     aws.String("#ttl <= :now"),
		ProjectionExpression: aws.String("pk"),
		ExpressionAttributeNames: map[string]*string{
			"#ttl": aws.String("ttl"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":now": {N: aws.String(fmt.Sprintf("%d", now.Unix()))},
		},
	}

	var expired []string
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		for _, item := range page.Items {
			if pk, ok := item["pk"]; ok && pk.S != nil {
				expired = append(expired, *pk.S)
			}
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan for expired connections: %w", err)
	}

	deleted := 0
	for _, connectionID := range expired {
		if err := d.Delete(ctx, connectionID); err != nil {
			return deleted, fmt.Errorf("failed to delete expired connection %v: %w", connectionID, err)
		}
		deleted++
	}
	return deleted, nil
}
