package connectiondao

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/savaki/ddb"
	"github.com/tj/assert"
)

// withTable runs callback against a throwaway table on DynamoDB local.
func withTable(t *testing.T, callback func(ctx context.Context, dao *DAO)) {
	endpoint := os.Getenv("DYNAMODB_LOCAL")
	if endpoint == "" {
		t.Skip("DYNAMODB_LOCAL not set")
	}

	var (
		s = session.Must(session.NewSession(aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials("blah", "blah", "")).
			WithEndpoint(endpoint).
			WithRegion("us-east-1")))
		api       = dynamodb.New(s)
		client    = ddb.New(api)
		tableName = fmt.Sprintf("table-%v", time.Now().UnixNano())
		table     = client.MustTable(tableName, Connection{})
		dao       = New(api, tableName)
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := table.CreateTableIfNotExists(ctx)
	assert.Nil(t, err)
	defer table.DeleteTableIfExists(ctx)

	callback(ctx, dao)
}

func TestDAO(t *testing.T) {
	withTable(t, func(ctx context.Context, dao *DAO) {
		now := time.Now()
		conn := Connection{
			ConnectionID: "c1",
			Endpoint:     "https://api.example.com/dev",
			Status:       StatusConnected,
			ConnectedAt:  now.UnixMilli(),
			TTL:          now.Add(2 * time.Hour).Unix(),
		}

		err := dao.Put(ctx, conn)
		assert.Nil(t, err)

		// connected but not joined: invisible to broadcasts
		conns, err := dao.QueryJoined(ctx, "acme")
		assert.Nil(t, err)
		assert.Len(t, conns, 0)

		err = dao.Join(ctx, "c1", "acme", now)
		assert.Nil(t, err)

		got, err := dao.Get(ctx, "c1")
		assert.Nil(t, err)
		assert.Equal(t, StatusJoined, got.Status)
		assert.Equal(t, "acme", got.TenantID)
		assert.Equal(t, conn.Endpoint, got.Endpoint)

		conns, err = dao.QueryJoined(ctx, "acme")
		assert.Nil(t, err)
		assert.Len(t, conns, 1)
		assert.Equal(t, "c1", conns[0].ConnectionID)

		conns, err = dao.QueryJoined(ctx, "globex")
		assert.Nil(t, err)
		assert.Len(t, conns, 0)

		// re-join switches tenant
		err = dao.Join(ctx, "c1", "globex", now)
		assert.Nil(t, err)
		conns, err = dao.QueryJoined(ctx, "globex")
		assert.Nil(t, err)
		assert.Len(t, conns, 1)

		err = dao.Delete(ctx, "c1")
		assert.Nil(t, err)

		// double delete is a no-op
		err = dao.Delete(ctx, "c1")
		assert.Nil(t, err)

		_, err = dao.Get(ctx, "c1")
		assert.Error(t, err)
	})
}

func TestDeleteExpired(t *testing.T) {
	withTable(t, func(ctx context.Context, dao *DAO) {
		now := time.Now()

		expired := Connection{
			ConnectionID: "old",
			Status:       StatusConnected,
			ConnectedAt:  now.Add(-3 * time.Hour).UnixMilli(),
			TTL:          now.Add(-time.Hour).Unix(),
		}
		live := Connection{
			ConnectionID: "fresh",
			Status:       StatusConnected,
			ConnectedAt:  now.UnixMilli(),
			TTL:          now.Add(2 * time.Hour).Unix(),
		}
		assert.Nil(t, dao.Put(ctx, expired))
		assert.Nil(t, dao.Put(ctx, live))

		deleted, err := dao.DeleteExpired(ctx, now)
		assert.Nil(t, err)
		assert.Equal(t, 1, deleted)

		_, err = dao.Get(ctx, "old")
		assert.Error(t, err)

		got, err := dao.Get(ctx, "fresh")
		assert.Nil(t, err)
		assert.Equal(t, "fresh", got.ConnectionID)
	})
}
