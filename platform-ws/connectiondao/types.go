package connectiondao

// Connection statuses. A joined connection always carries a tenant id; a
// connected one never does.
const (
	StatusConnected = "connected"
	StatusJoined    = "joined"
)

// Connection represents a WebSocket connection stored in DynamoDB.
type Connection struct {
	ConnectionID string `dynamodbav:"pk" ddb:"hash"`
	Endpoint     string `dynamodbav:"endpoint"`
	TenantID     string `dynamodbav:"tenant_id,omitempty" ddb:"gsi_hash:TenantIndex"`
	Status       string `dynamodbav:"status"`
	ConnectedAt  int64  `dynamodbav:"connected_at"`
	JoinedAt     int64  `dynamodbav:"joined_at,omitempty"`
	TTL          int64  `dynamodbav:"ttl"`
}

// Joined reports whether the connection is a broadcast target.
func (c Connection) Joined() bool {
	return c.Status == StatusJoined && c.TenantID != ""
}
