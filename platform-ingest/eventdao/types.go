package eventdao

// Event is an analytics event stored in DynamoDB, partitioned by tenant and
// ordered by ingestion time.
type Event struct {
	TenantID  string `dynamodbav:"tenant_id" ddb:"hash"`
	Timestamp int64  `dynamodbav:"timestamp" ddb:"range"`

	ID        string `dynamodbav:"id"`
	EventType string `dynamodbav:"event_type"`
	EventData string `dynamodbav:"event_data"` // JSON-encoded payload
	UserID    string `dynamodbav:"user_id,omitempty"`
}
