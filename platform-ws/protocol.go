package platformws

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound actions recognized on the $default route.
const (
	ActionHeartbeat  = "heartbeat"
	ActionJoinTenant = "join-tenant"
)

// Outbound envelope types.
const (
	TypeHeartbeatResponse = "heartbeat-response"
	TypeJoined            = "joined"
	TypeNewEvent          = "new-event"
	TypeEcho              = "echo"
)

// InboundMessage is a client message on the $default route. Original holds
// the message as received, for echoing back unrecognized actions.
type InboundMessage struct {
	Action   string          `json:"action"`
	TenantID string          `json:"tenantId"`
	Original json.RawMessage `json:"-"`
}

// ParseMessage parses an inbound message body. It never fails: the transport
// contract tolerates unknown payloads, so a malformed body parses as an
// unknown action and gets echoed like any other.
func ParseMessage(body string) InboundMessage {
	var msg InboundMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return InboundMessage{Original: json.RawMessage(`{"action":"unknown"}`)}
	}
	msg.Original = json.RawMessage(body)
	return msg
}

// Envelope is the wire format for broadcast pushes.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// NewEventEnvelope builds the envelope pushed to every joined connection of a
// tenant when an event is stored.
func NewEventEnvelope(data interface{}, now time.Time) Envelope {
	return Envelope{
		Type:      TypeNewEvent,
		Data:      data,
		Timestamp: now.UnixMilli(),
	}
}

// HeartbeatResponse returns the acknowledgement sent back for a heartbeat.
func HeartbeatResponse(now time.Time) []byte {
	b, _ := json.Marshal(struct {
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
	}{
		Type:      TypeHeartbeatResponse,
		Timestamp: now.UnixMilli(),
	})
	return b
}

// JoinedMessage returns the acknowledgement sent after a join-tenant.
func JoinedMessage(tenantID string) []byte {
	b, _ := json.Marshal(struct {
		Type     string `json:"type"`
		TenantID string `json:"tenantId"`
		Message  string `json:"message"`
	}{
		Type:     TypeJoined,
		TenantID: tenantID,
		Message:  fmt.Sprintf("Successfully joined tenant %v", tenantID),
	})
	return b
}

// EchoMessage wraps an unrecognized inbound message in an echo envelope.
func EchoMessage(original json.RawMessage, now time.Time) []byte {
	b, _ := json.Marshal(struct {
		Type            string          `json:"type"`
		OriginalMessage json.RawMessage `json:"originalMessage"`
		Timestamp       int64           `json:"timestamp"`
	}{
		Type:            TypeEcho,
		OriginalMessage: original,
		Timestamp:       now.UnixMilli(),
	})
	return b
}
