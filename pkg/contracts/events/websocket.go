// Package events contains the event contracts pushed to dashboard pages over
// the WebSocket connection.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"

	// Dataset messages
	MessageTypeDatasetRefreshed MessageType = "dataset:refreshed"

	// MessageTypeHeartbeat is sent by pages to keep the connection alive
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// ConnectData is the payload of the greeting sent to a new client.
type ConnectData struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// DatasetRefreshed announces that a new copy of the dataset was fetched.
// Open dashboards reload when they receive it.
type DatasetRefreshed struct {
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loaded_at"`
}
