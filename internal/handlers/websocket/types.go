package websocket

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// server to client
	MessageTypeEvent  MessageType = "event"
	MessageTypeStatus MessageType = "status"
	MessageTypeError  MessageType = "error"

	// client to server
	MessageTypeControl MessageType = "control"
)

// Control actions a client may send
const (
	ActionStart  = "start"
	ActionStop   = "stop"
	ActionReset  = "reset"
	ActionStatus = "status"
)

// WSMessage represents the structure of WebSocket messages
type WSMessage struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Sequence  int         `json:"sequence,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// inboundMessage keeps Data undecoded until the type is known
type inboundMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ControlMessage drives the session lifecycle from the stream
type ControlMessage struct {
	Action string `json:"action"`
}

// ErrorMessage contains error information
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
