package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var errClientClosed = errors.New("client closed")

// Client is one websocket connection attached to a session's stream
type Client struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Conn      *websocket.Conn

	ConnectedAt time.Time
	lastActive  time.Time
	isActive    bool
	sequence    int
	mutex       sync.RWMutex
}

func NewClient(sessionID uuid.UUID, conn *websocket.Conn) *Client {
	now := time.Now()
	return &Client{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Conn:        conn,
		ConnectedAt: now,
		lastActive:  now,
		isActive:    true,
	}
}

// SendWebSocketMessage sends a message to the WebSocket client. Writes are
// serialized; gorilla allows one writer at a time.
func (c *Client) SendWebSocketMessage(msgType MessageType, data interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.isActive {
		return errClientClosed
	}

	c.sequence++
	msg := WSMessage{
		Type:      msgType,
		Data:      data,
		SessionID: c.SessionID.String(),
		Sequence:  c.sequence,
		Timestamp: time.Now(),
	}
	return c.Conn.WriteJSON(msg)
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message string) error {
	return c.SendWebSocketMessage(MessageTypeError, ErrorMessage{
		Code:    code,
		Message: message,
	})
}

func (c *Client) Touch() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lastActive = time.Now()
}

func (c *Client) LastActive() time.Time {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lastActive
}

func (c *Client) IsAlive() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.isActive
}

// Close sends a close frame with the given reason and closes the connection.
// Safe to call more than once.
func (c *Client) Close(code int, reason string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.isActive {
		return nil
	}
	c.isActive = false

	deadline := time.Now().Add(time.Second)
	_ = c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	return c.Conn.Close()
}
